// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"context"
	"net/http"
	"net/url"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
)

// userInfoPayload covers every provider's "who am I" shape.
type userInfoPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Data     struct {
		ID          string `json:"id"`
		OpenID      string `json:"open_id"`
		Username    string `json:"username"`
		DisplayName string `json:"display_name"`
		User        struct {
			OpenID      string `json:"open_id"`
			DisplayName string `json:"display_name"`
		} `json:"user"`
	} `json:"data"`
}

func (b *Broker) userInfoRequest(prov *Provider, accessToken string) (string, http.Header) {
	switch prov.Platform {
	case helpers.Instagram:
		q := url.Values{"fields": {"id,username"}, "access_token": {accessToken}}
		return prov.UserInfoURL + "?" + q.Encode(), nil
	case helpers.Facebook:
		q := url.Values{"fields": {"id,name"}, "access_token": {accessToken}}
		return prov.UserInfoURL + "?" + q.Encode(), nil
	case helpers.TikTok:
		q := url.Values{"fields": {"open_id,display_name"}}
		return prov.UserInfoURL + "?" + q.Encode(), common.BearerHeader(accessToken)
	default:
		return prov.UserInfoURL, common.BearerHeader(accessToken)
	}
}

// FetchUserInfo identifies the account behind accessToken and derives its
// display username.
func (b *Broker) FetchUserInfo(ctx context.Context, platform, accessToken string) (*UserInfo, error) {
	prov, err := b.provider(platform)
	if err != nil {
		return nil, err
	}
	if accessToken == "" {
		return nil, ErrNoAccessToken
	}

	endpoint, header := b.userInfoRequest(prov, accessToken)
	var payload userInfoPayload
	if err := b.client.GetJSON(ctx, prov.Platform, "fetchUserInfo", endpoint, header, &payload); err != nil {
		return nil, err
	}

	info := &UserInfo{ID: firstNonEmpty(payload.ID, payload.Data.ID, payload.Data.OpenID, payload.Data.User.OpenID)}

	switch prov.Platform {
	case helpers.Instagram:
		info.Username = handle(firstNonEmpty(payload.Username, payload.ID))
	case helpers.Twitter:
		info.Username = handle(payload.Data.Username)
	case helpers.TikTok:
		info.Username = handle(firstNonEmpty(payload.Data.DisplayName, payload.Data.User.DisplayName))
	case helpers.Facebook:
		info.Username = firstNonEmpty(payload.Name, payload.ID)
	case helpers.YouTube:
		info.Username = firstNonEmpty(payload.Name, payload.Email)
	}
	if info.Username == "" {
		info.Username = "@" + string(prov.Platform) + "_user"
	}
	if info.ID == "" {
		info.ID = info.Username
	}
	return info, nil
}

// ValidateAccessToken reports whether the provider accepts accessToken.
// Network failures count as invalid.
func (b *Broker) ValidateAccessToken(ctx context.Context, platform, accessToken string) bool {
	prov, err := b.provider(platform)
	if err != nil || accessToken == "" {
		return false
	}
	endpoint, header := b.userInfoRequest(prov, accessToken)
	return b.client.GetJSON(ctx, prov.Platform, "validateAccessToken", endpoint, header, nil) == nil
}

func handle(s string) string {
	if s == "" {
		return ""
	}
	return "@" + s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

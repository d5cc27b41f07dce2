// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const (
	instagramGraphURL    = "https://graph.instagram.com"
	instagramInsightsURL = "https://graph.facebook.com/v18.0"
)

type Instagram struct {
	Client      *common.Client
	AccessToken string
	GraphURL    string
	InsightsURL string
}

func NewInstagram(c *common.Client, accessToken string) *Instagram {
	return &Instagram{
		Client:      c,
		AccessToken: accessToken,
		GraphURL:    instagramGraphURL,
		InsightsURL: instagramInsightsURL,
	}
}

type instagramInsights struct {
	Data []struct {
		Name   string `json:"name"`
		Values []struct {
			Value common.FlexInt `json:"value"`
		} `json:"values"`
	} `json:"data"`
}

func (d instagramInsights) value(name string) int64 {
	for _, m := range d.Data {
		if m.Name == name && len(m.Values) > 0 {
			return m.Values[0].Value.Int64()
		}
	}
	return 0
}

type instagramMedia struct {
	Data []struct {
		ID            string         `json:"id"`
		Caption       string         `json:"caption"`
		MediaType     string         `json:"media_type"`
		MediaURL      string         `json:"media_url"`
		ThumbnailURL  string         `json:"thumbnail_url"`
		Permalink     string         `json:"permalink"`
		Timestamp     string         `json:"timestamp"`
		LikeCount     common.FlexInt `json:"like_count"`
		CommentsCount common.FlexInt `json:"comments_count"`
	} `json:"data"`
}

func (s *Instagram) Platform() helpers.Platform {
	return helpers.Instagram
}

// FetchMetrics needs a working profile call. The follow-up insights call only
// succeeds for business accounts, so its failure leaves the counters at zero.
func (s *Instagram) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	var profile struct {
		AccountType string         `json:"account_type"`
		MediaCount  common.FlexInt `json:"media_count"`
	}
	q := url.Values{"fields": {"account_type,media_count"}, "access_token": {s.AccessToken}}
	if err := s.Client.GetJSON(ctx, helpers.Instagram, "fetchMetrics", s.GraphURL+"/me?"+q.Encode(), nil, &profile); err != nil {
		return common.Metrics{}, err
	}

	var insights instagramInsights
	q = url.Values{"metric": {"follower_count,impressions,reach,profile_views"}, "period": {"day"}, "access_token": {s.AccessToken}}
	if err := s.Client.GetJSON(ctx, helpers.Instagram, "fetchInsights", s.InsightsURL+"/me/insights?"+q.Encode(), nil, &insights); err != nil {
		logger.Log.Warn("Instagram insights unavailable",
			zap.String("account_type", profile.AccountType),
			zap.Error(err),
		)
	}

	return common.Metrics{
		Followers:   insights.value("follower_count"),
		Impressions: insights.value("impressions"),
		Reach:       insights.value("reach"),
	}, nil
}

func (s *Instagram) FetchPosts(ctx context.Context, limit int) ([]common.Post, error) {
	var media instagramMedia
	q := url.Values{
		"fields":       {"id,caption,media_type,media_url,thumbnail_url,permalink,timestamp,like_count,comments_count"},
		"limit":        {strconv.Itoa(limit)},
		"access_token": {s.AccessToken},
	}
	if err := s.Client.GetJSON(ctx, helpers.Instagram, "fetchPosts", s.GraphURL+"/me/media?"+q.Encode(), nil, &media); err != nil {
		return nil, err
	}

	posts := make([]common.Post, 0, len(media.Data))
	for _, m := range media.Data {
		image := m.MediaURL
		if m.MediaType == "VIDEO" && m.ThumbnailURL != "" {
			image = m.ThumbnailURL
		}
		posts = append(posts, common.Post{
			PostID:   m.ID,
			Content:  common.CleanText(m.Caption),
			ImageURL: image,
			Likes:    m.LikeCount.Int64(),
			Comments: m.CommentsCount.Int64(),
			PostedAt: common.ParseTimestamp(m.Timestamp),
		})
	}
	return posts, nil
}

// RefreshAccessToken extends a long-lived token. Instagram has no separate refresh token.
func (s *Instagram) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	var res struct {
		AccessToken string         `json:"access_token"`
		TokenType   string         `json:"token_type"`
		ExpiresIn   common.FlexInt `json:"expires_in"`
	}
	q := url.Values{"grant_type": {"ig_refresh_token"}, "access_token": {s.AccessToken}}
	if err := s.Client.GetJSON(ctx, helpers.Instagram, "refreshAccessToken", s.GraphURL+"/refresh_access_token?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, errEmptyToken(helpers.Instagram)
	}
	return newToken(res.AccessToken, "", res.TokenType, res.ExpiresIn.Int64()), nil
}

func (s *Instagram) IsTokenValid(ctx context.Context) bool {
	q := url.Values{"fields": {"id"}, "access_token": {s.AccessToken}}
	return s.Client.GetJSON(ctx, helpers.Instagram, "isTokenValid", s.GraphURL+"/me?"+q.Encode(), nil, nil) == nil
}

func newToken(accessToken, refreshToken, tokenType string, expiresIn int64) *oauth2.Token {
	t := &oauth2.Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
	}
	if expiresIn > 0 {
		t.Expiry = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return t
}

// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"golang.org/x/oauth2"
)

const tiktokAPIURL = "https://open-api.tiktok.com"

type TikTok struct {
	Client       *common.Client
	AccessToken  string
	RefreshToken string
	ClientKey    string
	ClientSecret string
	APIURL       string
}

func NewTikTok(c *common.Client, accessToken, refreshToken, clientKey, clientSecret string) *TikTok {
	return &TikTok{
		Client:       c,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ClientKey:    clientKey,
		ClientSecret: clientSecret,
		APIURL:       tiktokAPIURL,
	}
}

type tiktokUserInfo struct {
	Data struct {
		FollowerCount  common.FlexInt `json:"follower_count"`
		FollowingCount common.FlexInt `json:"following_count"`
		User           struct {
			FollowerCount  common.FlexInt `json:"follower_count"`
			FollowingCount common.FlexInt `json:"following_count"`
		} `json:"user"`
	} `json:"data"`
}

type tiktokVideoList struct {
	Data struct {
		Videos []struct {
			ID            string         `json:"id"`
			Title         string         `json:"title"`
			CoverImageURL string         `json:"cover_image_url"`
			LikeCount     common.FlexInt `json:"like_count"`
			CommentCount  common.FlexInt `json:"comment_count"`
			ShareCount    common.FlexInt `json:"share_count"`
			ViewCount     common.FlexInt `json:"view_count"`
			CreateTime    common.FlexInt `json:"create_time"`
		} `json:"videos"`
	} `json:"data"`
}

func (s *TikTok) Platform() helpers.Platform {
	return helpers.TikTok
}

// FetchMetrics reads counters from data or, in the newer shape, data.user.
func (s *TikTok) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	var info tiktokUserInfo
	if err := s.Client.GetJSON(ctx, helpers.TikTok, "fetchMetrics", s.APIURL+"/user/info/", common.BearerHeader(s.AccessToken), &info); err != nil {
		return common.Metrics{}, err
	}

	followers := info.Data.FollowerCount.Int64()
	if followers == 0 {
		followers = info.Data.User.FollowerCount.Int64()
	}
	following := info.Data.FollowingCount.Int64()
	if following == 0 {
		following = info.Data.User.FollowingCount.Int64()
	}
	return common.Metrics{Followers: followers, Following: following}, nil
}

func (s *TikTok) FetchPosts(ctx context.Context, limit int) ([]common.Post, error) {
	var list tiktokVideoList
	endpoint := s.APIURL + "/video/list/?" + url.Values{"max_count": {strconv.Itoa(limit)}}.Encode()
	if err := s.Client.GetJSON(ctx, helpers.TikTok, "fetchPosts", endpoint, common.BearerHeader(s.AccessToken), &list); err != nil {
		return nil, err
	}

	posts := make([]common.Post, 0, len(list.Data.Videos))
	for _, v := range list.Data.Videos {
		posts = append(posts, common.Post{
			PostID:   v.ID,
			Content:  common.CleanText(v.Title),
			ImageURL: v.CoverImageURL,
			Likes:    v.LikeCount.Int64(),
			Comments: v.CommentCount.Int64(),
			Shares:   v.ShareCount.Int64(),
			Views:    v.ViewCount.Int64(),
			PostedAt: time.Unix(v.CreateTime.Int64(), 0).UTC(),
		})
	}
	return posts, nil
}

func (s *TikTok) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	if s.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	form := url.Values{
		"client_key":    {s.ClientKey},
		"client_secret": {s.ClientSecret},
		"grant_type":    {"refresh_token"},
		"refresh_token": {s.RefreshToken},
	}

	type tokenFields struct {
		AccessToken  string         `json:"access_token"`
		RefreshToken string         `json:"refresh_token"`
		ExpiresIn    common.FlexInt `json:"expires_in"`
	}
	var res struct {
		tokenFields
		Data tokenFields `json:"data"`
	}
	if err := s.Client.PostForm(ctx, helpers.TikTok, "refreshAccessToken", s.APIURL+"/oauth/refresh_token/", form, &res); err != nil {
		return nil, err
	}

	fields := res.Data
	if fields.AccessToken == "" {
		fields = res.tokenFields
	}
	if fields.AccessToken == "" {
		return nil, errEmptyToken(helpers.TikTok)
	}
	return newToken(fields.AccessToken, fields.RefreshToken, "bearer", fields.ExpiresIn.Int64()), nil
}

func (s *TikTok) IsTokenValid(ctx context.Context) bool {
	return s.Client.GetJSON(ctx, helpers.TikTok, "isTokenValid", s.APIURL+"/user/info/", common.BearerHeader(s.AccessToken), nil) == nil
}

// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"context"
	"net/url"
	"strconv"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"golang.org/x/oauth2"
)

const facebookGraphURL = "https://graph.facebook.com/v18.0"

type Facebook struct {
	Client       *common.Client
	AccessToken  string
	ClientID     string
	ClientSecret string
	GraphURL     string
}

func NewFacebook(c *common.Client, accessToken, clientID, clientSecret string) *Facebook {
	return &Facebook{
		Client:       c,
		AccessToken:  accessToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		GraphURL:     facebookGraphURL,
	}
}

type facebookSummary struct {
	Summary struct {
		TotalCount common.FlexInt `json:"total_count"`
	} `json:"summary"`
}

type facebookFeed struct {
	Data []struct {
		ID          string          `json:"id"`
		Message     string          `json:"message"`
		FullPicture string          `json:"full_picture"`
		CreatedTime string          `json:"created_time"`
		Likes       facebookSummary `json:"likes"`
		Comments    facebookSummary `json:"comments"`
		Shares      struct {
			Count common.FlexInt `json:"count"`
		} `json:"shares"`
	} `json:"data"`
}

func (s *Facebook) Platform() helpers.Platform {
	return helpers.Facebook
}

func (s *Facebook) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	var page struct {
		FollowersCount common.FlexInt `json:"followers_count"`
		FanCount       common.FlexInt `json:"fan_count"`
	}
	q := url.Values{"fields": {"followers_count,fan_count"}, "access_token": {s.AccessToken}}
	if err := s.Client.GetJSON(ctx, helpers.Facebook, "fetchMetrics", s.GraphURL+"/me?"+q.Encode(), nil, &page); err != nil {
		return common.Metrics{}, err
	}

	followers := page.FollowersCount.Int64()
	if followers == 0 {
		followers = page.FanCount.Int64()
	}
	return common.Metrics{Followers: followers}, nil
}

func (s *Facebook) FetchPosts(ctx context.Context, limit int) ([]common.Post, error) {
	var feed facebookFeed
	q := url.Values{
		"fields":       {"id,message,full_picture,created_time,likes.summary(true),comments.summary(true),shares"},
		"limit":        {strconv.Itoa(limit)},
		"access_token": {s.AccessToken},
	}
	if err := s.Client.GetJSON(ctx, helpers.Facebook, "fetchPosts", s.GraphURL+"/me/posts?"+q.Encode(), nil, &feed); err != nil {
		return nil, err
	}

	posts := make([]common.Post, 0, len(feed.Data))
	for _, p := range feed.Data {
		posts = append(posts, common.Post{
			PostID:   p.ID,
			Content:  common.CleanText(p.Message),
			ImageURL: p.FullPicture,
			Likes:    p.Likes.Summary.TotalCount.Int64(),
			Comments: p.Comments.Summary.TotalCount.Int64(),
			Shares:   p.Shares.Count.Int64(),
			PostedAt: common.ParseTimestamp(p.CreatedTime),
		})
	}
	return posts, nil
}

// RefreshAccessToken trades the current token for a fresh long-lived one.
func (s *Facebook) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	q := url.Values{
		"grant_type":        {"fb_exchange_token"},
		"client_id":         {s.ClientID},
		"client_secret":     {s.ClientSecret},
		"fb_exchange_token": {s.AccessToken},
	}

	var res struct {
		AccessToken string         `json:"access_token"`
		TokenType   string         `json:"token_type"`
		ExpiresIn   common.FlexInt `json:"expires_in"`
	}
	if err := s.Client.GetJSON(ctx, helpers.Facebook, "refreshAccessToken", s.GraphURL+"/oauth/access_token?"+q.Encode(), nil, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, errEmptyToken(helpers.Facebook)
	}
	return newToken(res.AccessToken, "", res.TokenType, res.ExpiresIn.Int64()), nil
}

func (s *Facebook) IsTokenValid(ctx context.Context) bool {
	q := url.Values{"fields": {"id"}, "access_token": {s.AccessToken}}
	return s.Client.GetJSON(ctx, helpers.Facebook, "isTokenValid", s.GraphURL+"/me?"+q.Encode(), nil, nil) == nil
}

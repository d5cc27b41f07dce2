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

const twitterAPIURL = "https://api.twitter.com/2"

// The timeline endpoint rejects max_results outside this window.
const (
	twitterMinResults = 5
	twitterMaxResults = 100
)

type Twitter struct {
	Client      *common.Client
	AccessToken string
	APIURL      string
}

func NewTwitter(c *common.Client, accessToken string) *Twitter {
	return &Twitter{Client: c, AccessToken: accessToken, APIURL: twitterAPIURL}
}

type twitterUser struct {
	Data struct {
		ID            string `json:"id"`
		Username      string `json:"username"`
		PublicMetrics struct {
			FollowersCount common.FlexInt `json:"followers_count"`
			FollowingCount common.FlexInt `json:"following_count"`
		} `json:"public_metrics"`
	} `json:"data"`
}

type twitterTimeline struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			LikeCount       common.FlexInt `json:"like_count"`
			ReplyCount      common.FlexInt `json:"reply_count"`
			RetweetCount    common.FlexInt `json:"retweet_count"`
			ImpressionCount common.FlexInt `json:"impression_count"`
		} `json:"public_metrics"`
		Attachments struct {
			MediaKeys []string `json:"media_keys"`
		} `json:"attachments"`
	} `json:"data"`
	Includes struct {
		Media []struct {
			MediaKey        string `json:"media_key"`
			URL             string `json:"url"`
			PreviewImageURL string `json:"preview_image_url"`
		} `json:"media"`
	} `json:"includes"`
}

func (s *Twitter) Platform() helpers.Platform {
	return helpers.Twitter
}

func (s *Twitter) me(ctx context.Context, op string) (twitterUser, error) {
	var u twitterUser
	err := s.Client.GetJSON(ctx, helpers.Twitter, op,
		s.APIURL+"/users/me?user.fields=public_metrics", common.BearerHeader(s.AccessToken), &u)
	return u, err
}

func (s *Twitter) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	u, err := s.me(ctx, "fetchMetrics")
	if err != nil {
		return common.Metrics{}, err
	}
	return common.Metrics{
		Followers: u.Data.PublicMetrics.FollowersCount.Int64(),
		Following: u.Data.PublicMetrics.FollowingCount.Int64(),
	}, nil
}

func (s *Twitter) FetchPosts(ctx context.Context, limit int) ([]common.Post, error) {
	u, err := s.me(ctx, "fetchPosts")
	if err != nil {
		return nil, err
	}

	maxResults := min(max(limit, twitterMinResults), twitterMaxResults)
	q := url.Values{
		"max_results":  {strconv.Itoa(maxResults)},
		"tweet.fields": {"created_at,public_metrics,attachments"},
		"expansions":   {"attachments.media_keys"},
		"media.fields": {"url,preview_image_url"},
	}

	var timeline twitterTimeline
	endpoint := s.APIURL + "/users/" + url.PathEscape(u.Data.ID) + "/tweets?" + q.Encode()
	if err := s.Client.GetJSON(ctx, helpers.Twitter, "fetchPosts", endpoint, common.BearerHeader(s.AccessToken), &timeline); err != nil {
		return nil, err
	}

	media := make(map[string]string, len(timeline.Includes.Media))
	for _, m := range timeline.Includes.Media {
		if m.URL != "" {
			media[m.MediaKey] = m.URL
		} else {
			media[m.MediaKey] = m.PreviewImageURL
		}
	}

	posts := make([]common.Post, 0, len(timeline.Data))
	for _, tweet := range timeline.Data {
		if len(posts) == limit {
			break
		}
		var image string
		if len(tweet.Attachments.MediaKeys) > 0 {
			image = media[tweet.Attachments.MediaKeys[0]]
		}
		posts = append(posts, common.Post{
			PostID:   tweet.ID,
			Content:  common.CleanText(tweet.Text),
			ImageURL: image,
			Likes:    tweet.PublicMetrics.LikeCount.Int64(),
			Comments: tweet.PublicMetrics.ReplyCount.Int64(),
			Shares:   tweet.PublicMetrics.RetweetCount.Int64(),
			Views:    tweet.PublicMetrics.ImpressionCount.Int64(),
			PostedAt: common.ParseTimestamp(tweet.CreatedAt),
		})
	}
	return posts, nil
}

// RefreshAccessToken hands back the current token; these tokens are treated as non-expiring.
func (s *Twitter) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.AccessToken, TokenType: "bearer"}, nil
}

func (s *Twitter) IsTokenValid(ctx context.Context) bool {
	return s.Client.GetJSON(ctx, helpers.Twitter, "isTokenValid", s.APIURL+"/users/me", common.BearerHeader(s.AccessToken), nil) == nil
}

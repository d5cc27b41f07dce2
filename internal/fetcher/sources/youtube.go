// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// The playlistItems endpoint caps a page at 50.
const youtubeMaxResults = 50

type YouTube struct {
	Client       *common.Client
	AccessToken  string
	RefreshToken string
	ClientID     string
	ClientSecret string
	// Endpoint and TokenURL override the Google defaults when set.
	Endpoint string
	TokenURL string
}

func NewYouTube(c *common.Client, accessToken, refreshToken, clientID, clientSecret string) *YouTube {
	return &YouTube{
		Client:       c,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	}
}

func (s *YouTube) Platform() helpers.Platform {
	return helpers.YouTube
}

func (s *YouTube) service(ctx context.Context) (*youtube.Service, error) {
	httpClient := &http.Client{
		Timeout: s.Client.Timeout(),
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: s.AccessToken}),
			Base:   s.Client.HTTPClient.Transport,
		},
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if s.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.Endpoint))
	}

	service, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Youtube service: %w", err)
	}
	return service, nil
}

func (s *YouTube) channel(ctx context.Context, op string, parts ...string) (*youtube.Channel, error) {
	service, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	response, err := service.Channels.List(parts).Mine(true).MaxResults(1).Context(ctx).Do()
	if err != nil {
		return nil, upstreamFromGoogle(op, err)
	}
	if len(response.Items) == 0 {
		return nil, fmt.Errorf("youtube %s: no channel for this account", op)
	}
	return response.Items[0], nil
}

// FetchMetrics maps subscribers to followers and lifetime channel views to impressions.
func (s *YouTube) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	channel, err := s.channel(ctx, "fetchMetrics", "statistics")
	if err != nil {
		return common.Metrics{}, err
	}

	var m common.Metrics
	if stats := channel.Statistics; stats != nil {
		if !stats.HiddenSubscriberCount {
			m.Followers = helpers.ClampToInt64(stats.SubscriberCount)
		}
		m.Impressions = helpers.ClampToInt64(stats.ViewCount)
	}
	return m, nil
}

func (s *YouTube) FetchPosts(ctx context.Context, limit int) ([]common.Post, error) {
	channel, err := s.channel(ctx, "fetchPosts", "contentDetails")
	if err != nil {
		return nil, err
	}
	if channel.ContentDetails == nil || channel.ContentDetails.RelatedPlaylists == nil {
		return nil, nil
	}

	service, err := s.service(ctx)
	if err != nil {
		return nil, err
	}

	playlist, err := service.PlaylistItems.List([]string{"contentDetails"}).
		PlaylistId(channel.ContentDetails.RelatedPlaylists.Uploads).
		MaxResults(int64(min(limit, youtubeMaxResults))).
		Context(ctx).
		Do()
	if err != nil {
		return nil, upstreamFromGoogle("fetchPosts", err)
	}

	ids := make([]string, 0, len(playlist.Items))
	for _, item := range playlist.Items {
		if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
			ids = append(ids, item.ContentDetails.VideoId)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}

	videos, err := service.Videos.List([]string{"snippet", "statistics"}).Id(ids...).Context(ctx).Do()
	if err != nil {
		return nil, upstreamFromGoogle("fetchPosts", err)
	}

	posts := make([]common.Post, 0, len(videos.Items))
	for _, v := range videos.Items {
		post := common.Post{PostID: v.Id}
		if v.Snippet != nil {
			post.Content = common.CleanText(v.Snippet.Title)
			post.PostedAt = common.ParseTimestamp(v.Snippet.PublishedAt)
			post.ImageURL = thumbnailURL(v.Snippet.Thumbnails)
		}
		if v.Statistics != nil {
			post.Likes = helpers.ClampToInt64(v.Statistics.LikeCount)
			post.Comments = helpers.ClampToInt64(v.Statistics.CommentCount)
			post.Views = helpers.ClampToInt64(v.Statistics.ViewCount)
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func (s *YouTube) RefreshAccessToken(ctx context.Context) (*oauth2.Token, error) {
	if s.RefreshToken == "" {
		return nil, ErrNoRefreshToken
	}

	endpoint := google.Endpoint
	if s.TokenURL != "" {
		endpoint.TokenURL = s.TokenURL
	}
	cfg := &oauth2.Config{
		ClientID:     s.ClientID,
		ClientSecret: s.ClientSecret,
		Endpoint:     endpoint,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.Client.HTTPClient)
	token, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: s.RefreshToken}).Token()
	if err != nil {
		var rerr *oauth2.RetrieveError
		if errors.As(err, &rerr) && rerr.Response != nil {
			return nil, &common.UpstreamError{
				Platform:   helpers.YouTube,
				Operation:  "refreshAccessToken",
				StatusCode: rerr.Response.StatusCode,
				Body:       string(rerr.Body),
			}
		}
		return nil, &common.UpstreamError{Platform: helpers.YouTube, Operation: "refreshAccessToken", Err: common.ScrubURLError(err)}
	}
	return token, nil
}

func (s *YouTube) IsTokenValid(ctx context.Context) bool {
	_, err := s.channel(ctx, "isTokenValid", "id")
	return err == nil
}

func thumbnailURL(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}

func upstreamFromGoogle(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &common.UpstreamError{
			Platform:   helpers.YouTube,
			Operation:  op,
			StatusCode: gerr.Code,
			Body:       gerr.Message,
		}
	}
	return &common.UpstreamError{Platform: helpers.YouTube, Operation: op, Err: err}
}

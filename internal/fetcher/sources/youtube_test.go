// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newYouTubeServer(t *testing.T) *YouTube {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer yt-token" && !strings.HasSuffix(r.URL.Path, "/token") {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"code":401,"message":"Invalid Credentials"}}`))
			return
		}

		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, "/channels"):
			w.Write([]byte(`{"items":[{"id":"UC1",
				"statistics":{"subscriberCount":"1200","viewCount":"50000","hiddenSubscriberCount":false},
				"contentDetails":{"relatedPlaylists":{"uploads":"UU1"}}}]}`))
		case strings.HasSuffix(r.URL.Path, "/playlistItems"):
			assert.Equal(t, "UU1", r.URL.Query().Get("playlistId"))
			w.Write([]byte(`{"items":[{"contentDetails":{"videoId":"vid1"}},{"contentDetails":{"videoId":"vid2"}}]}`))
		case strings.HasSuffix(r.URL.Path, "/videos"):
			w.Write([]byte(`{"items":[
				{"id":"vid1","snippet":{"title":"Launch","publishedAt":"2024-02-01T12:00:00Z","thumbnails":{"high":{"url":"https://yt/1.jpg"}}},
				 "statistics":{"likeCount":"30","commentCount":"10","viewCount":"400"}},
				{"id":"vid2","snippet":{"title":"Recap","publishedAt":"2024-02-08T12:00:00Z"}}
			]}`))
		case strings.HasSuffix(r.URL.Path, "/token"):
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			w.Write([]byte(`{"access_token":"yt-new","token_type":"Bearer","expires_in":3599}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(server.Close)

	s := NewYouTube(common.NewClient(5*time.Second), "yt-token", "yt-refresh", "client", "secret")
	s.Endpoint = server.URL + "/"
	s.TokenURL = server.URL + "/token"
	return s
}

func TestYouTubeFetchMetrics(t *testing.T) {
	s := newYouTubeServer(t)

	m, err := s.FetchMetrics(t.Context())
	require.NoError(t, err)
	assert.Equal(t, common.Metrics{Followers: 1200, Impressions: 50000}, m)
}

func TestYouTubeFetchPosts(t *testing.T) {
	s := newYouTubeServer(t)

	posts, err := s.FetchPosts(t.Context(), 20)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "vid1", posts[0].PostID)
	assert.Equal(t, "Launch", posts[0].Content)
	assert.Equal(t, "https://yt/1.jpg", posts[0].ImageURL)
	assert.Equal(t, int64(30), posts[0].Likes)
	assert.Equal(t, int64(10), posts[0].Comments)
	assert.Equal(t, int64(400), posts[0].Views)
	assert.InDelta(t, 10.0, posts[0].EngagementRate(), 1e-9)

	assert.Equal(t, int64(0), posts[1].Views)
}

func TestYouTubeInvalidTokenIsUpstreamError(t *testing.T) {
	s := newYouTubeServer(t)
	s.AccessToken = "expired"

	assert.False(t, s.IsTokenValid(t.Context()))

	_, err := s.FetchMetrics(t.Context())
	var ue *common.UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusUnauthorized, ue.StatusCode)
}

func TestYouTubeRefreshKeepsRefreshToken(t *testing.T) {
	s := newYouTubeServer(t)

	tok, err := s.RefreshAccessToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "yt-new", tok.AccessToken)
	assert.Equal(t, "yt-refresh", tok.RefreshToken)

	s.RefreshToken = ""
	_, err = s.RefreshAccessToken(t.Context())
	assert.ErrorIs(t, err, ErrNoRefreshToken)
}

// SPDX-License-Identifier: AGPL-3.0-only
package sources

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFacebookServer(t *testing.T) *Facebook {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"p1","fan_count":17897}`))
	})
	mux.HandleFunc("/me/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"p1_1","message":"<b>Sale</b> today","full_picture":"https://fb/1.jpg",
			"created_time":"2024-03-05T09:15:00+0000",
			"likes":{"summary":{"total_count":120}},"comments":{"summary":{"total_count":14}},"shares":{"count":6}}]}`))
	})
	mux.HandleFunc("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "app-id", q.Get("client_id"))
		assert.Equal(t, "fb-token", q.Get("fb_exchange_token"))
		w.Write([]byte(`{"access_token":"fb-long","token_type":"bearer","expires_in":5183944}`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	s := NewFacebook(common.NewClient(5*time.Second), "fb-token", "app-id", "app-secret")
	s.GraphURL = server.URL
	return s
}

func TestFacebookFetchMetricsFallsBackToFanCount(t *testing.T) {
	s := newFacebookServer(t)

	m, err := s.FetchMetrics(t.Context())
	require.NoError(t, err)
	assert.Equal(t, int64(17897), m.Followers)
}

func TestFacebookFetchPosts(t *testing.T) {
	s := newFacebookServer(t)

	posts, err := s.FetchPosts(t.Context(), 10)
	require.NoError(t, err)
	require.Len(t, posts, 1)

	p := posts[0]
	assert.Equal(t, "Sale today", p.Content)
	assert.Equal(t, int64(120), p.Likes)
	assert.Equal(t, int64(14), p.Comments)
	assert.Equal(t, int64(6), p.Shares)
	assert.Equal(t, int64(0), p.Views)
	assert.Equal(t, 0.0, p.EngagementRate())
	assert.True(t, time.Date(2024, 3, 5, 9, 15, 0, 0, time.UTC).Equal(p.PostedAt))
}

func TestFacebookRefreshExchangesLongLivedToken(t *testing.T) {
	s := newFacebookServer(t)

	tok, err := s.RefreshAccessToken(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "fb-long", tok.AccessToken)
	assert.True(t, s.IsTokenValid(t.Context()))
}

func TestFacebookTransportErrorHidesCredentials(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	s := NewFacebook(common.NewClient(2*time.Second), "SECRET-ACCESS-TOKEN", "cid", "CLIENT-SECRET")
	s.GraphURL = server.URL

	_, err := s.RefreshAccessToken(t.Context())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-ACCESS-TOKEN")
	assert.NotContains(t, err.Error(), "CLIENT-SECRET")

	_, err = s.FetchMetrics(t.Context())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "SECRET-ACCESS-TOKEN")
}

// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain  caption\nwith lines", "plain caption with lines"},
		{"<p>Hello <b>world</b></p>", "Hello world"},
		{"Fish &amp; chips", "Fish & chips"},
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanText(tt.in), tt.in)
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)

	assert.True(t, want.Equal(ParseTimestamp("2024-03-01T12:30:00Z")))
	assert.True(t, want.Equal(ParseTimestamp("2024-03-01T12:30:00+0000")))
	assert.True(t, ParseTimestamp("yesterday").IsZero())
}

func TestFlexInt(t *testing.T) {
	var v struct {
		A FlexInt `json:"a"`
		B FlexInt `json:"b"`
		C FlexInt `json:"c"`
		D FlexInt `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 12, "b": "34", "c": null, "d": 5.0}`), &v))

	assert.Equal(t, int64(12), v.A.Int64())
	assert.Equal(t, int64(34), v.B.Int64())
	assert.Equal(t, int64(0), v.C.Int64())
	assert.Equal(t, int64(5), v.D.Int64())
}

func TestEngagementRate(t *testing.T) {
	assert.InDelta(t, 15.0, EngagementRate(10, 3, 2, 100), 1e-9)
	assert.Equal(t, 0.0, EngagementRate(10, 3, 2, 0))
	assert.InDelta(t, 50.0, Post{Likes: 1, Views: 2}.EngagementRate(), 1e-9)
}

func TestClientNon2xxIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":"nope"}`))
	}))
	defer server.Close()

	c := NewClient(5 * time.Second)
	var out map[string]any
	err := c.GetJSON(t.Context(), helpers.Twitter, "fetchMetrics", server.URL, BearerHeader("tok"), &out)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, http.StatusForbidden, ue.StatusCode)
	assert.Equal(t, helpers.Twitter, ue.Platform)
	assert.Contains(t, ue.Body, "nope")
	assert.True(t, IsUpstreamError(err))
}

func TestClientTransportFailureIsUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	err := NewClient(time.Second).GetJSON(t.Context(), helpers.TikTok, "isTokenValid", url, nil, nil)

	var ue *UpstreamError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 0, ue.StatusCode)
	assert.Error(t, ue.Unwrap())
}

func TestClientTimeoutIsBounded(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(block)

	c := NewClient(50 * time.Millisecond)
	assert.Equal(t, 50*time.Millisecond, c.Timeout())

	err := c.GetJSON(t.Context(), helpers.Facebook, "fetchPosts", server.URL, nil, nil)
	assert.True(t, IsUpstreamError(err))
}

// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"os"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStateStoreExpires(t *testing.T) {
	now := fixedNow
	s := NewMemoryStateStore()
	s.Now = func() time.Time { return now }

	pending := PendingAuth{Platform: helpers.Instagram, UserID: uuid.New(), CreatedAt: now}
	require.NoError(t, s.Save(t.Context(), "fresh", pending, StateTTL))
	require.NoError(t, s.Save(t.Context(), "stale", pending, StateTTL))

	got, err := s.Take(t.Context(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, pending, got)

	now = now.Add(StateTTL + time.Second)
	_, err = s.Take(t.Context(), "stale")
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestMemoryStateStoreSweepsExpired(t *testing.T) {
	now := fixedNow
	s := NewMemoryStateStore()
	s.Now = func() time.Time { return now }

	require.NoError(t, s.Save(t.Context(), "old", PendingAuth{}, time.Minute))
	now = now.Add(2 * time.Minute)
	require.NoError(t, s.Save(t.Context(), "new", PendingAuth{}, time.Minute))

	assert.Len(t, s.entries, 1)
}

func TestRedisStateStore(t *testing.T) {
	redisURL := os.Getenv("TEST_REDIS_URL")
	if redisURL == "" {
		t.Skip("TEST_REDIS_URL not set")
	}

	client, err := ConnectRedis(t.Context(), redisURL)
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })

	s := NewRedisStateStore(client)
	state := uuid.NewString()
	pending := PendingAuth{
		Platform:  helpers.Twitter,
		UserID:    uuid.New(),
		Verifier:  "verifier",
		CreatedAt: fixedNow,
	}

	require.NoError(t, s.Save(t.Context(), state, pending, time.Minute))

	got, err := s.Take(t.Context(), state)
	require.NoError(t, err)
	assert.Equal(t, pending, got)

	_, err = s.Take(t.Context(), state)
	assert.ErrorIs(t, err, ErrInvalidState)
}

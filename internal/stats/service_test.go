// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"context"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/database/dbtest"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*Service, *dbtest.Builder) {
	t.Helper()
	store := dbtest.NewMemory()
	b := dbtest.NewBuilder(store, 7)
	svc := NewService(store)
	svc.Now = func() time.Time { return b.Now }
	return svc, b
}

func TestServiceOverview(t *testing.T) {
	svc, b := newTestService(t)
	ctx := context.Background()
	user := b.User()

	ig := b.Account(user.ID, helpers.Instagram)
	tw := b.Account(user.ID, helpers.Twitter)
	b.Account(user.ID, helpers.TikTok)

	b.Snapshot(ig, 900, 2.0, b.Now.Add(-48*time.Hour))
	b.Snapshot(ig, 1000, 6.2, b.Now.Add(-time.Hour))
	b.Snapshot(tw, 500, 3.8, b.Now.Add(-2*time.Hour))

	overview, platforms, err := svc.Overview(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), overview.TotalFollowers)
	assert.InDelta(t, 5.0, overview.EngagementRate, 1e-9)
	assert.Equal(t, 2, overview.ActivePlatforms)
	assert.Len(t, platforms, 2)
}

func TestServiceIgnoresInactiveAccounts(t *testing.T) {
	svc, b := newTestService(t)
	ctx := context.Background()
	user := b.User()

	ig := b.Account(user.ID, helpers.Instagram)
	fb := b.Account(user.ID, helpers.Facebook)
	b.Snapshot(ig, 100, 1, b.Now.Add(-time.Hour))
	b.Snapshot(fb, 300, 1, b.Now.Add(-time.Hour))
	b.Post(fb, 500, 0, 0, 1000)

	require.NoError(t, b.Store.SetSocialAccountActive(ctx, database.SetSocialAccountActiveParams{
		ID: fb.ID, IsActive: false, UpdatedAt: b.Now,
	}))

	dist, err := svc.PlatformDistribution(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"instagram": 100}, dist)

	top, err := svc.TopPosts(ctx, user.ID, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestServiceFollowerGrowth(t *testing.T) {
	svc, b := newTestService(t)
	ctx := context.Background()
	user := b.User()
	ig := b.Account(user.ID, helpers.Instagram)

	b.Snapshot(ig, 100, 1, b.Now.AddDate(0, 0, -2))
	b.Snapshot(ig, 120, 1, b.Now)
	b.Snapshot(ig, 50, 1, b.Now.AddDate(0, 0, -10))

	points, err := svc.FollowerGrowth(ctx, user.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, []GrowthPoint{
		{Date: "2024-05-30", Followers: 100},
		{Date: "2024-05-31", Followers: 0},
		{Date: "2024-06-01", Followers: 120},
	}, points)
}

func TestServiceTopPostsAcrossAccounts(t *testing.T) {
	svc, b := newTestService(t)
	ctx := context.Background()
	user := b.User()

	ig := b.Account(user.ID, helpers.Instagram)
	yt := b.Account(user.ID, helpers.YouTube)
	b.Post(ig, 100, 0, 0, 1000)
	b.Post(ig, 50, 0, 0, 1000)
	b.Post(yt, 150, 40, 10, 5000)

	top, err := svc.TopPosts(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, int64(150), top[0].Likes)
	assert.Equal(t, "youtube", top[0].Platform)
	assert.Equal(t, int64(100), top[1].Likes)
}

func TestServiceNoAccounts(t *testing.T) {
	svc, b := newTestService(t)
	user := b.User()

	overview, platforms, err := svc.Overview(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, Overview{}, overview)
	assert.Empty(t, platforms)
}

// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/database/dbtest"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/oauth2"
)

type SyncerSuite struct {
	suite.Suite

	store   *dbtest.Memory
	build   *dbtest.Builder
	sources *fakeFactory
	syncer  *Syncer
	user    database.User
	now     time.Time
}

func (s *SyncerSuite) SetupTest() {
	s.store = dbtest.NewMemory()
	s.build = dbtest.NewBuilder(s.store, 42)
	s.sources = newFakeFactory()
	s.now = time.Date(2024, 6, 2, 9, 30, 0, 0, time.UTC)

	s.syncer = NewSyncer(s.store, s.sources, 20, nil)
	s.syncer.Now = func() time.Time { return s.now }
	s.user = s.build.User()
}

func TestSyncerSuite(t *testing.T) {
	suite.Run(t, new(SyncerSuite))
}

func (s *SyncerSuite) TestStoresSnapshotAndPosts() {
	account := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken("good"))
	s.sources.validTokens["good"] = true
	s.sources.metrics = common.Metrics{Followers: 1500, Following: 80, Impressions: 9000}
	s.sources.posts = []common.Post{
		{PostID: "a", Likes: 8, Comments: 1, Shares: 1, Views: 100, ImageURL: "https://img/a.jpg"},
		{PostID: "b", Likes: 5, Views: 0},
	}

	s.Require().NoError(s.syncer.SyncAccount(context.Background(), account.ID))

	snapshots := s.store.Snapshots()
	s.Require().Len(snapshots, 1)
	s.Equal(int64(1500), snapshots[0].Followers)
	s.Equal(int64(9000), snapshots[0].Impressions)
	s.InDelta(10.0, snapshots[0].EngagementRate, 1e-9)
	s.Equal(s.now, snapshots[0].CapturedAt)

	posts := s.store.Posts(account.ID)
	s.Require().Len(posts, 2)
	s.InDelta(10.0, posts[0].EngagementRate, 1e-9)
	s.Equal("https://img/a.jpg", posts[0].ImageUrl.String)
	s.Equal(0.0, posts[1].EngagementRate)
	s.False(posts[1].ImageUrl.Valid)

	stored, err := s.store.GetSocialAccountByID(context.Background(), account.ID)
	s.Require().NoError(err)
	s.Equal(database.SyncStatusSynced, stored.SyncStatus)
	s.True(stored.LastSync.Valid)
	s.Equal(s.now, stored.LastSync.Time)
}

func (s *SyncerSuite) TestKeepsPlatformEngagementRate() {
	account := s.build.Account(s.user.ID, helpers.Instagram, dbtest.WithAccessToken("good"))
	s.sources.validTokens["good"] = true
	s.sources.metrics = common.Metrics{Followers: 10, EngagementRate: 4.2}
	s.sources.posts = []common.Post{{PostID: "a", Likes: 50, Views: 100}}

	s.Require().NoError(s.syncer.SyncAccount(context.Background(), account.ID))
	s.InDelta(4.2, s.store.Snapshots()[0].EngagementRate, 1e-9)
}

func (s *SyncerSuite) TestRefreshesExpiredTokenBeforeFetching() {
	account := s.build.Account(s.user.ID, helpers.TikTok,
		dbtest.WithAccessToken("stale"), dbtest.WithRefreshToken("refresh-1"))
	s.sources.validTokens["fresh"] = true
	s.sources.refreshed = &oauth2.Token{
		AccessToken:  "fresh",
		RefreshToken: "refresh-2",
		Expiry:       s.now.Add(24 * time.Hour),
	}

	s.Require().NoError(s.syncer.SyncAccount(context.Background(), account.ID))

	s.Equal([]string{"isTokenValid", "refreshAccessToken", "fetchMetrics", "fetchPosts"}, s.sources.ops(account.ID))

	stored, err := s.store.GetSocialAccountByID(context.Background(), account.ID)
	s.Require().NoError(err)
	s.Equal("fresh", stored.AccessToken)
	s.Equal("refresh-2", stored.RefreshToken.String)
	s.Equal(s.now.Add(24*time.Hour), stored.TokenExpiry.Time)
}

func (s *SyncerSuite) TestExpiredTokenWithoutRefreshTokenNeedsReauth() {
	account := s.build.Account(s.user.ID, helpers.Instagram, dbtest.WithAccessToken("stale"))

	err := s.syncer.SyncAccount(context.Background(), account.ID)

	s.True(IsReauthRequired(err))
	s.ErrorIs(err, ErrNoRefreshToken)
	s.Empty(s.store.Snapshots())
	s.NotContains(s.sources.ops(account.ID), "fetchMetrics")

	stored, _ := s.store.GetSocialAccountByID(context.Background(), account.ID)
	s.Equal(database.SyncStatusFailed, stored.SyncStatus)
	s.Contains(stored.StatusReason.String, "reconnected")
	s.False(stored.LastSync.Valid)
}

func (s *SyncerSuite) TestFailedRefreshNeedsReauth() {
	account := s.build.Account(s.user.ID, helpers.YouTube,
		dbtest.WithAccessToken("stale"), dbtest.WithRefreshToken("revoked"))
	s.sources.refreshErr = &common.UpstreamError{Platform: helpers.YouTube, Operation: "refreshAccessToken", StatusCode: http.StatusBadRequest}

	err := s.syncer.SyncAccount(context.Background(), account.ID)

	var reauth *ReauthRequiredError
	s.Require().True(errors.As(err, &reauth))
	s.Equal(account.ID, reauth.AccountID)
	s.ErrorIs(err, ErrTokenRefreshFailed)
	s.Empty(s.store.Snapshots())
}

func (s *SyncerSuite) TestMissingAccount() {
	s.ErrorIs(s.syncer.SyncAccount(context.Background(), uuid.New()), ErrAccountNotFound)

	account := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken(""))
	s.ErrorIs(s.syncer.SyncAccount(context.Background(), account.ID), ErrAccountNotFound)
}

func (s *SyncerSuite) TestPostsFailureStillRecordsSnapshot() {
	account := s.build.Account(s.user.ID, helpers.Facebook, dbtest.WithAccessToken("good"))
	s.sources.validTokens["good"] = true
	s.sources.metrics = common.Metrics{Followers: 77}
	s.sources.postsErr = &common.UpstreamError{Platform: helpers.Facebook, Operation: "fetchPosts", StatusCode: http.StatusInternalServerError}

	err := s.syncer.SyncAccount(context.Background(), account.ID)

	s.True(common.IsUpstreamError(err))
	s.Require().Len(s.store.Snapshots(), 1)
	s.Equal(int64(77), s.store.Snapshots()[0].Followers)
}

func (s *SyncerSuite) TestConcurrentSyncIsRejected() {
	account := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken("good"))
	s.sources.validTokens["good"] = true

	s.Require().True(s.syncer.Locks.TryLock(account.ID))
	s.ErrorIs(s.syncer.SyncAccount(context.Background(), account.ID), ErrSyncInProgress)
	s.Empty(s.sources.ops(account.ID))

	s.syncer.Locks.Unlock(account.ID)
	s.NoError(s.syncer.SyncAccount(context.Background(), account.ID))
}

func (s *SyncerSuite) TestResyncUpsertsPosts() {
	account := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken("good"))
	s.sources.validTokens["good"] = true
	s.sources.posts = []common.Post{{PostID: "t1", Likes: 1, Views: 10}}

	s.Require().NoError(s.syncer.SyncAccount(context.Background(), account.ID))
	s.sources.posts = []common.Post{{PostID: "t1", Likes: 4, Views: 10}}
	s.Require().NoError(s.syncer.SyncAccount(context.Background(), account.ID))

	posts := s.store.Posts(account.ID)
	s.Require().Len(posts, 1)
	s.Equal(int64(4), posts[0].Likes)
	s.Len(s.store.Snapshots(), 2)
}

func (s *SyncerSuite) TestSyncAllAccountsIsolatesFailures() {
	ok := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken("good"))
	broken := s.build.Account(s.user.ID, helpers.TikTok, dbtest.WithAccessToken("good"))
	reauth := s.build.Account(s.user.ID, helpers.Instagram, dbtest.WithAccessToken("stale"))
	inactive := s.build.Account(s.user.ID, helpers.Facebook, dbtest.WithAccessToken("good"))
	s.Require().NoError(s.store.SetSocialAccountActive(context.Background(), database.SetSocialAccountActiveParams{ID: inactive.ID}))

	s.sources.validTokens["good"] = true
	s.sources.metricsErr[broken.ID] = &common.UpstreamError{Platform: helpers.TikTok, Operation: "fetchMetrics", StatusCode: http.StatusBadGateway}

	results, err := s.syncer.SyncAllAccounts(context.Background(), s.user.ID)
	s.Require().NoError(err)
	s.Require().Len(results, 3)

	s.Equal(ok.ID, results[0].AccountID)
	s.True(results[0].Success)
	s.Empty(results[0].Error)

	s.Equal(broken.ID, results[1].AccountID)
	s.False(results[1].Success)
	s.Contains(results[1].Error, "502")
	s.False(results[1].RequiresReauth)

	s.Equal(reauth.ID, results[2].AccountID)
	s.True(results[2].RequiresReauth)

	s.Empty(s.sources.ops(inactive.ID))
}

func (s *SyncerSuite) TestRefreshAccountToken() {
	valid := s.build.Account(s.user.ID, helpers.Twitter, dbtest.WithAccessToken("good"))
	expired := s.build.Account(s.user.ID, helpers.TikTok,
		dbtest.WithAccessToken("stale"), dbtest.WithRefreshToken("r"))
	s.sources.validTokens["good"] = true
	s.sources.refreshed = &oauth2.Token{AccessToken: "good"}

	refreshed, err := s.syncer.RefreshAccountToken(context.Background(), valid.ID)
	s.NoError(err)
	s.False(refreshed)

	refreshed, err = s.syncer.RefreshAccountToken(context.Background(), expired.ID)
	s.NoError(err)
	s.True(refreshed)

	stored, _ := s.store.GetSocialAccountByID(context.Background(), expired.ID)
	s.Equal("good", stored.AccessToken)
	s.Equal("r", stored.RefreshToken.String)
	s.False(stored.TokenExpiry.Valid)
}

func TestMeanEngagementRate(t *testing.T) {
	assert.Equal(t, 0.0, meanEngagementRate(nil))
	assert.InDelta(t, 7.5, meanEngagementRate([]common.Post{
		{Likes: 5, Views: 100},
		{Likes: 10, Views: 100},
		{Likes: 1000, Views: 0},
	}), 1e-9)
}

func TestAccountLocks(t *testing.T) {
	locks := NewAccountLocks()
	a, b := uuid.New(), uuid.New()

	require.True(t, locks.TryLock(a))
	assert.False(t, locks.TryLock(a))
	assert.True(t, locks.TryLock(b))

	locks.Unlock(a)
	assert.True(t, locks.TryLock(a))
}

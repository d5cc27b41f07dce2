// SPDX-License-Identifier: AGPL-3.0-only
package database_test

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/fluffyriot/socialpulse/internal/auth"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	_ "github.com/lib/pq"
)

// QueriesSuite runs against a real Postgres pointed to by TEST_DATABASE_URL.
type QueriesSuite struct {
	suite.Suite

	db  *sqlx.DB
	q   *database.Queries
	ctx context.Context
	now time.Time
}

func TestQueriesSuite(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	suite.Run(t, &QueriesSuite{})
}

func (s *QueriesSuite) SetupSuite() {
	db, err := sqlx.Connect("postgres", os.Getenv("TEST_DATABASE_URL"))
	s.Require().NoError(err)

	_, err = database.Migrate(db.DB)
	s.Require().NoError(err)

	cipher, err := auth.NewTokenCipher("queries-suite")
	s.Require().NoError(err)

	s.db = db
	s.q = database.New(db, cipher)
	s.ctx = context.Background()
	s.now = time.Now().UTC().Truncate(time.Second)
}

func (s *QueriesSuite) TearDownSuite() {
	s.db.Close()
}

func (s *QueriesSuite) SetupTest() {
	_, err := s.db.Exec(`TRUNCATE reports, posts, metric_snapshots, social_accounts, users CASCADE`)
	s.Require().NoError(err)
}

func (s *QueriesSuite) user() database.User {
	u, err := s.q.UpsertUser(s.ctx, database.UpsertUserParams{
		ID:        uuid.New(),
		Username:  "pulse",
		CreatedAt: s.now,
		UpdatedAt: s.now,
	})
	s.Require().NoError(err)
	return u
}

func (s *QueriesSuite) account(userID uuid.UUID, accountID string) database.SocialAccount {
	a, err := s.q.UpsertSocialAccount(s.ctx, database.UpsertSocialAccountParams{
		ID:           uuid.New(),
		UserID:       userID,
		Platform:     "twitter",
		AccountID:    accountID,
		Username:     "@cafe",
		AccessToken:  "plain-access",
		RefreshToken: sql.NullString{String: "plain-refresh", Valid: true},
		TokenExpiry:  sql.NullTime{Time: s.now.Add(time.Hour), Valid: true},
		CreatedAt:    s.now,
		UpdatedAt:    s.now,
	})
	s.Require().NoError(err)
	return a
}

func (s *QueriesSuite) TestUserDefaults() {
	u := s.user()
	s.Equal("weekly", u.ReportFrequency)
	s.Equal("pdf", u.ReportFormat)
	s.Equal(int32(24), u.AutoSyncInterval)

	_, err := s.q.GetUserByID(s.ctx, uuid.New())
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *QueriesSuite) TestTokensAreSealedAtRest() {
	u := s.user()
	a := s.account(u.ID, "42")
	s.Equal("plain-access", a.AccessToken)

	var raw string
	s.Require().NoError(s.db.Get(&raw, `SELECT access_token FROM social_accounts WHERE id = $1`, a.ID))
	s.NotEqual("plain-access", raw)

	loaded, err := s.q.GetSocialAccountByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal("plain-access", loaded.AccessToken)
	s.Equal("plain-refresh", loaded.RefreshToken.String)
}

func (s *QueriesSuite) TestReconnectKeepsAccountID() {
	u := s.user()
	first := s.account(u.ID, "42")

	s.Require().NoError(s.q.SetSocialAccountActive(s.ctx, database.SetSocialAccountActiveParams{
		ID: first.ID, IsActive: false, UpdatedAt: s.now,
	}))

	second := s.account(u.ID, "42")
	s.Equal(first.ID, second.ID)
	s.True(second.IsActive)

	accounts, err := s.q.ListSocialAccountsByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Len(accounts, 1)
}

func (s *QueriesSuite) TestDeleteAccountCascades() {
	u := s.user()
	a := s.account(u.ID, "42")

	_, err := s.q.CreateMetricSnapshot(s.ctx, database.CreateMetricSnapshotParams{
		ID: uuid.New(), AccountID: a.ID, Platform: a.Platform, Followers: 10, CapturedAt: s.now,
	})
	s.Require().NoError(err)

	s.Require().NoError(s.q.DeleteSocialAccount(s.ctx, a.ID))
	s.ErrorIs(s.q.DeleteSocialAccount(s.ctx, a.ID), database.ErrNotFound)

	_, err = s.q.GetLatestMetricSnapshot(s.ctx, a.ID)
	s.ErrorIs(err, database.ErrNotFound)
}

func (s *QueriesSuite) TestSnapshotRangeIsHalfOpen() {
	u := s.user()
	a := s.account(u.ID, "42")

	day := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, at := range []time.Time{day, day.Add(12 * time.Hour), day.Add(24 * time.Hour)} {
		_, err := s.q.CreateMetricSnapshot(s.ctx, database.CreateMetricSnapshotParams{
			ID: uuid.New(), AccountID: a.ID, Platform: a.Platform, Followers: int64(100 + i), CapturedAt: at,
		})
		s.Require().NoError(err)
	}

	snaps, err := s.q.ListMetricSnapshotsInRange(s.ctx, database.ListMetricSnapshotsInRangeParams{
		AccountID: a.ID, From: day, To: day.Add(24 * time.Hour),
	})
	s.Require().NoError(err)
	s.Require().Len(snaps, 2)
	s.Equal(int64(100), snaps[0].Followers)

	latest, err := s.q.GetLatestMetricSnapshot(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(int64(102), latest.Followers)
}

func (s *QueriesSuite) TestPostUpsertAndRanking() {
	u := s.user()
	a := s.account(u.ID, "42")

	upsert := func(postID string, likes int64) {
		_, err := s.q.UpsertPost(s.ctx, database.UpsertPostParams{
			ID: uuid.New(), AccountID: a.ID, Platform: a.Platform, PostID: postID, Content: postID,
			Likes: likes, PostedAt: s.now, CreatedAt: s.now, UpdatedAt: s.now,
		})
		s.Require().NoError(err)
	}
	upsert("a", 10)
	upsert("b", 30)
	upsert("a", 50)

	posts, err := s.q.ListTopPostsByAccount(s.ctx, database.ListTopPostsByAccountParams{AccountID: a.ID, Limit: 10})
	s.Require().NoError(err)
	s.Require().Len(posts, 2)
	s.Equal("a", posts[0].PostID)
	s.Equal(int64(50), posts[0].Likes)
}

func (s *QueriesSuite) TestReports() {
	u := s.user()

	for i := range 2 {
		_, err := s.q.CreateReport(s.ctx, database.CreateReportParams{
			ID:         uuid.New(),
			UserID:     u.ID,
			ReportType: "overview",
			Title:      "Overview Analytics Report",
			Data:       []byte(`{"overview":{"totalFollowers":1}}`),
			StartDate:  time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
			EndDate:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			CreatedAt:  s.now.Add(time.Duration(i) * time.Minute),
		})
		s.Require().NoError(err)
	}

	reports, err := s.q.ListReportsByUser(s.ctx, u.ID)
	s.Require().NoError(err)
	s.Require().Len(reports, 2)
	s.True(reports[0].CreatedAt.After(reports[1].CreatedAt))
	s.JSONEq(`{"overview":{"totalFollowers":1}}`, string(reports[0].Data))
}

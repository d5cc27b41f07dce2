// SPDX-License-Identifier: AGPL-3.0-only
package dbtest

import (
	"context"
	"database/sql"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
)

// Builder writes realistic fixtures into a Memory store. A fixed seed keeps
// generated text stable between runs.
type Builder struct {
	Store *Memory
	Faker *gofakeit.Faker
	Now   time.Time
}

func NewBuilder(store *Memory, seed uint64) *Builder {
	return &Builder{
		Store: store,
		Faker: gofakeit.New(seed),
		Now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (b *Builder) User() database.User {
	u, err := b.Store.UpsertUser(context.Background(), database.UpsertUserParams{
		ID:        uuid.New(),
		Username:  b.Faker.Username(),
		Email:     sql.NullString{String: b.Faker.Email(), Valid: true},
		CreatedAt: b.Now,
		UpdatedAt: b.Now,
	})
	if err != nil {
		panic(err)
	}
	return u
}

type AccountOption func(*database.UpsertSocialAccountParams)

func WithRefreshToken(token string) AccountOption {
	return func(p *database.UpsertSocialAccountParams) {
		p.RefreshToken = sql.NullString{String: token, Valid: token != ""}
	}
}

func WithAccessToken(token string) AccountOption {
	return func(p *database.UpsertSocialAccountParams) {
		p.AccessToken = token
	}
}

func WithUsername(username string) AccountOption {
	return func(p *database.UpsertSocialAccountParams) {
		p.Username = username
	}
}

func (b *Builder) Account(userID uuid.UUID, platform helpers.Platform, opts ...AccountOption) database.SocialAccount {
	arg := database.UpsertSocialAccountParams{
		ID:          uuid.New(),
		UserID:      userID,
		Platform:    string(platform),
		AccountID:   b.Faker.Numerify("##########"),
		Username:    "@" + b.Faker.Username(),
		AccessToken: b.Faker.LetterN(40),
		TokenExpiry: sql.NullTime{Time: b.Now.Add(time.Hour), Valid: true},
		CreatedAt:   b.Now,
		UpdatedAt:   b.Now,
	}
	for _, opt := range opts {
		opt(&arg)
	}

	a, err := b.Store.UpsertSocialAccount(context.Background(), arg)
	if err != nil {
		panic(err)
	}
	return a
}

func (b *Builder) Snapshot(account database.SocialAccount, followers int64, engagementRate float64, capturedAt time.Time) database.MetricSnapshot {
	s, err := b.Store.CreateMetricSnapshot(context.Background(), database.CreateMetricSnapshotParams{
		ID:             uuid.New(),
		AccountID:      account.ID,
		Platform:       account.Platform,
		Followers:      followers,
		Following:      int64(b.Faker.Number(10, 2000)),
		EngagementRate: engagementRate,
		Impressions:    followers * 3,
		Reach:          followers * 2,
		CapturedAt:     capturedAt,
	})
	if err != nil {
		panic(err)
	}
	return s
}

func (b *Builder) Post(account database.SocialAccount, likes, comments, shares, views int64) database.Post {
	var rate float64
	if views > 0 {
		rate = float64(likes+comments+shares) / float64(views) * 100
	}

	p, err := b.Store.UpsertPost(context.Background(), database.UpsertPostParams{
		ID:             uuid.New(),
		AccountID:      account.ID,
		Platform:       account.Platform,
		PostID:         b.Faker.UUID(),
		Content:        b.Faker.HipsterSentence(),
		ImageUrl:       sql.NullString{String: b.Faker.URL(), Valid: true},
		Likes:          likes,
		Comments:       comments,
		Shares:         shares,
		Views:          views,
		EngagementRate: rate,
		PostedAt:       b.Now.Add(-time.Duration(b.Faker.Number(1, 72)) * time.Hour),
		CreatedAt:      b.Now,
		UpdatedAt:      b.Now,
	})
	if err != nil {
		panic(err)
	}
	return p
}

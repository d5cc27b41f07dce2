// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
)

//go:embed schema/*.sql
var migrations embed.FS

var ErrNotFound = errors.New("record not found")

// Store is the persistence surface used by the rest of the application.
type Store interface {
	Ping(ctx context.Context) error

	UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	ListUsers(ctx context.Context) ([]User, error)
	UpdateUserSettings(ctx context.Context, arg UpdateUserSettingsParams) (User, error)

	UpsertSocialAccount(ctx context.Context, arg UpsertSocialAccountParams) (SocialAccount, error)
	GetSocialAccountByID(ctx context.Context, id uuid.UUID) (SocialAccount, error)
	ListSocialAccountsByUser(ctx context.Context, userID uuid.UUID) ([]SocialAccount, error)
	ListActiveSocialAccountsByUser(ctx context.Context, userID uuid.UUID) ([]SocialAccount, error)
	UpdateSocialAccountTokens(ctx context.Context, arg UpdateSocialAccountTokensParams) error
	UpdateSocialAccountSyncStatus(ctx context.Context, arg UpdateSocialAccountSyncStatusParams) error
	SetSocialAccountActive(ctx context.Context, arg SetSocialAccountActiveParams) error
	DeleteSocialAccount(ctx context.Context, id uuid.UUID) error

	CreateMetricSnapshot(ctx context.Context, arg CreateMetricSnapshotParams) (MetricSnapshot, error)
	GetLatestMetricSnapshot(ctx context.Context, accountID uuid.UUID) (MetricSnapshot, error)
	ListMetricSnapshotsInRange(ctx context.Context, arg ListMetricSnapshotsInRangeParams) ([]MetricSnapshot, error)

	UpsertPost(ctx context.Context, arg UpsertPostParams) (Post, error)
	ListTopPostsByAccount(ctx context.Context, arg ListTopPostsByAccountParams) ([]Post, error)

	CreateReport(ctx context.Context, arg CreateReportParams) (Report, error)
	GetReportByID(ctx context.Context, id uuid.UUID) (Report, error)
	ListReportsByUser(ctx context.Context, userID uuid.UUID) ([]Report, error)
}

// TokenCipher seals OAuth tokens before they reach the database.
type TokenCipher interface {
	Seal(plaintext string) (string, error)
	Open(sealed string) (string, error)
}

type Queries struct {
	db     *sqlx.DB
	cipher TokenCipher
}

var _ Store = (*Queries)(nil)

func New(db *sqlx.DB, cipher TokenCipher) *Queries {
	return &Queries{db: db, cipher: cipher}
}

func (q *Queries) DB() *sqlx.DB {
	return q.db
}

func (q *Queries) Ping(ctx context.Context) error {
	return q.db.PingContext(ctx)
}

func (q *Queries) Close() error {
	return q.db.Close()
}

// Migrate applies the embedded goose migrations and returns the resulting version.
func Migrate(db *sql.DB) (int64, error) {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "schema"); err != nil {
		return 0, fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return 0, fmt.Errorf("failed to get DB version: %w", err)
	}
	return version, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

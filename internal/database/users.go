// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type UpsertUserParams struct {
	ID        uuid.UUID
	Username  string
	Email     sql.NullString
	CreatedAt time.Time
	UpdatedAt time.Time
}

const upsertUser = `
INSERT INTO users (id, username, email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET
    email = COALESCE(EXCLUDED.email, users.email),
    updated_at = EXCLUDED.updated_at
RETURNING id, username, email, report_frequency, report_format, report_email, auto_sync_interval, created_at, updated_at
`

func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (User, error) {
	var u User
	err := q.db.GetContext(ctx, &u, upsertUser,
		arg.ID, arg.Username, arg.Email, arg.CreatedAt, arg.UpdatedAt)
	return u, err
}

const getUserByID = `
SELECT id, username, email, report_frequency, report_format, report_email, auto_sync_interval, created_at, updated_at
FROM users WHERE id = $1
`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := q.db.GetContext(ctx, &u, getUserByID, id)
	return u, notFound(err)
}

const listUsers = `
SELECT id, username, email, report_frequency, report_format, report_email, auto_sync_interval, created_at, updated_at
FROM users ORDER BY created_at
`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	err := q.db.SelectContext(ctx, &users, listUsers)
	return users, err
}

type UpdateUserSettingsParams struct {
	ID               uuid.UUID
	ReportFrequency  string
	ReportFormat     string
	ReportEmail      sql.NullString
	AutoSyncInterval int32
	UpdatedAt        time.Time
}

const updateUserSettings = `
UPDATE users SET
    report_frequency = $2,
    report_format = $3,
    report_email = $4,
    auto_sync_interval = $5,
    updated_at = $6
WHERE id = $1
RETURNING id, username, email, report_frequency, report_format, report_email, auto_sync_interval, created_at, updated_at
`

func (q *Queries) UpdateUserSettings(ctx context.Context, arg UpdateUserSettingsParams) (User, error) {
	var u User
	err := q.db.GetContext(ctx, &u, updateUserSettings,
		arg.ID, arg.ReportFrequency, arg.ReportFormat, arg.ReportEmail, arg.AutoSyncInterval, arg.UpdatedAt)
	return u, notFound(err)
}

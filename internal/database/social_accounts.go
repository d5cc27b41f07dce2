// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const socialAccountColumns = `id, user_id, platform, account_id, username, access_token, refresh_token, token_expiry,
    is_active, last_sync, sync_status, status_reason, created_at, updated_at`

type UpsertSocialAccountParams struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	Platform     string
	AccountID    string
	Username     string
	AccessToken  string
	RefreshToken sql.NullString
	TokenExpiry  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Reconnecting an account that already exists replaces its tokens and reactivates it.
const upsertSocialAccount = `
INSERT INTO social_accounts (id, user_id, platform, account_id, username, access_token, refresh_token, token_expiry,
    is_active, sync_status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, 'Initialized', $9, $10)
ON CONFLICT (user_id, platform, account_id) DO UPDATE SET
    username = EXCLUDED.username,
    access_token = EXCLUDED.access_token,
    refresh_token = COALESCE(EXCLUDED.refresh_token, social_accounts.refresh_token),
    token_expiry = EXCLUDED.token_expiry,
    is_active = TRUE,
    updated_at = EXCLUDED.updated_at
RETURNING ` + socialAccountColumns

func (q *Queries) UpsertSocialAccount(ctx context.Context, arg UpsertSocialAccountParams) (SocialAccount, error) {
	accessToken, err := q.cipher.Seal(arg.AccessToken)
	if err != nil {
		return SocialAccount{}, fmt.Errorf("failed to seal access token: %w", err)
	}
	refreshToken, err := q.sealNull(arg.RefreshToken)
	if err != nil {
		return SocialAccount{}, fmt.Errorf("failed to seal refresh token: %w", err)
	}

	var a SocialAccount
	err = q.db.GetContext(ctx, &a, upsertSocialAccount,
		arg.ID, arg.UserID, arg.Platform, arg.AccountID, arg.Username,
		accessToken, refreshToken, arg.TokenExpiry, arg.CreatedAt, arg.UpdatedAt)
	if err != nil {
		return SocialAccount{}, err
	}
	return q.openAccount(a)
}

func (q *Queries) GetSocialAccountByID(ctx context.Context, id uuid.UUID) (SocialAccount, error) {
	var a SocialAccount
	err := q.db.GetContext(ctx, &a, `SELECT `+socialAccountColumns+` FROM social_accounts WHERE id = $1`, id)
	if err != nil {
		return SocialAccount{}, notFound(err)
	}
	return q.openAccount(a)
}

func (q *Queries) ListSocialAccountsByUser(ctx context.Context, userID uuid.UUID) ([]SocialAccount, error) {
	return q.listAccounts(ctx,
		`SELECT `+socialAccountColumns+` FROM social_accounts WHERE user_id = $1 ORDER BY created_at`, userID)
}

func (q *Queries) ListActiveSocialAccountsByUser(ctx context.Context, userID uuid.UUID) ([]SocialAccount, error) {
	return q.listAccounts(ctx,
		`SELECT `+socialAccountColumns+` FROM social_accounts WHERE user_id = $1 AND is_active ORDER BY created_at`, userID)
}

func (q *Queries) listAccounts(ctx context.Context, query string, args ...any) ([]SocialAccount, error) {
	var rows []SocialAccount
	if err := q.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	accounts := make([]SocialAccount, 0, len(rows))
	for _, row := range rows {
		a, err := q.openAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

type UpdateSocialAccountTokensParams struct {
	ID           uuid.UUID
	AccessToken  string
	RefreshToken sql.NullString
	TokenExpiry  sql.NullTime
	UpdatedAt    time.Time
}

const updateSocialAccountTokens = `
UPDATE social_accounts SET
    access_token = $2,
    refresh_token = COALESCE($3, refresh_token),
    token_expiry = $4,
    updated_at = $5
WHERE id = $1
`

func (q *Queries) UpdateSocialAccountTokens(ctx context.Context, arg UpdateSocialAccountTokensParams) error {
	accessToken, err := q.cipher.Seal(arg.AccessToken)
	if err != nil {
		return fmt.Errorf("failed to seal access token: %w", err)
	}
	refreshToken, err := q.sealNull(arg.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to seal refresh token: %w", err)
	}

	res, err := q.db.ExecContext(ctx, updateSocialAccountTokens,
		arg.ID, accessToken, refreshToken, arg.TokenExpiry, arg.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

type UpdateSocialAccountSyncStatusParams struct {
	ID           uuid.UUID
	SyncStatus   string
	StatusReason sql.NullString
	LastSync     sql.NullTime
	UpdatedAt    time.Time
}

// A null LastSync keeps the previous value.
const updateSocialAccountSyncStatus = `
UPDATE social_accounts SET
    sync_status = $2,
    status_reason = $3,
    last_sync = COALESCE($4, last_sync),
    updated_at = $5
WHERE id = $1
`

func (q *Queries) UpdateSocialAccountSyncStatus(ctx context.Context, arg UpdateSocialAccountSyncStatusParams) error {
	res, err := q.db.ExecContext(ctx, updateSocialAccountSyncStatus,
		arg.ID, arg.SyncStatus, arg.StatusReason, arg.LastSync, arg.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

type SetSocialAccountActiveParams struct {
	ID        uuid.UUID
	IsActive  bool
	UpdatedAt time.Time
}

func (q *Queries) SetSocialAccountActive(ctx context.Context, arg SetSocialAccountActiveParams) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE social_accounts SET is_active = $2, updated_at = $3 WHERE id = $1`,
		arg.ID, arg.IsActive, arg.UpdatedAt)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (q *Queries) DeleteSocialAccount(ctx context.Context, id uuid.UUID) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM social_accounts WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (q *Queries) sealNull(v sql.NullString) (sql.NullString, error) {
	if !v.Valid || v.String == "" {
		return sql.NullString{}, nil
	}
	sealed, err := q.cipher.Seal(v.String)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: sealed, Valid: true}, nil
}

func (q *Queries) openAccount(a SocialAccount) (SocialAccount, error) {
	accessToken, err := q.cipher.Open(a.AccessToken)
	if err != nil {
		return SocialAccount{}, fmt.Errorf("failed to open access token of account %s: %w", a.ID, err)
	}
	a.AccessToken = accessToken

	if a.RefreshToken.Valid {
		refreshToken, err := q.cipher.Open(a.RefreshToken.String)
		if err != nil {
			return SocialAccount{}, fmt.Errorf("failed to open refresh token of account %s: %w", a.ID, err)
		}
		a.RefreshToken.String = refreshToken
	}
	return a, nil
}

// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID               uuid.UUID      `db:"id"`
	Username         string         `db:"username"`
	Email            sql.NullString `db:"email"`
	ReportFrequency  string         `db:"report_frequency"`
	ReportFormat     string         `db:"report_format"`
	ReportEmail      sql.NullString `db:"report_email"`
	AutoSyncInterval int32          `db:"auto_sync_interval"`
	CreatedAt        time.Time      `db:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at"`
}

// SocialAccount holds decrypted tokens. The store seals them on write.
type SocialAccount struct {
	ID           uuid.UUID      `db:"id"`
	UserID       uuid.UUID      `db:"user_id"`
	Platform     string         `db:"platform"`
	AccountID    string         `db:"account_id"`
	Username     string         `db:"username"`
	AccessToken  string         `db:"access_token"`
	RefreshToken sql.NullString `db:"refresh_token"`
	TokenExpiry  sql.NullTime   `db:"token_expiry"`
	IsActive     bool           `db:"is_active"`
	LastSync     sql.NullTime   `db:"last_sync"`
	SyncStatus   string         `db:"sync_status"`
	StatusReason sql.NullString `db:"status_reason"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

type MetricSnapshot struct {
	ID             uuid.UUID `db:"id"`
	AccountID      uuid.UUID `db:"account_id"`
	Platform       string    `db:"platform"`
	Followers      int64     `db:"followers"`
	Following      int64     `db:"following"`
	EngagementRate float64   `db:"engagement_rate"`
	Impressions    int64     `db:"impressions"`
	Reach          int64     `db:"reach"`
	CapturedAt     time.Time `db:"captured_at"`
}

type Post struct {
	ID             uuid.UUID      `db:"id"`
	AccountID      uuid.UUID      `db:"account_id"`
	Platform       string         `db:"platform"`
	PostID         string         `db:"post_id"`
	Content        string         `db:"content"`
	ImageUrl       sql.NullString `db:"image_url"`
	Likes          int64          `db:"likes"`
	Comments       int64          `db:"comments"`
	Shares         int64          `db:"shares"`
	Views          int64          `db:"views"`
	EngagementRate float64        `db:"engagement_rate"`
	PostedAt       time.Time      `db:"posted_at"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (p Post) Interactions() int64 {
	return p.Likes + p.Comments + p.Shares
}

type Report struct {
	ID         uuid.UUID `db:"id"`
	UserID     uuid.UUID `db:"user_id"`
	ReportType string    `db:"report_type"`
	Title      string    `db:"title"`
	Data       []byte    `db:"data"`
	StartDate  time.Time `db:"start_date"`
	EndDate    time.Time `db:"end_date"`
	CreatedAt  time.Time `db:"created_at"`
}

const (
	SyncStatusInitialized = "Initialized"
	SyncStatusSyncing     = "Syncing"
	SyncStatusSynced      = "Synced"
	SyncStatusFailed      = "Failed"
)

// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/fetcher"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const DefaultPostLimit = 20

type Syncer struct {
	DB        database.Store
	Sources   fetcher.Factory
	Locks     *AccountLocks
	PostLimit int
	Metrics   *metrics.Metrics
	Now       func() time.Time
}

func NewSyncer(db database.Store, sources fetcher.Factory, postLimit int, m *metrics.Metrics) *Syncer {
	if postLimit <= 0 {
		postLimit = DefaultPostLimit
	}
	return &Syncer{
		DB:        db,
		Sources:   sources,
		Locks:     NewAccountLocks(),
		PostLimit: postLimit,
		Metrics:   m,
		Now:       time.Now,
	}
}

// SyncResult is the outcome of one account inside SyncAllAccounts.
type SyncResult struct {
	AccountID      uuid.UUID `json:"accountId"`
	Platform       string    `json:"platform"`
	Username       string    `json:"username"`
	Success        bool      `json:"success"`
	Error          string    `json:"error,omitempty"`
	RequiresReauth bool      `json:"requiresReauth,omitempty"`
}

// SyncAllAccounts syncs the user's active accounts one after another. A
// failing account is reported in its result and does not stop the others.
func (s *Syncer) SyncAllAccounts(ctx context.Context, userID uuid.UUID) ([]SyncResult, error) {
	accounts, err := s.DB.ListActiveSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	results := make([]SyncResult, 0, len(accounts))
	for _, account := range accounts {
		res := SyncResult{
			AccountID: account.ID,
			Platform:  account.Platform,
			Username:  account.Username,
		}
		if err := s.SyncAccount(ctx, account.ID); err != nil {
			res.Error = err.Error()
			res.RequiresReauth = IsReauthRequired(err)
		} else {
			res.Success = true
		}
		results = append(results, res)
	}
	return results, nil
}

// SyncAccount refreshes the account's token when needed, then records a new
// metric snapshot and upserts its latest posts.
func (s *Syncer) SyncAccount(ctx context.Context, accountID uuid.UUID) error {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return err
	}

	if !s.Locks.TryLock(account.ID) {
		return ErrSyncInProgress
	}
	defer s.Locks.Unlock(account.ID)

	start := time.Now()
	s.setStatus(ctx, account.ID, database.SyncStatusSyncing, "", false)

	err = s.syncLocked(ctx, account)

	result := "success"
	if err != nil {
		result = "failed"
		if IsReauthRequired(err) {
			result = "reauth_required"
		}
		s.setStatus(ctx, account.ID, database.SyncStatusFailed, err.Error(), false)
		logger.Log.Warn("Account sync failed",
			zap.String("platform", account.Platform),
			zap.Stringer("account_id", account.ID),
			zap.Error(err),
		)
	} else {
		s.setStatus(ctx, account.ID, database.SyncStatusSynced, "", true)
		logger.Log.Info("Account synced",
			zap.String("platform", account.Platform),
			zap.Stringer("account_id", account.ID),
			zap.Duration("took", time.Since(start)),
		)
	}
	s.Metrics.ObserveSync(account.Platform, result, time.Since(start))
	return err
}

// RefreshAccountToken refreshes the stored token only when the platform
// rejects the current one. It reports whether a refresh took place.
func (s *Syncer) RefreshAccountToken(ctx context.Context, accountID uuid.UUID) (bool, error) {
	account, err := s.loadAccount(ctx, accountID)
	if err != nil {
		return false, err
	}

	if !s.Locks.TryLock(account.ID) {
		return false, ErrSyncInProgress
	}
	defer s.Locks.Unlock(account.ID)

	src, err := s.Sources.NewSource(account)
	if err != nil {
		return false, err
	}
	if src.IsTokenValid(ctx) {
		return false, nil
	}

	if _, err := s.refresh(ctx, account, src); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Syncer) loadAccount(ctx context.Context, accountID uuid.UUID) (database.SocialAccount, error) {
	account, err := s.DB.GetSocialAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return database.SocialAccount{}, ErrAccountNotFound
		}
		return database.SocialAccount{}, fmt.Errorf("failed to load account: %w", err)
	}
	if account.AccessToken == "" {
		return database.SocialAccount{}, ErrAccountNotFound
	}
	return account, nil
}

func (s *Syncer) syncLocked(ctx context.Context, account database.SocialAccount) error {
	src, err := s.Sources.NewSource(account)
	if err != nil {
		return err
	}

	if !src.IsTokenValid(ctx) {
		if src, err = s.refresh(ctx, account, src); err != nil {
			return err
		}
	}

	m, err := src.FetchMetrics(ctx)
	if err != nil {
		s.upstreamFailed(err)
		return fmt.Errorf("failed to fetch metrics: %w", err)
	}

	posts, postsErr := src.FetchPosts(ctx, s.PostLimit)
	if postsErr != nil {
		s.upstreamFailed(postsErr)
	}

	// Platforms without an account-level rate get the mean of their posts.
	if m.EngagementRate == 0 && postsErr == nil {
		m.EngagementRate = meanEngagementRate(posts)
	}

	now := s.Now()
	if _, err := s.DB.CreateMetricSnapshot(ctx, database.CreateMetricSnapshotParams{
		ID:             uuid.New(),
		AccountID:      account.ID,
		Platform:       account.Platform,
		Followers:      m.Followers,
		Following:      m.Following,
		EngagementRate: m.EngagementRate,
		Impressions:    m.Impressions,
		Reach:          m.Reach,
		CapturedAt:     now,
	}); err != nil {
		return fmt.Errorf("failed to store metric snapshot: %w", err)
	}

	if postsErr != nil {
		return fmt.Errorf("failed to fetch posts: %w", postsErr)
	}

	for _, p := range posts {
		if _, err := s.DB.UpsertPost(ctx, database.UpsertPostParams{
			ID:             uuid.New(),
			AccountID:      account.ID,
			Platform:       account.Platform,
			PostID:         p.PostID,
			Content:        p.Content,
			ImageUrl:       sql.NullString{String: p.ImageURL, Valid: p.ImageURL != ""},
			Likes:          p.Likes,
			Comments:       p.Comments,
			Shares:         p.Shares,
			Views:          p.Views,
			EngagementRate: p.EngagementRate(),
			PostedAt:       p.PostedAt,
			CreatedAt:      now,
			UpdatedAt:      now,
		}); err != nil {
			return fmt.Errorf("failed to store post %s: %w", p.PostID, err)
		}
	}
	return nil
}

// refresh trades the refresh token for a new access token, persists it and
// returns a source bound to the new credentials.
func (s *Syncer) refresh(ctx context.Context, account database.SocialAccount, src fetcher.Source) (fetcher.Source, error) {
	if !account.RefreshToken.Valid || account.RefreshToken.String == "" {
		return nil, &ReauthRequiredError{AccountID: account.ID, Platform: account.Platform, Err: ErrNoRefreshToken}
	}

	token, err := src.RefreshAccessToken(ctx)
	if err != nil {
		s.upstreamFailed(err)
		return nil, &ReauthRequiredError{
			AccountID: account.ID,
			Platform:  account.Platform,
			Err:       fmt.Errorf("%w: %v", ErrTokenRefreshFailed, err),
		}
	}

	if err := s.storeToken(ctx, &account, token); err != nil {
		return nil, err
	}
	logger.Log.Info("Access token refreshed",
		zap.String("platform", account.Platform),
		zap.Stringer("account_id", account.ID),
	)
	return s.Sources.NewSource(account)
}

func (s *Syncer) storeToken(ctx context.Context, account *database.SocialAccount, token *oauth2.Token) error {
	account.AccessToken = token.AccessToken
	if token.RefreshToken != "" {
		account.RefreshToken = sql.NullString{String: token.RefreshToken, Valid: true}
	}
	account.TokenExpiry = sql.NullTime{Time: token.Expiry, Valid: !token.Expiry.IsZero()}

	err := s.DB.UpdateSocialAccountTokens(ctx, database.UpdateSocialAccountTokensParams{
		ID:           account.ID,
		AccessToken:  token.AccessToken,
		RefreshToken: sql.NullString{String: token.RefreshToken, Valid: token.RefreshToken != ""},
		TokenExpiry:  account.TokenExpiry,
		UpdatedAt:    s.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to store refreshed token: %w", err)
	}
	return nil
}

func (s *Syncer) setStatus(ctx context.Context, id uuid.UUID, status, reason string, synced bool) {
	now := s.Now()
	err := s.DB.UpdateSocialAccountSyncStatus(ctx, database.UpdateSocialAccountSyncStatusParams{
		ID:           id,
		SyncStatus:   status,
		StatusReason: sql.NullString{String: reason, Valid: reason != ""},
		LastSync:     sql.NullTime{Time: now, Valid: synced},
		UpdatedAt:    now,
	})
	if err != nil {
		logger.Log.Error("Failed to update sync status",
			zap.Stringer("account_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
	}
}

func (s *Syncer) upstreamFailed(err error) {
	var ue *common.UpstreamError
	if errors.As(err, &ue) {
		s.Metrics.UpstreamError(string(ue.Platform), ue.Operation)
	}
}

func meanEngagementRate(posts []common.Post) float64 {
	var (
		sum float64
		n   int
	)
	for _, p := range posts {
		if p.Views > 0 {
			sum += p.EngagementRate()
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

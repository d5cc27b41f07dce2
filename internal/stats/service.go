// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/google/uuid"
)

// Service reads a user's active accounts from the store and feeds them to
// the Compute functions.
type Service struct {
	DB  database.Store
	Now func() time.Time
}

func NewService(db database.Store) *Service {
	return &Service{DB: db, Now: time.Now}
}

func (s *Service) AccountMetrics(ctx context.Context, userID uuid.UUID) ([]AccountMetrics, error) {
	accounts, err := s.DB.ListActiveSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	out := make([]AccountMetrics, 0, len(accounts))
	for _, a := range accounts {
		am := AccountMetrics{Account: a}
		latest, err := s.DB.GetLatestMetricSnapshot(ctx, a.ID)
		switch {
		case err == nil:
			am.Latest = &latest
		case !errors.Is(err, database.ErrNotFound):
			return nil, fmt.Errorf("failed to load metrics for account %s: %w", a.ID, err)
		}
		out = append(out, am)
	}
	return out, nil
}

func (s *Service) Overview(ctx context.Context, userID uuid.UUID) (Overview, []PlatformStat, error) {
	accounts, err := s.AccountMetrics(ctx, userID)
	if err != nil {
		return Overview{}, nil, err
	}
	return ComputeOverview(accounts), ComputePlatformStats(accounts), nil
}

// FollowerGrowth covers the last days days, today included.
func (s *Service) FollowerGrowth(ctx context.Context, userID uuid.UUID, days int) ([]GrowthPoint, error) {
	end := truncateDay(s.Now())
	start := end.AddDate(0, 0, -(days - 1))
	return s.FollowerGrowthRange(ctx, userID, start, end)
}

// FollowerGrowthRange covers start to end, both days inclusive.
func (s *Service) FollowerGrowthRange(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]GrowthPoint, error) {
	accounts, err := s.DB.ListActiveSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	from := truncateDay(start)
	to := truncateDay(end).AddDate(0, 0, 1)

	var snapshots []database.MetricSnapshot
	for _, a := range accounts {
		rows, err := s.DB.ListMetricSnapshotsInRange(ctx, database.ListMetricSnapshotsInRangeParams{
			AccountID: a.ID,
			From:      from,
			To:        to,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load snapshots for account %s: %w", a.ID, err)
		}
		snapshots = append(snapshots, rows...)
	}
	return ComputeFollowerGrowth(snapshots, from, truncateDay(end)), nil
}

func (s *Service) PlatformDistribution(ctx context.Context, userID uuid.UUID) (map[string]float64, error) {
	accounts, err := s.AccountMetrics(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ComputePlatformDistribution(accounts), nil
}

// TopPosts takes each account's best limit posts and ranks them globally.
func (s *Service) TopPosts(ctx context.Context, userID uuid.UUID, limit int) ([]TopPost, error) {
	accounts, err := s.DB.ListActiveSocialAccountsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	var posts []database.Post
	for _, a := range accounts {
		rows, err := s.DB.ListTopPostsByAccount(ctx, database.ListTopPostsByAccountParams{
			AccountID: a.ID,
			Limit:     int32(limit),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to load posts for account %s: %w", a.ID, err)
		}
		posts = append(posts, rows...)
	}
	return ComputeTopPosts(posts, limit), nil
}

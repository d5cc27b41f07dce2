// SPDX-License-Identifier: AGPL-3.0-only
package stats

import (
	"sort"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/google/uuid"
)

const DateLayout = "2006-01-02"

// AccountMetrics pairs an account with its most recent snapshot, if any.
type AccountMetrics struct {
	Account database.SocialAccount
	Latest  *database.MetricSnapshot
}

type Overview struct {
	TotalFollowers   int64   `json:"totalFollowers"`
	EngagementRate   float64 `json:"engagementRate"`
	TotalImpressions int64   `json:"totalImpressions"`
	ActivePlatforms  int     `json:"activePlatforms"`
}

type PlatformStat struct {
	AccountID      uuid.UUID `json:"accountId"`
	Platform       string    `json:"platform"`
	Username       string    `json:"username"`
	Followers      int64     `json:"followers"`
	EngagementRate float64   `json:"engagementRate"`
	Impressions    int64     `json:"impressions"`
	Reach          int64     `json:"reach"`
}

type GrowthPoint struct {
	Date      string `json:"date"`
	Followers int64  `json:"followers"`
}

type TopPost struct {
	ID             uuid.UUID `json:"id"`
	Platform       string    `json:"platform"`
	PostID         string    `json:"postId"`
	Content        string    `json:"content"`
	ImageURL       string    `json:"imageUrl,omitempty"`
	Likes          int64     `json:"likes"`
	Comments       int64     `json:"comments"`
	Shares         int64     `json:"shares"`
	Views          int64     `json:"views"`
	EngagementRate float64   `json:"engagementRate"`
	PostedAt       time.Time `json:"postedAt"`
}

// ComputeOverview totals the latest snapshot of every account that has one.
// The engagement rate is the plain mean of per-account rates, not weighted
// by followers.
func ComputeOverview(accounts []AccountMetrics) Overview {
	var (
		o          Overview
		engagement float64
	)
	for _, a := range accounts {
		if a.Latest == nil {
			continue
		}
		o.TotalFollowers += a.Latest.Followers
		o.TotalImpressions += a.Latest.Impressions
		engagement += a.Latest.EngagementRate
		o.ActivePlatforms++
	}
	if o.ActivePlatforms > 0 {
		o.EngagementRate = engagement / float64(o.ActivePlatforms)
	}
	return o
}

func ComputePlatformStats(accounts []AccountMetrics) []PlatformStat {
	out := make([]PlatformStat, 0, len(accounts))
	for _, a := range accounts {
		if a.Latest == nil {
			continue
		}
		out = append(out, PlatformStat{
			AccountID:      a.Account.ID,
			Platform:       a.Account.Platform,
			Username:       a.Account.Username,
			Followers:      a.Latest.Followers,
			EngagementRate: a.Latest.EngagementRate,
			Impressions:    a.Latest.Impressions,
			Reach:          a.Latest.Reach,
		})
	}
	return out
}

// ComputeFollowerGrowth returns one point per UTC day from start to end,
// inclusive. Each account contributes its last snapshot of the day; days
// without a snapshot contribute 0.
func ComputeFollowerGrowth(snapshots []database.MetricSnapshot, start, end time.Time) []GrowthPoint {
	type dayKey struct {
		account uuid.UUID
		date    string
	}
	latest := make(map[dayKey]database.MetricSnapshot)
	for _, s := range snapshots {
		k := dayKey{account: s.AccountID, date: s.CapturedAt.UTC().Format(DateLayout)}
		if prev, ok := latest[k]; !ok || !s.CapturedAt.Before(prev.CapturedAt) {
			latest[k] = s
		}
	}

	totals := make(map[string]int64)
	for k, s := range latest {
		totals[k.date] += s.Followers
	}

	first := truncateDay(start)
	last := truncateDay(end)
	var out []GrowthPoint
	for day := first; !day.After(last); day = day.AddDate(0, 0, 1) {
		date := day.Format(DateLayout)
		out = append(out, GrowthPoint{Date: date, Followers: totals[date]})
	}
	return out
}

// ComputePlatformDistribution maps each platform to its share of total
// followers, in percent. With no followers at all every share is 0.
func ComputePlatformDistribution(accounts []AccountMetrics) map[string]float64 {
	followers := make(map[string]int64)
	var total int64
	for _, a := range accounts {
		if a.Latest == nil {
			continue
		}
		followers[a.Account.Platform] += a.Latest.Followers
		total += a.Latest.Followers
	}

	out := make(map[string]float64, len(followers))
	for platform, n := range followers {
		if total > 0 {
			out[platform] = float64(n) / float64(total) * 100
		} else {
			out[platform] = 0
		}
	}
	return out
}

// ComputeTopPosts ranks posts by likes+comments+shares. Ties keep their
// input order.
func ComputeTopPosts(posts []database.Post, limit int) []TopPost {
	sorted := make([]database.Post, len(posts))
	copy(sorted, posts)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Interactions() > sorted[j].Interactions()
	})
	if limit >= 0 && len(sorted) > limit {
		sorted = sorted[:limit]
	}

	out := make([]TopPost, 0, len(sorted))
	for _, p := range sorted {
		out = append(out, TopPost{
			ID:             p.ID,
			Platform:       p.Platform,
			PostID:         p.PostID,
			Content:        p.Content,
			ImageURL:       p.ImageUrl.String,
			Likes:          p.Likes,
			Comments:       p.Comments,
			Shares:         p.Shares,
			Views:          p.Views,
			EngagementRate: p.EngagementRate,
			PostedAt:       p.PostedAt,
		})
	}
	return out
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SPDX-License-Identifier: AGPL-3.0-only
package common

import "time"

// Metrics is one point-in-time reading of an account. Fields the platform
// does not report stay zero.
type Metrics struct {
	Followers      int64
	Following      int64
	EngagementRate float64
	Impressions    int64
	Reach          int64
}

type Post struct {
	PostID   string
	Content  string
	ImageURL string
	Likes    int64
	Comments int64
	Shares   int64
	Views    int64
	PostedAt time.Time
}

func (p Post) EngagementRate() float64 {
	return EngagementRate(p.Likes, p.Comments, p.Shares, p.Views)
}

// EngagementRate is interactions per view as a percentage, 0 without views.
func EngagementRate(likes, comments, shares, views int64) float64 {
	if views <= 0 {
		return 0
	}
	return float64(likes+comments+shares) / float64(views) * 100
}

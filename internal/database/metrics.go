// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateMetricSnapshotParams struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	Platform       string
	Followers      int64
	Following      int64
	EngagementRate float64
	Impressions    int64
	Reach          int64
	CapturedAt     time.Time
}

const metricSnapshotColumns = `id, account_id, platform, followers, following, engagement_rate, impressions, reach, captured_at`

const createMetricSnapshot = `
INSERT INTO metric_snapshots (` + metricSnapshotColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + metricSnapshotColumns

func (q *Queries) CreateMetricSnapshot(ctx context.Context, arg CreateMetricSnapshotParams) (MetricSnapshot, error) {
	var m MetricSnapshot
	err := q.db.GetContext(ctx, &m, createMetricSnapshot,
		arg.ID, arg.AccountID, arg.Platform, arg.Followers, arg.Following,
		arg.EngagementRate, arg.Impressions, arg.Reach, arg.CapturedAt)
	return m, err
}

const getLatestMetricSnapshot = `
SELECT ` + metricSnapshotColumns + `
FROM metric_snapshots
WHERE account_id = $1
ORDER BY captured_at DESC
LIMIT 1
`

func (q *Queries) GetLatestMetricSnapshot(ctx context.Context, accountID uuid.UUID) (MetricSnapshot, error) {
	var m MetricSnapshot
	err := q.db.GetContext(ctx, &m, getLatestMetricSnapshot, accountID)
	return m, notFound(err)
}

type ListMetricSnapshotsInRangeParams struct {
	AccountID uuid.UUID
	From      time.Time
	To        time.Time
}

// Half-open range [From, To), oldest first.
const listMetricSnapshotsInRange = `
SELECT ` + metricSnapshotColumns + `
FROM metric_snapshots
WHERE account_id = $1 AND captured_at >= $2 AND captured_at < $3
ORDER BY captured_at ASC
`

func (q *Queries) ListMetricSnapshotsInRange(ctx context.Context, arg ListMetricSnapshotsInRangeParams) ([]MetricSnapshot, error) {
	var snapshots []MetricSnapshot
	err := q.db.SelectContext(ctx, &snapshots, listMetricSnapshotsInRange, arg.AccountID, arg.From, arg.To)
	return snapshots, err
}

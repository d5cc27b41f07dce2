// SPDX-License-Identifier: AGPL-3.0-only
package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type CreateReportParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	ReportType string
	Title      string
	Data       []byte
	StartDate  time.Time
	EndDate    time.Time
	CreatedAt  time.Time
}

const reportColumns = `id, user_id, report_type, title, data, start_date, end_date, created_at`

// Single-row insert: a report is written once, fully assembled.
const createReport = `
INSERT INTO reports (` + reportColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING ` + reportColumns

func (q *Queries) CreateReport(ctx context.Context, arg CreateReportParams) (Report, error) {
	var r Report
	err := q.db.GetContext(ctx, &r, createReport,
		arg.ID, arg.UserID, arg.ReportType, arg.Title, string(arg.Data), arg.StartDate, arg.EndDate, arg.CreatedAt)
	return r, err
}

func (q *Queries) GetReportByID(ctx context.Context, id uuid.UUID) (Report, error) {
	var r Report
	err := q.db.GetContext(ctx, &r, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id)
	return r, notFound(err)
}

func (q *Queries) ListReportsByUser(ctx context.Context, userID uuid.UUID) ([]Report, error) {
	var reports []Report
	err := q.db.SelectContext(ctx, &reports,
		`SELECT `+reportColumns+` FROM reports WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	return reports, err
}

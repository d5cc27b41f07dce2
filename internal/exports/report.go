// SPDX-License-Identifier: AGPL-3.0-only
package exports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/fluffyriot/socialpulse/internal/stats"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultReportType = "overview"
	DefaultRangeDays  = 30
	TopPostsLimit     = 10
)

type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ReportData struct {
	Overview             stats.Overview       `json:"overview"`
	PlatformStats        []stats.PlatformStat `json:"platformStats"`
	TopPosts             []stats.TopPost      `json:"topPosts"`
	FollowerGrowth       []stats.GrowthPoint  `json:"followerGrowth"`
	PlatformDistribution map[string]float64   `json:"platformDistribution"`
	TimeRange            DateRange            `json:"timeRange"`
}

type Report struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"userId"`
	ReportType string     `json:"reportType"`
	Title      string     `json:"title"`
	Data       ReportData `json:"data"`
	DateRange  DateRange  `json:"dateRange"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Generator assembles report payloads and persists them.
type Generator struct {
	DB      database.Store
	Stats   *stats.Service
	Metrics *metrics.Metrics
	Now     func() time.Time
}

func NewGenerator(db database.Store, m *metrics.Metrics) *Generator {
	return &Generator{
		DB:      db,
		Stats:   stats.NewService(db),
		Metrics: m,
		Now:     time.Now,
	}
}

// ResolveDateRange validates a YYYY-MM-DD range. A missing end means today
// and a missing start means DefaultRangeDays days up to and including end.
func ResolveDateRange(dr DateRange, now time.Time) (start, end time.Time, err error) {
	if dr.End == "" {
		y, m, d := now.UTC().Date()
		end = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else if end, err = time.Parse(stats.DateLayout, dr.End); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end %q", ErrInvalidDateRange, dr.End)
	}

	if dr.Start == "" {
		start = end.AddDate(0, 0, -(DefaultRangeDays - 1))
	} else if start, err = time.Parse(stats.DateLayout, dr.Start); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start %q", ErrInvalidDateRange, dr.Start)
	}

	if start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start is after end", ErrInvalidDateRange)
	}
	return start, end, nil
}

func Title(reportType string) string {
	return helpers.Capitalize(reportType) + " Analytics Report"
}

// GenerateReport computes every section first and writes the report row once.
func (g *Generator) GenerateReport(ctx context.Context, userID uuid.UUID, reportType string, dr DateRange) (Report, error) {
	reportType = strings.TrimSpace(reportType)
	if reportType == "" {
		reportType = DefaultReportType
	}

	now := g.Now().UTC()
	start, end, err := ResolveDateRange(dr, now)
	if err != nil {
		return Report{}, err
	}
	dr = DateRange{Start: start.Format(stats.DateLayout), End: end.Format(stats.DateLayout)}

	accounts, err := g.Stats.AccountMetrics(ctx, userID)
	if err != nil {
		return Report{}, err
	}
	growth, err := g.Stats.FollowerGrowthRange(ctx, userID, start, end)
	if err != nil {
		return Report{}, err
	}
	topPosts, err := g.Stats.TopPosts(ctx, userID, TopPostsLimit)
	if err != nil {
		return Report{}, err
	}

	data := ReportData{
		Overview:             stats.ComputeOverview(accounts),
		PlatformStats:        stats.ComputePlatformStats(accounts),
		TopPosts:             topPosts,
		FollowerGrowth:       growth,
		PlatformDistribution: stats.ComputePlatformDistribution(accounts),
		TimeRange:            dr,
	}

	payload, err := json.Marshal(data)
	if err != nil {
		return Report{}, fmt.Errorf("failed to encode report: %w", err)
	}

	row, err := g.DB.CreateReport(ctx, database.CreateReportParams{
		ID:         uuid.New(),
		UserID:     userID,
		ReportType: reportType,
		Title:      Title(reportType),
		Data:       payload,
		StartDate:  start,
		EndDate:    end,
		CreatedAt:  now,
	})
	if err != nil {
		return Report{}, fmt.Errorf("failed to save report: %w", err)
	}

	g.Metrics.ReportGenerated(reportType)
	logger.Log.Info("Report generated",
		zap.Stringer("report_id", row.ID),
		zap.Stringer("user_id", userID),
		zap.String("report_type", reportType),
	)

	return fromRow(row)
}

// GetReport returns ErrReportNotFound for reports owned by someone else.
func (g *Generator) GetReport(ctx context.Context, userID, id uuid.UUID) (Report, error) {
	row, err := g.DB.GetReportByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) || (err == nil && row.UserID != userID) {
		return Report{}, ErrReportNotFound
	}
	if err != nil {
		return Report{}, fmt.Errorf("failed to load report: %w", err)
	}
	return fromRow(row)
}

func (g *Generator) ListReports(ctx context.Context, userID uuid.UUID) ([]Report, error) {
	rows, err := g.DB.ListReportsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, 0, len(rows))
	for _, row := range rows {
		r, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func fromRow(row database.Report) (Report, error) {
	r := Report{
		ID:         row.ID,
		UserID:     row.UserID,
		ReportType: row.ReportType,
		Title:      row.Title,
		DateRange: DateRange{
			Start: row.StartDate.UTC().Format(stats.DateLayout),
			End:   row.EndDate.UTC().Format(stats.DateLayout),
		},
		CreatedAt: row.CreatedAt.UTC(),
	}
	if err := json.Unmarshal(row.Data, &r.Data); err != nil {
		return Report{}, fmt.Errorf("failed to decode report %s: %w", row.ID, err)
	}
	return r, nil
}

// SPDX-License-Identifier: AGPL-3.0-only
package exports

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/helpers"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatPDF  = "pdf"

	contentPreview = 100
)

// File is a rendered export ready to be served as a download.
type File struct {
	Body        []byte
	ContentType string
	Filename    string
}

// Export renders a report. An empty format means JSON. The "pdf" format is
// a plain-text document and is served as such.
func Export(r Report, format string) (File, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatCSV:
		body, err := exportCSV(r)
		if err != nil {
			return File{}, err
		}
		return File{Body: body, ContentType: "text/csv; charset=utf-8", Filename: filename(r, "csv")}, nil
	case FormatJSON, "":
		body, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return File{}, fmt.Errorf("failed to encode report: %w", err)
		}
		return File{Body: body, ContentType: "application/json", Filename: filename(r, "json")}, nil
	case FormatPDF:
		return File{Body: exportText(r), ContentType: "text/plain; charset=utf-8", Filename: filename(r, "txt")}, nil
	default:
		return File{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

func filename(r Report, ext string) string {
	return fmt.Sprintf("report-%s.%s", r.ID, ext)
}

func exportCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	d := r.Data

	records := [][]string{
		{"Report: " + r.Title},
		{"Generated: " + r.CreatedAt.UTC().Format(time.RFC3339)},
		{"Time Range: " + d.TimeRange.Start + " to " + d.TimeRange.End},
		{},
		{"OVERVIEW"},
		{"Total Followers", strconv.FormatInt(d.Overview.TotalFollowers, 10)},
		{"Engagement Rate", percent(d.Overview.EngagementRate)},
		{"Total Impressions", strconv.FormatInt(d.Overview.TotalImpressions, 10)},
		{"Active Platforms", strconv.Itoa(d.Overview.ActivePlatforms)},
		{},
		{"PLATFORM STATISTICS"},
		{"Platform", "Username", "Followers", "Engagement Rate", "Impressions", "Reach"},
	}
	for _, s := range d.PlatformStats {
		records = append(records, []string{
			s.Platform,
			s.Username,
			strconv.FormatInt(s.Followers, 10),
			percent(s.EngagementRate),
			strconv.FormatInt(s.Impressions, 10),
			strconv.FormatInt(s.Reach, 10),
		})
	}
	records = append(records, []string{}, []string{"TOP PERFORMING POSTS"},
		[]string{"Platform", "Content", "Likes", "Comments", "Shares", "Views", "Engagement Rate"})
	for _, p := range d.TopPosts {
		records = append(records, []string{
			p.Platform,
			preview(p.Content),
			strconv.FormatInt(p.Likes, 10),
			strconv.FormatInt(p.Comments, 10),
			strconv.FormatInt(p.Shares, 10),
			strconv.FormatInt(p.Views, 10),
			percent(p.EngagementRate),
		})
	}
	records = append(records, []string{})

	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func exportText(r Report) []byte {
	var b strings.Builder
	d := r.Data

	b.WriteString("SOCIAL MEDIA ANALYTICS REPORT\n\n")
	fmt.Fprintf(&b, "Title: %s\n", r.Title)
	fmt.Fprintf(&b, "Generated: %s\n", r.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Time Range: %s to %s\n\n", d.TimeRange.Start, d.TimeRange.End)

	b.WriteString("OVERVIEW\n")
	fmt.Fprintf(&b, "Total Followers: %d\n", d.Overview.TotalFollowers)
	fmt.Fprintf(&b, "Engagement Rate: %s\n", percent(d.Overview.EngagementRate))
	fmt.Fprintf(&b, "Total Impressions: %d\n", d.Overview.TotalImpressions)
	fmt.Fprintf(&b, "Active Platforms: %d\n\n", d.Overview.ActivePlatforms)

	b.WriteString("PLATFORM STATISTICS\n")
	for _, s := range d.PlatformStats {
		fmt.Fprintf(&b, "%s (%s): %d followers, %s engagement\n",
			displayName(s.Platform), s.Username, s.Followers, percent(s.EngagementRate))
	}
	b.WriteString("\n")

	b.WriteString("TOP PERFORMING POSTS\n")
	for i, p := range d.TopPosts {
		fmt.Fprintf(&b, "%d. %s: %s\n", i+1, displayName(p.Platform), preview(p.Content))
		fmt.Fprintf(&b, "   Likes: %d, Comments: %d, Shares: %d\n", p.Likes, p.Comments, p.Shares)
	}
	b.WriteString("\n")

	return []byte(b.String())
}

func percent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64) + "%"
}

func preview(content string) string {
	content = strings.ReplaceAll(content, "\r\n", " ")
	content = strings.ReplaceAll(content, "\n", " ")
	return helpers.Truncate(content, contentPreview)
}

func displayName(platform string) string {
	return helpers.Platform(platform).DisplayName()
}

// SPDX-License-Identifier: AGPL-3.0-only
package exports

import "errors"

var (
	ErrReportNotFound    = errors.New("report not found")
	ErrUnsupportedFormat = errors.New("unsupported export format")
	ErrInvalidDateRange  = errors.New("invalid date range")
)

// SPDX-License-Identifier: AGPL-3.0-only
package common

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/fluffyriot/socialpulse/internal/helpers"
)

// UpstreamError is returned for any non-2xx answer from a platform API,
// and for transport failures (StatusCode 0).
type UpstreamError struct {
	Platform   helpers.Platform
	Operation  string
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: request failed: %v", e.Platform, e.Operation, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s %s: upstream returned %d: %s", e.Platform, e.Operation, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s %s: upstream returned %d", e.Platform, e.Operation, e.StatusCode)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

func IsUpstreamError(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}

// ScrubURLError strips the query string from a transport error's URL.
// Platform APIs carry access tokens and client secrets in the query.
func ScrubURLError(err error) error {
	var ue *url.Error
	if !errors.As(err, &ue) {
		return err
	}
	return &url.Error{Op: ue.Op, URL: redactURL(ue.URL), Err: ue.Err}
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}
	return u.Scheme + "://" + u.Host + u.Path
}

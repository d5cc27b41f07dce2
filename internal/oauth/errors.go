// SPDX-License-Identifier: AGPL-3.0-only
package oauth

import (
	"errors"
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/helpers"
)

var (
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrMissingCredentials  = errors.New("oauth app credentials are not configured")
	ErrNoAccessToken       = errors.New("provider returned no access token")
	ErrInvalidState        = errors.New("unknown or expired oauth state")
)

// TokenExchangeError is returned when the provider rejects a code exchange.
type TokenExchangeError struct {
	Platform   helpers.Platform
	StatusCode int
	Body       string
	Err        error
}

func (e *TokenExchangeError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s token exchange failed: %v", e.Platform, e.Err)
	}
	return fmt.Sprintf("%s token exchange failed with status %d: %s", e.Platform, e.StatusCode, e.Body)
}

func (e *TokenExchangeError) Unwrap() error {
	return e.Err
}

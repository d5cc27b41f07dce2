// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrAccountNotFound    = errors.New("account not found")
	ErrSyncInProgress     = errors.New("a sync is already running for this account")
	ErrTokenRefreshFailed = errors.New("token refresh failed")
	ErrNoRefreshToken     = errors.New("token expired and no refresh token available")
)

// ReauthRequiredError means the stored credentials are unusable and the user
// has to connect the account again.
type ReauthRequiredError struct {
	AccountID uuid.UUID
	Platform  string
	Err       error
}

func (e *ReauthRequiredError) Error() string {
	return fmt.Sprintf("%s account %s needs to be reconnected: %v", e.Platform, e.AccountID, e.Err)
}

func (e *ReauthRequiredError) Unwrap() error {
	return e.Err
}

func IsReauthRequired(err error) bool {
	var re *ReauthRequiredError
	return errors.As(err, &re)
}

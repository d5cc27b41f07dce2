// SPDX-License-Identifier: AGPL-3.0-only
package apierr

import (
	"errors"
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/exports"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/oauth"
	"github.com/fluffyriot/socialpulse/internal/worker"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// APIError is the JSON error body returned by every API route.
type APIError struct {
	Code           ErrorCode `json:"code"`
	Message        string    `json:"error"`
	Details        string    `json:"details,omitempty"`
	RequiresReauth bool      `json:"requiresReauth,omitempty"`
	Status         int       `json:"-"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func New(code ErrorCode, message string) *APIError {
	return &APIError{Code: code, Message: message, Status: code.StatusCode()}
}

func NotFound(resource string) *APIError {
	return New(CodeNotFound, resource+" not found")
}

func BadRequest(message string) *APIError {
	return New(CodeBadRequest, message)
}

func Unauthorized(message string) *APIError {
	return New(CodeUnauthorized, message)
}

func Internal(message string) *APIError {
	return New(CodeInternal, message)
}

// ReauthRequired always carries requiresReauth so the UI can prompt a reconnect.
func ReauthRequired(message string) *APIError {
	e := New(CodeReauthRequired, message)
	e.RequiresReauth = true
	return e
}

func (e *APIError) WithDetails(details string) *APIError {
	e.Details = details
	return e
}

// FromError maps domain errors onto API errors. Unknown errors become a
// generic 500 whose message is the fallback.
func FromError(err error, fallback string) *APIError {
	var (
		apiErr      *APIError
		reauthErr   *worker.ReauthRequiredError
		upstreamErr *common.UpstreamError
	)

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, worker.ErrNoRefreshToken):
		return ReauthRequired("Token expired and no refresh token available")
	case errors.As(err, &reauthErr):
		return ReauthRequired("Token refresh failed. Please reconnect your account.").WithDetails(reauthErr.Error())
	case errors.Is(err, worker.ErrAccountNotFound):
		return NotFound("Account")
	case errors.Is(err, exports.ErrReportNotFound):
		return NotFound("Report")
	case errors.Is(err, worker.ErrSyncInProgress):
		return New(CodeConflict, "Sync already in progress for this account")
	case errors.Is(err, exports.ErrInvalidDateRange), errors.Is(err, exports.ErrUnsupportedFormat):
		return BadRequest(err.Error())
	case errors.Is(err, oauth.ErrUnsupportedPlatform), errors.Is(err, oauth.ErrMissingCredentials):
		return BadRequest(err.Error())
	case errors.As(err, &upstreamErr):
		return New(CodeUpstream, fmt.Sprintf("%s API request failed", upstreamErr.Platform.DisplayName())).WithDetails(err.Error())
	default:
		return Internal(fallback).WithDetails(err.Error())
	}
}

// Respond writes err as JSON and aborts the chain. Server-side failures are
// logged with the request id.
func Respond(c *gin.Context, err error, fallback string) {
	apiErr := FromError(err, fallback)
	if apiErr.Status >= 500 {
		logger.Log.Error(fallback,
			zap.String("request_id", c.GetString("request_id")),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.AbortWithStatusJSON(apiErr.Status, apiErr)
}

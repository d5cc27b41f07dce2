// SPDX-License-Identifier: AGPL-3.0-only
package apierr

import "net/http"

type ErrorCode string

const (
	CodeNotFound       ErrorCode = "NOT_FOUND"
	CodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	CodeReauthRequired ErrorCode = "REAUTH_REQUIRED"
	CodeConflict       ErrorCode = "CONFLICT"
	CodeBadRequest     ErrorCode = "BAD_REQUEST"
	CodeUpstream       ErrorCode = "UPSTREAM_ERROR"
	CodeUnavailable    ErrorCode = "SERVICE_UNAVAILABLE"
	CodeInternal       ErrorCode = "INTERNAL_ERROR"
)

var statusCodes = map[ErrorCode]int{
	CodeNotFound:       http.StatusNotFound,
	CodeUnauthorized:   http.StatusUnauthorized,
	CodeReauthRequired: http.StatusUnauthorized,
	CodeConflict:       http.StatusConflict,
	CodeBadRequest:     http.StatusBadRequest,
	CodeUpstream:       http.StatusBadGateway,
	CodeUnavailable:    http.StatusServiceUnavailable,
	CodeInternal:       http.StatusInternalServerError,
}

func (c ErrorCode) StatusCode() int {
	if status, ok := statusCodes[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// SPDX-License-Identifier: AGPL-3.0-only
package apierr

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fluffyriot/socialpulse/internal/exports"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/fluffyriot/socialpulse/internal/oauth"
	"github.com/fluffyriot/socialpulse/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   ErrorCode
		reauth bool
	}{
		{"account not found", fmt.Errorf("sync: %w", worker.ErrAccountNotFound), http.StatusNotFound, CodeNotFound, false},
		{"report not found", exports.ErrReportNotFound, http.StatusNotFound, CodeNotFound, false},
		{"sync in progress", worker.ErrSyncInProgress, http.StatusConflict, CodeConflict, false},
		{"bad range", fmt.Errorf("%w: start is after end", exports.ErrInvalidDateRange), http.StatusBadRequest, CodeBadRequest, false},
		{"bad format", exports.ErrUnsupportedFormat, http.StatusBadRequest, CodeBadRequest, false},
		{"unsupported platform", oauth.ErrUnsupportedPlatform, http.StatusBadRequest, CodeBadRequest, false},
		{
			"refresh failed",
			&worker.ReauthRequiredError{AccountID: uuid.New(), Platform: "tiktok", Err: worker.ErrTokenRefreshFailed},
			http.StatusUnauthorized, CodeReauthRequired, true,
		},
		{
			"upstream",
			&common.UpstreamError{Platform: helpers.Twitter, Operation: "fetch metrics", StatusCode: 503},
			http.StatusBadGateway, CodeUpstream, false,
		},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, CodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err, "Failed")
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.reauth, apiErr.RequiresReauth)
		})
	}
}

func TestFromErrorNoRefreshToken(t *testing.T) {
	err := &worker.ReauthRequiredError{AccountID: uuid.New(), Platform: "instagram", Err: worker.ErrNoRefreshToken}

	apiErr := FromError(err, "Failed")
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Token expired and no refresh token available", apiErr.Message)
	assert.True(t, apiErr.RequiresReauth)
}

func TestRespond(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/social-accounts/x/refresh-token", nil)

	Respond(c, &worker.ReauthRequiredError{Platform: "facebook", Err: worker.ErrNoRefreshToken}, "Failed to refresh token")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.True(t, c.IsAborted())

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Token expired and no refresh token available", body["error"])
	assert.Equal(t, true, body["requiresReauth"])
	assert.Equal(t, string(CodeReauthRequired), body["code"])
}

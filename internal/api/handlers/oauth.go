// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/oauth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Error codes passed back to the settings page.
const (
	oauthErrUnsupported = "unsupported_platform"
	oauthErrInit        = "oauth_init_failed"
	oauthErrDenied      = "oauth_denied"
	oauthErrMissingCode = "missing_code"
	oauthErrNoToken     = "no_token"
	oauthErrFailed      = "connection_failed"
)

func (h *Handler) PlatformsHandler(c *gin.Context) {
	type platformView struct {
		Platform   string `json:"platform"`
		Name       string `json:"name"`
		Color      string `json:"color"`
		Configured bool   `json:"configured"`
	}

	out := make([]platformView, 0, len(helpers.AvailablePlatforms))
	for _, info := range helpers.AvailablePlatforms {
		out = append(out, platformView{
			Platform:   string(info.Platform),
			Name:       info.Name,
			Color:      info.Color,
			Configured: h.Broker.IsPlatformConfigured(string(info.Platform)),
		})
	}
	c.JSON(http.StatusOK, out)
}

// ConnectPlatformHandler sends the browser to the provider's consent page.
func (h *Handler) ConnectPlatformHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}
	platform := c.Param("platform")

	if !h.Broker.IsPlatformConfigured(platform) {
		h.Metrics.OAuthConnect(platformLabel(platform), "unsupported")
		h.redirectSettings(c, url.Values{"error": {oauthErrUnsupported}})
		return
	}

	authURL, err := h.Broker.BuildAuthorizationURL(c.Request.Context(), platform, caller.UserID)
	if err != nil {
		h.Metrics.OAuthConnect(platformLabel(platform), oauthErrInit)
		logger.Log.Error("Failed to start OAuth flow", zap.String("platform", platform), zap.Error(err))
		h.redirectSettings(c, url.Values{"error": {oauthErrInit}})
		return
	}

	c.Redirect(http.StatusFound, authURL)
}

func (h *Handler) OAuthCallbackHandler(c *gin.Context) {
	ctx := c.Request.Context()
	platform := c.Param("platform")
	label := platformLabel(platform)

	// details reaches the browser, so it never carries internal error text.
	fail := func(code, details string, err error) {
		h.Metrics.OAuthConnect(label, code)
		if err != nil {
			logger.Log.Warn("OAuth callback failed",
				zap.String("platform", label),
				zap.String("reason", code),
				zap.Error(err),
			)
		}
		v := url.Values{"error": {code}}
		if details != "" {
			v.Set("details", details)
		}
		h.redirectSettings(c, v)
	}

	if denied := c.Query("error"); denied != "" {
		reason := c.Query("error_description")
		if reason == "" {
			reason = denied
		}
		fail(oauthErrDenied, reason, nil)
		return
	}

	code := c.Query("code")
	if code == "" {
		fail(oauthErrMissingCode, "", nil)
		return
	}

	pending, err := h.Broker.ResolveState(ctx, platform, c.Query("state"))
	if err != nil {
		fail(oauthErrFailed, "Authorization request expired or was already used", err)
		return
	}

	tokens, err := h.Broker.ExchangeCodeForTokens(ctx, platform, code, pending.Verifier)
	if errors.Is(err, oauth.ErrNoAccessToken) {
		fail(oauthErrNoToken, "", err)
		return
	}
	if err != nil {
		fail(oauthErrFailed, "Token exchange failed", err)
		return
	}

	info, err := h.Broker.FetchUserInfo(ctx, platform, tokens.AccessToken)
	if err != nil {
		fail(oauthErrFailed, "Could not load the account profile", err)
		return
	}

	now := time.Now()
	account, err := h.DB.UpsertSocialAccount(ctx, database.UpsertSocialAccountParams{
		ID:           uuid.New(),
		UserID:       pending.UserID,
		Platform:     string(pending.Platform),
		AccountID:    info.ID,
		Username:     info.Username,
		AccessToken:  tokens.AccessToken,
		RefreshToken: sql.NullString{String: tokens.RefreshToken, Valid: tokens.RefreshToken != ""},
		TokenExpiry:  sql.NullTime{Time: tokens.Expiry, Valid: !tokens.Expiry.IsZero()},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		fail(oauthErrFailed, "Could not save the account", err)
		return
	}

	h.Metrics.OAuthConnect(label, "success")
	logger.Log.Info("Account connected",
		zap.String("platform", account.Platform),
		zap.Stringer("account_id", account.ID),
		zap.Stringer("user_id", account.UserID),
	)

	h.redirectSettings(c, url.Values{"connected": {account.Platform}, "username": {account.Username}})
}

func (h *Handler) redirectSettings(c *gin.Context, v url.Values) {
	c.Redirect(http.StatusFound, h.Config.FrontendURL+"/settings?"+v.Encode())
}

func platformLabel(platform string) string {
	if p, ok := helpers.ParsePlatform(platform); ok {
		return string(p)
	}
	return "unknown"
}

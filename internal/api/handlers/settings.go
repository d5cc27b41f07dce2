// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"database/sql"
	"errors"
	"net/http"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/exports"
	"github.com/gin-gonic/gin"
)

var (
	reportFrequencies = []string{"daily", "weekly", "monthly"}
	reportFormats     = []string{exports.FormatCSV, exports.FormatJSON, exports.FormatPDF}
)

const maxAutoSyncInterval = 24 * 7

type settingsView struct {
	ReportFrequency  string `json:"reportFrequency"`
	ReportFormat     string `json:"reportFormat"`
	ReportEmail      string `json:"reportEmail,omitempty"`
	AutoSyncInterval int32  `json:"autoSyncInterval"`
}

func newSettingsView(u database.User) settingsView {
	return settingsView{
		ReportFrequency:  u.ReportFrequency,
		ReportFormat:     u.ReportFormat,
		ReportEmail:      u.ReportEmail.String,
		AutoSyncInterval: u.AutoSyncInterval,
	}
}

func (h *Handler) GetSettingsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	user, err := h.DB.GetUserByID(c.Request.Context(), caller.UserID)
	if errors.Is(err, database.ErrNotFound) {
		apierr.Respond(c, apierr.NotFound("User"), "")
		return
	}
	if err != nil {
		apierr.Respond(c, err, "Failed to load settings")
		return
	}
	c.JSON(http.StatusOK, newSettingsView(user))
}

// UpdateSettingsHandler applies a partial update; omitted fields keep their
// current value.
func (h *Handler) UpdateSettingsHandler(c *gin.Context) {
	caller, ok := h.caller(c)
	if !ok {
		return
	}

	var req struct {
		ReportFrequency  *string `json:"reportFrequency"`
		ReportFormat     *string `json:"reportFormat"`
		ReportEmail      *string `json:"reportEmail"`
		AutoSyncInterval *int32  `json:"autoSyncInterval"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierr.Respond(c, apierr.BadRequest("Invalid request body").WithDetails(err.Error()), "")
		return
	}

	ctx := c.Request.Context()
	user, err := h.DB.GetUserByID(ctx, caller.UserID)
	if err != nil {
		apierr.Respond(c, err, "Failed to load settings")
		return
	}

	params := database.UpdateUserSettingsParams{
		ID:               user.ID,
		ReportFrequency:  user.ReportFrequency,
		ReportFormat:     user.ReportFormat,
		ReportEmail:      user.ReportEmail,
		AutoSyncInterval: user.AutoSyncInterval,
		UpdatedAt:        time.Now(),
	}

	if req.ReportFrequency != nil {
		if !slices.Contains(reportFrequencies, *req.ReportFrequency) {
			apierr.Respond(c, apierr.BadRequest("reportFrequency must be one of daily, weekly, monthly"), "")
			return
		}
		params.ReportFrequency = *req.ReportFrequency
	}
	if req.ReportFormat != nil {
		if !slices.Contains(reportFormats, *req.ReportFormat) {
			apierr.Respond(c, apierr.BadRequest("reportFormat must be one of csv, json, pdf"), "")
			return
		}
		params.ReportFormat = *req.ReportFormat
	}
	if req.ReportEmail != nil {
		email := strings.TrimSpace(*req.ReportEmail)
		if email != "" {
			if _, err := mail.ParseAddress(email); err != nil {
				apierr.Respond(c, apierr.BadRequest("reportEmail is not a valid address"), "")
				return
			}
		}
		params.ReportEmail = sql.NullString{String: email, Valid: email != ""}
	}
	if req.AutoSyncInterval != nil {
		if *req.AutoSyncInterval < 0 || *req.AutoSyncInterval > maxAutoSyncInterval {
			apierr.Respond(c, apierr.BadRequest("autoSyncInterval must be between 0 and 168 hours"), "")
			return
		}
		params.AutoSyncInterval = *req.AutoSyncInterval
	}

	updated, err := h.DB.UpdateUserSettings(ctx, params)
	if err != nil {
		apierr.Respond(c, err, "Failed to save settings")
		return
	}
	c.JSON(http.StatusOK, newSettingsView(updated))
}

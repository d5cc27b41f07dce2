// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/gin-gonic/gin"
)

func (h *Handler) HealthCheckHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "failure", "details": "database ping failed: " + err.Error()})
		return
	}

	resp := gin.H{
		"status":   "ok",
		"version":  config.AppVersion,
		"autoSync": h.Worker != nil && h.Worker.IsActive(),
	}
	if h.Updater != nil {
		resp["updateAvailable"] = h.Updater.IsUpdateAvailable()
		if latest := h.Updater.GetUpdateInfo().Latest; latest != "" {
			resp["latestVersion"] = latest
		}
	}
	c.JSON(http.StatusOK, resp)
}

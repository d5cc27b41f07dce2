// SPDX-License-Identifier: AGPL-3.0-only
package handlers

import (
	"github.com/fluffyriot/socialpulse/internal/apierr"
	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/exports"
	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/fluffyriot/socialpulse/internal/oauth"
	"github.com/fluffyriot/socialpulse/internal/stats"
	"github.com/fluffyriot/socialpulse/internal/updater"
	"github.com/fluffyriot/socialpulse/internal/worker"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	DB      database.Store
	Config  *config.AppConfig
	Broker  *oauth.Broker
	Syncer  *worker.Syncer
	Worker  *worker.Worker
	Stats   *stats.Service
	Reports *exports.Generator
	Metrics *metrics.Metrics

	// Updater is optional; nil disables the release check on /health.
	Updater *updater.Updater
}

func NewHandler(db database.Store, cfg *config.AppConfig, broker *oauth.Broker, syncer *worker.Syncer, w *worker.Worker, m *metrics.Metrics) *Handler {
	return &Handler{
		DB:      db,
		Config:  cfg,
		Broker:  broker,
		Syncer:  syncer,
		Worker:  w,
		Stats:   stats.NewService(db),
		Reports: exports.NewGenerator(db, m),
		Metrics: m,
	}
}

// caller answers 401 itself when the request is not authenticated.
func (h *Handler) caller(c *gin.Context) (authhelp.Caller, bool) {
	caller, ok := authhelp.CurrentCaller(c)
	if !ok {
		apierr.Respond(c, apierr.Unauthorized("Authentication required"), "")
	}
	return caller, ok
}

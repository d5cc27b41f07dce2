// SPDX-License-Identifier: AGPL-3.0-only
package api

import (
	"net/http"
	"strings"

	"github.com/fluffyriot/socialpulse/internal/api/handlers"
	"github.com/fluffyriot/socialpulse/internal/authhelp"
	"github.com/fluffyriot/socialpulse/internal/middleware"
	"github.com/fluffyriot/socialpulse/internal/telemetry"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires every route. gatherer backs /metrics.
func NewRouter(h *handlers.Handler, gatherer prometheus.Gatherer) *gin.Engine {
	cfg := h.Config
	secure := strings.HasPrefix(cfg.BaseURL, "https://")

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestIDMiddleware(),
		middleware.TracingMiddleware(telemetry.ServiceName),
		middleware.GinLoggerMiddleware(),
		middleware.MetricsMiddleware(h.Metrics),
		middleware.SecurityHeadersMiddleware(secure),
	)

	if len(cfg.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.CORSOrigins
		corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", middleware.RequestIDHeader}
		corsConfig.ExposeHeaders = []string{"Content-Disposition", middleware.RequestIDHeader}
		corsConfig.AllowCredentials = true
		r.Use(cors.New(corsConfig))
	}

	r.Use(gzip.Gzip(gzip.DefaultCompression))

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(authhelp.SessionOptions(secure))
	r.Use(sessions.Sessions(authhelp.SessionName, store))

	r.GET("/health", h.HealthCheckHandler)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	auth := middleware.AuthMiddleware(h.DB, []byte(cfg.JWTSecret))

	oauthGroup := r.Group("/oauth")
	{
		oauthGroup.GET("/platforms", h.PlatformsHandler)
		oauthGroup.GET("/:platform/callback", h.OAuthCallbackHandler)
		oauthGroup.GET("/:platform", auth, h.ConnectPlatformHandler)
	}

	r.DELETE("/session", h.DeleteSessionHandler)

	authed := r.Group("/", auth)
	{
		authed.POST("/session", h.CreateSessionHandler)

		authed.GET("/user/me", h.MeHandler)
		authed.GET("/user/settings", h.GetSettingsHandler)
		authed.PUT("/user/settings", h.UpdateSettingsHandler)

		authed.GET("/social-accounts", h.ListAccountsHandler)
		authed.POST("/social-accounts/sync-all", h.SyncAllAccountsHandler)
		authed.PATCH("/social-accounts/:id", h.UpdateAccountHandler)
		authed.DELETE("/social-accounts/:id", h.DeleteAccountHandler)
		authed.POST("/social-accounts/:id/sync", h.SyncAccountHandler)
		authed.POST("/social-accounts/:id/refresh-token", h.RefreshTokenHandler)

		authed.GET("/dashboard/overview", h.OverviewHandler)
		authed.GET("/dashboard/follower-growth", h.FollowerGrowthHandler)
		authed.GET("/dashboard/platform-distribution", h.PlatformDistributionHandler)
		authed.GET("/dashboard/top-posts", h.TopPostsHandler)

		authed.GET("/reports", h.ListReportsHandler)
		authed.POST("/reports/generate", h.GenerateReportHandler)
		authed.GET("/reports/:id", h.GetReportHandler)
		authed.GET("/reports/:id/export", h.ExportReportHandler)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "error": "Route not found"})
	})

	return r
}

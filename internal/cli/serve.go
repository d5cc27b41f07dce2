// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fluffyriot/socialpulse/internal/api"
	"github.com/fluffyriot/socialpulse/internal/api/handlers"
	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/fluffyriot/socialpulse/internal/oauth"
	"github.com/fluffyriot/socialpulse/internal/telemetry"
	"github.com/fluffyriot/socialpulse/internal/updater"
	"github.com/fluffyriot/socialpulse/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and, when AUTO_SYNC_TICK is set, the background sync worker",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx)
	},
}

func serve(ctx context.Context) error {
	d, err := loadDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()
	cfg := d.cfg

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.Config{
		Version:      config.AppVersion,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			logger.Log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	var states oauth.StateStore = oauth.NewMemoryStateStore()
	if cfg.RedisURL != "" {
		rdb, err := oauth.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()
		states = oauth.NewRedisStateStore(rdb)
		logger.Log.Info("OAuth state stored in redis")
	}
	broker := oauth.NewBroker(oauth.DefaultProviders(cfg), d.client, states)
	logger.Log.Info("OAuth platforms configured", zap.Any("platforms", broker.ConfiguredPlatforms()))

	syncer := d.syncer(m)
	w := worker.NewWorker(d.queries, syncer)
	if cfg.AutoSyncTick > 0 {
		w.Start(cfg.AutoSyncTick)
		defer w.Stop()
	}

	h := handlers.NewHandler(d.queries, cfg, broker, syncer, w, m)
	if cfg.UpdateCheckURL != "" {
		h.Updater = updater.NewUpdater(config.AppVersion, cfg.UpdateCheckURL, d.client.HTTPClient)
		h.Updater.Start(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(h, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("version", config.AppVersion),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Log.Info("Server exited")
	return nil
}

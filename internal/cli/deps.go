// SPDX-License-Identifier: AGPL-3.0-only
package cli

import (
	"context"
	"fmt"

	"github.com/fluffyriot/socialpulse/internal/auth"
	"github.com/fluffyriot/socialpulse/internal/config"
	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/fetcher"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"github.com/fluffyriot/socialpulse/internal/metrics"
	"github.com/fluffyriot/socialpulse/internal/worker"
)

// deps holds what every command needing the database shares.
type deps struct {
	cfg     *config.AppConfig
	queries *database.Queries
	client  *common.Client
}

func loadDeps(ctx context.Context) (*deps, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cipher, err := auth.NewTokenCipher(cfg.TokenEncryptionKey)
	if err != nil {
		return nil, err
	}

	db, err := config.LoadDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return &deps{
		cfg:     cfg,
		queries: database.New(db, cipher),
		client:  common.NewClient(cfg.HTTPTimeout),
	}, nil
}

func (d *deps) syncer(m *metrics.Metrics) *worker.Syncer {
	factory := fetcher.NewFactory(d.client, d.cfg.Platforms)
	return worker.NewSyncer(d.queries, factory, d.cfg.SyncPostLimit, m)
}

func (d *deps) Close() {
	if err := d.queries.Close(); err != nil {
		logger.Log.Sugar().Warnf("Failed to close database: %v", err)
	}
	_ = logger.Close()
}

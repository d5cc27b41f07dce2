// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/logger"
	"go.uber.org/zap"
)

// Worker periodically syncs accounts whose owner's auto-sync interval has
// elapsed since the account's last sync.
type Worker struct {
	DB       database.Store
	Syncer   *Syncer
	Ticker   *time.Ticker
	StopChan chan bool
	Now      func() time.Time

	mu      sync.Mutex
	running bool
	active  bool
	done    chan struct{}
	cancel  context.CancelFunc
}

func NewWorker(db database.Store, syncer *Syncer) *Worker {
	return &Worker{
		DB:       db,
		Syncer:   syncer,
		StopChan: make(chan bool),
		Now:      time.Now,
	}
}

func (w *Worker) Start(interval time.Duration) {
	w.mu.Lock()
	if w.active {
		w.mu.Unlock()
		logger.Log.Warn("Worker: Scheduler already active, use Restart to change interval")
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	w.active = true
	w.done = make(chan struct{})
	w.cancel = cancel
	done := w.done
	w.mu.Unlock()

	w.Ticker = time.NewTicker(interval)
	go func() {
		defer func() {
			cancel()
			w.mu.Lock()
			w.active = false
			w.mu.Unlock()
			close(done)
		}()
		for {
			select {
			case <-w.Ticker.C:
				if ctx.Err() == nil {
					w.SyncAll(ctx)
				}
			case <-w.StopChan:
				w.Ticker.Stop()
				return
			}
		}
	}()
	logger.Log.Info("Background worker started", zap.Duration("interval", interval))
}

// Stop cancels any pass in flight and blocks until the scheduler goroutine
// has exited.
func (w *Worker) Stop() {
	w.mu.Lock()
	if !w.active {
		w.mu.Unlock()
		logger.Log.Warn("Worker: Scheduler not active")
		return
	}
	done := w.done
	cancel := w.cancel
	w.mu.Unlock()

	cancel()
	w.StopChan <- true
	<-done
	logger.Log.Info("Background worker stopped")
}

func (w *Worker) Restart(interval time.Duration) {
	if w.IsActive() {
		w.Stop()
	}
	w.Start(interval)
}

func (w *Worker) IsActive() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// SyncAll runs one pass over every user. Overlapping passes are skipped.
func (w *Worker) SyncAll(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		logger.Log.Info("Worker: Sync already in progress, skipping...")
		return
	}
	w.running = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	users, err := w.DB.ListUsers(ctx)
	if err != nil {
		logger.Log.Error("Worker: failed to list users", zap.Error(err))
		return
	}

	var synced, failed int
	for _, user := range users {
		if user.AutoSyncInterval <= 0 {
			continue
		}
		interval := time.Duration(user.AutoSyncInterval) * time.Hour

		accounts, err := w.DB.ListActiveSocialAccountsByUser(ctx, user.ID)
		if err != nil {
			logger.Log.Error("Worker: failed to list accounts",
				zap.Stringer("user_id", user.ID),
				zap.Error(err),
			)
			continue
		}

		for _, account := range accounts {
			if ctx.Err() != nil {
				logger.Log.Info("Worker: pass cancelled", zap.Int("synced", synced), zap.Int("failed", failed))
				return
			}
			if !w.due(account, interval) {
				continue
			}
			err := w.Syncer.SyncAccount(ctx, account.ID)
			switch {
			case err == nil:
				synced++
			case errors.Is(err, ErrSyncInProgress):
				// A manual sync got there first.
			default:
				failed++
			}
		}
	}

	logger.Log.Info("Worker: pass completed", zap.Int("synced", synced), zap.Int("failed", failed))
}

func (w *Worker) due(account database.SocialAccount, interval time.Duration) bool {
	if !account.LastSync.Valid {
		return true
	}
	return w.Now().Sub(account.LastSync.Time) >= interval
}

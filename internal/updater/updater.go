// SPDX-License-Identifier: AGPL-3.0-only
package updater

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fluffyriot/socialpulse/internal/logger"
	"go.uber.org/zap"
)

const CheckInterval = 6 * time.Hour

// RemoteVersion is the document served at the release check URL.
type RemoteVersion struct {
	Latest string `json:"latest"`
}

type Updater struct {
	mu              sync.RWMutex
	updateAvailable bool
	remoteVersion   RemoteVersion
	currentVersion  string
	checkInterval   time.Duration

	url    string
	client *http.Client
}

func NewUpdater(currentVersion, url string, client *http.Client) *Updater {
	return &Updater{
		currentVersion: currentVersion,
		checkInterval:  CheckInterval,
		url:            url,
		client:         client,
	}
}

// Start checks once right away and then every CheckInterval until ctx ends.
func (u *Updater) Start(ctx context.Context) {
	go func() {
		u.Check(ctx)

		ticker := time.NewTicker(u.checkInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				u.Check(ctx)
			}
		}
	}()
}

func (u *Updater) Check(ctx context.Context) {
	rv, err := u.fetch(ctx)
	if err != nil {
		logger.Log.Warn("Failed to check for updates", zap.Error(err))
		return
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.remoteVersion = rv
	u.updateAvailable = isNewer(rv.Latest, u.currentVersion)

	if u.updateAvailable {
		logger.Log.Info("New version available",
			zap.String("latest", rv.Latest),
			zap.String("current", u.currentVersion),
		)
	} else {
		logger.Log.Debug("App is up to date",
			zap.String("latest", rv.Latest),
			zap.String("current", u.currentVersion),
		)
	}
}

func (u *Updater) fetch(ctx context.Context) (RemoteVersion, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.url, nil)
	if err != nil {
		return RemoteVersion{}, err
	}

	resp, err := u.client.Do(req)
	if err != nil {
		return RemoteVersion{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return RemoteVersion{}, fmt.Errorf("status code %d", resp.StatusCode)
	}

	var rv RemoteVersion
	if err := json.NewDecoder(resp.Body).Decode(&rv); err != nil {
		return RemoteVersion{}, fmt.Errorf("failed to decode version document: %w", err)
	}
	return rv, nil
}

// isNewer compares dotted numeric versions. A leading "v" is ignored and
// development builds never report an update.
func isNewer(remote, current string) bool {
	remote = strings.TrimPrefix(remote, "v")
	current = strings.TrimPrefix(current, "v")

	if remote == "" || remote == current || current == "dev" || current == "unknown" {
		return false
	}

	rParts := strings.Split(remote, ".")
	cParts := strings.Split(current, ".")

	maxLen := min(len(rParts), len(cParts))
	for i := 0; i < maxLen; i++ {
		var rVal, cVal int
		fmt.Sscanf(rParts[i], "%d", &rVal)
		fmt.Sscanf(cParts[i], "%d", &cVal)

		if rVal > cVal {
			return true
		}
		if rVal < cVal {
			return false
		}
	}

	return len(rParts) > len(cParts)
}

func (u *Updater) IsUpdateAvailable() bool {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.updateAvailable
}

func (u *Updater) GetUpdateInfo() RemoteVersion {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return u.remoteVersion
}

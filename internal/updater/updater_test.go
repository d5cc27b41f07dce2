// SPDX-License-Identifier: AGPL-3.0-only
package updater

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsNewer(t *testing.T) {
	tests := []struct {
		remote, current string
		want            bool
	}{
		{"1.2.0", "1.1.9", true},
		{"v1.10.0", "v1.9.3", true},
		{"1.2", "1.2.1", false},
		{"1.2.1", "1.2", true},
		{"1.2.0", "1.2.0", false},
		{"2.0.0", "dev", false},
		{"", "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.remote+"_vs_"+tt.current, func(t *testing.T) {
			assert.Equal(t, tt.want, isNewer(tt.remote, tt.current))
		})
	}
}

func TestCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"latest":"1.4.0"}`)
	}))
	defer srv.Close()

	u := NewUpdater("1.3.2", srv.URL, srv.Client())
	u.Check(context.Background())

	assert.True(t, u.IsUpdateAvailable())
	assert.Equal(t, "1.4.0", u.GetUpdateInfo().Latest)
}

func TestCheckKeepsStateOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	u := NewUpdater("1.3.2", srv.URL, srv.Client())
	u.Check(context.Background())

	assert.False(t, u.IsUpdateAvailable())
	assert.Empty(t, u.GetUpdateInfo().Latest)
}

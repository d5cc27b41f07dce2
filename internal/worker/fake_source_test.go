// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"context"
	"sync"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/fluffyriot/socialpulse/internal/fetcher"
	"github.com/fluffyriot/socialpulse/internal/fetcher/common"
	"github.com/fluffyriot/socialpulse/internal/helpers"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type call struct {
	account uuid.UUID
	op      string
}

// fakeFactory builds sources that share one call log and one behaviour table.
type fakeFactory struct {
	mu    sync.Mutex
	calls []call

	validTokens map[string]bool
	metrics     common.Metrics
	metricsErr  map[uuid.UUID]error
	posts       []common.Post
	postsErr    error
	refreshed   *oauth2.Token
	refreshErr  error

	// blockMetrics makes FetchMetrics wait for its context. started
	// receives once per blocked call.
	blockMetrics bool
	started      chan struct{}
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{
		validTokens: map[string]bool{},
		metricsErr:  map[uuid.UUID]error{},
	}
}

func (f *fakeFactory) NewSource(account database.SocialAccount) (fetcher.Source, error) {
	return &fakeSource{factory: f, account: account.ID, token: account.AccessToken}, nil
}

func (f *fakeFactory) record(account uuid.UUID, op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{account: account, op: op})
}

func (f *fakeFactory) ops(account uuid.UUID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []string
	for _, c := range f.calls {
		if c.account == account {
			out = append(out, c.op)
		}
	}
	return out
}

type fakeSource struct {
	factory *fakeFactory
	account uuid.UUID
	token   string
}

func (s *fakeSource) Platform() helpers.Platform {
	return helpers.Twitter
}

func (s *fakeSource) FetchMetrics(ctx context.Context) (common.Metrics, error) {
	s.factory.record(s.account, "fetchMetrics")
	if s.factory.blockMetrics {
		select {
		case s.factory.started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		return common.Metrics{}, ctx.Err()
	}
	if err := s.factory.metricsErr[s.account]; err != nil {
		return common.Metrics{}, err
	}
	return s.factory.metrics, nil
}

func (s *fakeSource) FetchPosts(_ context.Context, limit int) ([]common.Post, error) {
	s.factory.record(s.account, "fetchPosts")
	if s.factory.postsErr != nil {
		return nil, s.factory.postsErr
	}
	if len(s.factory.posts) > limit {
		return s.factory.posts[:limit], nil
	}
	return s.factory.posts, nil
}

func (s *fakeSource) RefreshAccessToken(context.Context) (*oauth2.Token, error) {
	s.factory.record(s.account, "refreshAccessToken")
	if s.factory.refreshErr != nil {
		return nil, s.factory.refreshErr
	}
	return s.factory.refreshed, nil
}

func (s *fakeSource) IsTokenValid(context.Context) bool {
	s.factory.record(s.account, "isTokenValid")
	return s.factory.validTokens[s.token]
}

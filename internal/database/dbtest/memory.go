// SPDX-License-Identifier: AGPL-3.0-only

// Package dbtest provides an in-memory database.Store and fixture builders
// for tests. It mirrors the Postgres store's upsert and not-found rules.
package dbtest

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/fluffyriot/socialpulse/internal/database"
	"github.com/google/uuid"
)

type postKey struct {
	accountID uuid.UUID
	postID    string
}

type Memory struct {
	mu sync.Mutex

	users      map[uuid.UUID]database.User
	accounts   map[uuid.UUID]database.SocialAccount
	accountSeq []uuid.UUID
	snapshots  []database.MetricSnapshot
	posts      map[postKey]database.Post
	reports    map[uuid.UUID]database.Report

	// PingErr, when set, is returned by Ping.
	PingErr error
}

var _ database.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:    make(map[uuid.UUID]database.User),
		accounts: make(map[uuid.UUID]database.SocialAccount),
		posts:    make(map[postKey]database.Post),
		reports:  make(map[uuid.UUID]database.Report),
	}
}

func (m *Memory) Ping(context.Context) error {
	return m.PingErr
}

func (m *Memory) UpsertUser(_ context.Context, arg database.UpsertUserParams) (database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[arg.ID]
	if !ok {
		u = database.User{
			ID:               arg.ID,
			Username:         arg.Username,
			ReportFrequency:  "weekly",
			ReportFormat:     "pdf",
			AutoSyncInterval: 24,
			CreatedAt:        arg.CreatedAt,
		}
	}
	if arg.Email.Valid {
		u.Email = arg.Email
	}
	u.UpdatedAt = arg.UpdatedAt
	m.users[arg.ID] = u
	return u, nil
}

func (m *Memory) GetUserByID(_ context.Context, id uuid.UUID) (database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return database.User{}, database.ErrNotFound
	}
	return u, nil
}

func (m *Memory) ListUsers(context.Context) ([]database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	users := make([]database.User, 0, len(m.users))
	for _, u := range m.users {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.Before(users[j].CreatedAt) })
	return users, nil
}

func (m *Memory) UpdateUserSettings(_ context.Context, arg database.UpdateUserSettingsParams) (database.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[arg.ID]
	if !ok {
		return database.User{}, database.ErrNotFound
	}
	u.ReportFrequency = arg.ReportFrequency
	u.ReportFormat = arg.ReportFormat
	u.ReportEmail = arg.ReportEmail
	u.AutoSyncInterval = arg.AutoSyncInterval
	u.UpdatedAt = arg.UpdatedAt
	m.users[arg.ID] = u
	return u, nil
}

func (m *Memory) UpsertSocialAccount(_ context.Context, arg database.UpsertSocialAccountParams) (database.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, id := range m.accountSeq {
		a := m.accounts[id]
		if a.UserID != arg.UserID || a.Platform != arg.Platform || a.AccountID != arg.AccountID {
			continue
		}
		a.Username = arg.Username
		a.AccessToken = arg.AccessToken
		if arg.RefreshToken.Valid {
			a.RefreshToken = arg.RefreshToken
		}
		a.TokenExpiry = arg.TokenExpiry
		a.IsActive = true
		a.UpdatedAt = arg.UpdatedAt
		m.accounts[id] = a
		return a, nil
	}

	a := database.SocialAccount{
		ID:           arg.ID,
		UserID:       arg.UserID,
		Platform:     arg.Platform,
		AccountID:    arg.AccountID,
		Username:     arg.Username,
		AccessToken:  arg.AccessToken,
		RefreshToken: arg.RefreshToken,
		TokenExpiry:  arg.TokenExpiry,
		IsActive:     true,
		SyncStatus:   database.SyncStatusInitialized,
		CreatedAt:    arg.CreatedAt,
		UpdatedAt:    arg.UpdatedAt,
	}
	m.accounts[a.ID] = a
	m.accountSeq = append(m.accountSeq, a.ID)
	return a, nil
}

func (m *Memory) GetSocialAccountByID(_ context.Context, id uuid.UUID) (database.SocialAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return database.SocialAccount{}, database.ErrNotFound
	}
	return a, nil
}

func (m *Memory) ListSocialAccountsByUser(_ context.Context, userID uuid.UUID) ([]database.SocialAccount, error) {
	return m.listAccounts(userID, false), nil
}

func (m *Memory) ListActiveSocialAccountsByUser(_ context.Context, userID uuid.UUID) ([]database.SocialAccount, error) {
	return m.listAccounts(userID, true), nil
}

func (m *Memory) listAccounts(userID uuid.UUID, activeOnly bool) []database.SocialAccount {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.SocialAccount
	for _, id := range m.accountSeq {
		a := m.accounts[id]
		if a.UserID == userID && (!activeOnly || a.IsActive) {
			out = append(out, a)
		}
	}
	return out
}

func (m *Memory) UpdateSocialAccountTokens(_ context.Context, arg database.UpdateSocialAccountTokensParams) error {
	return m.updateAccount(arg.ID, func(a *database.SocialAccount) {
		a.AccessToken = arg.AccessToken
		if arg.RefreshToken.Valid && arg.RefreshToken.String != "" {
			a.RefreshToken = arg.RefreshToken
		}
		a.TokenExpiry = arg.TokenExpiry
		a.UpdatedAt = arg.UpdatedAt
	})
}

func (m *Memory) UpdateSocialAccountSyncStatus(_ context.Context, arg database.UpdateSocialAccountSyncStatusParams) error {
	return m.updateAccount(arg.ID, func(a *database.SocialAccount) {
		a.SyncStatus = arg.SyncStatus
		a.StatusReason = arg.StatusReason
		if arg.LastSync.Valid {
			a.LastSync = arg.LastSync
		}
		a.UpdatedAt = arg.UpdatedAt
	})
}

func (m *Memory) SetSocialAccountActive(_ context.Context, arg database.SetSocialAccountActiveParams) error {
	return m.updateAccount(arg.ID, func(a *database.SocialAccount) {
		a.IsActive = arg.IsActive
		a.UpdatedAt = arg.UpdatedAt
	})
}

func (m *Memory) updateAccount(id uuid.UUID, fn func(*database.SocialAccount)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.accounts[id]
	if !ok {
		return database.ErrNotFound
	}
	fn(&a)
	m.accounts[id] = a
	return nil
}

// DeleteSocialAccount also drops the account's snapshots and posts, like the
// ON DELETE CASCADE foreign keys do.
func (m *Memory) DeleteSocialAccount(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.accounts[id]; !ok {
		return database.ErrNotFound
	}
	delete(m.accounts, id)
	m.accountSeq = slices.DeleteFunc(m.accountSeq, func(v uuid.UUID) bool { return v == id })
	m.snapshots = slices.DeleteFunc(m.snapshots, func(s database.MetricSnapshot) bool { return s.AccountID == id })
	for k := range m.posts {
		if k.accountID == id {
			delete(m.posts, k)
		}
	}
	return nil
}

func (m *Memory) CreateMetricSnapshot(_ context.Context, arg database.CreateMetricSnapshotParams) (database.MetricSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := database.MetricSnapshot(arg)
	m.snapshots = append(m.snapshots, s)
	return s, nil
}

func (m *Memory) GetLatestMetricSnapshot(_ context.Context, accountID uuid.UUID) (database.MetricSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var (
		latest database.MetricSnapshot
		found  bool
	)
	for _, s := range m.snapshots {
		if s.AccountID != accountID {
			continue
		}
		if !found || !s.CapturedAt.Before(latest.CapturedAt) {
			latest, found = s, true
		}
	}
	if !found {
		return database.MetricSnapshot{}, database.ErrNotFound
	}
	return latest, nil
}

func (m *Memory) ListMetricSnapshotsInRange(_ context.Context, arg database.ListMetricSnapshotsInRangeParams) ([]database.MetricSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.MetricSnapshot
	for _, s := range m.snapshots {
		if s.AccountID == arg.AccountID && !s.CapturedAt.Before(arg.From) && s.CapturedAt.Before(arg.To) {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CapturedAt.Before(out[j].CapturedAt) })
	return out, nil
}

// Snapshots returns every stored snapshot in insertion order.
func (m *Memory) Snapshots() []database.MetricSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.snapshots)
}

func (m *Memory) UpsertPost(_ context.Context, arg database.UpsertPostParams) (database.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := postKey{accountID: arg.AccountID, postID: arg.PostID}
	p, ok := m.posts[key]
	if !ok {
		p = database.Post{
			ID:        arg.ID,
			AccountID: arg.AccountID,
			Platform:  arg.Platform,
			PostID:    arg.PostID,
			PostedAt:  arg.PostedAt,
			CreatedAt: arg.CreatedAt,
		}
	}
	p.Content = arg.Content
	p.ImageUrl = arg.ImageUrl
	p.Likes = arg.Likes
	p.Comments = arg.Comments
	p.Shares = arg.Shares
	p.Views = arg.Views
	p.EngagementRate = arg.EngagementRate
	p.UpdatedAt = arg.UpdatedAt
	m.posts[key] = p
	return p, nil
}

func (m *Memory) ListTopPostsByAccount(_ context.Context, arg database.ListTopPostsByAccountParams) ([]database.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.Post
	for k, p := range m.posts {
		if k.accountID == arg.AccountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Interactions() != out[j].Interactions() {
			return out[i].Interactions() > out[j].Interactions()
		}
		return out[i].PostedAt.After(out[j].PostedAt)
	})
	if len(out) > int(arg.Limit) {
		out = out[:arg.Limit]
	}
	return out, nil
}

// Posts returns every stored post of accountID.
func (m *Memory) Posts(accountID uuid.UUID) []database.Post {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.Post
	for k, p := range m.posts {
		if k.accountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PostID < out[j].PostID })
	return out
}

func (m *Memory) CreateReport(_ context.Context, arg database.CreateReportParams) (database.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r := database.Report{
		ID:         arg.ID,
		UserID:     arg.UserID,
		ReportType: arg.ReportType,
		Title:      arg.Title,
		Data:       slices.Clone(arg.Data),
		StartDate:  arg.StartDate,
		EndDate:    arg.EndDate,
		CreatedAt:  arg.CreatedAt,
	}
	m.reports[r.ID] = r
	return r, nil
}

func (m *Memory) GetReportByID(_ context.Context, id uuid.UUID) (database.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return database.Report{}, database.ErrNotFound
	}
	return r, nil
}

func (m *Memory) ListReportsByUser(_ context.Context, userID uuid.UUID) ([]database.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []database.Report
	for _, r := range m.reports {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

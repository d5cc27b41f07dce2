// SPDX-License-Identifier: AGPL-3.0-only
package worker

import (
	"sync"

	"github.com/google/uuid"
)

// AccountLocks hands out one mutex per account so that two syncs of the same
// account never interleave their writes.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// TryLock returns false when the account is already being synced.
func (l *AccountLocks) TryLock(id uuid.UUID) bool {
	l.mu.Lock()
	lock, ok := l.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[id] = lock
	}
	l.mu.Unlock()

	return lock.TryLock()
}

func (l *AccountLocks) Unlock(id uuid.UUID) {
	l.mu.Lock()
	lock := l.locks[id]
	l.mu.Unlock()

	if lock != nil {
		lock.Unlock()
	}
}

// Package session keeps per-user conversation state for the lifetime of
// the process. It is deliberately free of Telegram types so handlers can
// be tested against it directly.
package session

import (
	"sync"

	"laundrybot/internal/laundry"
)

// Session is the per-user state record. A zero Level means "not set".
type Session struct {
	// PinnedLevel is the user's remembered default laundry room.
	PinnedLevel laundry.Level
	// LastViewedLevel is the level currently displayed to the user; it
	// scopes follow-up actions such as the help view's back button.
	LastViewedLevel laundry.Level
}

// Store provides atomic per-key access to user sessions. Implementations
// must not lose updates under concurrent access to the same key; ordering
// between actions of one user is last-write-wins by contract.
type Store interface {
	// Get returns a copy of the user's session, creating an empty one on
	// first access.
	Get(userID int64) Session
	SetPinnedLevel(userID int64, level laundry.Level)
	SetLastViewedLevel(userID int64, level laundry.Level)
	// PinnedLevel reports the pinned level and whether one is set.
	PinnedLevel(userID int64) (laundry.Level, bool)
	// LastViewedLevel reports the last viewed level and whether one is set.
	LastViewedLevel(userID int64) (laundry.Level, bool)
	// Count returns the number of materialized sessions.
	Count() int
}

type memoryStore struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewMemoryStore constructs the in-process Store implementation.
func NewMemoryStore() Store {
	return &memoryStore{sessions: make(map[int64]*Session)}
}

func (m *memoryStore) Get(userID int64) Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.materialize(userID)
}

// materialize returns the live session for a user, creating it if needed.
// Callers must hold the write lock.
func (m *memoryStore) materialize(userID int64) *Session {
	sess, ok := m.sessions[userID]
	if !ok {
		sess = &Session{}
		m.sessions[userID] = sess
	}
	return sess
}

func (m *memoryStore) SetPinnedLevel(userID int64, level laundry.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialize(userID).PinnedLevel = level
}

func (m *memoryStore) SetLastViewedLevel(userID int64, level laundry.Level) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.materialize(userID).LastViewedLevel = level
}

func (m *memoryStore) PinnedLevel(userID int64) (laundry.Level, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok && sess.PinnedLevel != 0 {
		return sess.PinnedLevel, true
	}
	return 0, false
}

func (m *memoryStore) LastViewedLevel(userID int64) (laundry.Level, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sess, ok := m.sessions[userID]; ok && sess.LastViewedLevel != 0 {
		return sess.LastViewedLevel, true
	}
	return 0, false
}

func (m *memoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

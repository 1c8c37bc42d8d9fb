package chat

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionFactory builds a new Session for id.
type SessionFactory func(id string) *Session

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithMaxSessions caps the number of live sessions. When the cap is reached
// Create evicts the least recently used session. Zero means no cap.
func WithMaxSessions(n int) ManagerOption {
	return func(m *Manager) {
		m.maxSessions = max(n, 0)
	}
}

// WithIdleTTL evicts sessions not looked up for longer than ttl. Zero keeps
// sessions until they are deleted.
func WithIdleTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) {
		m.idleTTL = max(ttl, 0)
	}
}

// WithClock replaces time.Now for idle tracking.
func WithClock(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.now = now
	}
}

type managedSession struct {
	session  *Session
	lastUsed time.Time
}

// Manager owns independent sessions keyed by ID.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*managedSession
	factory  SessionFactory

	maxSessions int
	idleTTL     time.Duration
	now         func() time.Time
}

// NewManager creates a Manager that builds sessions with factory.
func NewManager(factory SessionFactory, opts ...ManagerOption) *Manager {
	m := &Manager{
		sessions: make(map[string]*managedSession),
		factory:  factory,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session with a random ID, evicting idle sessions and,
// at the cap, the least recently used one.
func (m *Manager) Create() *Session {
	s := m.factory(uuid.NewString())

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.pruneLocked(now)
	if m.maxSessions > 0 {
		for len(m.sessions) >= m.maxSessions {
			m.evictOldestLocked()
		}
	}

	m.sessions[s.ID()] = &managedSession{session: s, lastUsed: now}
	return s
}

// Get returns the session for id and marks it used. An idle-expired session
// is removed and reported as missing.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.sessions[id]
	if !ok {
		return nil, false
	}

	now := m.now()
	if m.expired(entry, now) {
		delete(m.sessions, id)
		return nil, false
	}
	entry.lastUsed = now
	return entry.session, true
}

// Delete removes the session for id. Returns false if it did not exist.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Prune removes idle-expired sessions and returns how many were removed.
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.pruneLocked(m.now())
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.sessions)
}

func (m *Manager) expired(entry *managedSession, now time.Time) bool {
	return m.idleTTL > 0 && now.Sub(entry.lastUsed) > m.idleTTL
}

func (m *Manager) pruneLocked(now time.Time) int {
	removed := 0
	for id, entry := range m.sessions {
		if m.expired(entry, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *Manager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, entry := range m.sessions {
		if oldestID == "" || entry.lastUsed.Before(oldest) {
			oldestID, oldest = id, entry.lastUsed
		}
	}
	delete(m.sessions, oldestID)
}

// NewSessionFactory returns a SessionFactory that builds every session with
// the same sender and options.
func NewSessionFactory(sender Sender, opts ...SessionOption) SessionFactory {
	return func(id string) *Session {
		return NewSession(id, sender, opts...)
	}
}

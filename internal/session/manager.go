package session

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ormsbydaniel/apex-ge-config-builder-sub002/internal/logging"
)

// DefaultMaxSessions limits concurrent sessions to bound memory use.
const DefaultMaxSessions = 100

// SessionKeepAliveWindow protects recently used sessions from cleanup.
const SessionKeepAliveWindow = 5 * time.Minute

// Info describes a session without its document.
type Info struct {
	ID           string    `json:"id"`
	Version      int64     `json:"version"`
	SourceCount  int       `json:"sourceCount"`
	ServiceCount int       `json:"serviceCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastAccessed time.Time `json:"lastAccessed"`
}

type state struct {
	mu           sync.Mutex // serializes transitions
	id           string
	snapshot     *Snapshot
	createdAt    time.Time
	lastAccessed time.Time
}

// Manager holds the in-memory editing sessions. Nothing is persisted.
type Manager struct {
	sessions    map[string]*state
	mu          sync.RWMutex
	maxSessions int
	logger      *logging.Logger
	now         func() time.Time
}

// NewManager creates a manager holding at most maxSessions sessions; the
// least recently used one is evicted to make room.
func NewManager(maxSessions int, logger *logging.Logger) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*state),
		maxSessions: maxSessions,
		logger:      logger,
		now:         time.Now,
	}
}

// Create starts a session with an empty document.
func (m *Manager) Create() Info {
	now := m.now()
	st := &state{
		id:           uuid.New().String(),
		snapshot:     NewSnapshot(now),
		createdAt:    now,
		lastAccessed: now,
	}

	m.mu.Lock()
	m.evictIfFull()
	m.sessions[st.id] = st
	m.mu.Unlock()

	m.logger.Info("session created", "session", st.id)
	return st.info()
}

// evictIfFull must be called with m.mu held.
func (m *Manager) evictIfFull() {
	if len(m.sessions) < m.maxSessions {
		return
	}
	all := make([]*state, 0, len(m.sessions))
	for _, st := range m.sessions {
		all = append(all, st)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].accessed().Before(all[j].accessed())
	})
	for _, st := range all[:len(m.sessions)-m.maxSessions+1] {
		delete(m.sessions, st.id)
		m.logger.Info("session evicted", "session", st.id)
	}
}

func (m *Manager) lookup(id string) (*state, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return st, nil
}

// Get returns the current snapshot and marks the session as used.
func (m *Manager) Get(id string) (*Snapshot, error) {
	st, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	st.lastAccessed = m.now()
	return st.snapshot, nil
}

// Info returns the session metadata.
func (m *Manager) Info(id string) (Info, error) {
	st, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	return st.info(), nil
}

// Update applies t and publishes the resulting snapshot. On error the
// session keeps its previous snapshot.
func (m *Manager) Update(id string, t Transition) (*Snapshot, error) {
	st, err := m.lookup(id)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := m.now()
	next, err := Apply(st.snapshot, t, now)
	if err != nil {
		return nil, err
	}
	st.snapshot = next
	st.lastAccessed = now
	m.logger.Debug("session updated", "session", id, "version", next.Version)
	return next, nil
}

// Touch marks a session as used. It reports whether the session exists.
func (m *Manager) Touch(id string) bool {
	st, err := m.lookup(id)
	if err != nil {
		return false
	}
	st.mu.Lock()
	st.lastAccessed = m.now()
	st.mu.Unlock()
	return true
}

// Delete ends a session. It reports whether the session existed.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	m.logger.Info("session deleted", "session", id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions unused for longer than maxAge and
// returns how many were removed. Sessions used within
// SessionKeepAliveWindow are always kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	cutoff := now.Add(-maxAge)
	keepAliveCutoff := now.Add(-SessionKeepAliveWindow)

	removed := 0
	for id, st := range m.sessions {
		last := st.accessed()
		if last.After(keepAliveCutoff) || !last.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
		m.logger.Info("session expired", "session", id, "idle", now.Sub(last).Round(time.Second).String())
	}
	return removed
}

func (st *state) accessed() time.Time {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.lastAccessed
}

func (st *state) info() Info {
	st.mu.Lock()
	defer st.mu.Unlock()
	return Info{
		ID:           st.id,
		Version:      st.snapshot.Version,
		SourceCount:  len(st.snapshot.Config.Sources),
		ServiceCount: len(st.snapshot.Config.Services),
		CreatedAt:    st.createdAt,
		LastAccessed: st.lastAccessed,
	}
}

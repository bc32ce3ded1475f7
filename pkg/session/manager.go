package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned for an unknown, closed or expired session ID.
var ErrNotFound = errors.New("session not found")

const (
	DefaultMaxSessions = 64
	DefaultIdleTimeout = 30 * time.Minute
)

// Manager owns the live sessions of a process, keyed by ID. Sessions idle
// for longer than the configured timeout are dropped by Sweep, and opening
// a session beyond the cap evicts the least recently used one.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	cfg      Config
	logger   *slog.Logger
	max      int
	idle     time.Duration
	now      func() time.Time
}

type entry struct {
	s        *Session
	lastUsed time.Time
}

// NewManager creates a manager whose sessions share cfg.
func NewManager(cfg Config) *Manager {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg.Logger = logger
	m := &Manager{
		sessions: make(map[string]*entry),
		cfg:      cfg,
		logger:   logger,
		max:      cfg.MaxSessions,
		idle:     cfg.IdleTimeout,
		now:      time.Now,
	}
	if m.max <= 0 {
		m.max = DefaultMaxSessions
	}
	if m.idle <= 0 {
		m.idle = DefaultIdleTimeout
	}
	return m
}

// Open starts a new session, first dropping expired sessions and, at the
// cap, the least recently used one.
func (m *Manager) Open() *Session {
	s := New(uuid.NewString(), m.cfg)
	m.mu.Lock()
	now := m.now()
	m.sweepLocked(now)
	for len(m.sessions) >= m.max {
		m.evictOldestLocked()
	}
	m.sessions[s.ID] = &entry{s: s, lastUsed: now}
	m.mu.Unlock()
	m.logger.Info("session opened", "session", s.ID)
	return s
}

// Get returns the session with the given ID and marks it used.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	e.lastUsed = m.now()
	return e.s, nil
}

// Close ends a session and drops its state.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(m.sessions, id)
	m.logger.Info("session closed", "session", id)
	return nil
}

// Sweep drops every session idle for longer than the idle timeout and
// returns how many were dropped.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked(m.now())
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("sessions swept", "expired", n, "open", m.Count())
			}
		}
	}
}

func (m *Manager) sweepLocked(now time.Time) int {
	var n int
	for id, e := range m.sessions {
		if now.Sub(e.lastUsed) > m.idle {
			delete(m.sessions, id)
			m.logger.Info("session expired", "session", id, "idle", now.Sub(e.lastUsed))
			n++
		}
	}
	return n
}

func (m *Manager) evictOldestLocked() {
	var oldest string
	var at time.Time
	for id, e := range m.sessions {
		if oldest == "" || e.lastUsed.Before(at) {
			oldest, at = id, e.lastUsed
		}
	}
	delete(m.sessions, oldest)
	m.logger.Warn("session evicted", "session", oldest, "max_sessions", m.max)
}

// IDs returns the open session IDs, sorted.
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

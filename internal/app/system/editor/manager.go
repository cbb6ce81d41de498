package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dalemusser/stratadash/internal/app/system/dashboard"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound is returned for an unknown or already closed session id.
var ErrSessionNotFound = errors.New("editor session not found")

// Manager tracks open sessions by id.
type Manager struct {
	deps Deps

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a Manager whose sessions share deps.
func NewManager(deps Deps) *Manager {
	return &Manager{deps: deps.withDefaults(), sessions: map[string]*Session{}}
}

// Open starts and registers a session. Sessions for a missing dashboard
// are returned in StateNotFound and are not registered.
func (m *Manager) Open(ctx context.Context, mode Mode, dashboardID string, seed dashboard.Input) (*Session, error) {
	s, err := Open(ctx, uuid.NewString(), m.deps, mode, dashboardID, seed)
	if err != nil {
		return nil, err
	}
	if s.State() == StateNotFound {
		return s, nil
	}
	m.mu.Lock()
	m.sessions[s.ID()] = s
	m.mu.Unlock()
	m.deps.Logger.Debug("editor session opened",
		zap.String("session_id", s.ID()),
		zap.String("mode", string(mode)),
		zap.String("dashboard_id", dashboardID))
	return s, nil
}

// Duplicate opens a new-dashboard session seeded from an existing one.
func (m *Manager) Duplicate(ctx context.Context, sourceID, ownerID string) (*Session, error) {
	src, err := m.deps.Gateway.Get(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	seed := dashboard.InputFrom(src)
	seed.Name = copyName(src.Name)
	seed.IsTemplate = false
	if ownerID != "" {
		seed.OwnerID = ownerID
	}
	return m.Open(ctx, ModeNew, "", seed)
}

func copyName(name string) string {
	out := "Copy of " + name
	if r := []rune(out); len(r) > dashboard.MaxNameLength {
		out = strings.TrimSpace(string(r[:dashboard.MaxNameLength]))
	}
	return out
}

// Get returns a registered session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Close disposes and unregisters a session.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.Close()
	return nil
}

// Len returns the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Reap closes sessions idle longer than maxIdle and returns how many it
// closed. Sessions that are mid-save are left alone.
func (m *Manager) Reap(maxIdle time.Duration) int {
	cutoff := m.deps.Clock.Now().Add(-maxIdle)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.State() == StateSaving {
			continue
		}
		if s.LastActive().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Close()
	}
	return len(stale)
}

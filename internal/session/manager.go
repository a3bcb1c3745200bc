package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/prompt"
)

// Manager opens, tracks and closes chat sessions. Sessions are held only in
// memory and vanish on close; there is no persistence.
type Manager struct {
	backend Backend
	logger  *slog.Logger

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager over the given backend.
func NewManager(backend Backend, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend:  backend,
		logger:   logger,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Open creates a session and issues the opening call. The hidden context is
// built from the profile and reading; the master's first message becomes turn
// zero. On failure no session survives: the caller gets an error and the
// transcript stays empty.
func (m *Manager) Open(ctx context.Context, profile models.UserProfile, reading models.Reading) (*Session, error) {
	s := newSession(m.backend)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	hidden := prompt.HiddenContext(profile, reading)
	opening, err := m.backend.StartChat(ctx, prompt.SystemOpening, prompt.OpeningUser(hidden))

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		m.remove(s.id)
		return nil, ErrClosed
	}
	if err != nil {
		s.state = StateFailed
		s.mu.Unlock()
		m.remove(s.id)
		m.logger.Warn("session opening failed", "session", s.id, "error", err)
		return nil, fmt.Errorf("open session: %w", err)
	}
	s.turns = append(s.turns, opening)
	s.state = StateReady
	s.mu.Unlock()

	m.logger.Info("session opened", "session", s.id, "quota", DefaultQuota)
	return s, nil
}

// Get returns the session with the given id, if it is still open.
func (m *Manager) Get(id uuid.UUID) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Close discards the session. An in-flight call for it may still resolve, but
// its result is ignored. Returns false if the session is unknown.
func (m *Manager) Close(id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.close()
	m.logger.Info("session closed", "session", id)
	return true
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Package session owns the master chat session state: the ordered transcript,
// the remaining-question quota and the open/closed lifecycle. Each session
// lives only in memory; closing discards it and reopening starts fresh with a
// full quota.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/prompt"
)

// DefaultQuota is the number of follow-up questions per session.
const DefaultQuota = 3

var (
	// ErrClosed is returned when the session has been closed or failed.
	ErrClosed = errors.New("session closed")
	// ErrBusy is returned when a call is already in flight.
	ErrBusy = errors.New("a question is already being answered")
	// ErrQuotaExhausted is returned when no follow-up questions remain.
	ErrQuotaExhausted = errors.New("question quota exhausted")
	// ErrEmptyMessage is returned for messages that are blank after trimming.
	ErrEmptyMessage = errors.New("message is empty")
)

// State is the session lifecycle state.
type State int

const (
	StateAwaitingOpening State = iota
	StateReady
	StateAwaitingResponse
	StateFailed
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateAwaitingOpening:
		return "awaiting_opening"
	case StateReady:
		return "ready"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateFailed:
		return "failed"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Backend issues the actual model calls. Both the in-process chat service and
// the HTTP client satisfy it, so sessions can live on either side of the wire.
type Backend interface {
	StartChat(ctx context.Context, systemPrompt, userPrompt string) (models.ChatTurn, error)
	ContinueChat(ctx context.Context, systemPrompt, conversation string) (models.ChatTurn, error)
}

// Session is a bounded conversation with the master. All methods are safe for
// concurrent use.
type Session struct {
	id      uuid.UUID
	backend Backend

	mu        sync.Mutex
	state     State
	turns     []models.ChatTurn
	remaining int
}

func newSession(backend Backend) *Session {
	return &Session{
		id:        uuid.New(),
		backend:   backend,
		state:     StateAwaitingOpening,
		remaining: DefaultQuota,
	}
}

// ID returns the session identity.
func (s *Session) ID() uuid.UUID {
	return s.id
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Remaining returns how many follow-up questions are left.
func (s *Session) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Turns returns a copy of the transcript in insertion order.
func (s *Session) Turns() []models.ChatTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatTurn, len(s.turns))
	copy(out, s.turns)
	return out
}

// CanSubmit reports whether a follow-up question would be admitted right now.
func (s *Session) CanSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateReady && s.remaining > 0
}

// Send submits a follow-up question and returns the master's reply.
//
// The user turn is appended and the quota decremented before the model call,
// and both stand even if the call fails: a failed follow-up costs its
// question. A reply that resolves after the session was closed is discarded.
func (s *Session) Send(ctx context.Context, text string) (models.ChatTurn, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.ChatTurn{}, ErrEmptyMessage
	}

	s.mu.Lock()
	switch s.state {
	case StateClosed, StateFailed:
		s.mu.Unlock()
		return models.ChatTurn{}, ErrClosed
	case StateAwaitingOpening, StateAwaitingResponse:
		s.mu.Unlock()
		return models.ChatTurn{}, ErrBusy
	}
	if s.remaining <= 0 {
		s.mu.Unlock()
		return models.ChatTurn{}, ErrQuotaExhausted
	}

	s.turns = append(s.turns, models.NewTurn(models.RoleUser, trimmed))
	s.remaining--
	s.state = StateAwaitingResponse
	conversation := prompt.FlattenTranscript(s.turns)
	s.mu.Unlock()

	reply, err := s.backend.ContinueChat(ctx, prompt.SystemFollowUp, conversation)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed {
		return models.ChatTurn{}, ErrClosed
	}

	s.state = StateReady
	if err != nil {
		return models.ChatTurn{}, fmt.Errorf("send message: %w", err)
	}

	s.turns = append(s.turns, reply)
	return reply, nil
}

// close marks the session closed and discards the transcript.
func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateClosed
	s.turns = nil
}

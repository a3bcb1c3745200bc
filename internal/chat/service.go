// Package chat implements the backend chat operations: opening a master chat,
// continuing one with a flattened transcript, and generating a structured
// reading. It is stateless; transcript and quota live with the session owner.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raphaelgruber/masterchat/internal/metrics"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/prompt"
)

// ErrNoContent indicates the model answered but returned no usable text.
var ErrNoContent = errors.New("no content received from model")

// Generator abstracts the LLM wrapper for testing.
type Generator interface {
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Service relays prompt pairs to the model under a per-call deadline.
type Service struct {
	gen       Generator
	timeout   time.Duration
	logger    *slog.Logger
	collector *metrics.Collector
}

// NewService creates a chat service. timeout bounds every upstream call;
// expiry surfaces as a call failure.
func NewService(gen Generator, timeout time.Duration, logger *slog.Logger, collector *metrics.Collector) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Service{
		gen:       gen,
		timeout:   timeout,
		logger:    logger,
		collector: collector,
	}
}

// StartChat issues the opening call and returns the first assistant turn.
func (s *Service) StartChat(ctx context.Context, systemPrompt, userPrompt string) (models.ChatTurn, error) {
	content, err := s.call(ctx, metrics.OpChatStart, func(ctx context.Context) (string, error) {
		return s.gen.GenerateWithSystem(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return models.ChatTurn{}, fmt.Errorf("start chat: %w", err)
	}
	return models.NewTurn(models.RoleAssistant, content), nil
}

// ContinueChat issues a follow-up call given the flattened transcript and
// returns the next assistant turn.
func (s *Service) ContinueChat(ctx context.Context, systemPrompt, conversation string) (models.ChatTurn, error) {
	content, err := s.call(ctx, metrics.OpChatContinue, func(ctx context.Context) (string, error) {
		return s.gen.GenerateWithSystem(ctx, systemPrompt, prompt.ContinuationUser(conversation))
	})
	if err != nil {
		return models.ChatTurn{}, fmt.Errorf("continue chat: %w", err)
	}
	return models.NewTurn(models.RoleAssistant, content), nil
}

// GenerateReading issues a structured-output call and returns the raw JSON
// content verbatim.
func (s *Service) GenerateReading(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	content, err := s.call(ctx, metrics.OpReading, func(ctx context.Context) (string, error) {
		return s.gen.GenerateJSON(ctx, systemPrompt, userPrompt)
	})
	if err != nil {
		return "", fmt.Errorf("generate reading: %w", err)
	}
	return content, nil
}

// call runs one model call under the service deadline, trims the result and
// enforces the no-content rule. Prompt contents are never logged.
func (s *Service) call(ctx context.Context, op string, fn func(context.Context) (string, error)) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := fn(ctx)
	duration := time.Since(start)

	if err == nil && strings.TrimSpace(content) == "" {
		err = ErrNoContent
	}
	s.collector.RecordCall(op, duration, err)

	if err != nil {
		s.logger.Error("model call failed", "op", op, "duration_ms", duration.Milliseconds(), "error", err)
		return "", err
	}

	s.logger.Debug("model call completed", "op", op, "duration_ms", duration.Milliseconds())
	return strings.TrimSpace(content), nil
}

// Package server provides the HTTP surface: the stateless prompt relay, the
// session endpoints and the health/stats plumbing.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/raphaelgruber/masterchat/internal/metrics"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/session"
)

// serviceName is reported by the health endpoint.
const serviceName = "Master Chat API"

// ChatService is the backend the relay endpoints delegate to.
type ChatService interface {
	StartChat(ctx context.Context, systemPrompt, userPrompt string) (models.ChatTurn, error)
	ContinueChat(ctx context.Context, systemPrompt, conversation string) (models.ChatTurn, error)
	GenerateReading(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Server wires the chat service and the session manager into HTTP handlers.
type Server struct {
	svc       ChatService
	sessions  *session.Manager
	collector *metrics.Collector
	logger    *slog.Logger
}

// New creates a server. sessions may be nil when only the relay surface is
// wanted; the session routes then answer 404.
func New(svc ChatService, sessions *session.Manager, collector *metrics.Collector, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NewCollector()
	}
	return &Server{
		svc:       svc,
		sessions:  sessions,
		collector: collector,
		logger:    logger,
	}
}

// Routes builds the router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(CORS)
	r.Use(RequestLogger(s.logger))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Post("/start-chat", s.handleStartChat)
		r.Post("/continue-chat", s.handleContinueChat)
		r.Post("/generate-fortune", s.handleGenerateFortune)
		r.Get("/stats", s.handleStats)

		if s.sessions != nil {
			r.Route("/sessions", func(r chi.Router) {
				r.Post("/", s.handleOpenSession)
				r.Post("/{id}/messages", s.handleSendMessage)
				r.Post("/{id}/upgrade", s.handleUpgrade)
				r.Delete("/{id}", s.handleCloseSession)
			})
		}
	})

	r.NotFound(s.handleNotFound)
	r.MethodNotAllowed(s.handleNotFound)

	return r
}

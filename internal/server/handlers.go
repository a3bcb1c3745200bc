package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/raphaelgruber/masterchat/internal/models"
	"github.com/raphaelgruber/masterchat/internal/session"
)

// promptRequest is the body for start-chat and generate-fortune.
type promptRequest struct {
	SystemPrompt string `json:"systemPrompt"`
	UserPrompt   string `json:"userPrompt"`
}

// continueRequest is the body for continue-chat.
type continueRequest struct {
	SystemPrompt string `json:"systemPrompt"`
	Conversation string `json:"conversation"`
}

// openSessionRequest is the body for opening a server-side session.
type openSessionRequest struct {
	Profile models.UserProfile `json:"profile"`
	Reading models.Reading     `json:"reading"`
}

// sendMessageRequest is the body for a follow-up question.
type sendMessageRequest struct {
	Content string `json:"content"`
}

// sessionResponse is returned by the session open and message endpoints.
type sessionResponse struct {
	SessionID string          `json:"sessionId"`
	Message   models.ChatTurn `json:"message"`
	Remaining int             `json:"remaining"`
}

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := s.svc.StartChat(r.Context(), req.SystemPrompt, req.UserPrompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleContinueChat(w http.ResponseWriter, r *http.Request) {
	var req continueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := s.svc.ContinueChat(r.Context(), req.SystemPrompt, req.Conversation)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, turn)
}

func (s *Server) handleGenerateFortune(w http.ResponseWriter, r *http.Request) {
	var req promptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	content, err := s.svc.GenerateReading(r.Context(), req.SystemPrompt, req.UserPrompt)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	// The model already produced JSON; relay it verbatim.
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(content))
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.sessions.Open(r.Context(), req.Profile, req.Reading)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	turns := sess.Turns()
	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID().String(),
		Message:   turns[0],
		Remaining: sess.Remaining(),
	})
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	reply, err := sess.Send(r.Context(), req.Content)
	if err != nil {
		switch {
		case errors.Is(err, session.ErrEmptyMessage):
			writeError(w, http.StatusBadRequest, "message is empty")
		case errors.Is(err, session.ErrQuotaExhausted):
			writeError(w, http.StatusTooManyRequests, "question quota exhausted; unlimited follow-ups are not yet available")
		case errors.Is(err, session.ErrBusy):
			writeError(w, http.StatusConflict, "a question is already being answered")
		case errors.Is(err, session.ErrClosed):
			writeError(w, http.StatusNotFound, "session not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		SessionID: sess.ID().String(),
		Message:   reply,
		Remaining: sess.Remaining(),
	})
}

func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.lookupSession(w, r); !ok {
		return
	}
	writeError(w, http.StatusNotImplemented, "unlimited follow-ups are not yet available")
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	if !s.sessions.Close(id) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"service":   serviceName,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.collector.Snapshot())
}

func (s *Server) handleNotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   "Not found",
		"message": "Use /api/generate-fortune, /api/start-chat, /api/continue-chat or /api/sessions",
	})
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	sess, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

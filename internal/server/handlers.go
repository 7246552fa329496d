package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/normalize"
	"github.com/kapu/conference-companion-go/pkg/errors"
)

const maxAssistantBody = 16 << 10

type healthResponse struct {
	Status         string    `json:"status"`
	ContentLoaded  bool      `json:"content_loaded"`
	ContentVersion int64     `json:"content_version,omitempty"`
	RefreshedAt    time.Time `json:"refreshed_at,omitzero"`
	Failed         []string  `json:"failed,omitempty"`
	Stale          []string  `json:"stale,omitempty"`
	Clients        int       `json:"websocket_clients"`

	Dependencies map[string]string `json:"dependencies,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok", Clients: s.hub.ClientCount()}

	snap, err := s.content.Current()
	if err == nil {
		resp.ContentLoaded = true
		resp.ContentVersion = snap.Version
		resp.RefreshedAt = snap.RefreshedAt
		for _, c := range snap.Failed {
			resp.Failed = append(resp.Failed, c.String())
		}
		for _, c := range snap.Stale {
			resp.Stale = append(resp.Stale, c.String())
		}
		if len(resp.Failed) > 0 || len(resp.Stale) > 0 {
			resp.Status = "degraded"
		}
	} else {
		resp.Status = "starting"
	}

	if len(s.checks) > 0 {
		ctx, cancel := context.WithTimeout(r.Context(), constants.ServerConfig.HealthCheckTimeout)
		defer cancel()

		resp.Dependencies = make(map[string]string, len(s.checks))
		for name, check := range s.checks {
			if err := check(ctx); err != nil {
				resp.Dependencies[name] = err.Error()
				if resp.Status == "ok" {
					resp.Status = "degraded"
				}
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDays(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.content.Days())
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	day := mux.Vars(r)["day"]
	cards, err := s.content.ScheduleCards(day)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleCalendar(w http.ResponseWriter, _ *http.Request) {
	snap, err := s.content.Current()
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := s.cfg.Calendar
	opts.Stamp = snap.RefreshedAt
	body := adapter.ExportICS(snap.Content.Schedule, opts)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.ics"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

func (s *Server) collectionHandler(pick func(*normalize.Content) any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		snap, err := s.content.Current()
		if err != nil {
			s.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, pick(snap.Content))
	}
}

type refreshResponse struct {
	Version     int64     `json:"version"`
	RefreshedAt time.Time `json:"refreshed_at"`
	Failed      []string  `json:"failed,omitempty"`
	Stale       []string  `json:"stale,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), constants.ServerConfig.RefreshTimeout)
	defer cancel()

	snap, err := s.content.Refresh(ctx, true)
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := refreshResponse{Version: snap.Version, RefreshedAt: snap.RefreshedAt}
	for _, c := range snap.Failed {
		resp.Failed = append(resp.Failed, c.String())
	}
	for _, c := range snap.Stale {
		resp.Stale = append(resp.Stale, c.String())
	}
	writeJSON(w, http.StatusOK, resp)
}

type assistantRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
}

func (s *Server) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, errors.CodeService, "the assistant is not configured")
		return
	}

	var req assistantRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxAssistantBody)).Decode(&req); err != nil {
		s.writeError(w, errors.NewValidationError("request body must be a JSON object", "body", nil))
		return
	}

	answer, err := s.assistant.Ask(r.Context(), req.ConversationID, req.Question)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleForgetConversation(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeErrorMessage(w, http.StatusServiceUnavailable, errors.CodeService, "the assistant is not configured")
		return
	}

	id := mux.Vars(r)["conversation_id"]
	found, err := s.assistant.Forget(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !found {
		s.writeError(w, errors.NewNotFoundError("conversation", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeErrorMessage(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeError maps an error chain to a JSON error. Internal failures are logged
// and reported without their cause.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := errors.StatusCodeOf(err)
	code := errors.CodeOf(err)

	message := "internal server error"
	if ae, ok := errors.AsAppError(err); ok && (status < 500 || status == http.StatusServiceUnavailable) {
		message = ae.Message
	}
	if status >= 500 {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}

	writeErrorMessage(w, status, code, message)
}

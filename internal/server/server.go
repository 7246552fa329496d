// Package server exposes the companion content over HTTP and pushes refresh
// notifications to WebSocket clients.
package server

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kapu/conference-companion-go/internal/adapter"
	"github.com/kapu/conference-companion-go/internal/constants"
	"github.com/kapu/conference-companion-go/internal/domain"
	"github.com/kapu/conference-companion-go/internal/normalize"
	"github.com/kapu/conference-companion-go/internal/service/assistant"
	"github.com/kapu/conference-companion-go/internal/service/content"
)

// ContentService is the read side of the content pipeline plus manual refresh.
type ContentService interface {
	Current() (*content.Snapshot, error)
	ScheduleCards(dayLabel string) ([]domain.ScheduleCard, error)
	Days() []content.DaySummary
	Refresh(ctx context.Context, bypassCache bool) (*content.Snapshot, error)
}

// Asker answers attendee questions.
type Asker interface {
	Ask(ctx context.Context, conversationID, question string) (*assistant.Answer, error)
	Forget(ctx context.Context, conversationID string) (bool, error)
}

type Config struct {
	Addr     string
	Calendar adapter.CalendarOptions
}

// HealthCheck probes one backend for /health. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

type Server struct {
	cfg       Config
	content   ContentService
	assistant Asker
	hub       *Hub
	checks    map[string]HealthCheck
	router    *mux.Router
	http      *http.Server
	logger    *zap.Logger
}

// New builds the router. asker may be nil when no chat provider is configured.
func New(cfg Config, contentSvc ContentService, asker Asker, hub *Hub, logger *zap.Logger) *Server {
	s := &Server{
		cfg:       cfg,
		content:   contentSvc,
		assistant: asker,
		hub:       hub,
		checks:    make(map[string]HealthCheck),
		logger:    logger,
	}
	s.router = s.routes()
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: constants.ServerConfig.ReadHeaderTimeout,
	}
	return s
}

// AddHealthCheck registers a backend reported under "dependencies" in /health.
// Call it before Start.
func (s *Server) AddHealthCheck(name string, check HealthCheck) {
	s.checks[name] = check
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recoverMiddleware, s.loggingMiddleware)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ws", s.hub.ServeWS).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/days", s.handleDays).Methods(http.MethodGet)
	api.HandleFunc("/schedule.ics", s.handleCalendar).Methods(http.MethodGet)
	api.HandleFunc("/schedule/{day}", s.handleSchedule).Methods(http.MethodGet)
	api.HandleFunc("/speakers", s.collectionHandler(func(c *normalize.Content) any { return c.Speakers })).Methods(http.MethodGet)
	api.HandleFunc("/sponsors", s.collectionHandler(func(c *normalize.Content) any { return c.Sponsors })).Methods(http.MethodGet)
	api.HandleFunc("/talks", s.collectionHandler(func(c *normalize.Content) any { return c.Talks })).Methods(http.MethodGet)
	api.HandleFunc("/workshops", s.collectionHandler(func(c *normalize.Content) any { return c.Workshops })).Methods(http.MethodGet)
	api.HandleFunc("/venues", s.collectionHandler(func(c *normalize.Content) any { return c.Venues })).Methods(http.MethodGet)
	api.HandleFunc("/recommendations", s.collectionHandler(func(c *normalize.Content) any { return c.Recommendations })).Methods(http.MethodGet)
	api.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.HandleFunc("/assistant", s.handleAssistant).Methods(http.MethodPost)
	api.HandleFunc("/assistant/{conversation_id}", s.handleForgetConversation).Methods(http.MethodDelete)

	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	methodNotAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeErrorMessage(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})
	for _, router := range []*mux.Router{r, api} {
		router.NotFoundHandler = notFound
		router.MethodNotAllowedHandler = methodNotAllowed
	}
	return r
}

// Handler returns the root handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown. It returns nil on a clean shutdown.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.cfg.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.ServerConfig.ShutdownTimeout)
	defer cancel()

	s.hub.Close()
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.Error("Handler panic",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
				)
				writeErrorMessage(w, http.StatusInternalServerError, "APP_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Hijack keeps WebSocket upgrades working behind the recorder.
func (r *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := r.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}

package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/aware"
	"github.com/aretw0/aware/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// Engine defines the subset of the dispatch engine exposed over HTTP.
type Engine interface {
	Subscribe(ctx context.Context, sub domain.Subscription) (domain.Subscription, error)
	Unsubscribe(ctx context.Context, sub domain.Subscription) (bool, error)
	Throw(ctx context.Context, sig domain.Signal) (*domain.Result, error)
	Lookup(signal string) []domain.Subscription
	SubscriptionsOf(entity domain.EntityID) []string
	Signals() []string
	LastTrace(ctx context.Context, signal string) (*domain.Trace, error)
}

var _ Engine = (*aware.Engine)(nil)

// Server serves the admin API.
type Server struct {
	Engine  Engine
	Streams *StreamManager
	Logger  *slog.Logger
	metrics http.Handler
}

// HandlerOption configures the handler.
type HandlerOption func(*Server)

// WithStreams shares a stream manager whose Hooks are installed on the engine.
func WithStreams(sm *StreamManager) HandlerOption {
	return func(s *Server) {
		s.Streams = sm
	}
}

// WithMetricsHandler mounts h under /metrics.
func WithMetricsHandler(h http.Handler) HandlerOption {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) HandlerOption {
	return func(s *Server) {
		s.Logger = logger
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...HandlerOption) http.Handler {
	server := &Server{
		Engine: engine,
		Logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(server)
	}
	if server.Streams == nil {
		server.Streams = NewStreamManager()
	}

	r := chi.NewRouter()
	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Get("/signals", server.ListSignals)
	r.Get("/signals/{signal}/subscriptions", server.LookupSignal)
	r.Get("/signals/{signal}/trace", server.GetTrace)
	r.Get("/entities/{entity}/subscriptions", server.SubscriptionsOf)
	r.Post("/subscriptions", server.Subscribe)
	r.Delete("/subscriptions", server.Unsubscribe)
	r.Post("/throw", server.Throw)
	r.Get("/events", server.SubscribeEvents)
	if server.metrics != nil {
		r.Handle("/metrics", server.metrics)
	}
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ThrowRequest is the body of POST /throw. Omitted fields take the signal defaults.
type ThrowRequest struct {
	Name        string          `json:"name"`
	Source      domain.EntityID `json:"source"`
	Local       *bool           `json:"local,omitempty"`
	Propagation *int            `json:"propagation,omitempty"`
	Params      domain.Params   `json:"params,omitempty"`
}

// Signal converts the request into a signal.
func (t ThrowRequest) Signal() domain.Signal {
	sig := domain.NewSignal(t.Name, t.Source)
	if t.Local != nil {
		sig.Local = *t.Local
	}
	if t.Propagation != nil {
		sig.Propagation = *t.Propagation
	}
	sig.Params = t.Params
	return sig
}

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "aware-http",
		"version": strings.TrimSpace(aware.Version),
	})
}

// ListSignals handles the GET /signals request.
func (s *Server) ListSignals(w http.ResponseWriter, r *http.Request) {
	signals := s.Engine.Signals()
	if signals == nil {
		signals = []string{}
	}
	s.writeJSON(w, http.StatusOK, signals)
}

// LookupSignal handles the GET /signals/{signal}/subscriptions request.
func (s *Server) LookupSignal(w http.ResponseWriter, r *http.Request) {
	signal := chi.URLParam(r, "signal")
	if err := domain.ValidateName(signal); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	subs := s.Engine.Lookup(signal)
	if subs == nil {
		subs = []domain.Subscription{}
	}
	s.writeJSON(w, http.StatusOK, subs)
}

// SubscriptionsOf handles the GET /entities/{entity}/subscriptions request.
func (s *Server) SubscriptionsOf(w http.ResponseWriter, r *http.Request) {
	entity := domain.EntityID(chi.URLParam(r, "entity"))
	signals := s.Engine.SubscriptionsOf(entity)
	if signals == nil {
		signals = []string{}
	}
	s.writeJSON(w, http.StatusOK, signals)
}

// Subscribe handles the POST /subscriptions request.
func (s *Server) Subscribe(w http.ResponseWriter, r *http.Request) {
	var body domain.Subscription
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("Subscribe: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	stored, err := s.Engine.Subscribe(r.Context(), body)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, stored)
}

// Unsubscribe handles the DELETE /subscriptions request.
func (s *Server) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var body domain.Subscription
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("Unsubscribe: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	removed, err := s.Engine.Unsubscribe(r.Context(), body)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// Throw handles the POST /throw request.
func (s *Server) Throw(w http.ResponseWriter, r *http.Request) {
	var body ThrowRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.Logger.Warn("Throw: Invalid request body", "err", err)
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	res, err := s.Engine.Throw(r.Context(), body.Signal())
	if err != nil {
		s.Logger.Error("Throw failed", "signal", body.Name, "err", err)
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

// GetTrace handles the GET /signals/{signal}/trace request.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	signal := chi.URLParam(r, "signal")
	tr, err := s.Engine.LastTrace(r.Context(), signal)
	if err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, tr)
}

// SubscribeEvents handles the GET /events request (SSE). The optional signal
// query parameter restricts the stream to one signal name.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.Logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	topic := r.URL.Query().Get("signal")
	if topic == "" {
		topic = AllSignals
	}
	s.Logger.Info("SSE: Subscribing to throws", "signal", topic)

	ch, cancel := s.Streams.Subscribe(topic)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: complete\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrDuplicateSubscription):
		return http.StatusConflict
	case errors.Is(err, domain.ErrTraceNotFound),
		errors.Is(err, domain.ErrSignalNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidSignalName),
		errors.Is(err, domain.ErrInvalidSubscription),
		errors.Is(err, domain.ErrInvalidPropagation),
		errors.Is(err, domain.ErrMissingSource):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

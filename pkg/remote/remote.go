// Package remote exposes a graph's variables to external producers
// over HTTP, and streams structural events to interested consumers
// over WebSocket.
//
// Producers never touch the graph: every update is marshalled onto the
// graph's consumer goroutine through its Driver. Event delivery is
// best effort; slow subscribers lose events rather than stalling the
// graph.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/weftui/weft/pkg/state"
)

// Config configures the remote server.
type Config struct {
	// Address to listen on (default: ":8920").
	Address string

	// ReadBufferSize / WriteBufferSize for WebSocket connections.
	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: same-host only.
	CheckOrigin func(*http.Request) bool

	// SubscriberBuffer is the per-subscriber event buffer. A full
	// buffer drops events for that subscriber.
	SubscriberBuffer int

	// RequestTimeout bounds each marshalled graph operation.
	RequestTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the default remote server configuration.
func DefaultConfig() *Config {
	return &Config{
		Address:          ":8920",
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		SubscriberBuffer: 32,
		RequestTimeout:   5 * time.Second,
		ShutdownTimeout:  5 * time.Second,
	}
}

// Server bridges HTTP/WebSocket producers and consumers to a Driver.
type Server struct {
	driver *state.Driver
	root   state.ScopeID
	config *Config

	upgrader websocket.Upgrader

	subscribers   map[*subscriber]bool
	subscribersMu sync.Mutex

	httpServer *http.Server
	logger     *slog.Logger
}

type subscriber struct {
	events chan Event
}

// New creates a remote server over driver. root is the scope variable
// updates default to when no scope is given.
func New(driver *state.Driver, root state.ScopeID, config *Config) *Server {
	if config == nil {
		config = DefaultConfig()
	} else {
		defaults := DefaultConfig()
		if config.Address == "" {
			config.Address = defaults.Address
		}
		if config.ReadBufferSize == 0 {
			config.ReadBufferSize = defaults.ReadBufferSize
		}
		if config.WriteBufferSize == 0 {
			config.WriteBufferSize = defaults.WriteBufferSize
		}
		if config.SubscriberBuffer == 0 {
			config.SubscriberBuffer = defaults.SubscriberBuffer
		}
		if config.RequestTimeout == 0 {
			config.RequestTimeout = defaults.RequestTimeout
		}
		if config.ShutdownTimeout == 0 {
			config.ShutdownTimeout = defaults.ShutdownTimeout
		}
	}

	s := &Server{
		driver:      driver,
		root:        root,
		config:      config,
		subscribers: make(map[*subscriber]bool),
		logger:      slog.Default().With("component", "remote"),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  config.ReadBufferSize,
		WriteBufferSize: config.WriteBufferSize,
		CheckOrigin:     config.CheckOrigin,
	}
	return s
}

// Handler returns the HTTP handler for the server's routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/vars/{name}", s.handleGetVar)
	r.Post("/vars/{name}", s.handleSetVar)
	r.Get("/events", s.handleEvents)
	return r
}

// ListenAndServe runs the HTTP server until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.config.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- s.httpServer.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	return s.httpServer.Shutdown(shutdownCtx)
}

type varRequest struct {
	Value state.Value   `json:"value"`
	Scope state.ScopeID `json:"scope,omitempty"`
}

type varResponse struct {
	Value state.Value `json:"value"`
}

func (s *Server) scopeOf(id state.ScopeID) state.ScopeID {
	if id == 0 {
		return s.root
	}
	return id
}

func (s *Server) handleSetVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req varRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	scope := s.scopeOf(req.Scope)
	if err := s.driver.SetValue(ctx, scope, name, req.Value); err != nil {
		s.writeStateError(w, err)
		return
	}

	s.Publish(Event{Kind: EventVarChanged, Scope: scope, Name: name, Value: req.Value})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetVar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()

	var scope state.ScopeID
	if q := r.URL.Query().Get("scope"); q != "" {
		var id uint64
		if err := json.Unmarshal([]byte(q), &id); err != nil {
			http.Error(w, "invalid scope", http.StatusBadRequest)
			return
		}
		scope = state.ScopeID(id)
	}

	v, ok, err := s.driver.GetValue(ctx, s.scopeOf(scope), name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "undefined variable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(varResponse{Value: v})
}

func (s *Server) writeStateError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, state.ErrUndefinedVariable), errors.Is(err, state.ErrUnknownScope):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{events: make(chan Event, s.config.SubscriberBuffer)}
	s.subscribersMu.Lock()
	s.subscribers[sub] = true
	s.subscribersMu.Unlock()

	defer func() {
		s.subscribersMu.Lock()
		delete(s.subscribers, sub)
		s.subscribersMu.Unlock()
		conn.Close()
	}()

	// Reader: only used to observe the peer closing.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			return
		case ev := <-sub.events:
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// Publish delivers an event to all current subscribers, best effort:
// subscribers with a full buffer miss it. Safe to call from the graph's
// consumer goroutine.
func (s *Server) Publish(ev Event) {
	s.subscribersMu.Lock()
	defer s.subscribersMu.Unlock()
	for sub := range s.subscribers {
		select {
		case sub.events <- ev:
		default:
			s.logger.Debug("dropping event for slow subscriber", "kind", ev.Kind)
		}
	}
}

// RemovalHook adapts Publish for state.WithRemovalHook, so external
// consumers learn about scope teardown.
func (s *Server) RemovalHook() func(state.ScopeID) {
	return func(id state.ScopeID) {
		s.Publish(Event{Kind: EventScopeRemoved, Scope: id})
	}
}

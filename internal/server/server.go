// Package server exposes the webhook endpoint, a health check and a JSON
// status view over HTTP.
package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ShayCichocki/suitpredict/internal/bot"
	"github.com/ShayCichocki/suitpredict/internal/engine"
	"github.com/ShayCichocki/suitpredict/internal/version"
)

// secretHeader carries the webhook secret set with setWebhook.
const secretHeader = "X-Telegram-Bot-Api-Secret-Token"

// UpdateHandler consumes decoded webhook updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, u bot.Update)
}

// StatusProvider supplies the /status payload.
type StatusProvider interface {
	Status() engine.Status
}

// Config holds HTTP server settings.
type Config struct {
	// Addr is the listen address (default ":10000").
	Addr string
	// WebhookSecret, when set, must match the secret header of every update.
	WebhookSecret  string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	MaxRequestSize int64
}

// DefaultConfig returns the default server settings.
func DefaultConfig() Config {
	return Config{
		Addr:           ":10000",
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		MaxRequestSize: 1 << 20,
	}
}

// Server serves the bot over HTTP.
type Server struct {
	config  Config
	updates UpdateHandler
	status  StatusProvider

	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	started    time.Time
	closed     bool
}

// New creates a server. Zero config fields use DefaultConfig values.
func New(config Config, updates UpdateHandler, status StatusProvider) *Server {
	def := DefaultConfig()
	if config.Addr == "" {
		config.Addr = def.Addr
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = def.ReadTimeout
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = def.WriteTimeout
	}
	if config.MaxRequestSize <= 0 {
		config.MaxRequestSize = def.MaxRequestSize
	}
	return &Server{
		config:  config,
		updates: updates,
		status:  status,
		started: time.Now(),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/status", s.handleStatus)
	mux.HandleFunc("/", s.handleIndex)
	return mux
}

// Start begins listening in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("server already closed")
	}

	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("[server] error: %v", err)
		}
	}()

	log.Printf("[server] listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.config.Addr
	}
	return s.listener.Addr().String()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "POST required")
		return
	}
	if s.config.WebhookSecret != "" {
		got := r.Header.Get(secretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(s.config.WebhookSecret)) != 1 {
			s.writeError(w, http.StatusUnauthorized, "invalid secret")
			return
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, s.config.MaxRequestSize))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}
	var u bot.Update
	if err := json.Unmarshal(body, &u); err != nil {
		// Acknowledge anyway so the Bot API does not redeliver garbage.
		log.Printf("[server] warning: undecodable update: %v", err)
		s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
		return
	}

	if s.updates != nil {
		// Outbound notifications must outlive a dropped webhook connection.
		s.updates.HandleUpdate(context.WithoutCancel(r.Context()), u)
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  time.Since(s.started).Round(time.Second).String(),
		"version": version.Get(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "GET required")
		return
	}
	if s.status == nil {
		s.writeError(w, http.StatusServiceUnavailable, "engine not loaded")
		return
	}
	s.writeJSON(w, http.StatusOK, s.status.Status())
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeError(w, http.StatusNotFound, "not found")
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "suitpredict %s is running\n", version.Get())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("[server] warning: failed to encode response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

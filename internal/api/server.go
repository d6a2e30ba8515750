package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"arena-siege/internal/game"
)

// ServerConfig configures the public API server
type ServerConfig struct {
	Addr              string
	RateLimit         RateLimitConfig
	CORSOrigins       []string
	AdminToken        string
	BroadcastInterval time.Duration
	Logger            zerolog.Logger
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with WebSocket hub for real-time updates.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *RateLimiter
	httpServer  *http.Server
	interval    time.Duration
	logger      zerolog.Logger
}

// NewServer creates a new API server.
//
// Background workers do not start until Start() is called, so the server
// can be constructed in tests and driven through Router().
func NewServer(engine *game.Engine, cfg ServerConfig) *Server {
	if cfg.RateLimit == (RateLimitConfig{}) {
		cfg.RateLimit = DefaultRateLimitConfig
	}
	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(NewOriginPolicy(cfg.CORSOrigins), cfg.Logger),
		rateLimiter: NewRateLimiter(cfg.RateLimit),
		interval:    cfg.BroadcastInterval,
		logger:      cfg.Logger,
	}

	s.router = NewRouter(RouterConfig{
		Engine:      engine,
		RateLimiter: s.rateLimiter,
		CORSOrigins: cfg.CORSOrigins,
		AdminToken:  cfg.AdminToken,
		Logger:      cfg.Logger,
	})
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

// Start runs the hub and status broadcaster and serves HTTP.
// It blocks until the server is shut down.
func (s *Server) Start() error {
	go s.wsHub.Run()
	s.wsHub.StartBroadcastLoop(s.engine, s.interval)

	s.logger.Info().Str("addr", s.httpServer.Addr).Str("match", s.engine.MatchID()).Msg("API server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Router returns the HTTP handler for use with httptest
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub returns the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Shutdown stops accepting requests and releases background workers
func (s *Server) Shutdown(ctx context.Context) error {
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return s.httpServer.Shutdown(ctx)
}

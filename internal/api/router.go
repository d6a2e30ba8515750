package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"arena-siege/internal/game"
	"arena-siege/internal/game/weapon"
	"arena-siege/internal/minimap"
)

// EngineInterface is the part of game.Engine the API calls.
// Tests substitute a mock so no match loop has to run.
type EngineInterface interface {
	// Snapshot returns the status published by the last tick (nil before the first)
	Snapshot() *game.Status
	// Status builds a fresh status under the engine lock
	Status() game.Status

	Pause() bool
	Resume() bool

	AddPlayer(team game.TeamType, playerID string) bool
	AddScore(team game.TeamType, points float64) (float64, bool)
	DamageBase(baseID string, amount float64) (float64, bool)
	RepairBase(baseID string, amount float64) (float64, bool)
	Garrison(baseID string) (int, bool)
	Ungarrison(baseID string) (int, bool)

	Equip(playerID, weaponID string) bool
	Attack(playerID, baseID string, mode game.AttackMode, directHit bool, distance float64) (game.Hit, bool)
	PlayerWeapon(playerID string) (game.WeaponState, bool)

	Weapons() []weapon.Entry
	ResourceNodes() []game.ResourceNode
	Events(n int) []game.Event
	Leaderboard(n int) []game.LeaderboardEntry
	GetEventLogStats() map[string]interface{}
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	router := api.NewRouter(api.RouterConfig{
//	    Engine:          mockEngine,
//	    RateLimitConfig: &api.RateLimitConfig{Client: api.Limit{PerSecond: 1000, Burst: 1000}},
//	    DisableLogging:  true,
//	})
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the match engine (required)
	Engine EngineInterface

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *RateLimiter

	// RateLimitConfig is only used if RateLimiter is nil
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, DefaultAllowedOrigins is used.
	CORSOrigins []string

	// AdminToken guards match control routes when set
	AdminToken string

	// Minimap configures /api/minimap.png; zero value uses the defaults
	Minimap minimap.Config

	// DisableLogging disables the request logger middleware (useful for benchmarks)
	DisableLogging bool

	Logger zerolog.Logger
}

// routerHandlers holds the handler dependencies
type routerHandlers struct {
	engine  EngineInterface
	minimap *minimapHandler
	limiter *RateLimiter
	logger  zerolog.Logger
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// NewRouter starts no goroutines of its own and opens no listeners, so it
// is safe to use with httptest.NewServer. A limiter it creates itself runs
// a sweep goroutine; pass RateLimiter to control its lifetime.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(requestLogger(cfg.Logger))
	}
	r.Use(middleware.Recoverer)

	// Rate limiting before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   NewOriginPolicy(cfg.CORSOrigins).Patterns(),
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{
		engine:  cfg.Engine,
		minimap: newMinimapHandler(cfg.Minimap),
		limiter: rateLimiter,
		logger:  cfg.Logger,
	}
	guard := NewAdminGuard(cfg.AdminToken)

	r.Route("/api", func(r chi.Router) {
		// Read side
		r.Get("/status", h.handleGetStatus)
		r.Get("/stats", h.handleGetStats)
		r.Get("/weapons", h.handleGetWeapons)
		r.Get("/nodes", h.handleGetNodes)
		r.Get("/events", h.handleGetEvents)
		r.Get("/leaderboard", h.handleGetLeaderboard)
		r.Get("/minimap.png", h.handleGetMinimap)

		// Match control
		r.Group(func(r chi.Router) {
			r.Use(rateLimiter.ControlMiddleware)
			r.Use(guard.Middleware)
			r.Post("/match/pause", h.handlePause)
			r.Post("/match/resume", h.handleResume)
			r.Post("/teams/{team}/score", h.handleTeamScore)
			r.Post("/bases/{id}/damage", h.handleBaseDamage)
			r.Post("/bases/{id}/repair", h.handleBaseRepair)
		})

		// Players
		r.Post("/teams/{team}/players", h.handleTeamJoin)
		r.Post("/bases/{id}/garrison", h.handleGarrison)
		r.Delete("/bases/{id}/garrison", h.handleUngarrison)
		r.Get("/players/{player}/weapon", h.handleGetPlayerWeapon)
		r.Post("/players/{player}/weapon", h.handleEquip)
		r.With(rateLimiter.AttackMiddleware).Post("/players/{player}/attack", h.handleAttack)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}

// requestLogger logs each request through zerolog and records its metrics
// under the matched route pattern.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			endpoint := "unmatched"
			if rctx := chi.RouteContext(r.Context()); rctx != nil {
				if pattern := rctx.RoutePattern(); pattern != "" {
					endpoint = pattern
				}
			}
			elapsed := time.Since(start)
			RecordRequest(r.Method, endpoint, status, elapsed)

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("elapsed", elapsed).
				Str("ip", GetClientIP(r)).
				Msg("request")
		})
	}
}

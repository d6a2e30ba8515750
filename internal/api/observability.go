package api

import (
	"net/http"
	"net/http/pprof"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"arena-siege/internal/game"
)

// Metrics with bounded cardinality. Labels are team names, outcome reasons
// and route patterns, never player or base IDs.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "match_tick_duration_seconds",
		Help:    "Time spent in a match tick",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	baseHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_base_hits_total",
		Help: "Weapon hits landed on bases, by defending team",
	}, []string{"team", "auto"})

	baseHealth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_base_health_total",
		Help: "Summed health of each team's bases",
	}, []string{"team"})

	teamScore = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "match_team_score",
		Help: "Current team score",
	}, []string{"team"})

	matchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "match_outcomes_total",
		Help: "Finished matches by winner and reason",
	}, []string{"winner", "reason"})

	eventLogTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_total",
		Help: "Total events logged",
	})

	eventLogDropped = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "event_log_dropped",
		Help: "Events dropped due to rate limiting",
	})

	connectionRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "connection_rejected_total",
		Help: "Connections rejected by rate limiter or origin check",
	}, []string{"reason"}) // "rate_limit", "origin", "ws_total_limit", "ws_ip_limit", "unauthorized"

	requestLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	requestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "endpoint", "status"})

	wsConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "websocket_connections_active",
		Help: "Currently active WebSocket connections",
	})

	wsMessagesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "websocket_messages_total",
		Help: "Total WebSocket broadcasts sent",
	})
)

// ObservabilityConfig configures the debug server
type ObservabilityConfig struct {
	Enabled       bool
	ListenAddr    string
	BasicAuthUser string
	BasicAuthPass string
}

// DefaultObservabilityConfig binds to localhost only
func DefaultObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		Enabled:    true,
		ListenAddr: "127.0.0.1:6060",
	}
}

// DebugHandler serves pprof, Prometheus metrics and a health check
func DebugHandler(cfg ObservabilityConfig) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.BasicAuthUser != "" {
		return basicAuthMiddleware(cfg.BasicAuthUser, cfg.BasicAuthPass, mux)
	}
	return mux
}

// StartDebugServer starts the observability server in the background.
// Non-loopback addresses are forced back to localhost unless
// ALLOW_DEBUG_EXTERNAL=true.
func StartDebugServer(cfg ObservabilityConfig, logger zerolog.Logger) {
	if !cfg.Enabled {
		logger.Info().Msg("debug server disabled")
		return
	}

	if !isLoopback(cfg.ListenAddr) && os.Getenv("ALLOW_DEBUG_EXTERNAL") != "true" {
		logger.Warn().Str("addr", cfg.ListenAddr).Msg("debug server forced to localhost")
		cfg.ListenAddr = DefaultObservabilityConfig().ListenAddr
	}

	handler := DebugHandler(cfg)
	go func() {
		logger.Info().
			Str("pprof", "http://"+cfg.ListenAddr+"/debug/pprof/").
			Str("metrics", "http://"+cfg.ListenAddr+"/metrics").
			Msg("debug server starting")

		if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
			logger.Error().Err(err).Msg("debug server stopped")
		}
	}()
}

func isLoopback(addr string) bool {
	for _, prefix := range []string{"127.0.0.1:", "localhost:", "[::1]:"} {
		if len(addr) > len(prefix) && addr[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

func basicAuthMiddleware(user, pass string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || u != user || p != pass {
			w.Header().Set("WWW-Authenticate", `Basic realm="debug"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RecordTick records tick timing
func RecordTick(stats game.TickStats) {
	tickDuration.Observe(stats.Duration.Seconds())
}

// RecordHit counts a hit against a base of the given team
func RecordHit(h game.Hit) {
	auto := "false"
	if h.Auto {
		auto = "true"
	}
	baseHits.WithLabelValues(string(h.Team), auto).Inc()
}

// RecordOutcome counts a finished match
func RecordOutcome(o game.Outcome) {
	winner := string(o.Winner)
	if o.Tie || winner == "" {
		winner = "tie"
	}
	reason := string(o.Reason)
	if reason == "" {
		reason = "time"
	}
	matchOutcomes.WithLabelValues(winner, reason).Inc()
}

// UpdateMatchGauges sets per-team score and base health from a status
func UpdateMatchGauges(s *game.Status) {
	if s == nil {
		return
	}
	health := make(map[game.TeamType]float64, len(game.Teams))
	for _, b := range s.Bases {
		health[b.Team] += b.Health
	}
	for _, ts := range s.Teams {
		teamScore.WithLabelValues(string(ts.Team)).Set(ts.Score)
		baseHealth.WithLabelValues(string(ts.Team)).Set(health[ts.Team])
	}
}

// UpdateEventLogStats mirrors the event log counters
func UpdateEventLogStats(total, dropped uint64) {
	eventLogTotal.Set(float64(total))
	eventLogDropped.Set(float64(dropped))
}

// RecordConnectionRejected increments the rejection counter
func RecordConnectionRejected(reason string) {
	connectionRejected.WithLabelValues(reason).Inc()
}

// RecordRequest records HTTP request metrics
func RecordRequest(method, endpoint string, status int, duration time.Duration) {
	requestLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	requestTotal.WithLabelValues(method, endpoint, http.StatusText(status)).Inc()
}

// UpdateWSConnections updates the WebSocket connection gauge
func UpdateWSConnections(count int) {
	wsConnectionsActive.Set(float64(count))
}

// IncrementWSMessages increments the WebSocket broadcast counter
func IncrementWSMessages() {
	wsMessagesTotal.Inc()
}

// Package config provides centralized configuration management.
// Process settings come from the environment; the match layout comes from
// an optional config file (see LoadMatch).
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// =============================================================================
// SERVER CONFIGURATION
// =============================================================================

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
	AdminToken     string // Bearer token for match control routes; empty disables the check
}

// DefaultServer returns the default server configuration.
func DefaultServer() ServerConfig {
	return ServerConfig{
		Port: 3000,
	}
}

// ServerFromEnv returns server configuration with environment variable overrides.
func ServerFromEnv() ServerConfig {
	cfg := DefaultServer()

	if p := getEnvInt("PORT", 0); p > 0 {
		cfg.Port = p
	}
	cfg.AdminToken = os.Getenv("ADMIN_TOKEN")
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg
}

// =============================================================================
// ENGINE CONFIGURATION
// =============================================================================

// EngineConfig holds simulation host settings.
type EngineConfig struct {
	TickRate        int           // Simulation ticks per second
	MatchConfigPath string        // Match layout file; empty uses built-in defaults
	EventLogPath    string        // JSONL event journal; empty keeps events in memory
	Seed            int64         // Weapon RNG seed; 0 picks one at startup
	BroadcastEvery  time.Duration // Status push interval for WebSocket clients
}

// DefaultEngine returns the default engine configuration.
func DefaultEngine() EngineConfig {
	return EngineConfig{
		TickRate:       10,
		BroadcastEvery: 250 * time.Millisecond,
	}
}

// EngineFromEnv returns engine configuration with environment variable overrides.
func EngineFromEnv() EngineConfig {
	cfg := DefaultEngine()

	if tr := getEnvInt("TICK_RATE", 0); tr > 0 {
		cfg.TickRate = tr
	}
	cfg.MatchConfigPath = os.Getenv("MATCH_CONFIG")
	cfg.EventLogPath = os.Getenv("EVENT_LOG_PATH")
	if v := os.Getenv("MATCH_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Seed = seed
		}
	}
	if ms := getEnvInt("BROADCAST_INTERVAL_MS", 0); ms > 0 {
		cfg.BroadcastEvery = time.Duration(ms) * time.Millisecond
	}

	return cfg
}

// =============================================================================
// LOGGING CONFIGURATION
// =============================================================================

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string // zerolog level name
	Pretty bool   // Human-readable console output instead of JSON
}

// LogFromEnv returns logging configuration from LOG_LEVEL and LOG_PRETTY.
func LogFromEnv() LogConfig {
	return LogConfig{
		Level:  getEnvString("LOG_LEVEL", "info"),
		Pretty: getEnvBool("LOG_PRETTY", false),
	}
}

// =============================================================================
// RATE LIMITING & DEBUG
// =============================================================================

// LimitsConfig holds the HTTP request budgets. The general and control
// budgets are per client IP; the attack budget is per player.
type LimitsConfig struct {
	RequestsPerSecond float64
	Burst             int

	ControlPerSecond float64
	ControlBurst     int
	AttackPerSecond  float64
	AttackBurst      int
}

// DefaultLimits returns the default request limits.
func DefaultLimits() LimitsConfig {
	return LimitsConfig{
		RequestsPerSecond: 10,
		Burst:             20,
		ControlPerSecond:  1,
		ControlBurst:      5,
		AttackPerSecond:   20,
		AttackBurst:       20,
	}
}

// LimitsFromEnv returns request limits with environment variable overrides.
func LimitsFromEnv() LimitsConfig {
	cfg := DefaultLimits()

	if rps := getEnvFloat("RATE_LIMIT_RPS", 0); rps > 0 {
		cfg.RequestsPerSecond = rps
	}
	if b := getEnvInt("RATE_LIMIT_BURST", 0); b > 0 {
		cfg.Burst = b
	}
	if rps := getEnvFloat("RATE_LIMIT_CONTROL_RPS", 0); rps > 0 {
		cfg.ControlPerSecond = rps
	}
	if b := getEnvInt("RATE_LIMIT_CONTROL_BURST", 0); b > 0 {
		cfg.ControlBurst = b
	}
	if rps := getEnvFloat("RATE_LIMIT_ATTACK_RPS", 0); rps > 0 {
		cfg.AttackPerSecond = rps
	}
	if b := getEnvInt("RATE_LIMIT_ATTACK_BURST", 0); b > 0 {
		cfg.AttackBurst = b
	}

	return cfg
}

// DebugConfig holds the pprof/metrics server settings.
type DebugConfig struct {
	Enabled  bool
	Addr     string
	User     string // Optional basic auth
	Password string
}

// DebugFromEnv returns debug server configuration.
func DebugFromEnv() DebugConfig {
	return DebugConfig{
		Enabled:  os.Getenv("DISABLE_DEBUG_SERVER") != "true",
		Addr:     getEnvString("DEBUG_ADDR", "127.0.0.1:6060"),
		User:     os.Getenv("DEBUG_USER"),
		Password: os.Getenv("DEBUG_PASS"),
	}
}

// =============================================================================
// COMPLETE APP CONFIGURATION
// =============================================================================

// AppConfig holds the complete application configuration.
type AppConfig struct {
	Server ServerConfig
	Engine EngineConfig
	Log    LogConfig
	Limits LimitsConfig
	Debug  DebugConfig
}

// Load returns the complete configuration with environment overrides.
func Load() AppConfig {
	return AppConfig{
		Server: ServerFromEnv(),
		Engine: EngineFromEnv(),
		Log:    LogFromEnv(),
		Limits: LimitsFromEnv(),
		Debug:  DebugFromEnv(),
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultVal
}

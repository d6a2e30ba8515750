package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arena-siege/internal/game"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "TICK_RATE", "LOG_LEVEL", "LOG_PRETTY", "MATCH_CONFIG", "DISABLE_DEBUG_SERVER", "ALLOWED_ORIGINS", "ADMIN_TOKEN", "DEBUG_USER", "RATE_LIMIT_RPS", "RATE_LIMIT_CONTROL_RPS", "RATE_LIMIT_ATTACK_BURST"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Engine.TickRate)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.BroadcastEvery)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)
	assert.True(t, cfg.Debug.Enabled)
	assert.Equal(t, "127.0.0.1:6060", cfg.Debug.Addr)
	assert.Equal(t, 10.0, cfg.Limits.RequestsPerSecond)
	assert.Equal(t, 1.0, cfg.Limits.ControlPerSecond)
	assert.Equal(t, 20, cfg.Limits.AttackBurst)
	assert.Empty(t, cfg.Server.AllowedOrigins)
	assert.Empty(t, cfg.Server.AdminToken)
	assert.Empty(t, cfg.Debug.User)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("TICK_RATE", "30")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_PRETTY", "true")
	t.Setenv("MATCH_CONFIG", "/etc/arena/match.yaml")
	t.Setenv("MATCH_SEED", "99")
	t.Setenv("DISABLE_DEBUG_SERVER", "true")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,")
	t.Setenv("RATE_LIMIT_BURST", "5")
	t.Setenv("RATE_LIMIT_CONTROL_RPS", "0.5")
	t.Setenv("RATE_LIMIT_ATTACK_BURST", "3")
	t.Setenv("ADMIN_TOKEN", "letmein")
	t.Setenv("DEBUG_USER", "ops")
	t.Setenv("DEBUG_PASS", "pw")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Engine.TickRate)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Pretty)
	assert.Equal(t, "/etc/arena/match.yaml", cfg.Engine.MatchConfigPath)
	assert.Equal(t, int64(99), cfg.Engine.Seed)
	assert.False(t, cfg.Debug.Enabled)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.Limits.Burst)
	assert.Equal(t, 0.5, cfg.Limits.ControlPerSecond)
	assert.Equal(t, 3, cfg.Limits.AttackBurst)
	assert.Equal(t, "letmein", cfg.Server.AdminToken)
	assert.Equal(t, "ops", cfg.Debug.User)
	assert.Equal(t, "pw", cfg.Debug.Password)
}

func TestLoadIgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("TICK_RATE", "-4")
	t.Setenv("LOG_PRETTY", "maybe")

	cfg := Load()
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Engine.TickRate)
	assert.False(t, cfg.Log.Pretty)
}

func TestLoadMatchEmptyPath(t *testing.T) {
	cfg, err := LoadMatch("")
	require.NoError(t, err)
	assert.Equal(t, game.DefaultMatchConfig(), cfg)
}

func TestLoadMatchJSONOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "match.json")
	body := `{
		"duration": "300s",
		"stage_one_duration": "0s",
		"base_locations": [{"x": 1, "y": 2}, {"x": 3, "y": 4}],
		"team_stats": {"resource_caps": {"energy": 100}},
		"victory_conditions": [{"type": "elimination", "threshold": 1}]
	}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadMatch(path)
	require.NoError(t, err)

	assert.Equal(t, 300*time.Second, cfg.Duration)
	assert.Equal(t, time.Duration(0), cfg.StageOneDuration)
	assert.Equal(t, []game.Position{{X: 1, Y: 2}, {X: 3, Y: 4}}, cfg.BaseLocations)
	assert.Equal(t, 100.0, cfg.TeamStats.ResourceCaps[game.Energy])
	assert.Equal(t, 4000.0, cfg.TeamStats.ResourceCaps[game.Materials], "unlisted caps keep defaults")
	require.Len(t, cfg.VictoryConditions, 1)
	assert.Equal(t, game.ConditionElimination, cfg.VictoryConditions[0].Type)
	assert.Zero(t, cfg.VictoryConditions[0].TimeLimit, "list entries do not inherit defaults")

	// Untouched sections keep defaults
	assert.Equal(t, 10000.0, cfg.BaseStats.MaxHealth)
	assert.Equal(t, 50, cfg.TeamStats.MaxPlayers)
	assert.Len(t, cfg.ResourceNodes, 8)
}

func TestLoadMatchYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yaml")
	body := "base_stats:\n  defense_rating: 50\n  max_garrison: 3\nmap_size:\n  width: 800\n  height: 600\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	cfg, err := LoadMatch(path)
	require.NoError(t, err)
	assert.Equal(t, 50.0, cfg.BaseStats.DefenseRating)
	assert.Equal(t, 3, cfg.BaseStats.MaxGarrison)
	assert.Equal(t, 800.0, cfg.MapSize.Width)
	assert.Equal(t, 10000.0, cfg.BaseStats.MaxHealth)
}

func TestLoadMatchMissingFile(t *testing.T) {
	_, err := LoadMatch("/nonexistent/match.json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading match config")
}

func TestLoadMatchRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"victory_conditions": [{"type": "king_of_the_hill"}]}`), 0644))

	_, err := LoadMatch(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*game.MatchConfig)
		ok     bool
	}{
		{"defaults", func(*game.MatchConfig) {}, true},
		{"zero duration", func(c *game.MatchConfig) { c.Duration = 0 }, false},
		{"one base", func(c *game.MatchConfig) { c.BaseLocations = c.BaseLocations[:1] }, false},
		{"defense over 100", func(c *game.MatchConfig) { c.BaseStats.DefenseRating = 120 }, false},
		{"negative cap", func(c *game.MatchConfig) { c.TeamStats.ResourceCaps[game.Energy] = -1 }, false},
		{"no health", func(c *game.MatchConfig) { c.BaseStats.MaxHealth = 0 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := game.DefaultMatchConfig()
			tt.mutate(&cfg)
			err := Validate(cfg)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

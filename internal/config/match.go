package config

import (
	"fmt"

	"github.com/spf13/viper"

	"arena-siege/internal/game"
)

// LoadMatch reads a match layout from path (JSON, YAML or TOML by
// extension) over the built-in defaults. Keys missing from the file keep
// their default values; a list given in the file replaces the default list.
// An empty path returns the defaults.
func LoadMatch(path string) (game.MatchConfig, error) {
	cfg := game.DefaultMatchConfig()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("error reading match config: %w", err)
	}

	// Lists replace the defaults instead of merging element by element
	if v.IsSet("base_locations") {
		cfg.BaseLocations = nil
	}
	if v.IsSet("victory_conditions") {
		cfg.VictoryConditions = nil
	}
	if v.IsSet("resource_nodes") {
		cfg.ResourceNodes = nil
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding match config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects layouts the simulation cannot run.
func Validate(cfg game.MatchConfig) error {
	if cfg.Duration <= 0 {
		return fmt.Errorf("match duration must be positive, got %s", cfg.Duration)
	}
	if cfg.StageOneDuration < 0 {
		return fmt.Errorf("stage one duration must not be negative, got %s", cfg.StageOneDuration)
	}
	if len(cfg.BaseLocations) < 2 {
		return fmt.Errorf("need at least 2 base locations, got %d", len(cfg.BaseLocations))
	}
	if cfg.BaseStats.MaxHealth <= 0 {
		return fmt.Errorf("base max health must be positive")
	}
	if cfg.BaseStats.DefenseRating < 0 || cfg.BaseStats.DefenseRating > 100 {
		return fmt.Errorf("base defense rating must be within 0..100, got %v", cfg.BaseStats.DefenseRating)
	}
	for kind, limit := range cfg.TeamStats.ResourceCaps {
		if limit < 0 {
			return fmt.Errorf("resource cap for %s must not be negative", kind)
		}
	}
	for i, c := range cfg.VictoryConditions {
		switch c.Type {
		case game.ConditionScore, game.ConditionDomination, game.ConditionResources, game.ConditionElimination:
		default:
			return fmt.Errorf("victory condition %d: unknown type %q", i, c.Type)
		}
	}
	return nil
}

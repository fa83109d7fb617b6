package config

import (
	"fmt"
	"strings"

	"github.com/solatis/waykeeper/internal/types"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file using viper.
// CLI flags > environment > config file > defaults precedence.
func LoadConfig(configPath string) (*EngineConfig, error) {
	v := viper.New()

	// Set defaults matching DefaultEngineConfig
	v.SetDefault("engine.fetch_max_attempts", types.MaxFetchAttempts)
	v.SetDefault("engine.fetch_base_delay", "500ms")
	v.SetDefault("engine.fetch_max_delay", "10s")
	v.SetDefault("engine.nav_cooldown", "400ms")
	v.SetDefault("engine.fallback_route", "/projects")

	// Bind environment variables with WK_ prefix
	v.SetEnvPrefix("WK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &EngineConfig{
		FetchMaxAttempts: v.GetInt("engine.fetch_max_attempts"),
		FetchBaseDelay:   v.GetDuration("engine.fetch_base_delay"),
		FetchMaxDelay:    v.GetDuration("engine.fetch_max_delay"),
		NavCooldown:      v.GetDuration("engine.nav_cooldown"),
		FallbackRoute:    types.Route(v.GetString("engine.fallback_route")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

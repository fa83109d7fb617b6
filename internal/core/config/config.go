// Package config provides configuration management for Waykeeper.
package config

import (
	"fmt"
	"time"

	"github.com/solatis/waykeeper/internal/types"
)

// EngineConfig holds configuration for the navigation decision engine.
type EngineConfig struct {
	FetchMaxAttempts int
	FetchBaseDelay   time.Duration
	FetchMaxDelay    time.Duration
	NavCooldown      time.Duration
	FallbackRoute    types.Route
}

// DefaultEngineConfig returns configuration with default values.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		FetchMaxAttempts: types.MaxFetchAttempts,
		FetchBaseDelay:   types.FetchBaseDelay,
		FetchMaxDelay:    10 * time.Second,
		NavCooldown:      types.NavCooldown,
		FallbackRoute:    "/projects",
	}
}

// Validate checks attempt ceiling, positive delays and cooldown, and a
// rooted fallback route.
func (c *EngineConfig) Validate() error {
	if c.FetchMaxAttempts <= 0 {
		return fmt.Errorf("fetch_max_attempts must be positive, got %d", c.FetchMaxAttempts)
	}
	if c.FetchBaseDelay <= 0 {
		return fmt.Errorf("fetch_base_delay must be positive, got %v", c.FetchBaseDelay)
	}
	if c.FetchMaxDelay < c.FetchBaseDelay {
		return fmt.Errorf("fetch_max_delay must be >= fetch_base_delay, got %v", c.FetchMaxDelay)
	}
	if c.NavCooldown <= 0 {
		return fmt.Errorf("nav_cooldown must be positive, got %v", c.NavCooldown)
	}
	if len(c.FallbackRoute) == 0 || c.FallbackRoute[0] != '/' {
		return fmt.Errorf("fallback_route must be a rooted path, got %q", c.FallbackRoute)
	}
	return nil
}

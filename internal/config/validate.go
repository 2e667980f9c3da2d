package config

import (
	"fmt"
	"strings"
)

// Validate performs business-rule validation on the loaded configuration.
// It normalizes API.BasePath in place.
func (c *Config) Validate() error {
	base := strings.TrimRight(strings.TrimSpace(c.API.BasePath), "/")
	if base != "" && !strings.HasPrefix(base, "/") {
		return fmt.Errorf("api.base_path must start with '/' (got %q)", c.API.BasePath)
	}
	c.API.BasePath = base

	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be > 0 (got %d)", c.Database.MaxConns)
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be within [0, max_conns] (got %d)", c.Database.MinConns)
	}
	if c.Database.StatsConcurrency <= 0 {
		return fmt.Errorf("database.stats_concurrency must be > 0 (got %d)", c.Database.StatsConcurrency)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be > 0 (got %d)", c.Server.MaxBodyBytes)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate_limit: rps and burst must be > 0 when enabled")
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}
	return nil
}

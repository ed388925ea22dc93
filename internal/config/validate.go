package config

import (
	"fmt"
	"strings"
	"time"
)

// Validate performs business-rule validation on the loaded configuration.
// It must be called after loading; Load calls it automatically.
func (c *Config) Validate() error {
	if c.Cache.Size <= 0 {
		return fmt.Errorf("cache.size must be > 0 (got %d)", c.Cache.Size)
	}
	if c.Scheduler.SeedBoost < 1 {
		return fmt.Errorf("scheduler.seed_boost must be >= 1 (got %v)", c.Scheduler.SeedBoost)
	}
	if err := c.Notify.validate(); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	return nil
}

func (n *NotifyConfig) validate() error {
	if n.Workers <= 0 {
		return fmt.Errorf("workers must be > 0 (got %d)", n.Workers)
	}
	if n.IdleInterval <= 0 {
		return fmt.Errorf("idle_interval must be > 0 (got %v)", n.IdleInterval)
	}
	if n.RecentWindow < 0 {
		return fmt.Errorf("recent_window must be >= 0 (got %v)", n.RecentWindow)
	}

	ladder, err := ParseBackoffLadder(n.BackoffRaw)
	if err != nil {
		return fmt.Errorf("backoff_ladder: %w", err)
	}
	if len(ladder) == 0 {
		return fmt.Errorf("backoff_ladder must not be empty")
	}
	n.Backoff = ladder

	return nil
}

// ParseBackoffLadder parses a comma-separated string of durations
// (e.g. "1h,2h,24h,48h") into a slice of time.Duration. Each step must be
// at least as long as the previous one. An empty string returns nil.
func ParseBackoffLadder(raw string) ([]time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	parts := strings.Split(raw, ",")
	ladder := make([]time.Duration, 0, len(parts))
	for _, part := range parts {
		d, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", part, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("step %q must be positive", part)
		}
		if len(ladder) > 0 && d < ladder[len(ladder)-1] {
			return nil, fmt.Errorf("step %q shorter than previous step", part)
		}
		ladder = append(ladder, d)
	}

	return ladder, nil
}

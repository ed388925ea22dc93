package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Cache:     CacheConfig{Size: 1024},
		Scheduler: SchedulerConfig{SeedBoost: 2},
		Notify: NotifyConfig{
			Workers:      1,
			IdleInterval: 10 * time.Second,
			RecentWindow: 5 * time.Minute,
			BackoffRaw:   "1h,2h,24h,48h",
		},
	}
}

func TestConfig_Validate_OK(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t,
		[]time.Duration{time.Hour, 2 * time.Hour, 24 * time.Hour, 48 * time.Hour},
		cfg.Notify.Backoff,
	)
}

func TestConfig_Validate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cache size", func(c *Config) { c.Cache.Size = 0 }},
		{"seed boost below one", func(c *Config) { c.Scheduler.SeedBoost = 0.5 }},
		{"zero workers", func(c *Config) { c.Notify.Workers = 0 }},
		{"zero idle interval", func(c *Config) { c.Notify.IdleInterval = 0 }},
		{"empty ladder", func(c *Config) { c.Notify.BackoffRaw = "" }},
		{"bad ladder entry", func(c *Config) { c.Notify.BackoffRaw = "1h,potato" }},
		{"decreasing ladder", func(c *Config) { c.Notify.BackoffRaw = "2h,1h" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestParseBackoffLadder(t *testing.T) {
	t.Parallel()

	got, err := ParseBackoffLadder(" 30m, 1h ,2h ")
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{30 * time.Minute, time.Hour, 2 * time.Hour}, got)

	got, err = ParseBackoffLadder("")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseBackoffLadder("-1h")
	assert.Error(t, err)
}

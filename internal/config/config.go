package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Log        LogConfig        `yaml:"log"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	Cache      CacheConfig      `yaml:"cache"`
	Notify     NotifyConfig     `yaml:"notify"`
	Mailer     MailerConfig     `yaml:"mailer"`
	Translate  TranslateConfig  `yaml:"translate"`
	Moderation ModerationConfig `yaml:"moderation"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"             env:"SERVER_HOST"             env-default:"0.0.0.0"`
	Port            int           `yaml:"port"             env:"SERVER_PORT"             env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout"     env:"SERVER_READ_TIMEOUT"     env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout"    env:"SERVER_WRITE_TIMEOUT"    env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"     env:"SERVER_IDLE_TIMEOUT"     env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"                env:"DATABASE_DSN"                env-required:"true"`
	MaxConns        int32         `yaml:"max_conns"          env:"DATABASE_MAX_CONNS"          env-default:"25"`
	MinConns        int32         `yaml:"min_conns"          env:"DATABASE_MIN_CONNS"          env-default:"5"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"  env:"DATABASE_MAX_CONN_LIFETIME"  env-default:"1h"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"DATABASE_MAX_CONN_IDLE_TIME" env-default:"30m"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// SchedulerConfig holds next-statement selection settings.
type SchedulerConfig struct {
	// SeedBoost multiplies the priority weight of seed statements in
	// conversations flagged prioritize_seed.
	SeedBoost float64 `yaml:"seed_boost" env:"SCHEDULER_SEED_BOOST" env-default:"2.0"`
}

// CacheConfig holds vote-vector cache settings.
type CacheConfig struct {
	// Size bounds the number of (conversation, participant) vector
	// entries kept in memory.
	Size int `yaml:"size" env:"CACHE_SIZE" env-default:"16384"`
}

// NotifyConfig holds notification sweep settings.
type NotifyConfig struct {
	Workers        int           `yaml:"workers"          env:"NOTIFY_WORKERS"          env-default:"1"`
	IdleInterval   time.Duration `yaml:"idle_interval"    env:"NOTIFY_IDLE_INTERVAL"    env-default:"10s"`
	RecentWindow   time.Duration `yaml:"recent_window"    env:"NOTIFY_RECENT_WINDOW"    env-default:"5m"`
	BackoffRaw     string        `yaml:"backoff_ladder"   env:"NOTIFY_BACKOFF_LADDER"   env-default:"1h,2h,24h,48h"`
	SubjectPrefix  string        `yaml:"subject_prefix"   env:"NOTIFY_SUBJECT_PREFIX"   env-default:"[Agora] "`
	BaseURL        string        `yaml:"base_url"         env:"NOTIFY_BASE_URL"         env-default:"https://agora.example.com"`

	// Backoff is parsed from BackoffRaw during validation.
	Backoff []time.Duration `yaml:"-" env:"-"`
}

// MailerConfig holds outbound email transport settings.
type MailerConfig struct {
	BaseURL string `yaml:"base_url" env:"MAILER_BASE_URL"`
	APIKey  string `yaml:"api_key"  env:"MAILER_API_KEY"`
	From    string `yaml:"from"     env:"MAILER_FROM" env-default:"no-reply@agora.example.com"`
}

// TranslateConfig holds translation provider settings.
type TranslateConfig struct {
	BaseURL string `yaml:"base_url" env:"TRANSLATE_BASE_URL"`
	APIKey  string `yaml:"api_key"  env:"TRANSLATE_API_KEY"`
}

// ModerationConfig holds spam/profanity signal producer settings.
type ModerationConfig struct {
	AkismetKey  string `yaml:"akismet_key"  env:"MODERATION_AKISMET_KEY"`
	AkismetSite string `yaml:"akismet_site" env:"MODERATION_AKISMET_SITE"`
}

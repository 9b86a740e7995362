package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JonnyWalker81/moodlens/backend/internal/analysis"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// Store drivers
const (
	DriverMemory   = "memory"
	DriverSupabase = "supabase"
	DriverPostgres = "postgres"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Store     StoreConfig     `mapstructure:"store"`
	Supabase  SupabaseConfig  `mapstructure:"supabase"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Events    EventsConfig    `mapstructure:"events"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port string `mapstructure:"port"`
	Env  string `mapstructure:"env"`
}

// LoggingConfig holds logger settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// SupabaseConfig holds Supabase-specific configuration
type SupabaseConfig struct {
	URL        string `mapstructure:"url"`
	ServiceKey string `mapstructure:"service_key"`
}

// PostgresConfig holds the direct database connection
type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

// AnalysisConfig holds the analysis lookback windows
type AnalysisConfig struct {
	DailyWindowDays       int           `mapstructure:"daily_window_days"`
	WeeklyWindowDays      int           `mapstructure:"weekly_window_days"`
	MonthlyWindowDays     int           `mapstructure:"monthly_window_days"`
	PatternWindowDays     int           `mapstructure:"pattern_window_days"`
	CorrelationWindowDays int           `mapstructure:"correlation_window_days"`
	Timezone              string        `mapstructure:"timezone"`
	AlertTTL              time.Duration `mapstructure:"alert_ttl"`
}

// EventsConfig sizes the event bus and the insight refreshes it fans out to
type EventsConfig struct {
	QueueSize      int `mapstructure:"queue_size"`
	RefreshWorkers int `mapstructure:"refresh_workers"`
}

// CORSConfig lists the origins allowed to call the API
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RateLimitConfig bounds requests per client
type RateLimitConfig struct {
	RequestsPerMinute int `mapstructure:"requests_per_minute"`
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Read from environment variables
	v.SetEnvPrefix("MOODLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Also bind to the variables the Supabase tooling exports
	v.BindEnv("server.port", "MOODLENS_SERVER_PORT", "PORT")
	v.BindEnv("supabase.url", "MOODLENS_SUPABASE_URL", "SUPABASE_URL")
	v.BindEnv("supabase.service_key", "MOODLENS_SUPABASE_SERVICE_KEY", "SUPABASE_SERVICE_KEY")
	v.BindEnv("postgres.dsn", "MOODLENS_POSTGRES_DSN", "DATABASE_URL")

	// Read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// It's okay if config file doesn't exist
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.env", "development")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("store.driver", DriverMemory)
	v.SetDefault("supabase.url", "")
	v.SetDefault("supabase.service_key", "")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("analysis.daily_window_days", 7)
	v.SetDefault("analysis.weekly_window_days", 28)
	v.SetDefault("analysis.monthly_window_days", 90)
	v.SetDefault("analysis.pattern_window_days", 90)
	v.SetDefault("analysis.correlation_window_days", 90)
	v.SetDefault("analysis.timezone", "UTC")
	v.SetDefault("analysis.alert_ttl", "168h")
	v.SetDefault("events.queue_size", 1000)
	v.SetDefault("events.refresh_workers", 16)
	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("ratelimit.requests_per_minute", 300)
}

// Validate checks that all required configuration values are present
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory:
	case DriverSupabase:
		if c.Supabase.URL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase store")
		}
		if c.Supabase.ServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required for the supabase store")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required for the postgres store")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Events.QueueSize <= 0 {
		return fmt.Errorf("events.queue_size must be positive")
	}
	if c.Events.RefreshWorkers <= 0 {
		return fmt.Errorf("events.refresh_workers must be positive")
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("ratelimit.requests_per_minute must be positive")
	}

	cfg, err := c.Analysis.ToAnalysis()
	if err != nil {
		return err
	}
	return cfg.Validate()
}

// IsProduction reports whether the server runs with production settings
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// ToAnalysis converts the configured windows into the analysis engine config
func (a AnalysisConfig) ToAnalysis() (analysis.Config, error) {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return analysis.Config{}, fmt.Errorf("invalid analysis.timezone %q: %w", a.Timezone, err)
	}
	return analysis.Config{
		TrendWindows: map[models.Period]int{
			models.PeriodDaily:   a.DailyWindowDays,
			models.PeriodWeekly:  a.WeeklyWindowDays,
			models.PeriodMonthly: a.MonthlyWindowDays,
		},
		PatternWindowDays:     a.PatternWindowDays,
		CorrelationWindowDays: a.CorrelationWindowDays,
		Location:              loc,
		AlertTTL:              a.AlertTTL,
	}, nil
}

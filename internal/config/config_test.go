package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/moodlens/backend/internal/analysis"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, 1000, cfg.Events.QueueSize)
	assert.Equal(t, 16, cfg.Events.RefreshWorkers)
	assert.Equal(t, 168*time.Hour, cfg.Analysis.AlertTTL)

	ac, err := cfg.Analysis.ToAnalysis()
	require.NoError(t, err)
	assert.Equal(t, analysis.DefaultConfig(), ac)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MOODLENS_STORE_DRIVER", "postgres")
	t.Setenv("MOODLENS_POSTGRES_DSN", "postgres://localhost/moodlens?sslmode=disable")
	t.Setenv("MOODLENS_ANALYSIS_DAILY_WINDOW_DAYS", "14")
	t.Setenv("MOODLENS_ANALYSIS_TIMEZONE", "Europe/Berlin")
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.Store.Driver)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 14, cfg.Analysis.DailyWindowDays)

	ac, err := cfg.Analysis.ToAnalysis()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", ac.Location.String())
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Store:     StoreConfig{Driver: DriverMemory},
			Events:    EventsConfig{QueueSize: 10, RefreshWorkers: 2},
			RateLimit: RateLimitConfig{RequestsPerMinute: 60},
			Analysis: AnalysisConfig{
				DailyWindowDays:       7,
				WeeklyWindowDays:      28,
				MonthlyWindowDays:     90,
				PatternWindowDays:     90,
				CorrelationWindowDays: 90,
				Timezone:              "UTC",
				AlertTTL:              time.Hour,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "memory defaults", mutate: func(*Config) {}},
		{name: "supabase without url", mutate: func(c *Config) { c.Store.Driver = DriverSupabase }, wantErr: true},
		{name: "supabase complete", mutate: func(c *Config) {
			c.Store.Driver = DriverSupabase
			c.Supabase = SupabaseConfig{URL: "https://x.supabase.co", ServiceKey: "k"}
		}},
		{name: "postgres without dsn", mutate: func(c *Config) { c.Store.Driver = DriverPostgres }, wantErr: true},
		{name: "unknown driver", mutate: func(c *Config) { c.Store.Driver = "mongo" }, wantErr: true},
		{name: "zero window", mutate: func(c *Config) { c.Analysis.WeeklyWindowDays = 0 }, wantErr: true},
		{name: "bad timezone", mutate: func(c *Config) { c.Analysis.Timezone = "Mars/Olympus" }, wantErr: true},
		{name: "zero queue", mutate: func(c *Config) { c.Events.QueueSize = 0 }, wantErr: true},
		{name: "zero refresh workers", mutate: func(c *Config) { c.Events.RefreshWorkers = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

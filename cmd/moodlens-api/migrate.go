package main

import (
	"context"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/moodlens/backend/internal/config"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres tables",
	Long:  `Create the mood_entries, mood_insights and mood_insight_runs tables and their indexes. Safe to run repeatedly.`,
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if cfg.Store.Driver != config.DriverPostgres {
		return fmt.Errorf("migrate requires store.driver=%s, got %q", config.DriverPostgres, cfg.Store.Driver)
	}

	log := newLogger(cfg)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
	defer cancel()

	store, err := repository.OpenPostgres(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}

	log.Info("schema is up to date")
	return nil
}

func newLogger(cfg *config.Config) logger.Logger {
	logCfg := logger.DefaultConfig()
	logCfg.Level = logger.ParseLevel(cfg.Logging.Level)
	logCfg.Format = cfg.Logging.Format
	log := logger.NewSlogLogger(logCfg)
	logger.SetDefault(log)
	return log
}

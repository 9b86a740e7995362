package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/JonnyWalker81/moodlens/backend/internal/config"
	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/handlers"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/metrics"
	"github.com/JonnyWalker81/moodlens/backend/internal/middleware"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
	"github.com/JonnyWalker81/moodlens/backend/internal/service"
	"github.com/JonnyWalker81/moodlens/backend/pkg/supabase"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Long:  `Start the HTTP API server and listen for requests.`,
	RunE:  runServe,
}

var (
	port string
)

const shutdownTimeout = 15 * time.Second

func init() {
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to listen on (overrides config)")
}

// stores bundles the selected persistence backend
type stores struct {
	entries  repository.EntryRepository
	insights repository.InsightRepository
	close    func() error
}

func openStores(ctx context.Context, cfg *config.Config, client *supabase.Client) (*stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSupabase:
		return &stores{
			entries:  repository.NewEntryRepository(client),
			insights: repository.NewInsightRepository(client),
			close:    func() error { return nil },
		}, nil
	case config.DriverPostgres:
		pg, err := repository.OpenPostgres(ctx, cfg.Postgres.DSN)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		return &stores{entries: pg.Entries(), insights: pg.Insights(), close: pg.Close}, nil
	default:
		mem := repository.NewMemoryStore()
		return &stores{entries: mem.Entries(), insights: mem.Insights(), close: func() error { return nil }}, nil
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if port != "" {
		cfg.Server.Port = port
	}

	log := newLogger(cfg)
	log.Info("starting moodlens api",
		logger.String("env", cfg.Server.Env),
		logger.String("store", cfg.Store.Driver),
	)

	analysisCfg, err := cfg.Analysis.ToAnalysis()
	if err != nil {
		return err
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var supabaseClient *supabase.Client
	if cfg.Supabase.URL != "" {
		supabaseClient = supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.ServiceKey)
	}

	st, err := openStores(ctx, cfg, supabaseClient)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.close()

	bus := events.NewBus(log,
		events.WithQueueSize(cfg.Events.QueueSize),
		events.WithDropHandler(func(e events.Event) {
			metrics.ObserveEventDropped(string(e.Topic))
		}),
	)

	// Initialize services
	entryService := service.NewEntryService(st.entries, bus, service.SystemClock)
	intelligenceService := service.NewIntelligenceService(st.entries, st.insights, bus, analysisCfg, service.SystemClock)
	exportService := service.NewExportService(st.entries, st.insights, intelligenceService, service.SystemClock)

	pipeline := service.NewInsightPipeline(intelligenceService, bus, log,
		service.WithRefreshWorkers(cfg.Events.RefreshWorkers),
	)
	pipeline.Attach(bus)
	service.NewAlertWatcher(log).Attach(bus)

	// Initialize handlers
	entryHandler := handlers.NewEntryHandler(entryService)
	analyticsHandler := handlers.NewAnalyticsHandler(intelligenceService)
	insightsHandler := handlers.NewInsightsHandler(intelligenceService, pipeline)
	exportHandler := handlers.NewExportHandler(exportService)

	var auth gin.HandlerFunc
	switch {
	case supabaseClient != nil:
		auth = middleware.Auth(supabaseClient)
	case cfg.IsProduction():
		return errors.New("supabase.url is required for authentication in production")
	default:
		log.Warn("token verification disabled, trusting X-User-ID header")
		auth = middleware.DevAuth()
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, time.Minute, "general")
	defer limiter.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(log))
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := router.Group("/api/v1")
	v1.Use(auth, middleware.RateLimit(limiter))
	{
		v1.POST("/entries", entryHandler.CreateEntry)
		v1.GET("/entries", entryHandler.ListEntries)
		v1.GET("/entries/:id", entryHandler.GetEntry)

		v1.GET("/analytics/trends", analyticsHandler.GetTrends)
		v1.GET("/analytics/patterns", analyticsHandler.GetPatterns)
		v1.GET("/analytics/correlations", analyticsHandler.GetCorrelations)

		v1.GET("/insights", insightsHandler.GetInsights)
		v1.POST("/insights/refresh", insightsHandler.RefreshInsights)

		v1.GET("/export", exportHandler.Export)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", logger.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", logger.Err(err))
	}
	// appends accepted before shutdown still get their insights recomputed
	if err := bus.Shutdown(shutdownCtx); err != nil {
		log.Error("event bus shutdown failed", logger.Err(err))
	}
	if err := pipeline.Wait(shutdownCtx); err != nil {
		log.Error("insight refreshes did not finish", logger.Err(err))
	}
	return nil
}

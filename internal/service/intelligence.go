package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/analysis"
	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/metrics"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
)

type intelligenceService struct {
	entries   repository.EntryRepository
	insights  repository.InsightRepository
	publisher Publisher
	cfg       analysis.Config
	clock     Clock
}

// NewIntelligenceService creates a new intelligence service
func NewIntelligenceService(
	entries repository.EntryRepository,
	insights repository.InsightRepository,
	publisher Publisher,
	cfg analysis.Config,
	clock Clock,
) IntelligenceService {
	if clock == nil {
		clock = SystemClock
	}
	return &intelligenceService{
		entries:   entries,
		insights:  insights,
		publisher: publisher,
		cfg:       cfg,
		clock:     clock,
	}
}

// lookback fetches the entries in [now-days, now], newest first
func (s *intelligenceService) lookback(ctx context.Context, userID string, now time.Time, days int) ([]models.MoodEntry, error) {
	start := now.AddDate(0, 0, -days)
	entries, err := s.entries.Query(ctx, userID, &start, &now)
	if err != nil {
		return nil, fmt.Errorf("failed to get entries: %w", err)
	}
	return entries, nil
}

func (s *intelligenceService) ComputeTrends(ctx context.Context, userID string) ([]models.Trend, error) {
	now := s.clock()
	entries, err := s.lookback(ctx, userID, now, s.cfg.MaxTrendWindowDays())
	if err != nil {
		return nil, err
	}
	return analysis.ComputeTrends(entries, now, s.cfg), nil
}

func (s *intelligenceService) DetectPatterns(ctx context.Context, userID string) ([]models.Pattern, error) {
	entries, err := s.lookback(ctx, userID, s.clock(), s.cfg.PatternWindowDays)
	if err != nil {
		return nil, err
	}
	total, err := s.patternHistory(ctx, userID, entries)
	if err != nil {
		return nil, err
	}
	return analysis.DetectPatternsInWindow(entries, total, s.cfg), nil
}

// patternHistory counts the user's entries for the pattern gate, which
// includes entries older than the pattern window. The count saturates at
// MinPatternEntries.
func (s *intelligenceService) patternHistory(ctx context.Context, userID string, window []models.MoodEntry) (int, error) {
	if len(window) >= analysis.MinPatternEntries {
		return len(window), nil
	}
	all, err := s.entries.Recent(ctx, userID, analysis.MinPatternEntries)
	if err != nil {
		return 0, fmt.Errorf("failed to count entries: %w", err)
	}
	return len(all), nil
}

func (s *intelligenceService) ComputeCorrelations(ctx context.Context, userID string) ([]models.Correlation, error) {
	entries, err := s.lookback(ctx, userID, s.clock(), s.cfg.CorrelationWindowDays)
	if err != nil {
		return nil, err
	}
	return analysis.ComputeCorrelations(entries), nil
}

// GenerateInsights runs every analyzer over one snapshot and replaces the
// stored insight set. Fewer than MinInsightEntries entries skips the analyzers
// and stores an empty set.
func (s *intelligenceService) GenerateInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	started := time.Now()
	now := s.clock()
	log := logger.Ctx(logger.WithUserID(ctx, userID))

	recent, err := s.entries.Recent(ctx, userID, analysis.RecentWindowSize)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
		return nil, fmt.Errorf("failed to get recent entries: %w", err)
	}

	if len(recent) < analysis.MinInsightEntries {
		run := models.InsightRun{GeneratedAt: now, DataSufficient: false}
		if err := s.insights.Replace(ctx, userID, run, []models.Insight{}); err != nil {
			metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
			return nil, fmt.Errorf("failed to clear insights: %w", err)
		}
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeInsufficient)
		log.Debug("not enough entries for insights", logger.Int("entries", len(recent)))
		return &models.InsightsResponse{
			Insights:       []models.Insight{},
			ComputedAt:     now,
			DataSufficient: false,
			MinEntries:     analysis.MinInsightEntries,
		}, nil
	}

	widest := s.cfg.MaxTrendWindowDays()
	if s.cfg.PatternWindowDays > widest {
		widest = s.cfg.PatternWindowDays
	}
	if s.cfg.CorrelationWindowDays > widest {
		widest = s.cfg.CorrelationWindowDays
	}
	entries, err := s.lookback(ctx, userID, now, widest)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
		return nil, err
	}

	patternWindow := since(entries, now.AddDate(0, 0, -s.cfg.PatternWindowDays))
	total, err := s.patternHistory(ctx, userID, patternWindow)
	if err != nil {
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
		return nil, err
	}

	insights := analysis.BuildInsights(analysis.InsightInput{
		UserID:       userID,
		Trends:       analysis.ComputeTrends(entries, now, s.cfg),
		Patterns:     analysis.DetectPatternsInWindow(patternWindow, total, s.cfg),
		Correlations: analysis.ComputeCorrelations(since(entries, now.AddDate(0, 0, -s.cfg.CorrelationWindowDays))),
		Recent:       recent,
	}, now, s.cfg)

	run := models.InsightRun{GeneratedAt: now, DataSufficient: true}
	if err := s.insights.Replace(ctx, userID, run, insights); err != nil {
		metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeError)
		return nil, fmt.Errorf("failed to store insights: %w", err)
	}

	metrics.ObserveAnalysis(time.Since(started), metrics.OutcomeSuccess)
	metrics.ObserveInsights(insights)
	log.Info("insights generated",
		logger.Int("entries", len(entries)),
		logger.Int("insights", len(insights)),
		logger.Duration("duration", time.Since(started)),
	)

	s.publisher.Publish(events.Event{
		Topic:     events.TopicInsightsGenerated,
		UserID:    userID,
		Timestamp: now,
		Data: map[string]any{
			"count":    len(insights),
			"critical": countCritical(insights),
			"insights": insights,
		},
	})

	return &models.InsightsResponse{
		Insights:       insights,
		ComputedAt:     now,
		DataSufficient: true,
	}, nil
}

// GetInsights serves the latest stored generation. Insights are generated
// only for a user who never had a generation, so an empty stored set is
// served as is.
func (s *intelligenceService) GetInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	run, err := s.insights.LastRun(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.GenerateInsights(ctx, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last insight run: %w", err)
	}

	stored, err := s.insights.GetValidByUserID(ctx, userID, s.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to get stored insights: %w", err)
	}
	resp := &models.InsightsResponse{
		Insights:       stored,
		ComputedAt:     run.GeneratedAt,
		DataSufficient: run.DataSufficient,
	}
	if !run.DataSufficient {
		resp.MinEntries = analysis.MinInsightEntries
	}
	return resp, nil
}

// since keeps the newest-first prefix of entries at or after cutoff
func since(entries []models.MoodEntry, cutoff time.Time) []models.MoodEntry {
	for i, e := range entries {
		if e.Timestamp.Before(cutoff) {
			return entries[:i]
		}
	}
	return entries
}

func countCritical(insights []models.Insight) int {
	n := 0
	for _, ins := range insights {
		if ins.Priority == models.PriorityCritical {
			n++
		}
	}
	return n
}

package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/JonnyWalker81/moodlens/backend/internal/analysis"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
)

type exportService struct {
	entries  repository.EntryRepository
	insights repository.InsightRepository
	intel    IntelligenceService
	clock    Clock
}

// NewExportService creates a new export service
func NewExportService(
	entries repository.EntryRepository,
	insights repository.InsightRepository,
	intel IntelligenceService,
	clock Clock,
) ExportService {
	if clock == nil {
		clock = SystemClock
	}
	return &exportService{
		entries:  entries,
		insights: insights,
		intel:    intel,
		clock:    clock,
	}
}

// Export assembles a read-only snapshot. Stored insights are returned as-is;
// export never triggers generation.
func (s *exportService) Export(ctx context.Context, userID string, start, end *time.Time) (*models.ExportSnapshot, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	now := s.clock()

	var (
		entries      []models.MoodEntry
		trends       []models.Trend
		patterns     []models.Pattern
		correlations []models.Correlation
		insights     []models.Insight
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		entries, err = s.entries.Query(gctx, userID, start, end)
		if err != nil {
			return fmt.Errorf("failed to get entries: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		trends, err = s.intel.ComputeTrends(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		patterns, err = s.intel.DetectPatterns(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		correlations, err = s.intel.ComputeCorrelations(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		insights, err = s.insights.GetValidByUserID(gctx, userID, now)
		if err != nil {
			return fmt.Errorf("failed to get insights: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if entries == nil {
		entries = []models.MoodEntry{}
	}
	if insights == nil {
		insights = []models.Insight{}
	}

	return &models.ExportSnapshot{
		UserID:       userID,
		Start:        start,
		End:          end,
		GeneratedAt:  now,
		Entries:      entries,
		Trends:       trends,
		Patterns:     patterns,
		Correlations: correlations,
		Insights:     insights,
		Summary:      analysis.Summarize(entries, correlations),
	}, nil
}

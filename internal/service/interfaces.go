package service

import (
	"context"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// EntryService defines the interface for mood entry ingestion and queries
type EntryService interface {
	AddEntry(ctx context.Context, userID string, req *models.CreateEntryRequest) (*models.MoodEntry, error)
	GetEntry(ctx context.Context, userID, entryID string) (*models.MoodEntry, error)
	QueryEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.MoodEntry, error)
}

// IntelligenceService defines the interface for mood analytics
type IntelligenceService interface {
	ComputeTrends(ctx context.Context, userID string) ([]models.Trend, error)
	DetectPatterns(ctx context.Context, userID string) ([]models.Pattern, error)
	ComputeCorrelations(ctx context.Context, userID string) ([]models.Correlation, error)
	// GenerateInsights recomputes and replaces the user's stored insight set
	GenerateInsights(ctx context.Context, userID string) (*models.InsightsResponse, error)
	// GetInsights returns the stored unexpired set, generating when none is stored
	GetInsights(ctx context.Context, userID string) (*models.InsightsResponse, error)
}

// ExportService defines the interface for read-only export snapshots
type ExportService interface {
	Export(ctx context.Context, userID string, start, end *time.Time) (*models.ExportSnapshot, error)
}

// Publisher is the part of the event bus the services emit through
type Publisher interface {
	Publish(event events.Event)
	PublishAsync(event events.Event) bool
}

// Subscriber is the part of the event bus background workers attach to
type Subscriber interface {
	Subscribe(topic events.Topic, handler events.Handler) *events.Subscription
}

// Clock supplies the current time; tests inject a fixed one
type Clock func() time.Time

// SystemClock returns the wall clock in UTC
func SystemClock() time.Time {
	return time.Now().UTC()
}

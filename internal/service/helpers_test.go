package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
	"github.com/JonnyWalker81/moodlens/backend/internal/repository"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// recordingPublisher captures events instead of delivering them
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) PublishAsync(event events.Event) bool {
	p.Publish(event)
	return true
}

func (p *recordingPublisher) byTopic(topic events.Topic) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.events {
		if e.Topic == topic {
			out = append(out, e)
		}
	}
	return out
}

var errStoreDown = errors.New("store unavailable")

// failingInsightRepository fails every write
type failingInsightRepository struct{}

func (failingInsightRepository) Replace(ctx context.Context, userID string, run models.InsightRun, insights []models.Insight) error {
	return errStoreDown
}

func (failingInsightRepository) LastRun(ctx context.Context, userID string) (*models.InsightRun, error) {
	return nil, repository.ErrNotFound
}

func (failingInsightRepository) GetValidByUserID(ctx context.Context, userID string, now time.Time) ([]models.Insight, error) {
	return []models.Insight{}, nil
}

// mockIntelligenceService returns canned results and counts generations
type mockIntelligenceService struct {
	mu            sync.Mutex
	generateCalls int
	generateErr   error
}

func (m *mockIntelligenceService) ComputeTrends(ctx context.Context, userID string) ([]models.Trend, error) {
	return []models.Trend{}, nil
}

func (m *mockIntelligenceService) DetectPatterns(ctx context.Context, userID string) ([]models.Pattern, error) {
	return []models.Pattern{}, nil
}

func (m *mockIntelligenceService) ComputeCorrelations(ctx context.Context, userID string) ([]models.Correlation, error) {
	return []models.Correlation{}, nil
}

func (m *mockIntelligenceService) GenerateInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generateCalls++
	if m.generateErr != nil {
		return nil, m.generateErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &models.InsightsResponse{Insights: []models.Insight{}, ComputedAt: testNow, DataSufficient: true}, nil
}

func (m *mockIntelligenceService) GetInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	return m.GenerateInsights(ctx, userID)
}

func (m *mockIntelligenceService) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generateCalls
}

// gatedIntelligenceService holds generation for one user until gate is
// closed, and reports every start and finish
type gatedIntelligenceService struct {
	mockIntelligenceService
	gated    string
	gate     chan struct{}
	started  chan string
	finished chan string
	ctxErrs  chan error
}

func newGatedIntelligenceService(gated string) *gatedIntelligenceService {
	return &gatedIntelligenceService{
		gated:    gated,
		gate:     make(chan struct{}),
		started:  make(chan string, 16),
		finished: make(chan string, 16),
		ctxErrs:  make(chan error, 16),
	}
}

func (g *gatedIntelligenceService) GenerateInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	g.started <- userID
	if userID == g.gated {
		<-g.gate
	}
	g.ctxErrs <- ctx.Err()
	defer func() { g.finished <- userID }()
	return g.mockIntelligenceService.GenerateInsights(ctx, userID)
}

func (g *gatedIntelligenceService) GetInsights(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	return g.GenerateInsights(ctx, userID)
}

// receive waits for the next value on ch or fails the test
func receive[T any](t *testing.T, ch <-chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

// seedScores appends one entry per score, hourly, the last one an hour before at
func seedScores(ctx context.Context, svc EntryService, userID string, at time.Time, scores ...int) error {
	for i, score := range scores {
		_, err := svc.AddEntry(ctx, userID, &models.CreateEntryRequest{
			Timestamp: at.Add(-time.Duration(len(scores)-i) * time.Hour),
			MoodScore: score,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

package service

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

const (
	// DefaultRefreshTimeout bounds one background recomputation
	DefaultRefreshTimeout = 30 * time.Second
	// DefaultRefreshWorkers bounds how many users are recomputed at once
	DefaultRefreshWorkers = 16
)

// InsightPipeline recomputes a user's insights after each append. Refreshes
// for different users run in parallel up to the worker limit. Concurrent
// refreshes for the same user share one run.
type InsightPipeline struct {
	intel     IntelligenceService
	publisher Publisher
	log       logger.Logger
	timeout   time.Duration
	group     singleflight.Group
	workers   errgroup.Group
}

// PipelineOption configures an InsightPipeline
type PipelineOption func(*InsightPipeline)

// WithRefreshWorkers caps concurrent background refreshes. When every worker
// is busy the bus worker waits for one to free up.
func WithRefreshWorkers(n int) PipelineOption {
	return func(p *InsightPipeline) {
		if n > 0 {
			p.workers.SetLimit(n)
		}
	}
}

// WithRefreshTimeout bounds each recomputation
func WithRefreshTimeout(d time.Duration) PipelineOption {
	return func(p *InsightPipeline) {
		if d > 0 {
			p.timeout = d
		}
	}
}

// NewInsightPipeline creates a pipeline; call Attach to start reacting to appends
func NewInsightPipeline(intel IntelligenceService, publisher Publisher, log logger.Logger, opts ...PipelineOption) *InsightPipeline {
	p := &InsightPipeline{
		intel:     intel,
		publisher: publisher,
		log:       log,
		timeout:   DefaultRefreshTimeout,
	}
	p.workers.SetLimit(DefaultRefreshWorkers)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Attach subscribes the pipeline to entry.added
func (p *InsightPipeline) Attach(sub Subscriber) *events.Subscription {
	return sub.Subscribe(events.TopicEntryAdded, p.handleEntryAdded)
}

func (p *InsightPipeline) handleEntryAdded(event events.Event) {
	userID := event.UserID
	p.workers.Go(func() error {
		ctx := logger.WithLogger(context.Background(), p.log)
		ctx = logger.WithUserID(ctx, userID)
		ctx = logger.WithTrigger(ctx, logger.TriggerEntry)

		// Errors are reported via analysis.error inside Refresh
		_, _ = p.Refresh(ctx, userID)
		return nil
	})
}

// Wait blocks until every background refresh started so far has finished,
// or ctx ends. Call it after the bus has stopped delivering entry.added.
func (p *InsightPipeline) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		_ = p.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Refresh regenerates insights for a user. A failure is logged and published
// as analysis.error before being returned.
//
// The shared run is detached from ctx: a caller that goes away does not
// fail the run for the others waiting on it. Each run gets its own timeout.
func (p *InsightPipeline) Refresh(ctx context.Context, userID string) (*models.InsightsResponse, error) {
	ch := p.group.DoChan(userID, func() (interface{}, error) {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
		defer cancel()

		resp, err := p.intel.GenerateInsights(runCtx, userID)
		if err != nil {
			p.reportFailure(runCtx, userID, err)
			return nil, err
		}
		return resp, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*models.InsightsResponse), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (p *InsightPipeline) reportFailure(ctx context.Context, userID string, err error) {
	logger.Ctx(logger.WithUserID(ctx, userID)).Error("insight generation failed", logger.Err(err))
	p.publisher.Publish(events.Event{
		Topic:  events.TopicAnalysisError,
		UserID: userID,
		Data: map[string]any{
			"error": err.Error(),
		},
	})
}

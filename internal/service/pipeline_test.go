package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
)

// drain stops the bus and waits for the refreshes it started
func drain(t *testing.T, bus *events.Bus, pipeline *InsightPipeline) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, bus.Shutdown(ctx))
	require.NoError(t, pipeline.Wait(ctx))
}

func TestInsightPipeline_RefreshesOnEntryAdded(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	intel := &mockIntelligenceService{}
	pipeline := NewInsightPipeline(intel, bus, logger.NewNop())
	pipeline.Attach(bus)

	require.True(t, bus.PublishAsync(events.Event{Topic: events.TopicEntryAdded, UserID: "user-1"}))
	drain(t, bus, pipeline)

	assert.Equal(t, 1, intel.calls())
}

func TestInsightPipeline_SlowUserDoesNotBlockOthers(t *testing.T) {
	bus := events.NewBus(logger.NewNop())
	intel := newGatedIntelligenceService("slow")
	pipeline := NewInsightPipeline(intel, bus, logger.NewNop(), WithRefreshWorkers(4))
	pipeline.Attach(bus)

	require.True(t, bus.PublishAsync(events.Event{Topic: events.TopicEntryAdded, UserID: "slow"}))
	assert.Equal(t, "slow", receive(t, intel.started, "slow refresh to start"))

	require.True(t, bus.PublishAsync(events.Event{Topic: events.TopicEntryAdded, UserID: "fast"}))
	assert.Equal(t, "fast", receive(t, intel.finished, "fast refresh while slow is still running"))

	close(intel.gate)
	drain(t, bus, pipeline)
	assert.Equal(t, 2, intel.calls())
}

func TestInsightPipeline_CanceledCallerDoesNotFailSharedRun(t *testing.T) {
	intel := newGatedIntelligenceService("user-1")
	pub := &recordingPublisher{}
	pipeline := NewInsightPipeline(intel, pub, logger.NewNop(), WithRefreshTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pipeline.Refresh(ctx, "user-1")
	assert.ErrorIs(t, err, context.Canceled)

	receive(t, intel.started, "shared run to start")
	close(intel.gate)
	assert.NoError(t, receive(t, intel.ctxErrs, "shared run context"))

	// returns once the first run is done, whether it joins it or not
	resp, err := pipeline.Refresh(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, resp.DataSufficient)

	assert.Empty(t, pub.byTopic(events.TopicAnalysisError))
}

func TestInsightPipeline_FailurePublishesAnalysisError(t *testing.T) {
	intel := &mockIntelligenceService{generateErr: errStoreDown}
	pub := &recordingPublisher{}
	pipeline := NewInsightPipeline(intel, pub, logger.NewNop())

	_, err := pipeline.Refresh(context.Background(), "user-1")
	assert.ErrorIs(t, err, errStoreDown)

	failures := pub.byTopic(events.TopicAnalysisError)
	require.Len(t, failures, 1)
	assert.Equal(t, "user-1", failures[0].UserID)
	assert.Equal(t, errStoreDown.Error(), failures[0].Data["error"])
}

func TestInsightPipeline_AppendSucceedsWhenAnalysisFails(t *testing.T) {
	ctx := context.Background()
	bus := events.NewBus(logger.NewNop())
	intel := &mockIntelligenceService{generateErr: errStoreDown}
	pipeline := NewInsightPipeline(intel, bus, logger.NewNop())
	pipeline.Attach(bus)

	var failures []events.Event
	bus.Subscribe(events.TopicAnalysisError, func(e events.Event) { failures = append(failures, e) })

	f := newIntelligenceFixture(testNow)
	svc := NewEntryService(f.store.Entries(), bus, fixedClock(testNow))
	require.NoError(t, seedScores(ctx, svc, "user-1", testNow, 5))
	drain(t, bus, pipeline)

	stored, err := f.store.Entries().Query(ctx, "user-1", nil, nil)
	require.NoError(t, err)
	assert.Len(t, stored, 1)
	assert.Len(t, failures, 1)
}

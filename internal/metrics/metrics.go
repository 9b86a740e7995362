package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

const (
	// OutcomeSuccess labels analysis runs that stored a new insight set.
	OutcomeSuccess = "success"
	// OutcomeInsufficient labels runs short-circuited for lack of entries.
	OutcomeInsufficient = "insufficient_data"
	// OutcomeError labels runs that failed on a repository call.
	OutcomeError = "error"
)

var (
	entriesAppendedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "entries_appended_total",
			Help:      "Mood entries accepted, partitioned by capture source.",
		},
		[]string{"source"},
	)

	entriesRejectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "entries_rejected_total",
			Help:      "Mood entries rejected by validation.",
		},
	)

	analysisRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "analysis_runs_total",
			Help:      "Insight generation runs, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "moodlens",
			Name:      "analysis_seconds",
			Help:      "Insight generation latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
	)

	insightsGeneratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "insights_generated_total",
			Help:      "Insights produced, partitioned by type and priority.",
		},
		[]string{"type", "priority"},
	)

	riskAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "risk_alerts_total",
			Help:      "Critical low-mood alerts raised.",
		},
	)

	eventsDroppedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "moodlens",
			Name:      "events_dropped_total",
			Help:      "Async events dropped because the queue was full.",
		},
		[]string{"topic"},
	)
)

// Register attaches moodlens collectors to the supplied Prometheus registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		entriesAppendedTotal,
		entriesRejectedTotal,
		analysisRunsTotal,
		analysisDurationSeconds,
		insightsGeneratedTotal,
		riskAlertsTotal,
		eventsDroppedTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveEntryAppended counts an accepted entry.
func ObserveEntryAppended(source models.EntrySource) {
	label := string(source)
	if label == "" {
		label = string(models.EntrySourceWeb)
	}
	entriesAppendedTotal.WithLabelValues(label).Inc()
}

// ObserveEntryRejected counts an entry that failed validation.
func ObserveEntryRejected() {
	entriesRejectedTotal.Inc()
}

// ObserveAnalysis records a generation run's duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	switch outcome {
	case OutcomeSuccess, OutcomeInsufficient, OutcomeError:
	default:
		outcome = OutcomeError
	}
	analysisRunsTotal.WithLabelValues(outcome).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// ObserveInsights counts a generated insight set by type and priority and
// tallies risk alerts.
func ObserveInsights(insights []models.Insight) {
	for _, ins := range insights {
		insightsGeneratedTotal.WithLabelValues(string(ins.Type), string(ins.Priority)).Inc()
		if ins.Type == models.InsightTypeAlert && ins.Priority == models.PriorityCritical {
			riskAlertsTotal.Inc()
		}
	}
}

// ObserveEventDropped counts an event lost to a full queue.
func ObserveEventDropped(topic string) {
	eventsDroppedTotal.WithLabelValues(topic).Inc()
}

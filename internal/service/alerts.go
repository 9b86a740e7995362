package service

import (
	"github.com/JonnyWalker81/moodlens/backend/internal/events"
	"github.com/JonnyWalker81/moodlens/backend/internal/logger"
	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// AlertWatcher reacts to critical insights. Notification delivery lives
// outside this service, so for now it records each alert in the log.
type AlertWatcher struct {
	log logger.Logger
}

// NewAlertWatcher creates an alert watcher
func NewAlertWatcher(log logger.Logger) *AlertWatcher {
	return &AlertWatcher{log: log}
}

// Attach subscribes the watcher to insights.generated
func (w *AlertWatcher) Attach(sub Subscriber) *events.Subscription {
	return sub.Subscribe(events.TopicInsightsGenerated, w.handle)
}

func (w *AlertWatcher) handle(event events.Event) {
	insights, ok := event.Data["insights"].([]models.Insight)
	if !ok {
		return
	}
	for _, ins := range insights {
		if ins.Priority != models.PriorityCritical {
			continue
		}
		fields := []logger.Field{
			logger.UserID(event.UserID),
			logger.InsightID(ins.ID),
			logger.String("title", ins.Title),
			logger.Float64("metric_value", ins.MetricValue),
		}
		if ins.ExpiresAt != nil {
			fields = append(fields, logger.Time("expires_at", *ins.ExpiresAt))
		}
		w.log.Warn("critical insight raised", fields...)
	}
}

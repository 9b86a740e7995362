package analysis

import (
	"sort"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// ComputeTrends returns one Trend per period whose lookback window ending at
// now holds at least MinTrendPoints entries. Entries may arrive in any order.
func ComputeTrends(entries []models.MoodEntry, now time.Time, cfg Config) []models.Trend {
	sorted := chronological(entries)

	trends := make([]models.Trend, 0, len(models.Periods))
	for _, period := range models.Periods {
		days := cfg.TrendWindows[period]
		if days <= 0 {
			continue
		}
		start := now.AddDate(0, 0, -days)
		window := between(sorted, start, now)

		trend, ok := computeTrend(period, window, start, now)
		if !ok {
			continue
		}
		trends = append(trends, trend)
	}
	return trends
}

// ClassifyDirection maps a regression slope onto a direction. The band is
// exclusive: a slope of exactly ±TrendSlopeThreshold is stable.
func ClassifyDirection(slope float64) models.Direction {
	switch {
	case slope > TrendSlopeThreshold:
		return models.DirectionImproving
	case slope < -TrendSlopeThreshold:
		return models.DirectionDeclining
	default:
		return models.DirectionStable
	}
}

// computeTrend expects window in chronological order
func computeTrend(period models.Period, window []models.MoodEntry, start, end time.Time) (models.Trend, bool) {
	if len(window) < MinTrendPoints {
		return models.Trend{}, false
	}

	scores := scoresOf(window)
	fit := FitLine(scores)

	return models.Trend{
		Period:            period,
		Direction:         ClassifyDirection(fit.Slope),
		Change:            halfChange(scores),
		Confidence:        fit.RSquared,
		Slope:             fit.Slope,
		AverageMood:       mean(scores),
		DataPoints:        len(window),
		WindowStart:       start,
		WindowEnd:         end,
		SignificantEvents: significantEvents(window, scores),
	}, true
}

// halfChange is the percent difference between the mean of the earlier half
// and the later half, split at floor(n/2)
func halfChange(scores []float64) float64 {
	half := len(scores) / 2
	if half == 0 {
		return 0
	}
	earlier := mean(scores[:half])
	later := mean(scores[half:])
	if earlier == 0 {
		return 0
	}
	return (later - earlier) / earlier * 100
}

func significantEvents(window []models.MoodEntry, scores []float64) []models.SignificantEvent {
	events := make([]models.SignificantEvent, 0)
	if len(window) < MinEventWindow {
		return events
	}

	m := mean(scores)
	sd := stdDev(scores)
	if sd == 0 {
		return events
	}

	for i, e := range window {
		z := (scores[i] - m) / sd
		if z > EventZThreshold || z < -EventZThreshold {
			kind := models.EventKindPeak
			if z < 0 {
				kind = models.EventKindDip
			}
			events = append(events, models.SignificantEvent{
				EntryID:   e.ID,
				Timestamp: e.Timestamp,
				Kind:      kind,
				MoodScore: e.MoodScore,
				ZScore:    z,
				Tags:      e.Tags,
				Notes:     e.Notes,
			})
		}
	}
	return events
}

// chronological returns a copy of entries sorted oldest first. Ties keep
// their relative input order reversed, since stores hold newest first.
func chronological(entries []models.MoodEntry) []models.MoodEntry {
	out := make([]models.MoodEntry, len(entries))
	for i := range entries {
		out[len(entries)-1-i] = entries[i]
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// between filters a chronological slice to [start, end]
func between(sorted []models.MoodEntry, start, end time.Time) []models.MoodEntry {
	out := make([]models.MoodEntry, 0, len(sorted))
	for _, e := range sorted {
		if e.Timestamp.Before(start) || e.Timestamp.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func scoresOf(entries []models.MoodEntry) []float64 {
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = float64(e.MoodScore)
	}
	return scores
}

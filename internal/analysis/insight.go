package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// Insight rule thresholds
const (
	trendConfidenceCutoff  = 0.7
	trendChangeHigh        = 20.0
	trendChangeMedium      = 10.0
	patternStrengthCutoff  = 0.3
	patternStrengthMedium  = 0.6
	correlationSigCutoff   = 0.5
	correlationSigHigh     = 0.8
	alertSourceKey         = "recent_low_mood"
	reinforcementSourceKey = "recent_high_mood"
)

// insightNamespace seeds deterministic insight ids
var insightNamespace = uuid.MustParse("5b8f2c1e-7d4a-4e0b-9c61-3f2a8d9e1b47")

// InsightInput is the fused output of the analyzers for one user
type InsightInput struct {
	UserID       string
	Trends       []models.Trend
	Patterns     []models.Pattern
	Correlations []models.Correlation
	// Recent holds up to RecentWindowSize most recent entries, any order
	Recent []models.MoodEntry
}

// BuildInsights applies the insight rules. Each rule is evaluated
// independently, so one signal can yield several insights. Output is ordered
// by priority (critical first), then type, then title, and is fully
// determined by the input and now.
func BuildInsights(in InsightInput, now time.Time, cfg Config) []models.Insight {
	insights := make([]models.Insight, 0)

	for _, t := range in.Trends {
		if ins, ok := trendInsight(t); ok {
			insights = append(insights, ins)
		}
	}
	for _, p := range in.Patterns {
		if ins, ok := patternInsight(p); ok {
			insights = append(insights, ins)
		}
	}
	for _, c := range in.Correlations {
		if ins, ok := correlationInsight(c); ok {
			insights = append(insights, ins)
		}
	}
	insights = append(insights, recentMoodInsights(in.Recent, now, cfg)...)

	for i := range insights {
		insights[i].UserID = in.UserID
		insights[i].GeneratedAt = now
		insights[i].ID = insightID(in.UserID, insights[i])
	}

	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.SourceKey < b.SourceKey
	})
	return insights
}

// insightID is stable across runs, so a regenerated insight keeps its id
func insightID(userID string, ins models.Insight) string {
	key := strings.Join([]string{userID, string(ins.Type), ins.SourceKey}, "|")
	return uuid.NewSHA1(insightNamespace, []byte(key)).String()
}

func trendInsight(t models.Trend) (models.Insight, bool) {
	if t.Confidence <= trendConfidenceCutoff {
		return models.Insight{}, false
	}

	priority := models.PriorityLow
	switch absChange := math.Abs(t.Change); {
	case t.Direction == models.DirectionDeclining:
		priority = models.PriorityHigh
	case absChange > trendChangeHigh:
		priority = models.PriorityHigh
	case absChange > trendChangeMedium:
		priority = models.PriorityMedium
	}

	var title, description string
	switch t.Direction {
	case models.DirectionImproving:
		title = fmt.Sprintf("Your %s mood is improving", t.Period)
		description = fmt.Sprintf("Across %d check-ins your mood rose %.0f%% from the first half of the period to the second.", t.DataPoints, t.Change)
	case models.DirectionDeclining:
		title = fmt.Sprintf("Your %s mood is declining", t.Period)
		description = fmt.Sprintf("Across %d check-ins your mood fell %.0f%%. It may help to revisit what has changed recently or reach out to someone you trust.", t.DataPoints, math.Abs(t.Change))
	default:
		title = fmt.Sprintf("Your %s mood is steady", t.Period)
		description = fmt.Sprintf("Your mood has held steady around %.1f across %d check-ins.", t.AverageMood, t.DataPoints)
	}

	return models.Insight{
		Type:        models.InsightTypeTrend,
		Priority:    priority,
		Title:       title,
		Description: description,
		Actionable:  t.Direction == models.DirectionDeclining,
		SourceKey:   string(t.Period),
		MetricValue: t.Slope,
	}, true
}

func patternInsight(p models.Pattern) (models.Insight, bool) {
	if p.Strength <= patternStrengthCutoff {
		return models.Insight{}, false
	}

	priority := models.PriorityLow
	if p.Strength > patternStrengthMedium {
		priority = models.PriorityMedium
	}

	var title string
	switch p.Type {
	case models.PatternTypeWeekly:
		title = "Your mood follows a weekly rhythm"
	case models.PatternTypeTemporal:
		title = "Your mood changes with the time of day"
	default:
		title = fmt.Sprintf("%q is linked to your mood", p.Key)
	}

	description := p.Description
	if p.Recommendation != "" {
		description = p.Description + ". " + p.Recommendation
	}

	return models.Insight{
		Type:        models.InsightTypePattern,
		Priority:    priority,
		Title:       title,
		Description: description,
		Actionable:  p.Recommendation != "",
		SourceKey:   string(p.Type) + ":" + p.Key,
		MetricValue: p.Strength,
	}, true
}

func correlationInsight(c models.Correlation) (models.Insight, bool) {
	if c.Significance <= correlationSigCutoff {
		return models.Insight{}, false
	}

	priority := models.PriorityMedium
	if c.Significance > correlationSigHigh {
		priority = models.PriorityHigh
	}

	return models.Insight{
		Type:        models.InsightTypeCorrelation,
		Priority:    priority,
		Title:       fmt.Sprintf("Your mood tracks your %s scores", c.FactorName),
		Description: c.Description,
		SourceKey:   string(c.Factor),
		MetricValue: c.Correlation,
	}, true
}

// recentMoodInsights inspects the most recent entries directly for the risk
// alert and positive reinforcement rules
func recentMoodInsights(recent []models.MoodEntry, now time.Time, cfg Config) []models.Insight {
	latest := mostRecent(recent, RecentWindowSize)
	if len(latest) < MinRecentEntries {
		return nil
	}
	avg := mean(scoresOf(latest))

	var out []models.Insight
	if avg < RiskMoodThreshold {
		expires := now.Add(cfg.AlertTTL)
		out = append(out, models.Insight{
			Type:        models.InsightTypeAlert,
			Priority:    models.PriorityCritical,
			Title:       "Your mood has been low lately",
			Description: fmt.Sprintf("Your last %d check-ins averaged %.1f out of 10. Consider reaching out to someone you trust or a mental health professional.", len(latest), avg),
			Actionable:  true,
			SourceKey:   alertSourceKey,
			MetricValue: avg,
			ExpiresAt:   &expires,
		})
	}
	if avg > PositiveMoodBaseline {
		out = append(out, models.Insight{
			Type:        models.InsightTypeRecommendation,
			Priority:    models.PriorityLow,
			Title:       "You've been feeling good",
			Description: fmt.Sprintf("Your last %d check-ins averaged %.1f out of 10. Whatever you're doing seems to be working.", len(latest), avg),
			SourceKey:   reinforcementSourceKey,
			MetricValue: avg,
		})
	}
	return out
}

// mostRecent returns up to n entries with the latest timestamps
func mostRecent(entries []models.MoodEntry, n int) []models.MoodEntry {
	sorted := chronological(entries)
	if len(sorted) > n {
		sorted = sorted[len(sorted)-n:]
	}
	return sorted
}

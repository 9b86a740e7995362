package models

import "time"

// Period names a trend lookback window
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
)

// Periods lists the trend periods in evaluation order
var Periods = []Period{PeriodDaily, PeriodWeekly, PeriodMonthly}

// Direction represents the direction of a mood trend
type Direction string

const (
	DirectionImproving Direction = "improving"
	DirectionStable    Direction = "stable"
	DirectionDeclining Direction = "declining"
)

// EventKind marks a significant trend event
type EventKind string

const (
	EventKindPeak EventKind = "peak"
	EventKindDip  EventKind = "dip"
)

// SignificantEvent is an entry whose score deviates strongly from its window
type SignificantEvent struct {
	EntryID   string    `json:"entry_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`
	MoodScore int       `json:"mood_score"`
	ZScore    float64   `json:"z_score"`
	Tags      []string  `json:"tags,omitempty"`
	Notes     string    `json:"notes,omitempty"`
}

// Trend is recomputed on every request and never stored
type Trend struct {
	Period            Period             `json:"period"`
	Direction         Direction          `json:"direction"`
	Change            float64            `json:"change"`     // percent, later half vs earlier half
	Confidence        float64            `json:"confidence"` // R² of the linear fit, in [0,1]
	Slope             float64            `json:"slope"`
	AverageMood       float64            `json:"average_mood"`
	DataPoints        int                `json:"data_points"`
	WindowStart       time.Time          `json:"window_start"`
	WindowEnd         time.Time          `json:"window_end"`
	SignificantEvents []SignificantEvent `json:"significant_events"`
}

// PatternType identifies how entries were partitioned
type PatternType string

const (
	PatternTypeWeekly   PatternType = "weekly"
	PatternTypeTemporal PatternType = "temporal"
	PatternTypeTag      PatternType = "tag"
)

// PatternBucket is one partition of the entries
type PatternBucket struct {
	Label      string  `json:"label"`
	Mean       float64 `json:"mean"`
	Count      int     `json:"count"`
	Confidence float64 `json:"confidence"`
}

// Pattern is a partition whose buckets differ meaningfully in mood
type Pattern struct {
	Type           PatternType     `json:"type"`
	Key            string          `json:"key"`
	Strength       float64         `json:"strength"`
	Confidence     float64         `json:"confidence"`
	Description    string          `json:"description"`
	Recommendation string          `json:"recommendation,omitempty"`
	Buckets        []PatternBucket `json:"buckets"`
}

// Correlation links mood with an external screening score.
// A positive value means the factor moves with better mood after inversion.
type Correlation struct {
	Factor       FactorKind `json:"factor"`
	FactorName   string     `json:"factor_name"`
	Correlation  float64    `json:"correlation"`
	Significance float64    `json:"significance"` // heuristic, not a p-value
	SampleSize   int        `json:"sample_size"`
	Description  string     `json:"description"`
}

// InsightType represents the type of insight
type InsightType string

const (
	InsightTypeTrend          InsightType = "trend"
	InsightTypePattern        InsightType = "pattern"
	InsightTypeCorrelation    InsightType = "correlation"
	InsightTypeRecommendation InsightType = "recommendation"
	InsightTypeAlert          InsightType = "alert"
)

// Priority ranks insights for display and notification
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// Rank orders priorities, critical highest
func (p Priority) Rank() int {
	switch p {
	case PriorityCritical:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// Insight is the user-facing result of a generation run.
// Each run replaces the previous set for the user.
type Insight struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Type        InsightType `json:"type"`
	Priority    Priority    `json:"priority"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Actionable  bool        `json:"actionable"`
	SourceKey   string      `json:"source_key"`
	MetricValue float64     `json:"metric_value"`
	GeneratedAt time.Time   `json:"generated_at"`
	ExpiresAt   *time.Time  `json:"expires_at,omitempty"`
}

// ValidAt reports whether the insight has not expired at t
func (i Insight) ValidAt(t time.Time) bool {
	return i.ExpiresAt == nil || t.Before(*i.ExpiresAt)
}

// TagCount is a tag and how often it occurs
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// ExportSummary holds the aggregate statistics of an export window
type ExportSummary struct {
	EntryCount          int        `json:"entry_count"`
	AverageMood         float64    `json:"average_mood"`
	MinMood             int        `json:"min_mood"`
	MaxMood             int        `json:"max_mood"`
	TopTags             []TagCount `json:"top_tags"`
	AttachmentCount     int        `json:"attachment_count"`
	SignificantFindings []string   `json:"significant_findings"`
}

// ExportSnapshot packages everything known about a user for a window
type ExportSnapshot struct {
	UserID       string        `json:"user_id"`
	Start        *time.Time    `json:"start,omitempty"`
	End          *time.Time    `json:"end,omitempty"`
	GeneratedAt  time.Time     `json:"generated_at"`
	Entries      []MoodEntry   `json:"entries"`
	Trends       []Trend       `json:"trends"`
	Patterns     []Pattern     `json:"patterns"`
	Correlations []Correlation `json:"correlations"`
	Insights     []Insight     `json:"insights"`
	Summary      ExportSummary `json:"summary"`
}

// InsightRun marks the latest generation for a user. It is stored even when
// the generation produced no insights.
type InsightRun struct {
	GeneratedAt    time.Time `json:"generated_at"`
	DataSufficient bool      `json:"data_sufficient"`
}

// InsightsResponse is the API response for the insights endpoints
type InsightsResponse struct {
	Insights       []Insight `json:"insights"`
	ComputedAt     time.Time `json:"computed_at"`
	DataSufficient bool      `json:"data_sufficient"`
	MinEntries     int       `json:"min_entries_needed,omitempty"`
}

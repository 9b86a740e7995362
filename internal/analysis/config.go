package analysis

import (
	"fmt"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// Policy constants. These are fixed by product policy and deliberately not
// configurable, since changing them alters user-facing alert behavior.
const (
	MinTrendPoints       = 3
	MinEventWindow       = 5
	TrendSlopeThreshold  = 0.1
	EventZThreshold      = 1.5
	MinPatternEntries    = 14
	MinBucketSamples     = 2
	MinTagOccurrences    = 3
	MinPatternStrength   = 0.1
	TagDeviationCutoff   = 0.15
	BucketConfidenceCap  = 4
	MinCorrelationPairs  = 3
	MinInsightEntries    = 3
	RecentWindowSize     = 7
	MinRecentEntries     = 3
	RiskMoodThreshold    = 4.0
	PositiveMoodBaseline = 7.0
	FindingCorrelation   = 0.6
	MaxTopTags           = 5
)

// Config holds the tunable lookback windows
type Config struct {
	// TrendWindows maps each period to its lookback in days
	TrendWindows map[models.Period]int
	// PatternWindowDays bounds the history the pattern detector reads
	PatternWindowDays int
	// CorrelationWindowDays bounds the history the correlation analyzer reads
	CorrelationWindowDays int
	// Location is used for day-of-week and time-of-day bucketing
	Location *time.Location
	// AlertTTL is how long a risk alert stays valid
	AlertTTL time.Duration
}

// DefaultConfig returns the production lookback windows
func DefaultConfig() Config {
	return Config{
		TrendWindows: map[models.Period]int{
			models.PeriodDaily:   7,
			models.PeriodWeekly:  28,
			models.PeriodMonthly: 90,
		},
		PatternWindowDays:     90,
		CorrelationWindowDays: 90,
		Location:              time.UTC,
		AlertTTL:              7 * 24 * time.Hour,
	}
}

// Validate rejects non-positive windows
func (c Config) Validate() error {
	for _, p := range models.Periods {
		if c.TrendWindows[p] <= 0 {
			return fmt.Errorf("trend window for %s must be positive", p)
		}
	}
	if c.PatternWindowDays <= 0 {
		return fmt.Errorf("pattern window must be positive")
	}
	if c.CorrelationWindowDays <= 0 {
		return fmt.Errorf("correlation window must be positive")
	}
	if c.AlertTTL <= 0 {
		return fmt.Errorf("alert ttl must be positive")
	}
	return nil
}

// MaxTrendWindowDays is the widest trend lookback, used to bound queries
func (c Config) MaxTrendWindowDays() int {
	max := 0
	for _, d := range c.TrendWindows {
		if d > max {
			max = d
		}
	}
	return max
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.UTC
	}
	return c.Location
}

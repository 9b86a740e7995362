package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// mondayFridayEntries builds seven weeks of low Mondays tagged "work" and
// high Fridays tagged "friends", all logged at 10:00 UTC
func mondayFridayEntries() []models.MoodEntry {
	monday := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	var entries []models.MoodEntry
	for week := 0; week < 7; week++ {
		base := monday.AddDate(0, 0, 7*week)
		entries = append(entries,
			models.MoodEntry{Timestamp: base, MoodScore: 2, Tags: []string{"work"}},
			models.MoodEntry{Timestamp: base.AddDate(0, 0, 4), MoodScore: 9, Tags: []string{"friends"}},
		)
	}
	return entries
}

func TestTimeOfDay(t *testing.T) {
	tests := []struct {
		hour int
		want string
	}{
		{hour: 5, want: BucketNight},
		{hour: 6, want: BucketMorning},
		{hour: 11, want: BucketMorning},
		{hour: 12, want: BucketAfternoon},
		{hour: 18, want: BucketEvening},
		{hour: 21, want: BucketEvening},
		{hour: 22, want: BucketNight},
		{hour: 0, want: BucketNight},
	}
	for _, tt := range tests {
		ts := time.Date(2026, 1, 1, tt.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tt.want, TimeOfDay(ts), "hour %d", tt.hour)
	}
}

func TestDetectPatterns_InsufficientData(t *testing.T) {
	entries := mondayFridayEntries()[:MinPatternEntries-1]
	patterns := DetectPatterns(entries, DefaultConfig())
	assert.NotNil(t, patterns)
	assert.Empty(t, patterns)
}

func TestDetectPatternsInWindow_GatesOnTotalHistory(t *testing.T) {
	window := mondayFridayEntries()[:8]

	assert.Empty(t, DetectPatternsInWindow(window, len(window), DefaultConfig()))

	patterns := DetectPatternsInWindow(window, 20, DefaultConfig())
	require.NotEmpty(t, patterns)
	assert.Equal(t, models.PatternTypeWeekly, patterns[0].Type)
	require.Len(t, patterns[0].Buckets, 2)
	assert.Equal(t, 4, patterns[0].Buckets[0].Count)
}

func TestDetectPatterns_WeeklyAndTags(t *testing.T) {
	patterns := DetectPatterns(mondayFridayEntries(), DefaultConfig())
	require.Len(t, patterns, 3)

	weekly := patterns[0]
	assert.Equal(t, models.PatternTypeWeekly, weekly.Type)
	assert.Equal(t, "day_of_week", weekly.Key)
	assert.InDelta(t, 3.5/5.5, weekly.Strength, 1e-9)
	assert.InDelta(t, 1.0, weekly.Confidence, 1e-9)
	require.Len(t, weekly.Buckets, 2)
	assert.Equal(t, "Monday", weekly.Buckets[0].Label)
	assert.Equal(t, "Friday", weekly.Buckets[1].Label)
	assert.Contains(t, weekly.Recommendation, "Mondays")

	// both tags deviate equally, so they order by name
	assert.Equal(t, models.PatternTypeTag, patterns[1].Type)
	assert.Equal(t, "friends", patterns[1].Key)
	assert.Contains(t, patterns[1].Recommendation, "lift your mood")
	assert.Equal(t, "work", patterns[2].Key)
	assert.Contains(t, patterns[2].Recommendation, "stressor")

	for _, p := range patterns {
		assert.GreaterOrEqual(t, p.Strength, MinPatternStrength)
		assert.LessOrEqual(t, p.Strength, 1.0)
	}
}

func TestDetectPatterns_TemporalUsesLocation(t *testing.T) {
	var entries []models.MoodEntry
	start := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	for day := 0; day < 7; day++ {
		base := start.AddDate(0, 0, day)
		entries = append(entries,
			models.MoodEntry{Timestamp: base.Add(8 * time.Hour), MoodScore: 8},
			models.MoodEntry{Timestamp: base.Add(20 * time.Hour), MoodScore: 3},
		)
	}

	cfg := DefaultConfig()
	var temporal *models.Pattern
	for _, p := range DetectPatterns(entries, cfg) {
		if p.Type == models.PatternTypeTemporal {
			p := p
			temporal = &p
		}
	}
	require.NotNil(t, temporal)
	assert.Equal(t, "time_of_day", temporal.Key)
	assert.Contains(t, temporal.Description, "highest in the morning")
	assert.Contains(t, temporal.Description, "lowest at evening")

	// shifted nine hours west, 08:00 UTC is 23:00 and 20:00 UTC is 11:00
	cfg.Location = time.FixedZone("UTC-9", -9*60*60)
	temporal = nil
	for _, p := range DetectPatterns(entries, cfg) {
		if p.Type == models.PatternTypeTemporal {
			p := p
			temporal = &p
		}
	}
	require.NotNil(t, temporal)
	assert.Contains(t, temporal.Description, "highest in the night")
}

func TestDetectPatterns_FlatMoodHasNoPattern(t *testing.T) {
	var entries []models.MoodEntry
	start := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 21; i++ {
		entries = append(entries, models.MoodEntry{
			Timestamp: start.Add(time.Duration(i) * 25 * time.Hour),
			MoodScore: 6,
			Tags:      []string{"walk"},
		})
	}
	assert.Empty(t, DetectPatterns(entries, DefaultConfig()))
}

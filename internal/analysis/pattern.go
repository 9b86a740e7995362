package analysis

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// Time-of-day buckets, in display order
const (
	BucketMorning   = "morning"
	BucketAfternoon = "afternoon"
	BucketEvening   = "evening"
	BucketNight     = "night"
)

var timeOfDayOrder = []string{BucketMorning, BucketAfternoon, BucketEvening, BucketNight}

// TimeOfDay buckets an hour: morning 06-12, afternoon 12-18, evening 18-22,
// night 22-06
func TimeOfDay(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 6 && h < 12:
		return BucketMorning
	case h >= 12 && h < 18:
		return BucketAfternoon
	case h >= 18 && h < 22:
		return BucketEvening
	default:
		return BucketNight
	}
}

// DetectPatterns runs the weekly, temporal and tag detectors independently.
// Fewer than MinPatternEntries entries yields no patterns at all.
func DetectPatterns(entries []models.MoodEntry, cfg Config) []models.Pattern {
	return DetectPatternsInWindow(entries, len(entries), cfg)
}

// DetectPatternsInWindow partitions only window, but gates on total, the
// number of entries the user has ever logged
func DetectPatternsInWindow(window []models.MoodEntry, total int, cfg Config) []models.Pattern {
	patterns := make([]models.Pattern, 0)
	if total < MinPatternEntries {
		return patterns
	}

	loc := cfg.location()
	if p, ok := weeklyPattern(window, loc); ok {
		patterns = append(patterns, p)
	}
	if p, ok := temporalPattern(window, loc); ok {
		patterns = append(patterns, p)
	}
	patterns = append(patterns, tagPatterns(window)...)
	return patterns
}

type bucketAccumulator struct {
	label string
	sum   float64
	count int
}

func (b *bucketAccumulator) add(score int) {
	b.sum += float64(score)
	b.count++
}

// qualifyingBuckets drops buckets below MinBucketSamples and computes means
// and per-bucket confidence, capped beyond BucketConfidenceCap samples
func qualifyingBuckets(accs []*bucketAccumulator) []models.PatternBucket {
	buckets := make([]models.PatternBucket, 0, len(accs))
	for _, a := range accs {
		if a == nil || a.count < MinBucketSamples {
			continue
		}
		buckets = append(buckets, models.PatternBucket{
			Label:      a.label,
			Mean:       a.sum / float64(a.count),
			Count:      a.count,
			Confidence: math.Min(float64(a.count)/BucketConfidenceCap, 1),
		})
	}
	return buckets
}

// partitionStrength is the coefficient of variation of the bucket means
func partitionStrength(buckets []models.PatternBucket) float64 {
	means := make([]float64, len(buckets))
	for i, b := range buckets {
		means[i] = b.Mean
	}
	return coefficientOfVariation(means)
}

func averageConfidence(buckets []models.PatternBucket) float64 {
	if len(buckets) == 0 {
		return 0
	}
	var sum float64
	for _, b := range buckets {
		sum += b.Confidence
	}
	return sum / float64(len(buckets))
}

// bestAndWorst returns the highest and lowest mean buckets; ties resolve to
// the earlier bucket in display order
func bestAndWorst(buckets []models.PatternBucket) (best, worst models.PatternBucket) {
	best, worst = buckets[0], buckets[0]
	for _, b := range buckets[1:] {
		if b.Mean > best.Mean {
			best = b
		}
		if b.Mean < worst.Mean {
			worst = b
		}
	}
	return best, worst
}

func weeklyPattern(entries []models.MoodEntry, loc *time.Location) (models.Pattern, bool) {
	accs := make([]*bucketAccumulator, 7)
	for _, e := range entries {
		day := int(e.Timestamp.In(loc).Weekday())
		if accs[day] == nil {
			accs[day] = &bucketAccumulator{label: dayNames[day]}
		}
		accs[day].add(e.MoodScore)
	}

	buckets := qualifyingBuckets(accs)
	if len(buckets) < 2 {
		return models.Pattern{}, false
	}
	strength := partitionStrength(buckets)
	if strength < MinPatternStrength {
		return models.Pattern{}, false
	}

	best, worst := bestAndWorst(buckets)
	p := models.Pattern{
		Type:        models.PatternTypeWeekly,
		Key:         "day_of_week",
		Strength:    strength,
		Confidence:  averageConfidence(buckets),
		Description: fmt.Sprintf("Your mood varies by day of the week (best on %s at %.1f, lowest on %s at %.1f)", best.Label, best.Mean, worst.Label, worst.Mean),
		Buckets:     buckets,
	}
	if best.Label != worst.Label {
		p.Recommendation = fmt.Sprintf("%ss tend to be your best days and %ss your hardest. Consider planning restorative activities for %ss.", best.Label, worst.Label, worst.Label)
	}
	return p, true
}

func temporalPattern(entries []models.MoodEntry, loc *time.Location) (models.Pattern, bool) {
	index := make(map[string]int, len(timeOfDayOrder))
	accs := make([]*bucketAccumulator, len(timeOfDayOrder))
	for i, label := range timeOfDayOrder {
		index[label] = i
	}
	for _, e := range entries {
		i := index[TimeOfDay(e.Timestamp.In(loc))]
		if accs[i] == nil {
			accs[i] = &bucketAccumulator{label: timeOfDayOrder[i]}
		}
		accs[i].add(e.MoodScore)
	}

	buckets := qualifyingBuckets(accs)
	if len(buckets) < 2 {
		return models.Pattern{}, false
	}
	strength := partitionStrength(buckets)
	if strength < MinPatternStrength {
		return models.Pattern{}, false
	}

	best, worst := bestAndWorst(buckets)
	p := models.Pattern{
		Type:        models.PatternTypeTemporal,
		Key:         "time_of_day",
		Strength:    strength,
		Confidence:  averageConfidence(buckets),
		Description: fmt.Sprintf("Your mood shifts through the day (highest in the %s, lowest at %s)", best.Label, worst.Label),
		Buckets:     buckets,
	}
	if best.Label != worst.Label {
		p.Recommendation = fmt.Sprintf("You tend to feel best in the %s. Schedule demanding tasks then and check in with yourself during the %s.", best.Label, worst.Label)
	}
	return p, true
}

// tagPatterns reports each tag with at least MinTagOccurrences uses whose
// mean deviates from the overall mean by more than TagDeviationCutoff.
// Strength is the absolute relative deviation, clamped to [0,1].
func tagPatterns(entries []models.MoodEntry) []models.Pattern {
	overall := mean(scoresOf(entries))
	if overall == 0 {
		return nil
	}

	accs := make(map[string]*bucketAccumulator)
	for _, e := range entries {
		for _, tag := range e.Tags {
			if accs[tag] == nil {
				accs[tag] = &bucketAccumulator{label: tag}
			}
			accs[tag].add(e.MoodScore)
		}
	}

	type scored struct {
		pattern   models.Pattern
		deviation float64
	}
	found := make([]scored, 0)
	for tag, acc := range accs {
		if acc.count < MinTagOccurrences {
			continue
		}
		tagMean := acc.sum / float64(acc.count)
		deviation := (tagMean - overall) / overall
		if math.Abs(deviation) <= TagDeviationCutoff {
			continue
		}
		strength := clamp01(math.Abs(deviation))
		if strength < MinPatternStrength {
			continue
		}

		p := models.Pattern{
			Type:       models.PatternTypeTag,
			Key:        tag,
			Strength:   strength,
			Confidence: math.Min(float64(acc.count)/BucketConfidenceCap, 1),
			Buckets: []models.PatternBucket{{
				Label:      tag,
				Mean:       tagMean,
				Count:      acc.count,
				Confidence: math.Min(float64(acc.count)/BucketConfidenceCap, 1),
			}},
		}
		if deviation > 0 {
			p.Description = fmt.Sprintf("Entries tagged %q average %.1f, %.0f%% above your usual mood", tag, tagMean, deviation*100)
			p.Recommendation = fmt.Sprintf("%q seems to lift your mood. Try to make more room for it.", tag)
		} else {
			p.Description = fmt.Sprintf("Entries tagged %q average %.1f, %.0f%% below your usual mood", tag, tagMean, -deviation*100)
			p.Recommendation = fmt.Sprintf("%q may be a stressor. Notice what happens around it and plan some support.", tag)
		}
		found = append(found, scored{pattern: p, deviation: math.Abs(deviation)})
	}

	sort.Slice(found, func(i, j int) bool {
		if found[i].deviation != found[j].deviation {
			return found[i].deviation > found[j].deviation
		}
		return found[i].pattern.Key < found[j].pattern.Key
	})

	patterns := make([]models.Pattern, len(found))
	for i, f := range found {
		patterns[i] = f.pattern
	}
	return patterns
}

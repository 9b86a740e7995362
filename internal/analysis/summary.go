package analysis

import (
	"sort"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// Summarize computes the export summary. Zero entries yields zeroed fields
// and empty, non-nil slices.
func Summarize(entries []models.MoodEntry, correlations []models.Correlation) models.ExportSummary {
	summary := models.ExportSummary{
		TopTags:             []models.TagCount{},
		SignificantFindings: significantFindings(correlations),
	}
	if len(entries) == 0 {
		return summary
	}

	summary.EntryCount = len(entries)
	summary.MinMood = entries[0].MoodScore
	summary.MaxMood = entries[0].MoodScore

	tagCounts := make(map[string]int)
	var sum int
	for _, e := range entries {
		sum += e.MoodScore
		if e.MoodScore < summary.MinMood {
			summary.MinMood = e.MoodScore
		}
		if e.MoodScore > summary.MaxMood {
			summary.MaxMood = e.MoodScore
		}
		for _, tag := range e.Tags {
			tagCounts[tag]++
		}
		summary.AttachmentCount += len(e.Attachments)
	}
	summary.AverageMood = float64(sum) / float64(len(entries))
	summary.TopTags = topTags(tagCounts, MaxTopTags)
	return summary
}

// topTags orders by count descending, then tag name
func topTags(counts map[string]int, limit int) []models.TagCount {
	tags := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	if len(tags) > limit {
		tags = tags[:limit]
	}
	return tags
}

package analysis

import (
	"fmt"
	"time"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

var testNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

// hourlyEntries spaces scores one hour apart, oldest first, ending an hour
// before testNow
func hourlyEntries(scores ...int) []models.MoodEntry {
	entries := make([]models.MoodEntry, len(scores))
	for i, s := range scores {
		entries[i] = models.MoodEntry{
			ID:        fmt.Sprintf("entry-%02d", i),
			UserID:    "user-1",
			Timestamp: testNow.Add(-time.Duration(len(scores)-i) * time.Hour),
			MoodScore: s,
			Tags:      []string{},
		}
	}
	return entries
}

func newestFirst(entries []models.MoodEntry) []models.MoodEntry {
	out := make([]models.MoodEntry, len(entries))
	for i := range entries {
		out[len(entries)-1-i] = entries[i]
	}
	return out
}

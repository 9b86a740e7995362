package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

func withAssessment(entries []models.MoodEntry, kind models.FactorKind, scores ...float64) []models.MoodEntry {
	for i, s := range scores {
		entries[i].Assessment = &models.AssessmentPairing{
			Scores: []models.FactorScore{{Factor: kind, Score: s}},
		}
	}
	return entries
}

func TestComputeCorrelations_InvertedFactorReportsPositive(t *testing.T) {
	entries := withAssessment(hourlyEntries(2, 4, 6, 8), models.FactorPHQ9, 20, 15, 10, 5)

	correlations := ComputeCorrelations(entries)
	require.Len(t, correlations, 1)

	c := correlations[0]
	assert.Equal(t, models.FactorPHQ9, c.Factor)
	assert.Equal(t, "PHQ-9", c.FactorName)
	assert.InDelta(t, 1.0, c.Correlation, 1e-12)
	assert.Equal(t, 4, c.SampleSize)
	assert.InDelta(t, 1.0, c.Significance, 1e-12)
	assert.Contains(t, c.Description, "better mood")
}

func TestComputeCorrelations_TooFewPairs(t *testing.T) {
	entries := withAssessment(hourlyEntries(2, 4, 6, 8), models.FactorGAD7, 15, 10)
	assert.Empty(t, ComputeCorrelations(entries))
}

func TestComputeCorrelations_ZeroVariance(t *testing.T) {
	entries := withAssessment(hourlyEntries(5, 5, 5), models.FactorPSS10, 10, 20, 30)

	correlations := ComputeCorrelations(entries)
	require.Len(t, correlations, 1)
	assert.Equal(t, 0.0, correlations[0].Correlation)
	assert.Equal(t, 0.0, correlations[0].Significance)
}

func TestComputeCorrelations_RegistryOrder(t *testing.T) {
	entries := hourlyEntries(3, 5, 7)
	for i := range entries {
		entries[i].Assessment = &models.AssessmentPairing{Scores: []models.FactorScore{
			{Factor: models.FactorPSS10, Score: float64(30 - i*5)},
			{Factor: models.FactorGAD7, Score: float64(i * 3)},
		}}
	}

	correlations := ComputeCorrelations(entries)
	require.Len(t, correlations, 2)
	assert.Equal(t, models.FactorGAD7, correlations[0].Factor)
	assert.InDelta(t, -1.0, correlations[0].Correlation, 1e-12)
	assert.Equal(t, models.FactorPSS10, correlations[1].Factor)
	assert.InDelta(t, 1.0, correlations[1].Correlation, 1e-12)
}

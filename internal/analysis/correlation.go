package analysis

import (
	"fmt"
	"math"

	"github.com/JonnyWalker81/moodlens/backend/internal/models"
)

// ComputeCorrelations returns one Correlation per registered factor that has
// at least MinCorrelationPairs paired observations. Factors are emitted in
// registry order.
//
// For inverted instruments the sign of Pearson's r is flipped, so a perfectly
// inverse clinical series reports +1. Significance is |t|/(2+|t|) with
// t = r·√((n−2)/(1−r²)); it ranks signals and is not a p-value.
func ComputeCorrelations(entries []models.MoodEntry) []models.Correlation {
	correlations := make([]models.Correlation, 0)

	for _, spec := range models.RegisteredFactors() {
		moods := make([]float64, 0)
		factors := make([]float64, 0)
		for _, e := range entries {
			score, ok := e.Assessment.ScoreFor(spec.Kind)
			if !ok {
				continue
			}
			moods = append(moods, float64(e.MoodScore))
			factors = append(factors, score)
		}

		n := len(moods)
		if n < MinCorrelationPairs {
			continue
		}

		r := pearson(moods, factors)
		reported := r
		if spec.Inverted {
			reported = -r
		}
		if reported == 0 {
			reported = 0 // normalise -0
		}

		correlations = append(correlations, models.Correlation{
			Factor:       spec.Kind,
			FactorName:   spec.DisplayName,
			Correlation:  reported,
			Significance: significanceProxy(r, n),
			SampleSize:   n,
			Description:  describeCorrelation(spec, reported, n),
		})
	}
	return correlations
}

func correlationStrength(r float64) string {
	switch a := math.Abs(r); {
	case a > 0.7:
		return "strongly"
	case a > 0.5:
		return "moderately"
	case a > 0.3:
		return "somewhat"
	default:
		return "weakly"
	}
}

func describeCorrelation(spec models.FactorSpec, r float64, n int) string {
	if r == 0 {
		return fmt.Sprintf("No linear relationship between your mood and %s scores (n=%d)", spec.DisplayName, n)
	}
	if spec.Inverted {
		if r > 0 {
			return fmt.Sprintf("Lower %s (%s) scores are %s associated with better mood (r=%.2f, n=%d)", spec.DisplayName, spec.Measures, correlationStrength(r), r, n)
		}
		return fmt.Sprintf("Lower %s (%s) scores unexpectedly coincide with lower mood (r=%.2f, n=%d)", spec.DisplayName, spec.Measures, r, n)
	}
	return fmt.Sprintf("%s scores are %s associated with your mood (r=%.2f, n=%d)", spec.DisplayName, correlationStrength(r), r, n)
}

// significantFindings phrases correlations whose magnitude exceeds
// FindingCorrelation for the export summary
func significantFindings(correlations []models.Correlation) []string {
	findings := make([]string, 0)
	for _, c := range correlations {
		if math.Abs(c.Correlation) <= FindingCorrelation {
			continue
		}
		spec, _ := models.LookupFactor(c.Factor)
		direction := "higher"
		if c.Correlation > 0 {
			direction = "lower"
		}
		findings = append(findings, fmt.Sprintf("Mood is %s related to %s: better days come with %s %s scores (r=%.2f, n=%d)",
			correlationStrength(c.Correlation), spec.Measures, direction, c.FactorName, c.Correlation, c.SampleSize))
	}
	return findings
}

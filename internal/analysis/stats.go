// Package analysis holds the numerical core of the mood engine: linear trend
// fitting, variance-based pattern strength, Pearson correlation and the
// insight rules. Everything here is pure and synchronous; callers pass in a
// snapshot of a user's entries.
package analysis

import "math"

// mean returns the arithmetic mean, or 0 for an empty slice
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev returns the population standard deviation
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		d := v - m
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(values)))
}

// coefficientOfVariation is stddev/mean clamped to [0,1]; 0 when the mean is 0
func coefficientOfVariation(values []float64) float64 {
	m := mean(values)
	if m == 0 {
		return 0
	}
	return clamp01(stdDev(values) / m)
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// LinearFit is the least-squares line through (index, value) pairs
type LinearFit struct {
	Slope     float64
	Intercept float64
	RSquared  float64
}

// FitLine fits y = a + b·x with x the position in values. Points are treated
// as equally spaced. RSquared is 0 when the values are constant.
func FitLine(values []float64) LinearFit {
	n := float64(len(values))
	if len(values) < 2 {
		return LinearFit{Intercept: mean(values)}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return LinearFit{Intercept: sumY / n}
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range values {
		predicted := intercept + slope*float64(i)
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - meanY) * (y - meanY)
	}

	r2 := 0.0
	if ssTot > 0 {
		r2 = clamp01(1 - ssRes/ssTot)
	}

	return LinearFit{Slope: slope, Intercept: intercept, RSquared: r2}
}

// pearson computes the Pearson correlation coefficient. Zero variance in
// either series yields 0 rather than NaN.
func pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}
	mx, my := mean(xs), mean(ys)

	var num, dx2, dy2 float64
	for i := 0; i < n; i++ {
		dx := xs[i] - mx
		dy := ys[i] - my
		num += dx * dy
		dx2 += dx * dx
		dy2 += dy * dy
	}
	if dx2 == 0 || dy2 == 0 {
		return 0
	}

	r := num / math.Sqrt(dx2*dy2)
	return math.Max(-1, math.Min(1, r))
}

// significanceProxy compresses the t-statistic of r into [0,1] via |t|/(2+|t|).
// It is a rough ranking heuristic, not a p-value.
func significanceProxy(r float64, n int) float64 {
	if n < 3 {
		return 0
	}
	r2 := r * r
	if r2 >= 1 {
		return 1
	}
	t := math.Abs(r * math.Sqrt(float64(n-2)/(1-r2)))
	return t / (2 + t)
}

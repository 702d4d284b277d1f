package engine

import (
	"math"
	"sort"
)

// Trend directions and risk bands reported on every scored record.
const (
	DirectionRising  = "rising"
	DirectionFalling = "falling"
	DirectionStable  = "stable"

	RiskLow    = "Low"
	RiskMedium = "Medium"
	RiskHigh   = "High"
)

// ComputeTrend turns a price series into a trend multiplier and a volatility
// penalty. Points arrive in any order; NaN and infinite prices and zero
// timestamps are dropped before anything is measured. Under two usable
// points everything is neutral: multiplier 1.0, stable, penalty 1.0, Medium.
func ComputeTrend(points []PricePoint) TrendVolatilityMetrics {
	usable := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Timestamp.IsZero() {
			continue
		}
		usable = append(usable, p)
	}
	sort.Slice(usable, func(i, j int) bool {
		return usable[i].Timestamp.Before(usable[j].Timestamp)
	})

	m := TrendVolatilityMetrics{
		TrendMultiplier:   1.0,
		TrendDirection:    DirectionStable,
		VolatilityPenalty: 1.0,
		RiskLevel:         RiskMedium,
		DataPoints:        len(usable),
	}
	if len(usable) < 2 {
		return m
	}

	prices := make([]float64, len(usable))
	times := make([]float64, len(usable))
	for i, p := range usable {
		prices[i] = p.Price
		times[i] = float64(p.Timestamp.Unix())
	}
	timeSpan := times[len(times)-1] - times[0]

	slope := olsSlope(times, prices)
	if len(usable) >= 3 && timeSpan > 0 {
		// A MACD histogram at the newest point reacts to recent momentum
		// where a least-squares fit over the whole window lags it.
		slope = macdHistogram(prices) / timeSpan
	}
	m.Slope = slope

	rng := robustRange(prices)
	if rng > 0 && slope != 0 && timeSpan > 0 {
		m.TrendMultiplier = clamp(1+0.5*(slope*timeSpan/rng), 0.5, 1.5)
	}
	switch {
	case m.TrendMultiplier > 1.05:
		m.TrendDirection = DirectionRising
	case m.TrendMultiplier < 0.95:
		m.TrendDirection = DirectionFalling
	}

	m.Volatility = logReturnStdDev(prices)
	m.VolatilityPenalty = clamp(1+3*m.Volatility, 1, 2)
	switch {
	case m.VolatilityPenalty < 1.15:
		m.RiskLevel = RiskLow
	case m.VolatilityPenalty < 1.40:
		m.RiskLevel = RiskMedium
	default:
		m.RiskLevel = RiskHigh
	}
	return m
}

// olsSlope fits price against time by ordinary least squares. Degenerate
// input (under two points, or all timestamps equal) yields zero.
func olsSlope(xs, ys []float64) float64 {
	n := float64(len(xs))
	if len(xs) < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// robustRange measures price spread as the interquartile range, widening to
// P90-P10 and finally max-min when tighter bands collapse to zero.
func robustRange(prices []float64) float64 {
	sorted := append([]float64(nil), prices...)
	sort.Float64s(sorted)
	if r := percentile(sorted, 75) - percentile(sorted, 25); r > 0 {
		return r
	}
	if r := percentile(sorted, 90) - percentile(sorted, 10); r > 0 {
		return r
	}
	return sorted[len(sorted)-1] - sorted[0]
}

// percentile linearly interpolates over an already sorted slice.
func percentile(sorted []float64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	rank := pct / 100 * float64(len(sorted)-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	if lo == hi {
		return sorted[lo]
	}
	frac := rank - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}

// macdHistogram computes fast EMA minus slow EMA minus the signal line at
// the newest point, with periods scaled to the window so short series still
// produce a reading: fast 35% of n in [2,12], slow 70% in [3,26], signal 25%
// in [2,9].
func macdHistogram(prices []float64) float64 {
	n := len(prices)
	fast := clampInt(int(float64(n)*0.35), 2, 12)
	slow := clampInt(int(float64(n)*0.70), 3, 26)
	if slow <= fast {
		slow = fast + 1
	}
	signal := clampInt(int(float64(n)*0.25), 2, 9)

	fastEMA := emaSeries(prices, fast)
	slowEMA := emaSeries(prices, slow)
	diff := make([]float64, n)
	for i := range prices {
		diff[i] = fastEMA[i] - slowEMA[i]
	}
	signalEMA := emaSeries(diff, signal)
	return diff[n-1] - signalEMA[n-1]
}

// emaSeries seeds the average with the first value rather than waiting for
// a full period, so every index has a reading.
func emaSeries(values []float64, period int) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	k := 2.0 / (float64(period) + 1)
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// logReturnStdDev is the population standard deviation of log-returns.
// Pairs containing a non-positive price are skipped; under two returns the
// series is treated as flat.
func logReturnStdDev(prices []float64) float64 {
	returns := make([]float64, 0, len(prices))
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			continue
		}
		returns = append(returns, math.Log(prices[i]/prices[i-1]))
	}
	if len(returns) < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))
	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	variance /= float64(len(returns))
	return math.Sqrt(variance)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

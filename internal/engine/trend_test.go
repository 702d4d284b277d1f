package engine

import (
	"math"
	"testing"
	"time"
)

func series(prices ...float64) []PricePoint {
	base := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	points := make([]PricePoint, len(prices))
	for i, p := range prices {
		points[i] = PricePoint{Price: p, Timestamp: base.Add(time.Duration(i) * 24 * time.Hour)}
	}
	return points
}

func TestComputeTrend_FlatSeries(t *testing.T) {
	m := ComputeTrend(series(100, 100, 100, 100, 100))
	if m.Volatility != 0 {
		t.Errorf("Volatility = %v, want 0", m.Volatility)
	}
	if m.VolatilityPenalty != 1.0 {
		t.Errorf("VolatilityPenalty = %v, want 1.0", m.VolatilityPenalty)
	}
	if m.TrendMultiplier != 1.0 {
		t.Errorf("TrendMultiplier = %v, want exactly 1.0", m.TrendMultiplier)
	}
	if m.TrendDirection != DirectionStable {
		t.Errorf("TrendDirection = %q, want stable", m.TrendDirection)
	}
	if m.RiskLevel != RiskLow {
		t.Errorf("RiskLevel = %q, want Low", m.RiskLevel)
	}
	if m.DataPoints != 5 {
		t.Errorf("DataPoints = %d, want 5", m.DataPoints)
	}
}

func TestComputeTrend_UnderTwoPointsNeutral(t *testing.T) {
	for name, points := range map[string][]PricePoint{
		"nil":    nil,
		"single": series(123),
	} {
		m := ComputeTrend(points)
		if m.TrendMultiplier != 1.0 || m.VolatilityPenalty != 1.0 {
			t.Errorf("%s: multiplier/penalty = %v/%v, want 1.0/1.0", name, m.TrendMultiplier, m.VolatilityPenalty)
		}
		if m.TrendDirection != DirectionStable {
			t.Errorf("%s: direction = %q, want stable", name, m.TrendDirection)
		}
		// Unknown is not safe: risk stays Medium without data.
		if m.RiskLevel != RiskMedium {
			t.Errorf("%s: risk = %q, want Medium", name, m.RiskLevel)
		}
		if m.Slope != 0 {
			t.Errorf("%s: slope = %v, want 0", name, m.Slope)
		}
	}
}

func TestComputeTrend_TwoPointRiseClampsHigh(t *testing.T) {
	// Slope*span = +50 against a robust range of 25: raw multiplier 2.0,
	// clamped to 1.5.
	m := ComputeTrend(series(100, 150))
	if m.TrendMultiplier != 1.5 {
		t.Errorf("TrendMultiplier = %v, want 1.5", m.TrendMultiplier)
	}
	if m.TrendDirection != DirectionRising {
		t.Errorf("TrendDirection = %q, want rising", m.TrendDirection)
	}
	if m.Slope <= 0 {
		t.Errorf("Slope = %v, want > 0", m.Slope)
	}
}

func TestComputeTrend_TwoPointFallClampsLow(t *testing.T) {
	m := ComputeTrend(series(150, 100))
	if m.TrendMultiplier != 0.5 {
		t.Errorf("TrendMultiplier = %v, want 0.5", m.TrendMultiplier)
	}
	if m.TrendDirection != DirectionFalling {
		t.Errorf("TrendDirection = %q, want falling", m.TrendDirection)
	}
}

func TestComputeTrend_RecentSurgeReadsRising(t *testing.T) {
	// Three points switch the slope to MACD momentum. Fast EMA (period 2)
	// reacts to the final 150 much harder than slow EMA (period 3); the
	// histogram lands at 2.7778 against an IQR of 25, multiplier ~1.0556.
	m := ComputeTrend(series(100, 100, 150))
	if m.TrendMultiplier <= 1.05 {
		t.Errorf("TrendMultiplier = %v, want > 1.05", m.TrendMultiplier)
	}
	if m.TrendDirection != DirectionRising {
		t.Errorf("TrendDirection = %q, want rising", m.TrendDirection)
	}
	if m.Slope <= 0 {
		t.Errorf("Slope = %v, want > 0", m.Slope)
	}
}

func TestComputeTrend_VolatilityBands(t *testing.T) {
	// log-returns of 100,110,100,110 give population stdDev ~0.0899,
	// penalty ~1.27: Medium band.
	m := ComputeTrend(series(100, 110, 100, 110))
	if m.Volatility <= 0 {
		t.Fatalf("Volatility = %v, want > 0", m.Volatility)
	}
	if math.Abs(m.VolatilityPenalty-(1+3*m.Volatility)) > 1e-12 {
		t.Errorf("penalty %v should be 1+3*volatility (%v)", m.VolatilityPenalty, 1+3*m.Volatility)
	}
	if m.VolatilityPenalty < 1.15 || m.VolatilityPenalty >= 1.40 {
		t.Errorf("penalty = %v, want within Medium band [1.15,1.40)", m.VolatilityPenalty)
	}
	if m.RiskLevel != RiskMedium {
		t.Errorf("RiskLevel = %q, want Medium", m.RiskLevel)
	}

	// Doubling swings blow past the cap: penalty clamps at 2, High.
	wild := ComputeTrend(series(100, 200, 100, 200))
	if wild.VolatilityPenalty != 2.0 {
		t.Errorf("wild penalty = %v, want clamped 2.0", wild.VolatilityPenalty)
	}
	if wild.RiskLevel != RiskHigh {
		t.Errorf("wild risk = %q, want High", wild.RiskLevel)
	}
}

func TestComputeTrend_DropsGarbagePoints(t *testing.T) {
	points := series(100, 100, 100)
	points = append(points,
		PricePoint{Price: math.NaN(), Timestamp: points[0].Timestamp.Add(time.Hour)},
		PricePoint{Price: math.Inf(1), Timestamp: points[0].Timestamp.Add(2 * time.Hour)},
		PricePoint{Price: 500}, // zero timestamp
	)
	m := ComputeTrend(points)
	if m.DataPoints != 3 {
		t.Errorf("DataPoints = %d, want 3 usable", m.DataPoints)
	}
	if m.Volatility != 0 || m.TrendMultiplier != 1.0 {
		t.Errorf("garbage points leaked into metrics: %+v", m)
	}
}

func TestComputeTrend_OrderIndependent(t *testing.T) {
	ordered := series(100, 105, 95, 120, 110)
	shuffled := []PricePoint{ordered[3], ordered[0], ordered[4], ordered[2], ordered[1]}

	a, b := ComputeTrend(ordered), ComputeTrend(shuffled)
	if a != b {
		t.Errorf("metrics differ on input order:\n  ordered:  %+v\n  shuffled: %+v", a, b)
	}
}

func TestPercentile_Interpolates(t *testing.T) {
	sorted := []float64{10, 20, 30, 40}
	// rank 0.25*3 = 0.75: 10 + 0.75*10 = 17.5
	if got := percentile(sorted, 25); math.Abs(got-17.5) > 1e-9 {
		t.Errorf("P25 = %v, want 17.5", got)
	}
	if got := percentile(sorted, 100); got != 40 {
		t.Errorf("P100 = %v, want 40", got)
	}
	if got := percentile([]float64{7}, 50); got != 7 {
		t.Errorf("single-element P50 = %v, want 7", got)
	}
}

func TestRobustRange_FallsBack(t *testing.T) {
	// IQR of [100,100,100,100,140] is 0; P90-P10 = 24 picks up the spread.
	got := robustRange([]float64{100, 100, 100, 100, 140})
	if math.Abs(got-24) > 1e-9 {
		t.Errorf("robustRange = %v, want 24 from P90-P10 fallback", got)
	}
	// All percentile bands collapse: max-min is the last resort.
	if got := robustRange([]float64{5, 5}); got != 0 {
		t.Errorf("robustRange(flat) = %v, want 0", got)
	}
}

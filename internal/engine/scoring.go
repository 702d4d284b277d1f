package engine

import (
	"math"
	"sort"
)

// ScoreRecords ranks margin records under one strategy and execution mode.
// Records below the strategy's volume threshold are excluded outright rather
// than scored low. Items absent from trends or books score with neutral
// trend and liquidity. The result is sorted by composite score, descending,
// ties keeping input order.
func ScoreRecords(records []MarginRecord, trends map[string]TrendVolatilityMetrics, books map[string]*LiquiditySnapshot, volumes map[string]int, strategy StrategyProfile, mode string) []ScoredRecord {
	scored := make([]ScoredRecord, 0, len(records))
	for _, rec := range records {
		volume := volumes[rec.ItemID]
		if volume < strategy.MinVolumeThreshold {
			continue
		}
		trend, ok := trends[rec.ItemID]
		if !ok {
			trend = ComputeTrend(nil)
		}
		scored = append(scored, scoreOne(rec, trend, books[rec.ItemID], volume, strategy, mode))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
	return scored
}

// scoreOne computes one composite score. Rescoring runs stored records back
// through this same path, so identical inputs reproduce identical scores.
func scoreOne(rec MarginRecord, trend TrendVolatilityMetrics, book *LiquiditySnapshot, volume int, strategy StrategyProfile, mode string) ScoredRecord {
	rec = applyMode(rec, mode)
	liq := ComputeLiquidity(book)

	volumeFactor := 0.1
	if volume > 0 {
		volumeFactor = math.Max(math.Log10(float64(volume)), 0.1)
	}
	rf := roiFactor(rec.Margin, rec.ROIPercent, strategy.ROIWeight)
	adjTrend := 1 + (trend.TrendMultiplier-1)*strategy.TrendWeight
	adjPenalty := 1 + (trend.VolatilityPenalty-1)*strategy.VolatilityWeight

	score := rec.Margin * volumeFactor * rf * adjTrend / adjPenalty * liq.Multiplier

	return ScoredRecord{
		MarginRecord:           rec,
		TrendVolatilityMetrics: trend,
		Liquidity:              liq,
		Book:                   book,
		Volume:                 volume,
		CompositeScore:         sanitizeFloat(score),
		Breakdown: ScoreBreakdown{
			VolumeFactor:        volumeFactor,
			ROIFactor:           rf,
			StrategyROIFactor:   strategyROIFactor(rec.ROIPercent, strategy.ROIWeight),
			AdjustedTrend:       adjTrend,
			AdjustedPenalty:     adjPenalty,
			LiquidityMultiplier: liq.Multiplier,
		},
		Strategy: strategy.Name,
		Mode:     mode,
	}
}

// applyMode mirrors the selected execution variant into the record's
// top-level price fields. The variants themselves are left untouched so a
// stored record can be replayed under the other mode later.
func applyMode(rec MarginRecord, mode string) MarginRecord {
	q := rec.Instant
	if mode == ModePatient {
		q = rec.Patient
	}
	rec.UnitPrice = q.SetPrice
	rec.TotalPartCost = q.TotalPartCost
	rec.Margin = q.Margin
	rec.ROIPercent = q.ROIPercent
	rec.Parts = q.Parts
	return rec
}

// roiFactor scales a score by return on investment without ever flipping
// its sign. For a positive base a healthy ROI amplifies and a weak one
// dampens; for a negative base the adjustment inverts so a deeper loss
// scores worse, never better. Any zero argument leaves the score alone.
func roiFactor(base, roiPercent, weight float64) float64 {
	if base == 0 || roiPercent == 0 || weight == 0 {
		return 1.0
	}
	direction := 1.0
	if base < 0 {
		direction = -1.0
	}
	factor := 1 + direction*(roiPercent/100*weight)
	if factor < 0.1 {
		return 0.1
	}
	return factor
}

// strategyROIFactor is the unguarded linear form reported in breakdowns.
// Unlike roiFactor it can go below 0.1 or negative; it shows how far the
// strategy's ROI weight alone would have pushed the score.
func strategyROIFactor(roiPercent, weight float64) float64 {
	return 1 + (roiPercent/100)*weight
}

// AdditiveScores is the flat scoring formula: margin and volume normalized
// across the batch, weighted, summed. No strategy filtering, no trend, no
// liquidity. Kept for comparing against composite output on the same data.
func AdditiveScores(records []MarginRecord, volumes map[string]int, marginWeight, volumeWeight float64) []ScoredRecord {
	margins := make([]float64, len(records))
	vols := make([]float64, len(records))
	for i, rec := range records {
		margins[i] = rec.Margin
		vols[i] = float64(volumes[rec.ItemID])
	}
	minM, maxM := minMax(margins)
	minV, maxV := minMax(vols)

	scored := make([]ScoredRecord, 0, len(records))
	for i, rec := range records {
		score := normalize(margins[i], minM, maxM)*marginWeight +
			normalize(vols[i], minV, maxV)*volumeWeight
		scored = append(scored, ScoredRecord{
			MarginRecord:           rec,
			TrendVolatilityMetrics: ComputeTrend(nil),
			Liquidity:              ComputeLiquidity(nil),
			Volume:                 volumes[rec.ItemID],
			CompositeScore:         sanitizeFloat(score),
			Mode:                   ModeInstant,
		})
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
	return scored
}

// normalize maps v onto [0,1] within the batch. A batch with no spread
// normalizes to zero for every member, not to a divide-by-zero.
func normalize(v, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return (v - min) / (max - min)
}

func minMax(values []float64) (float64, float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// sanitizeFloat keeps persisted scores JSON-safe.
func sanitizeFloat(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

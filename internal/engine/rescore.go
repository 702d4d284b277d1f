package engine

import "sort"

// Rescore replays stored records under a different strategy or execution
// mode without touching the market. Everything needed was captured at scan
// time: both execution variants, the trend metrics, the order book snapshot
// and the volume. An empty mode keeps each record's own; otherwise the given
// mode applies across the batch. The new strategy's volume threshold is
// enforced again, so a stricter strategy can shrink the result set.
func Rescore(stored []ScoredRecord, strategy StrategyProfile, mode string) []ScoredRecord {
	scored := make([]ScoredRecord, 0, len(stored))
	for _, rec := range stored {
		if rec.Volume < strategy.MinVolumeThreshold {
			continue
		}
		m := rec.Mode
		if mode != "" {
			m = mode
		}
		scored = append(scored, scoreOne(rec.MarginRecord, rec.TrendVolatilityMetrics, rec.Book, rec.Volume, strategy, ParseMode(m)))
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].CompositeScore > scored[j].CompositeScore
	})
	return scored
}

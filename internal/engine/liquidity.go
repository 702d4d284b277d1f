package engine

import "math"

// ComputeLiquidity condenses an order book snapshot into a single score
// multiplier in [0.8, 1.2]. A nil book or one with no depth on either side
// reads as unknown liquidity and multiplies by exactly 1.0.
func ComputeLiquidity(book *LiquiditySnapshot) LiquidityMetrics {
	m := LiquidityMetrics{Multiplier: 1.0}
	if book == nil || (book.BuyDepth == 0 && book.SellDepth == 0) {
		return m
	}

	if book.BestAsk > 0 {
		m.BidAskRatio = clamp(book.BestBid/book.BestAsk, 0, 1.5)
	}
	m.SellSideCompetition = float64(book.SellDepth) / math.Max(float64(book.BuyDepth), 1)
	m.LiquidityVelocity = clamp(m.BidAskRatio/math.Max(m.SellSideCompetition, 0.1), 0, 2)
	m.Multiplier = clamp(0.8+0.2*m.LiquidityVelocity, 0.8, 1.2)
	return m
}

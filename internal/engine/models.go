package engine

import "time"

// PriceObservation is one resolved price fact for an item. Observations are
// ephemeral: produced by the fetch layer, consumed by the margin calculator,
// never stored.
type PriceObservation struct {
	ItemID    string  `json:"item_id"`
	UnitPrice float64 `json:"unit_price"`
}

// PartLine is one row of a margin breakdown.
type PartLine struct {
	PartID    string  `json:"part_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	LineCost  float64 `json:"line_cost"`
}

// ExecutionQuote is one execution-mode rendering of a flip: what the set
// sells for, what the parts cost, and the margin between them.
type ExecutionQuote struct {
	SetPrice      float64    `json:"set_price"`
	TotalPartCost float64    `json:"total_part_cost"`
	Margin        float64    `json:"margin"`
	ROIPercent    float64    `json:"roi_percent"`
	Parts         []PartLine `json:"parts"`
}

// MarginRecord is the margin picture for one set. The top-level price
// fields mirror whichever execution variant is currently selected; both
// variants ride along so the selection can be swapped later without
// refetching.
type MarginRecord struct {
	ItemID        string     `json:"item_id"`
	URLName       string     `json:"url_name"`
	Name          string     `json:"name"`
	UnitPrice     float64    `json:"unit_price"`
	TotalPartCost float64    `json:"total_part_cost"`
	Margin        float64    `json:"margin"`
	ROIPercent    float64    `json:"roi_percent"`
	Parts         []PartLine `json:"part_breakdown"`

	Instant ExecutionQuote `json:"instant"`
	Patient ExecutionQuote `json:"patient"`
}

// PricePoint is one historical trade price.
type PricePoint struct {
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
}

// TrendVolatilityMetrics is the statistical summary of one item's price
// history. Sparse history yields the neutral values, never an error.
type TrendVolatilityMetrics struct {
	Slope             float64 `json:"slope"`
	TrendMultiplier   float64 `json:"trend_multiplier"`
	TrendDirection    string  `json:"trend_direction"`
	Volatility        float64 `json:"volatility"`
	VolatilityPenalty float64 `json:"volatility_penalty"`
	RiskLevel         string  `json:"risk_level"`
	DataPoints        int     `json:"data_points"`
}

// LiquiditySnapshot is the visible order-book state for one item.
type LiquiditySnapshot struct {
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
	BuyDepth  int     `json:"buy_depth"`
	SellDepth int     `json:"sell_depth"`
}

// LiquidityMetrics is the derived view of how quickly a flip should move.
type LiquidityMetrics struct {
	BidAskRatio         float64 `json:"bid_ask_ratio"`
	SellSideCompetition float64 `json:"sell_side_competition"`
	LiquidityVelocity   float64 `json:"liquidity_velocity"`
	Multiplier          float64 `json:"liquidity_multiplier"`
}

// ScoreBreakdown records each factor's contribution to a composite score.
type ScoreBreakdown struct {
	VolumeFactor        float64 `json:"volume_factor"`
	ROIFactor           float64 `json:"roi_factor"`
	StrategyROIFactor   float64 `json:"strategy_roi_factor"`
	AdjustedTrend       float64 `json:"adjusted_trend"`
	AdjustedPenalty     float64 `json:"adjusted_penalty"`
	LiquidityMultiplier float64 `json:"liquidity_multiplier"`
}

// ScoredRecord is one ranked opportunity: margin joined with trend,
// liquidity and volume under a strategy and execution mode.
type ScoredRecord struct {
	MarginRecord
	TrendVolatilityMetrics

	Liquidity      LiquidityMetrics   `json:"liquidity"`
	Book           *LiquiditySnapshot `json:"order_book,omitempty"`
	Volume         int                `json:"volume_48h"`
	CompositeScore float64            `json:"composite_score"`
	Breakdown      ScoreBreakdown     `json:"breakdown"`
	Strategy       string             `json:"strategy"`
	Mode           string             `json:"execution_mode"`
}

package config

import "time"

// Config holds application settings (in-memory representation).
// Persistence is handled by internal/db package.
type Config struct {
	// Outbound request-rate contract for the market API.
	MaxRequests   int     `json:"max_requests"`
	WindowSeconds float64 `json:"window_seconds"`

	// Scoring defaults applied when a request omits them.
	DefaultStrategy string `json:"default_strategy"`
	DefaultMode     string `json:"default_mode"`

	// PriceDepth is how many of the lowest sell offers are averaged into
	// one price fact.
	PriceDepth int `json:"price_depth"`

	// Scan filters.
	MinSetPrice float64 `json:"min_set_price"`
	MaxSets     int     `json:"max_sets"` // 0 = scan the whole catalog

	// Background refresh loop.
	RefreshMinutes int `json:"refresh_minutes"` // 0 = disabled

	HistoryLookbackDays int `json:"history_lookback_days"`

	// Marketplace platform header (pc, ps4, xbox, switch).
	Platform string `json:"platform"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		MaxRequests:         3,
		WindowSeconds:       1,
		DefaultStrategy:     "balanced",
		DefaultMode:         "instant",
		PriceDepth:          5,
		MinSetPrice:         0,
		MaxSets:             0,
		RefreshMinutes:      30,
		HistoryLookbackDays: 30,
		Platform:            "pc",
	}
}

// Window converts WindowSeconds to a duration for the rate limiter.
func (c *Config) Window() time.Duration {
	return time.Duration(c.WindowSeconds * float64(time.Second))
}

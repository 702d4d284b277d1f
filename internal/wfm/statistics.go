package wfm

import (
	"context"
	"net/url"
	"time"
)

// StatEntry is one closed-trade aggregate bucket.
type StatEntry struct {
	DateTime string  `json:"datetime"`
	Volume   int     `json:"volume"`
	AvgPrice float64 `json:"avg_price"`
	Median   float64 `json:"median"`
	MinPrice float64 `json:"min_price"`
	MaxPrice float64 `json:"max_price"`
}

// Time parses the bucket timestamp.
func (e StatEntry) Time() (time.Time, error) {
	return time.Parse(time.RFC3339, e.DateTime)
}

// ItemStats bundles the short- and long-window closed-trade aggregates.
type ItemStats struct {
	Last48h []StatEntry `json:"last_48h"`
	Last90d []StatEntry `json:"last_90d"`
}

// Volume48h sums the trailing 48-hour trade volume into one figure.
func (s ItemStats) Volume48h() int {
	total := 0
	for _, e := range s.Last48h {
		total += e.Volume
	}
	return total
}

// Statistics fetches closed-trade aggregates for one item.
func (c *Client) Statistics(ctx context.Context, urlName string) (ItemStats, error) {
	var out struct {
		Payload struct {
			StatisticsClosed struct {
				Hours48 []StatEntry `json:"48hours"`
				Days90  []StatEntry `json:"90days"`
			} `json:"statistics_closed"`
		} `json:"payload"`
	}
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(urlName)+"/statistics", &out); err != nil {
		return ItemStats{}, err
	}
	return ItemStats{
		Last48h: out.Payload.StatisticsClosed.Hours48,
		Last90d: out.Payload.StatisticsClosed.Days90,
	}, nil
}

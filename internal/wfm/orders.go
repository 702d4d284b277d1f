package wfm

import (
	"context"
	"net/url"
	"sort"
)

// Order is one listing on an item's order board.
type Order struct {
	ID        string  `json:"id"`
	OrderType string  `json:"order_type"` // sell | buy
	Platinum  float64 `json:"platinum"`
	Quantity  int     `json:"quantity"`
	Visible   bool    `json:"visible"`
	User      struct {
		IngameName string `json:"ingame_name"`
		Status     string `json:"status"` // ingame | online | offline
	} `json:"user"`
}

// fillable reports whether the order can be acted on right now: visible,
// positively priced, and its owner reachable in game or online.
func (o Order) fillable() bool {
	return o.Visible && o.Platinum > 0 && (o.User.Status == "ingame" || o.User.Status == "online")
}

// Orders fetches the current order board for one item through the TTL cache.
func (c *Client) Orders(ctx context.Context, urlName string) ([]Order, error) {
	return c.orders.get(ctx, urlName, c.fetchOrders)
}

func (c *Client) fetchOrders(ctx context.Context, urlName string) ([]Order, error) {
	var out struct {
		Payload struct {
			Orders []Order `json:"orders"`
		} `json:"payload"`
	}
	if err := c.getJSON(ctx, "/items/"+url.PathEscape(urlName)+"/orders", &out); err != nil {
		return nil, err
	}
	return out.Payload.Orders, nil
}

// SellPrices returns the unit prices of fillable sell offers, ascending.
func SellPrices(orders []Order) []float64 {
	var prices []float64
	for _, o := range orders {
		if o.OrderType == "sell" && o.fillable() {
			prices = append(prices, o.Platinum)
		}
	}
	sort.Float64s(prices)
	return prices
}

// BuyPrices returns the unit prices of fillable buy offers, descending.
func BuyPrices(orders []Order) []float64 {
	var prices []float64
	for _, o := range orders {
		if o.OrderType == "buy" && o.fillable() {
			prices = append(prices, o.Platinum)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(prices)))
	return prices
}

// OrderBook is the condensed two-sided view of one item's order board.
type OrderBook struct {
	BestBid   float64 `json:"best_bid"`
	BestAsk   float64 `json:"best_ask"`
	BuyDepth  int     `json:"buy_depth"`
	SellDepth int     `json:"sell_depth"`
}

// Book condenses an order list into best prices and per-side depth,
// counting only fillable offers.
func Book(orders []Order) OrderBook {
	var b OrderBook
	for _, o := range orders {
		if !o.fillable() {
			continue
		}
		switch o.OrderType {
		case "sell":
			b.SellDepth++
			if b.BestAsk == 0 || o.Platinum < b.BestAsk {
				b.BestAsk = o.Platinum
			}
		case "buy":
			b.BuyDepth++
			if o.Platinum > b.BestBid {
				b.BestBid = o.Platinum
			}
		}
	}
	return b
}

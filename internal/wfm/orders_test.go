package wfm

import "testing"

func mkOrder(side string, plat float64, status string, visible bool) Order {
	o := Order{OrderType: side, Platinum: plat, Quantity: 1, Visible: visible}
	o.User.Status = status
	return o
}

func TestSellPricesFiltersAndSorts(t *testing.T) {
	orders := []Order{
		mkOrder("sell", 40, "ingame", true),
		mkOrder("sell", 35, "online", true),
		mkOrder("sell", 10, "offline", true), // unreachable seller
		mkOrder("sell", 30, "ingame", false), // hidden listing
		mkOrder("buy", 25, "ingame", true),
	}
	got := SellPrices(orders)
	want := []float64{35, 40}
	if len(got) != len(want) {
		t.Fatalf("SellPrices = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("SellPrices[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestBuyPricesDescending(t *testing.T) {
	orders := []Order{
		mkOrder("buy", 20, "online", true),
		mkOrder("buy", 25, "ingame", true),
		mkOrder("buy", 22, "offline", true),
	}
	got := BuyPrices(orders)
	if len(got) != 2 || got[0] != 25 || got[1] != 20 {
		t.Errorf("BuyPrices = %v, want [25 20]", got)
	}
}

func TestBookCondensesBothSides(t *testing.T) {
	orders := []Order{
		mkOrder("sell", 40, "ingame", true),
		mkOrder("sell", 35, "online", true),
		mkOrder("buy", 25, "ingame", true),
		mkOrder("buy", 20, "online", true),
		mkOrder("buy", 99, "offline", true), // must not set the bid
	}
	b := Book(orders)
	if b.BestAsk != 35 {
		t.Errorf("BestAsk = %v, want 35", b.BestAsk)
	}
	if b.BestBid != 25 {
		t.Errorf("BestBid = %v, want 25", b.BestBid)
	}
	if b.SellDepth != 2 || b.BuyDepth != 2 {
		t.Errorf("depth = %d/%d, want 2/2", b.SellDepth, b.BuyDepth)
	}
}

func TestBookEmptyWhenNothingFillable(t *testing.T) {
	orders := []Order{
		mkOrder("sell", 40, "offline", true),
		mkOrder("buy", 0, "ingame", true),
	}
	b := Book(orders)
	if b != (OrderBook{}) {
		t.Errorf("Book = %+v, want zero value", b)
	}
}

package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"primeflip/internal/catalog"
	"primeflip/internal/wfm"
)

// DefaultPriceDepth is how many orders from the top of the book feed a
// price fact when the caller does not say.
const DefaultPriceDepth = 5

const defaultConcurrency = 8

// MarketSource supplies live order books and trade statistics. The real
// implementation is the rate-limited market client.
type MarketSource interface {
	Orders(ctx context.Context, urlName string) ([]wfm.Order, error)
	Statistics(ctx context.Context, urlName string) (wfm.ItemStats, error)
}

// HistoryStore persists daily price points between scans so trend metrics
// survive statistics outages.
type HistoryStore interface {
	SavePricePoints(itemID string, points []PricePoint) error
	PricePoints(itemID string, lookbackDays int) ([]PricePoint, error)
}

// ScanParams selects what a scan covers and how it is ranked.
type ScanParams struct {
	Strategy    string  `json:"strategy"`
	Mode        string  `json:"mode"`
	MaxSets     int     `json:"max_sets"`
	MinSetPrice float64 `json:"min_set_price"`
}

// ScanResult is one completed scan, ready to persist and serve.
type ScanResult struct {
	RunID    string         `json:"run_id"`
	Strategy string         `json:"strategy"`
	Mode     string         `json:"mode"`
	Records  []ScoredRecord `json:"records"`
	Started  time.Time      `json:"started"`
	Duration time.Duration  `json:"duration"`
}

// Analyzer orchestrates market scans over the set catalog.
type Analyzer struct {
	Market       MarketSource
	Catalog      *catalog.Catalog
	Strategies   *StrategyTable
	History      HistoryStore // optional
	Depth        int
	LookbackDays int
	Concurrency  int
}

// NewAnalyzer creates an Analyzer with default depth and concurrency.
func NewAnalyzer(market MarketSource, cat *catalog.Catalog, strategies *StrategyTable) *Analyzer {
	return &Analyzer{
		Market:      market,
		Catalog:     cat,
		Strategies:  strategies,
		Depth:       DefaultPriceDepth,
		Concurrency: defaultConcurrency,
	}
}

// setMarket is everything one set contributes to a scan.
type setMarket struct {
	def      catalog.SetDefinition
	setAsk   PriceObservation
	partAsks []PriceObservation
	partBids []PriceObservation
	book     *LiquiditySnapshot
	volume   int
	points   []PricePoint
}

// Run scans the catalog under the given parameters. Individual items that
// fail to price are logged and dropped; the scan itself only fails on an
// unknown strategy or a dead context.
func (a *Analyzer) Run(ctx context.Context, params ScanParams, progress func(string)) (*ScanResult, error) {
	if progress == nil {
		progress = func(string) {}
	}
	strategy, err := a.Strategies.Get(params.Strategy)
	if err != nil {
		return nil, err
	}
	mode := ParseMode(params.Mode)
	started := time.Now()

	sets := a.Catalog.Sets
	if params.MaxSets > 0 && len(sets) > params.MaxSets {
		sets = sets[:params.MaxSets]
	}
	progress(fmt.Sprintf("Pricing %d sets...", len(sets)))

	var mu sync.Mutex
	var markets []setMarket

	g, gctx := errgroup.WithContext(ctx)
	concurrency := a.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	g.SetLimit(concurrency)

	for _, def := range sets {
		g.Go(func() error {
			sm, err := a.collectSet(gctx, def, params.MinSetPrice)
			if err != nil {
				return err
			}
			if sm == nil {
				return nil
			}
			mu.Lock()
			markets = append(markets, *sm)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	progress("Calculating margins...")
	var (
		setAsks  []PriceObservation
		partAsks []PriceObservation
		partBids []PriceObservation
		defs     []catalog.SetDefinition
		trends   = make(map[string]TrendVolatilityMetrics, len(markets))
		books    = make(map[string]*LiquiditySnapshot, len(markets))
		volumes  = make(map[string]int, len(markets))
	)
	for _, sm := range markets {
		defs = append(defs, sm.def)
		setAsks = append(setAsks, sm.setAsk)
		partAsks = append(partAsks, sm.partAsks...)
		partBids = append(partBids, sm.partBids...)
		trends[sm.def.SetID] = ComputeTrend(sm.points)
		books[sm.def.SetID] = sm.book
		volumes[sm.def.SetID] = sm.volume
	}

	records := ComputeMarginsWithBids(setAsks, partAsks, partBids, defs)
	scored := ScoreRecords(records, trends, books, volumes, strategy, mode)

	progress(fmt.Sprintf("Found %d opportunities", len(scored)))
	return &ScanResult{
		RunID:    uuid.NewString(),
		Strategy: strategy.Name,
		Mode:     mode,
		Records:  scored,
		Started:  started,
		Duration: time.Since(started),
	}, nil
}

// collectSet fetches one set's order book, statistics and part prices.
// Returns nil when the set cannot be priced; only context death is an error.
func (a *Analyzer) collectSet(ctx context.Context, def catalog.SetDefinition, minSetPrice float64) (*setMarket, error) {
	orders, err := a.Market.Orders(ctx, def.URLName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Err(err).Str("set", def.Name).Msg("set orders unavailable")
		return nil, nil
	}

	depth := a.Depth
	if depth <= 0 {
		depth = DefaultPriceDepth
	}
	ask := priceFact(wfm.SellPrices(orders), depth)
	if ask <= 0 {
		log.Debug().Str("set", def.Name).Msg("no visible sell side for set")
		return nil, nil
	}
	if minSetPrice > 0 && ask < minSetPrice {
		return nil, nil
	}

	book := wfm.Book(orders)
	sm := &setMarket{
		def:    def,
		setAsk: PriceObservation{ItemID: def.SetID, UnitPrice: ask},
		book: &LiquiditySnapshot{
			BestBid:   book.BestBid,
			BestAsk:   book.BestAsk,
			BuyDepth:  book.BuyDepth,
			SellDepth: book.SellDepth,
		},
	}

	stats, err := a.Market.Statistics(ctx, def.URLName)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Debug().Err(err).Str("set", def.Name).Msg("statistics unavailable, using stored history")
		sm.points = a.storedPoints(def.SetID)
	} else {
		sm.volume = stats.Volume48h()
		sm.points = pricePoints(stats, a.LookbackDays)
		if a.History != nil && len(sm.points) > 0 {
			if err := a.History.SavePricePoints(def.SetID, sm.points); err != nil {
				log.Debug().Err(err).Str("set", def.Name).Msg("price history not saved")
			}
		}
	}

	for _, part := range def.Parts {
		partOrders, err := a.Market.Orders(ctx, part.URLName)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Debug().Err(err).Str("part", part.Name).Msg("part orders unavailable")
			continue
		}
		if p := priceFact(wfm.SellPrices(partOrders), depth); p > 0 {
			sm.partAsks = append(sm.partAsks, PriceObservation{ItemID: part.PartID, UnitPrice: p})
		}
		if p := priceFact(wfm.BuyPrices(partOrders), depth); p > 0 {
			sm.partBids = append(sm.partBids, PriceObservation{ItemID: part.PartID, UnitPrice: p})
		}
	}
	return sm, nil
}

func (a *Analyzer) storedPoints(itemID string) []PricePoint {
	if a.History == nil {
		return nil
	}
	points, err := a.History.PricePoints(itemID, a.LookbackDays)
	if err != nil {
		log.Debug().Err(err).Str("item", itemID).Msg("stored history unavailable")
		return nil
	}
	return points
}

// priceFact averages the top of a sorted price ladder. Asks arrive
// ascending and bids descending, so the first entries are the competitive
// side of the book either way.
func priceFact(sorted []float64, depth int) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if depth > len(sorted) {
		depth = len(sorted)
	}
	var sum float64
	for _, p := range sorted[:depth] {
		sum += p
	}
	return sum / float64(depth)
}

// pricePoints converts daily trade statistics into trend input, newest
// window only.
func pricePoints(stats wfm.ItemStats, lookbackDays int) []PricePoint {
	var cutoff time.Time
	if lookbackDays > 0 {
		cutoff = time.Now().AddDate(0, 0, -lookbackDays)
	}
	points := make([]PricePoint, 0, len(stats.Last90d))
	for _, entry := range stats.Last90d {
		t, err := entry.Time()
		if err != nil || entry.AvgPrice <= 0 {
			continue
		}
		if !cutoff.IsZero() && t.Before(cutoff) {
			continue
		}
		points = append(points, PricePoint{Price: entry.AvgPrice, Timestamp: t})
	}
	return points
}

package engine

import (
	"strings"

	"github.com/rs/zerolog/log"

	"primeflip/internal/catalog"
)

// ComputeMargins prices every set definition against ask-side observations
// only. Both execution variants come out identical since no bid facts exist.
func ComputeMargins(setPrices, partPrices []PriceObservation, defs []catalog.SetDefinition) []MarginRecord {
	return ComputeMarginsWithBids(setPrices, partPrices, nil, defs)
}

// ComputeMarginsWithBids prices every set definition against the given
// observations. setAsks and partAsks feed the instant variant (buy parts at
// visible asks, sell the set at its ask); partBids feed the patient variant
// (rest buy orders at the bid, falling back per part to the ask where no bid
// exists). A set with no ask price, or with any part missing from partAsks,
// produces no record. Missing data is a gap, never a zero.
func ComputeMarginsWithBids(setAsks, partAsks, partBids []PriceObservation, defs []catalog.SetDefinition) []MarginRecord {
	setPrice := priceIndex(setAsks)
	askPrice := priceIndex(partAsks)
	bidPrice := priceIndex(partBids)

	records := make([]MarginRecord, 0, len(defs))
	for _, def := range defs {
		price, ok := setPrice[def.SetID]
		if !ok {
			continue
		}

		instant, missing := quoteParts(def, price, askPrice, nil)
		if len(missing) > 0 {
			log.Debug().
				Str("set", def.Name).
				Str("missing", strings.Join(missing, ", ")).
				Msg("skipping set with unpriced parts")
			continue
		}
		if instant.TotalPartCost <= 0 {
			continue
		}

		patient, _ := quoteParts(def, price, askPrice, bidPrice)

		records = append(records, MarginRecord{
			ItemID:        def.SetID,
			URLName:       def.URLName,
			Name:          def.Name,
			UnitPrice:     instant.SetPrice,
			TotalPartCost: instant.TotalPartCost,
			Margin:        instant.Margin,
			ROIPercent:    instant.ROIPercent,
			Parts:         instant.Parts,
			Instant:       instant,
			Patient:       patient,
		})
	}
	return records
}

// quoteParts builds one execution variant for a set. When bids is non-nil
// each part prefers its bid and falls back to its ask; otherwise asks apply
// throughout. Returns the names of parts priced by neither side.
func quoteParts(def catalog.SetDefinition, setPrice float64, asks, bids map[string]float64) (ExecutionQuote, []string) {
	q := ExecutionQuote{
		SetPrice: setPrice,
		Parts:    make([]PartLine, 0, len(def.Parts)),
	}
	var missing []string
	for _, part := range def.Parts {
		unit, ok := 0.0, false
		if bids != nil {
			unit, ok = bids[part.PartID]
		}
		if !ok {
			unit, ok = asks[part.PartID]
		}
		if !ok {
			missing = append(missing, part.Name)
			continue
		}
		line := PartLine{
			PartID:    part.PartID,
			Name:      part.Name,
			UnitPrice: unit,
			Quantity:  part.Quantity,
			LineCost:  unit * float64(part.Quantity),
		}
		q.Parts = append(q.Parts, line)
		q.TotalPartCost += line.LineCost
	}
	if len(missing) > 0 {
		return ExecutionQuote{}, missing
	}
	q.Margin = q.SetPrice - q.TotalPartCost
	if q.TotalPartCost > 0 {
		q.ROIPercent = q.Margin / q.TotalPartCost * 100
	}
	return q, nil
}

// priceIndex keeps the positive observations only. A zero or negative price
// is indistinguishable from absent data upstream, so it is treated as such.
func priceIndex(obs []PriceObservation) map[string]float64 {
	idx := make(map[string]float64, len(obs))
	for _, o := range obs {
		if o.UnitPrice > 0 {
			idx[o.ItemID] = o.UnitPrice
		}
	}
	return idx
}

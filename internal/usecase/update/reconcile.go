package update

import (
	"github.com/v01dsy/azurewrath/internal/domain/items"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

// Reconcile merges the current observations with the last known RAP per item
// and decides which items produce rows this cycle. Items without an
// observation, or with no price figure at all, are dropped (missing data,
// not an error).
//
// Price derivation: collectibles with resale data track the resale figures,
// preferring the lowest resale as the displayed price and falling back to
// the RAP; everything else uses the catalog price for both. The RAP series
// is always the one compared across cycles, even when a raw catalog price
// is what gets displayed.
//
// RapChanged requires a RAP on both sides: the first observation of an item
// never counts as a change.
func Reconcile(catalog []items.Item, obs map[string]prices.Observation, prevRaps map[string]float64) []prices.Result {
	out := make([]prices.Result, 0, len(catalog))

	for _, it := range catalog {
		o, ok := obs[it.AssetID]
		if !ok {
			continue
		}

		var price, rap, lowest *float64
		if o.Collectible && (o.Rap != nil || o.LowestResale != nil) {
			rap = o.Rap
			lowest = o.LowestResale
			if lowest != nil {
				price = lowest
			} else {
				price = rap
			}
		} else {
			price = o.Price
			rap = o.Rap
			lowest = o.LowestResale
			if rap == nil {
				// no distinct reference figure from the source: the
				// catalog price doubles as the RAP
				rap = o.Price
			}
		}

		if price == nil && rap == nil {
			continue
		}
		if price == nil {
			price = rap
		}

		changed := false
		if rap != nil {
			if prev, had := prevRaps[it.ID]; had && *rap != prev {
				changed = true
			}
		}

		out = append(out, prices.Result{
			ItemID:       it.ID,
			Name:         it.Name,
			Price:        price,
			Rap:          rap,
			LowestResale: lowest,
			RapChanged:   changed,
		})
	}
	return out
}

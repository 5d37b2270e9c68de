package prices

import "time"

// Observation is one source's best-effort view of an item for the current
// cycle, keyed by asset id. Fields are nil when the source had no figure.
type Observation struct {
	AssetID      string
	Price        *float64 // current catalog/ask price
	Rap          *float64 // recent average price (the tracked reference)
	LowestResale *float64
	Collectible  bool // item has a resale market with its own id
}

// Result is the per-item outcome of reconciling an observation against the
// last persisted RAP. One Result yields at most one snapshot row and, when
// RapChanged, one synthetic sale row.
type Result struct {
	ItemID       string
	Name         string
	Price        *float64
	Rap          *float64
	LowestResale *float64
	RapChanged   bool
}

// Snapshot mirrors a "PriceHistory" row. Append-only.
type Snapshot struct {
	ID           string
	ItemID       string
	Price        *float64
	Rap          *float64
	LowestResale *float64
	SalesVolume  *float64 // always nil for rows written by the worker
	Timestamp    time.Time
}

// Sale mirrors a "Sale" row. Rows written by the worker are synthetic:
// they record "RAP moved", not an observed trade, so the trade-level
// columns stay null.
type Sale struct {
	ID             string
	ItemID         string
	SalePrice      float64
	SellerUsername *string
	BuyerUsername  *string
	SerialNumber   *int64
	SaleDate       time.Time
}

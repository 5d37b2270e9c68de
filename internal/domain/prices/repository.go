package prices

import (
	"context"
	"time"
)

// HistoryRepo is the worker's write path to price history.
type HistoryRepo interface {
	// LatestRaps returns, per item id, the RAP of that item's most recent
	// snapshot. Items with no snapshot, or whose latest snapshot has a null
	// RAP, are absent from the map.
	LatestRaps(ctx context.Context) (map[string]float64, error)

	// Persist appends one snapshot per result with a usable price and one
	// sale per result whose RAP changed, all inside a single transaction.
	// cycleTime stamps every row from this cycle.
	Persist(ctx context.Context, results []Result, cycleTime time.Time) (snapshots, sales int, err error)
}

// ItemDetail is an item joined with its latest snapshot, for the read API.
type ItemDetail struct {
	ID           string
	AssetID      string
	Name         string
	Price        *float64
	Rap          *float64
	LowestResale *float64
	LastUpdated  *time.Time
}

// QueryRepo serves the read-only HTTP surface. Lookups accept either the
// internal item id or the Roblox asset id.
type QueryRepo interface {
	ListItems(ctx context.Context) ([]ItemDetail, error)
	GetItem(ctx context.Context, idOrAssetID string) (ItemDetail, error)
	History(ctx context.Context, idOrAssetID string, limit int) ([]Snapshot, error)
	Sales(ctx context.Context, idOrAssetID string) ([]Sale, error)
}

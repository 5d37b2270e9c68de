package update

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/v01dsy/azurewrath/internal/domain/items"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

// Cycle drives one full fetch-reconcile-persist pass over the catalog.
type Cycle struct {
	Catalog items.Repo
	History prices.HistoryRepo
	Source  prices.Source
	Logger  *slog.Logger
}

type Summary struct {
	Items     int
	Observed  int
	Results   int
	Snapshots int
	Sales     int
	Elapsed   time.Duration
}

func (s Summary) String() string {
	return fmt.Sprintf("items=%d observed=%d results=%d snapshots=%d sales=%d elapsed=%s",
		s.Items, s.Observed, s.Results, s.Snapshots, s.Sales, s.Elapsed.Truncate(time.Millisecond))
}

func (c *Cycle) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Run executes one cycle. All database work is front-loaded (catalog + latest
// RAPs) and then the connection goes back to the pool before the slow fetch;
// the pool is touched again only for the final transactional persist. An
// empty catalog, an empty fetch, or zero reconciled results end the cycle as
// a no-op; only store failures are returned as errors.
func (c *Cycle) Run(ctx context.Context) (Summary, error) {
	started := time.Now()
	sum := Summary{}
	l := c.log().With("source", c.Source.Name())

	catalog, err := c.Catalog.LoadItems(ctx)
	if err != nil {
		return sum, fmt.Errorf("load items: %w", err)
	}
	sum.Items = len(catalog)
	if len(catalog) == 0 {
		l.Warn("no items tracked, skipping cycle")
		sum.Elapsed = time.Since(started)
		return sum, nil
	}

	prevRaps, err := c.History.LatestRaps(ctx)
	if err != nil {
		return sum, fmt.Errorf("load latest raps: %w", err)
	}

	assetIDs := make([]string, 0, len(catalog))
	for _, it := range catalog {
		assetIDs = append(assetIDs, it.AssetID)
	}

	// No pooled connection is held across this call; it can take tens of
	// seconds under rate limiting.
	obs, err := c.Source.FetchPrices(ctx, assetIDs)
	if err != nil {
		l.Warn("fetch produced nothing", "err", err)
	}
	sum.Observed = len(obs)

	results := Reconcile(catalog, obs, prevRaps)
	sum.Results = len(results)
	if len(results) == 0 {
		l.Info("no usable observations this cycle")
		sum.Elapsed = time.Since(started)
		return sum, nil
	}

	snaps, sales, err := c.History.Persist(ctx, results, started)
	if err != nil {
		return sum, fmt.Errorf("persist: %w", err)
	}
	sum.Snapshots = snaps
	sum.Sales = sales
	sum.Elapsed = time.Since(started)

	l.Info("cycle done", "summary", sum.String())
	return sum, nil
}

package prices

import "context"

// Source fetches current price data for a set of asset ids. Implementations
// degrade rather than fail: a rate-limited or partially broken upstream
// yields a smaller map, never an aborted cycle. A non-nil error means the
// source produced nothing at all this cycle.
type Source interface {
	Name() string
	FetchPrices(ctx context.Context, assetIDs []string) (map[string]Observation, error)
}

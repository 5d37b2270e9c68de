// Package detailapi fetches prices one item at a time: an item-details GET
// followed by a resale-data GET keyed by the collectible id the first call
// returned. Requests run across a bounded worker pool, so one slow or broken
// item never stalls the rest.
package detailapi

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/common"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

const (
	defaultCatalogBase = "https://catalog.roblox.com"
	defaultSalesBase   = "https://apis.roblox.com"

	DefaultConcurrency = 10
)

type Client struct {
	catalog *common.Client
	sales   *common.Client

	Concurrency int
	Logger      *slog.Logger
}

func New(headers map[string]string, concurrency int) *Client {
	cl := NewWithBaseURLs(defaultCatalogBase, defaultSalesBase)
	cl.catalog.Headers = headers
	cl.sales.Headers = headers
	if concurrency > 0 {
		cl.Concurrency = concurrency
	}
	return cl
}

func NewWithBaseURLs(catalogBase, salesBase string) *Client {
	opts := common.DefaultOptionsFromEnv()
	return &Client{
		catalog:     common.NewWith(catalogBase, opts, nil),
		sales:       common.NewWith(salesBase, opts, nil),
		Concurrency: DefaultConcurrency,
	}
}

func (cl *Client) Name() string { return "detail" }

func (cl *Client) log() *slog.Logger {
	if cl.Logger != nil {
		return cl.Logger
	}
	return slog.Default()
}

type detailResponse struct {
	ID                int64    `json:"id"`
	Price             *float64 `json:"price"`
	CollectibleItemID string   `json:"collectibleItemId"`
}

type resaleResponse struct {
	RecentAveragePrice *float64 `json:"recentAveragePrice"`
	LowestResalePrice  *float64 `json:"lowestResalePrice"`
}

// FetchPrices fans the ids out over the pool and collects observations as
// they complete. Per-item failures just leave that id out of the map.
func (cl *Client) FetchPrices(ctx context.Context, assetIDs []string) (map[string]prices.Observation, error) {
	workers := cl.Concurrency
	if workers <= 0 {
		workers = DefaultConcurrency
	}
	if workers > len(assetIDs) {
		workers = len(assetIDs)
	}

	jobs := make(chan string)
	results := make(chan prices.Observation, len(assetIDs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if o, ok := cl.fetchOne(ctx, id); ok {
					results <- o
				}
			}
		}()
	}

	for _, id := range assetIDs {
		select {
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			close(results)
			return drain(results), ctx.Err()
		case jobs <- id:
		}
	}
	close(jobs)
	wg.Wait()
	close(results)

	return drain(results), nil
}

func drain(results chan prices.Observation) map[string]prices.Observation {
	out := make(map[string]prices.Observation, len(results))
	for o := range results {
		out[o.AssetID] = o
	}
	return out
}

// fetchOne runs the two chained requests for a single item. Either request
// failing means no observation for this item only.
func (cl *Client) fetchOne(ctx context.Context, assetID string) (prices.Observation, bool) {
	if _, err := strconv.ParseInt(assetID, 10, 64); err != nil {
		return prices.Observation{}, false
	}

	var d detailResponse
	if err := cl.catalog.GetJSON(ctx, "/v1/catalog/items/"+assetID+"/details", map[string]string{"itemType": "Asset"}, &d); err != nil {
		cl.log().Debug("item details failed", "asset", assetID, "err", err)
		return prices.Observation{}, false
	}

	o := prices.Observation{
		AssetID:     assetID,
		Price:       d.Price,
		Collectible: d.CollectibleItemID != "",
	}
	if d.CollectibleItemID == "" {
		return o, true
	}

	var r resaleResponse
	if err := cl.sales.GetJSON(ctx, "/marketplace-sales/v1/item/"+d.CollectibleItemID+"/resale-data", nil, &r); err != nil {
		cl.log().Debug("resale details failed", "asset", assetID, "err", err)
		return prices.Observation{}, false
	}
	o.Rap = r.RecentAveragePrice
	o.LowestResale = r.LowestResalePrice
	return o, true
}

var _ prices.Source = (*Client)(nil)

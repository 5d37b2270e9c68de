// Package catalogapi fetches prices through the Roblox catalog batch
// endpoint: up to 120 items per POST, then one resale-data GET per
// collectible discovered by the batch pass. The resale pass dominates cycle
// latency on catalogs with many collectibles.
package catalogapi

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/v01dsy/azurewrath/internal/adapter/gateway/source/common"
	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

const (
	defaultCatalogBase = "https://catalog.roblox.com"
	defaultSalesBase   = "https://apis.roblox.com"

	// ChunkSize is the catalog API's documented per-request maximum.
	ChunkSize = 120
)

type Client struct {
	catalog *common.Client
	sales   *common.Client

	ChunkDelay  time.Duration // between batch requests
	ResaleDelay time.Duration // between per-collectible requests
	Cooldown    time.Duration // pause after a 429 before the single retry

	Logger *slog.Logger
}

func New(headers map[string]string) *Client {
	return newWith(defaultCatalogBase, defaultSalesBase, headers)
}

func NewWithBaseURLs(catalogBase, salesBase string) *Client {
	return newWith(catalogBase, salesBase, nil)
}

func newWith(catalogBase, salesBase string, headers map[string]string) *Client {
	opts := common.DefaultOptionsFromEnv()
	return &Client{
		catalog:     common.NewWith(catalogBase, opts, headers),
		sales:       common.NewWith(salesBase, opts, headers),
		ChunkDelay:  500 * time.Millisecond,
		ResaleDelay: 100 * time.Millisecond,
		Cooldown:    60 * time.Second,
	}
}

func (cl *Client) Name() string { return "catalog" }

func (cl *Client) log() *slog.Logger {
	if cl.Logger != nil {
		return cl.Logger
	}
	return slog.Default()
}

type batchRequest struct {
	Items []batchRequestItem `json:"items"`
}

type batchRequestItem struct {
	ItemType string `json:"itemType"`
	ID       int64  `json:"id"`
}

type batchResponse struct {
	Data []struct {
		ID                int64    `json:"id"`
		Price             *float64 `json:"price"`
		CollectibleItemID string   `json:"collectibleItemId"`
	} `json:"data"`
}

type resaleResponse struct {
	RecentAveragePrice *float64 `json:"recentAveragePrice"`
	LowestResalePrice  *float64 `json:"lowestResalePrice"`
}

// FetchPrices runs the two passes. Chunk failures and per-collectible resale
// failures shrink the result instead of aborting it; the only returned error
// is context cancellation.
func (cl *Client) FetchPrices(ctx context.Context, assetIDs []string) (map[string]prices.Observation, error) {
	out := make(map[string]prices.Observation, len(assetIDs))
	collectibleIDs := make(map[string]string) // asset id -> collectible item id

	for start := 0; start < len(assetIDs); start += ChunkSize {
		end := min(start+ChunkSize, len(assetIDs))
		if err := cl.fetchChunk(ctx, assetIDs[start:end], out, collectibleIDs); err != nil {
			return out, err
		}
		if end < len(assetIDs) {
			if err := common.Sleep(ctx, cl.ChunkDelay); err != nil {
				return out, err
			}
		}
	}

	// second pass, catalog order, collectibles only
	for _, assetID := range assetIDs {
		cid, ok := collectibleIDs[assetID]
		if !ok {
			continue
		}
		if err := cl.fetchResale(ctx, assetID, cid, out); err != nil {
			return out, err
		}
	}
	return out, nil
}

func (cl *Client) fetchChunk(ctx context.Context, chunk []string, out map[string]prices.Observation, collectibleIDs map[string]string) error {
	req := batchRequest{Items: make([]batchRequestItem, 0, len(chunk))}
	for _, id := range chunk {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		req.Items = append(req.Items, batchRequestItem{ItemType: "Asset", ID: n})
	}
	if len(req.Items) == 0 {
		return nil
	}

	var v batchResponse
	err := cl.catalog.PostJSON(ctx, "/v1/catalog/items/details", req, &v)
	if errors.Is(err, common.ErrRateLimited) {
		cl.log().Warn("rate limited on catalog chunk, cooling down", "wait", cl.Cooldown)
		if serr := common.Sleep(ctx, cl.Cooldown); serr != nil {
			return serr
		}
		err = cl.catalog.PostJSON(ctx, "/v1/catalog/items/details", req, &v)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// skip this chunk; its items are simply absent from the result
		cl.log().Warn("catalog chunk failed", "size", len(chunk), "err", err)
		return nil
	}

	for _, d := range v.Data {
		id := strconv.FormatInt(d.ID, 10)
		out[id] = prices.Observation{
			AssetID:     id,
			Price:       d.Price,
			Collectible: d.CollectibleItemID != "",
		}
		if d.CollectibleItemID != "" {
			collectibleIDs[id] = d.CollectibleItemID
		}
	}
	return nil
}

func (cl *Client) fetchResale(ctx context.Context, assetID, collectibleID string, out map[string]prices.Observation) error {
	if err := common.Sleep(ctx, cl.ResaleDelay); err != nil {
		return err
	}

	var v resaleResponse
	path := "/marketplace-sales/v1/item/" + collectibleID + "/resale-data"
	err := cl.sales.GetJSON(ctx, path, nil, &v)
	if errors.Is(err, common.ErrRateLimited) {
		cl.log().Warn("rate limited on resale data, cooling down", "wait", cl.Cooldown)
		if serr := common.Sleep(ctx, cl.Cooldown); serr != nil {
			return serr
		}
		err = cl.sales.GetJSON(ctx, path, nil, &v)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// the observation keeps its catalog figures
		cl.log().Warn("resale fetch failed", "asset", assetID, "err", err)
		return nil
	}

	o := out[assetID]
	o.Rap = v.RecentAveragePrice
	o.LowestResale = v.LowestResalePrice
	out[assetID] = o
	return nil
}

var _ prices.Source = (*Client)(nil)

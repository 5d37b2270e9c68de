// Package rolimons scrapes the aggregated item table page. One GET covers
// the whole catalog, at the cost of per-item freshness: the page embeds a
// script block mapping asset id to a positional value array, of which only
// the first few offsets matter here. The offsets are a versioned contract
// with the page; a format change shows up in this package and nowhere else.
package rolimons

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/v01dsy/azurewrath/internal/domain/prices"
)

const defaultBase = "https://www.rolimons.com"

// positional offsets inside an item_details value array
const (
	offName     = 0
	offBest     = 1
	offValue    = 2
	arrayMinLen = 3
)

var detailsRe = regexp.MustCompile(`(?s)item_details\s*=\s*(\{.*?\})\s*;`)

type Client struct {
	r      *resty.Client
	Path   string
	Logger *slog.Logger
}

func New() *Client { return NewWithBaseURL(defaultBase) }

func NewWithBaseURL(base string) *Client {
	r := resty.New().
		SetBaseURL(base).
		SetTimeout(30 * time.Second).
		SetHeader("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	return &Client{r: r, Path: "/itemtable"}
}

func (cl *Client) Name() string { return "rolimons" }

func (cl *Client) log() *slog.Logger {
	if cl.Logger != nil {
		return cl.Logger
	}
	return slog.Default()
}

// FetchPrices issues the single page request. Any network or parse failure
// yields an empty map, not an error; there is no per-item recovery path in
// this strategy.
func (cl *Client) FetchPrices(ctx context.Context, assetIDs []string) (map[string]prices.Observation, error) {
	out := map[string]prices.Observation{}

	resp, err := cl.r.R().SetContext(ctx).Get(cl.Path)
	if err != nil {
		if ctx.Err() != nil {
			return out, ctx.Err()
		}
		cl.log().Warn("item table fetch failed", "err", err)
		return out, nil
	}
	if resp.StatusCode() != 200 {
		cl.log().Warn("item table fetch failed", "status", resp.StatusCode())
		return out, nil
	}

	details, ok := extractDetails(resp.String())
	if !ok {
		cl.log().Warn("item table page had no parsable data block")
		return out, nil
	}

	for _, id := range assetIDs {
		arr, ok := details[id]
		if !ok || len(arr) < arrayMinLen {
			continue
		}
		o := prices.Observation{AssetID: id}
		o.Price = numberAt(arr, offBest)
		o.Rap = numberAt(arr, offValue)
		if o.Price == nil && o.Rap == nil {
			continue
		}
		out[id] = o
	}
	return out, nil
}

func extractDetails(body string) (map[string][]any, bool) {
	m := detailsRe.FindStringSubmatch(body)
	if m == nil {
		return nil, false
	}
	var details map[string][]any
	if err := json.Unmarshal([]byte(m[1]), &details); err != nil {
		return nil, false
	}
	return details, true
}

// numberAt reads a positional numeric field. The page uses negative
// sentinels for "no data", so those count as absent too.
func numberAt(arr []any, i int) *float64 {
	if i >= len(arr) {
		return nil
	}
	n, ok := arr[i].(float64)
	if !ok || n < 0 {
		return nil
	}
	return &n
}

var _ prices.Source = (*Client)(nil)

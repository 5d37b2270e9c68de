package detailapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	cl "github.com/v01dsy/azurewrath/internal/adapter/gateway/source/detailapi"
)

func assetFromPath(p string) string {
	// /v1/catalog/items/{id}/details
	parts := strings.Split(strings.Trim(p, "/"), "/")
	return parts[len(parts)-2]
}

func TestFetchPrices_ParallelPerItem(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := assetFromPath(r.URL.Path)
		switch id {
		case "1":
			json.NewEncoder(w).Encode(map[string]any{"id": 1, "price": 25.0})
		case "2":
			json.NewEncoder(w).Encode(map[string]any{"id": 2, "collectibleItemId": "col-2"})
		case "3":
			w.WriteHeader(http.StatusNotFound)
		default:
			t.Errorf("unexpected asset id %q", id)
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer catalog.Close()

	sales := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "col-2") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"recentAveragePrice": 150.0,
			"lowestResalePrice":  120.0,
		})
	}))
	defer sales.Close()

	c := cl.NewWithBaseURLs(catalog.URL, sales.URL)
	c.Concurrency = 2

	out, err := c.FetchPrices(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("FetchPrices err: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d observations, want 2 (failed item dropped)", len(out))
	}
	if o := out["1"]; o.Price == nil || *o.Price != 25 || o.Collectible {
		t.Fatalf("bad plain observation: %+v", o)
	}
	o := out["2"]
	if !o.Collectible || o.Rap == nil || *o.Rap != 150 || o.LowestResale == nil || *o.LowestResale != 120 {
		t.Fatalf("bad collectible observation: %+v", o)
	}
	if _, ok := out["3"]; ok {
		t.Fatal("failed item must yield no observation")
	}
}

func TestFetchPrices_ResaleFailureDropsThatItemOnly(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := assetFromPath(r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"collectibleItemId": "col-" + id})
	}))
	defer catalog.Close()

	sales := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.Path, "col-2") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"recentAveragePrice": 99.0})
	}))
	defer sales.Close()

	c := cl.NewWithBaseURLs(catalog.URL, sales.URL)
	out, err := c.FetchPrices(context.Background(), []string{"1", "2", "3"})
	if err != nil {
		t.Fatalf("FetchPrices err: %v", err)
	}

	if len(out) != 2 {
		t.Fatalf("got %d observations, want 2", len(out))
	}
	if _, ok := out["2"]; ok {
		t.Fatal("chained-request failure must drop the whole item")
	}
}

func TestFetchPrices_NoIDs(t *testing.T) {
	c := cl.NewWithBaseURLs("http://127.0.0.1:0", "http://127.0.0.1:0")
	out, err := c.FetchPrices(context.Background(), nil)
	if err != nil {
		t.Fatalf("FetchPrices err: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("got %d observations, want 0", len(out))
	}
}

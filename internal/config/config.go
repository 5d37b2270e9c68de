package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Source strategy names accepted in PRICE_SOURCE.
const (
	SourceCatalog  = "catalog"
	SourceDetail   = "detail"
	SourceRolimons = "rolimons"
)

type Config struct {
	DatabaseURL string
	Port        string

	Interval    time.Duration // between cycles
	PriceSource string        // catalog | detail | rolimons
	Concurrency int           // detail strategy worker count

	// Optional Roblox auth; some catalog endpoints reject anonymous calls.
	BoundAuthToken string
	Cookie         string
}

func Load() Config {
	return Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		Port:           getenv("PORT", "8080"),
		Interval:       time.Duration(getint("WORKER_INTERVAL_SECONDS", 120)) * time.Second,
		PriceSource:    strings.ToLower(getenv("PRICE_SOURCE", SourceCatalog)),
		Concurrency:    getint("FETCH_CONCURRENCY", 10),
		BoundAuthToken: os.Getenv("ROBLOX_BOUND_AUTH_TOKEN"),
		Cookie:         os.Getenv("ROBLOX_COOKIE"),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

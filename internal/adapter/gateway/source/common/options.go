package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Options struct {
	Timeout    time.Duration // per-request
	Retries    int           // extra attempts on transient failures (0 => none)
	BackoffMin time.Duration
	BackoffMax time.Duration
	UserAgent  string
}

func DefaultOptionsFromEnv() Options {
	parseDur := func(k string, d time.Duration) time.Duration {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if x, err := time.ParseDuration(v); err == nil {
				return x
			}
		}
		return d
	}
	parseInt := func(k string, d int) int {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			if x, err := strconv.Atoi(v); err == nil {
				return x
			}
		}
		return d
	}
	ua := os.Getenv("HTTP_USER_AGENT")
	if ua == "" {
		// Roblox endpoints are picky about obviously non-browser agents.
		ua = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	}
	return Options{
		Timeout:    parseDur("HTTP_TIMEOUT", 30*time.Second),
		Retries:    parseInt("HTTP_RETRIES", 2),
		BackoffMin: parseDur("HTTP_BACKOFF_MIN", 200*time.Millisecond),
		BackoffMax: parseDur("HTTP_BACKOFF_MAX", 3*time.Second),
		UserAgent:  ua,
	}
}

// AuthHeaders assembles the optional Roblox auth surface. Both values come
// from the environment of the deployment; either may be empty.
func AuthHeaders(boundAuthToken, cookie string) map[string]string {
	h := map[string]string{}
	if boundAuthToken != "" {
		h["x-bound-auth-token"] = boundAuthToken
	}
	if cookie != "" {
		h["Cookie"] = ".ROBLOSECURITY=" + cookie
	}
	return h
}

package common

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
)

// ErrRateLimited is returned unwrapped enough for errors.Is when the source
// answers 429. Callers own the cooldown policy; the client never sleeps on
// 429 itself.
var ErrRateLimited = errors.New("rate limited")

type Client struct {
	Base    string
	HC      *http.Client
	Opts    Options
	Headers map[string]string // auth token / cookie, applied to every request
}

func New(base string) *Client { return NewWith(base, DefaultOptionsFromEnv(), nil) }

func NewWith(base string, opts Options, headers map[string]string) *Client {
	return &Client{
		Base:    base,
		Opts:    opts,
		Headers: headers,
		HC: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				DialContext:  (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
				MaxIdleConns: 100, IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

func (c *Client) GetJSON(ctx context.Context, path string, query map[string]string, v any) error {
	u := c.Base + path
	if len(query) > 0 {
		q := url.Values{}
		for k, val := range query {
			q.Set(k, val)
		}
		u += "?" + q.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, u, nil, v)
}

func (c *Client) PostJSON(ctx context.Context, path string, body any, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, c.Base+path, payload, v)
}

// doJSON performs the request with bounded retry on transient transport
// errors and 5xx. 429 is surfaced immediately as ErrRateLimited so the
// strategy can apply its own cooldown-and-retry rule.
func (c *Client) doJSON(ctx context.Context, method, u string, body []byte, v any) error {
	var lastErr error
	for attempt := 0; attempt <= c.Opts.Retries; attempt++ {
		if attempt > 0 {
			d := computeBackoff(c.Opts.BackoffMin, c.Opts.BackoffMax, attempt-1, "")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d):
			}
		}

		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.Opts.UserAgent != "" {
			req.Header.Set("User-Agent", c.Opts.UserAgent)
		}
		for k, val := range c.Headers {
			req.Header.Set(k, val)
		}

		res, err := c.HC.Do(req)
		if err != nil {
			lastErr = err
			if shouldRetry(0, err) {
				continue
			}
			return err
		}

		if res.StatusCode == http.StatusTooManyRequests {
			io.Copy(io.Discard, res.Body)
			res.Body.Close()
			return fmt.Errorf("%s: %w", u, ErrRateLimited)
		}
		if res.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(res.Body, 512))
			res.Body.Close()
			lastErr = fmt.Errorf("http %d: %s", res.StatusCode, string(b))
			if shouldRetry(res.StatusCode, nil) {
				continue
			}
			return lastErr
		}

		err = json.NewDecoder(res.Body).Decode(v)
		res.Body.Close()
		return err
	}
	return lastErr
}

// Package client fetches pre-aggregated analytics from the analytics API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"zgo.at/errors"
	"zgo.at/goatdash/pkg/log"
	"zgo.at/goatdash/pkg/metrics"
	"zgo.at/guru"
	"zgo.at/zcache/v2"
	"zgo.at/zstd/zstring"
	"zgo.at/zstd/ztime"
)

// DefaultCacheTTL is the default time to cache GET responses.
const DefaultCacheTTL = 5 * time.Second

// Client for the analytics API.
type Client struct {
	base  string
	token string
	http  *http.Client
	ttl   time.Duration
	cache *zcache.Cache[string, []byte]
}

// Option sets an option on the client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client to use; the default has a 15 second
// timeout.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.http = h } }

// WithCacheTTL sets how long responses are cached. Use 0 to disable the cache.
func WithCacheTTL(d time.Duration) Option { return func(c *Client) { c.ttl = d } }

// New creates a new client for the API at baseURL.
func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		base:  strings.TrimRight(baseURL, "/"),
		token: token,
		http:  &http.Client{Timeout: 15 * time.Second},
		ttl:   DefaultCacheTTL,
	}
	for _, o := range opts {
		o(c)
	}
	if c.ttl > 0 {
		c.cache = zcache.New[string, []byte](c.ttl, c.ttl*2)
	}
	return c
}

type ctxKey struct{}

// NoCache makes requests with this context bypass the response cache. The
// response is still stored.
func NoCache(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

func noCache(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Query parameters for the analytics endpoints.
type Query struct {
	Site     string
	Range    ztime.Range
	Limit    int
	Interval string
}

func (q Query) values() url.Values {
	v := make(url.Values)
	if q.Site != "" {
		v.Set("siteId", q.Site)
	}
	if !q.Range.Start.IsZero() {
		v.Set("startDate", q.Range.Start.Format("2006-01-02"))
	}
	if !q.Range.End.IsZero() {
		v.Set("endDate", q.Range.End.Format("2006-01-02"))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Interval != "" {
		v.Set("interval", q.Interval)
	}
	return v
}

// Create a new request.
func (c *Client) newRequest(ctx context.Context, method, u string) (*http.Request, error) {
	r, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return nil, err
	}
	r.Header.Set("Accept", "application/json")
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}
	return r, nil
}

// get fetches path and decodes the JSON response in to scanTo.
//
// A 429 response is retried once, after waiting for Retry-After.
func (c *Client) get(ctx context.Context, scanTo any, path string, q url.Values) error {
	u := c.base + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	if c.cache != nil && !noCache(ctx) {
		if b, ok := c.cache.Get(u); ok {
			return errors.Wrap(json.Unmarshal(b, scanTo), path)
		}
	}

	m := metrics.Start("fetch." + strings.TrimPrefix(path, "/api/analytics/"))
	defer m.Done()

	b, err := c.do(ctx, u, true)
	if err != nil {
		m.AddTag("error")
		return err
	}
	if err := json.Unmarshal(b, scanTo); err != nil {
		return errors.Errorf("%s: decoding response: %w", path, err)
	}
	if c.cache != nil {
		c.cache.Set(u, b)
	}
	return nil
}

func (c *Client) do(ctx context.Context, u string, retry bool) ([]byte, error) {
	r, err := c.newRequest(ctx, "GET", u)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(r)
	if err != nil {
		return nil, errors.Wrap(err, "client")
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "client: reading body")
	}

	if resp.StatusCode == http.StatusTooManyRequests && retry { // Ratelimit
		wait := retryAfter(resp.Header.Get("Retry-After"))
		log.Module("client").Debug(ctx, "rate limited", "url", u, "wait", wait)
		t := time.NewTimer(wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-t.C:
		}
		return c.do(ctx, u, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, guru.Errorf(resp.StatusCode, "%s: %s: %s",
			r.URL.Path, resp.Status, zstring.ElideLeft(strings.TrimSpace(string(b)), 200))
	}
	return b, nil
}

// retryAfter parses the Retry-After header, in seconds or as a HTTP date.
// Waits are capped at 10 seconds, and default to 1 second.
func retryAfter(h string) time.Duration {
	const max = 10 * time.Second
	if h == "" {
		return time.Second
	}
	var d time.Duration
	if n, err := strconv.Atoi(h); err == nil {
		d = time.Duration(n) * time.Second
	} else if t, err := http.ParseTime(h); err == nil {
		d = time.Until(t)
	} else {
		return time.Second
	}
	if d < 0 {
		return 0
	}
	if d > max {
		return max
	}
	return d
}

// Status gets the HTTP status code from an error returned by the client, or 0
// if it's not a HTTP error.
func Status(err error) int {
	var c interface{ Code() int }
	if errors.As(err, &c) {
		return c.Code()
	}
	return 0
}

func (c *Client) String() string { return fmt.Sprintf("client(%s)", c.base) }

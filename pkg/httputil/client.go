package httputil

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/observability"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 64 << 20
)

// Client downloads remote datasets with retry and a byte cache in front.
type Client struct {
	http     *http.Client
	cache    cache.Cache
	keyer    cache.Keyer
	ttl      time.Duration
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient returns a Client caching bodies in c for ttl. A nil c disables
// caching. Headers are sent with every request.
func NewClient(c cache.Cache, ttl time.Duration, headers map[string]string) *Client {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Client{
		http:     &http.Client{Timeout: defaultTimeout},
		cache:    c,
		keyer:    cache.NewDefaultKeyer(),
		ttl:      ttl,
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithHTTPClient replaces the underlying transport client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithRetry overrides the retry schedule.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts, c.delay = attempts, delay
	return c
}

// Fetch returns the body at url, from cache when present.
func (c *Client) Fetch(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, false)
}

// FetchFresh bypasses the cache read but still stores the result.
func (c *Client) FetchFresh(ctx context.Context, url string) ([]byte, error) {
	return c.fetch(ctx, url, true)
}

func (c *Client) fetch(ctx context.Context, url string, refresh bool) ([]byte, error) {
	key := c.keyer.DatasetKey(url)
	if !refresh {
		if data, hit, err := c.cache.Get(ctx, key); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "dataset")
			return data, nil
		}
		observability.Cache().OnCacheMiss(ctx, "dataset")
	}

	var body []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		b, err := c.get(ctx, url)
		if err != nil {
			return err
		}
		body = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(ctx, key, body, c.ttl); err == nil {
		observability.Cache().OnCacheSet(ctx, "dataset", len(body))
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "build request for %s", url)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	host, path := req.URL.Host, req.URL.Path
	hooks.OnRequest(ctx, req.Method, host, path)
	start := time.Now()

	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, req.Method, host, path, err)
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", url))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, req.Method, host, path, resp.StatusCode, time.Since(start))

	if err := checkStatus(url, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, Retryable(errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", url))
	}
	return data, nil
}

func checkStatus(url string, code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "%s: not found", url)
	case code == http.StatusTooManyRequests, code >= 500:
		return Retryable(errors.New(errors.ErrCodeNetwork, "%s: status %d", url, code))
	default:
		return errors.New(errors.ErrCodeNetwork, "%s: status %d %s", url, code, http.StatusText(code))
	}
}

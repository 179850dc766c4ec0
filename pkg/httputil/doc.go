// Package httputil fetches remote datasets over HTTP.
//
// [Client] wraps a net/http client with:
//
//   - [Retry]: exponential backoff for failures marked [RetryableError]
//     (transport errors, 429 and 5xx responses)
//   - a [cache.Cache] in front of every GET, keyed by URL
//
// Usage:
//
//	c := httputil.NewClient(fileCache, cache.TTLDataset, nil)
//	body, err := c.Fetch(ctx, "https://example.org/usa-population.csv")
//
// A 404 maps to NOT_FOUND; other non-2xx statuses map to NETWORK_ERROR.
//
// [cache.Cache]: github.com/matzehuels/healthviz/pkg/cache.Cache
package httputil

package gistcache

import (
	"context"
	"fmt"
	"time"
)

// MaxPerPage is the upper bound of ListRequest.PerPage, same as the upstream API.
const MaxPerPage = 100

// ListRequest is the coordinates of one gists listing request.
type ListRequest struct {
	Username Username
	Page     int
	PerPage  int
}

func (r ListRequest) String() string {
	return fmt.Sprintf("%s?page=%d&per_page=%d", r.Username, r.Page, r.PerPage)
}

func (r ListRequest) Validate() error {
	if err := r.Username.Validate(); err != nil {
		return newError(TypeArgumentError, err, "invalid request")
	}
	if r.Page < 1 {
		return newError(TypeArgumentError, nil, "page must be 1 or more but got %d", r.Page)
	}
	if r.PerPage < 1 || r.PerPage > MaxPerPage {
		return newError(TypeArgumentError, nil, "per_page must be between 1 and %d but got %d", MaxPerPage, r.PerPage)
	}
	return nil
}

// CacheKey is getter of the cache key for this request.
//
// The username part is case-normalized, so requests that differ only by the
// case of the username share one cache slot. Different page or per_page
// always make different keys.
func (r ListRequest) CacheKey() string {
	return fmt.Sprintf("gists:%s:page=%d:per_page=%d", r.Username.Normalized(), r.Page, r.PerPage)
}

// ListResult is the outcome of one gists listing request.
type ListResult struct {
	Gists   []Gist
	Cached  bool
	Expires time.Time
}

// Fetcher is the interface of gists sources.
type Fetcher interface {
	FetchGists(ctx context.Context, req ListRequest) (ListResult, error)
}

// HealthChecker is the interface for checking that upstream is reachable.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CachedFetcher is a Fetcher that answers from a Cache when possible.
//
// A miss fetches from the upstream exactly once and stores the result.
// Errors from the upstream pass through unchanged; nothing is retried here.
// Concurrent misses on the same key are not coalesced: each caller fetches
// on its own and the last write wins.
type CachedFetcher struct {
	upstream Fetcher
	cache    *Cache[[]Gist]
	metrics  *Metrics
}

// NewCachedFetcher is constructor of CachedFetcher.
func NewCachedFetcher(upstream Fetcher, cache *Cache[[]Gist], metrics *Metrics) CachedFetcher {
	return CachedFetcher{
		upstream: upstream,
		cache:    cache,
		metrics:  metrics,
	}
}

func (cf CachedFetcher) String() string {
	return fmt.Sprintf("CachedFetcher[%s]", cf.cache)
}

func (cf CachedFetcher) FetchGists(ctx context.Context, req ListRequest) (ListResult, error) {
	key := req.CacheKey()

	if entry, ok := cf.cache.Get(key); ok {
		cf.metrics.CacheHit()
		return ListResult{Gists: entry.Value, Cached: true, Expires: entry.Expires}, nil
	}
	cf.metrics.CacheMiss()

	result, err := cf.upstream.FetchGists(ctx, req)
	if err != nil {
		return ListResult{}, err
	}

	entry := cf.cache.Set(key, result.Gists)

	return ListResult{Gists: result.Gists, Cached: false, Expires: entry.Expires}, nil
}

package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/macrat/gistcache/lib-gistcache"
)

// DummyFetcher is a Fetcher and HealthChecker for testing.
type DummyFetcher struct {
	Gists []gistcache.Gist
	Error bool

	count int32
}

func (df *DummyFetcher) FetchGists(ctx context.Context, req gistcache.ListRequest) (gistcache.ListResult, error) {
	atomic.AddInt32(&df.count, 1)

	if df.Error {
		return gistcache.ListResult{}, fmt.Errorf("test error")
	}
	return gistcache.ListResult{Gists: df.Gists}, nil
}

func (df *DummyFetcher) CheckHealth(ctx context.Context) error {
	if df.Error {
		return fmt.Errorf("test error")
	}
	return nil
}

// Count is getter of how many times FetchGists was called.
func (df *DummyFetcher) Count() int {
	return int(atomic.LoadInt32(&df.count))
}

// MakeGists is generator of gists for testing.
func MakeGists(ids ...string) []gistcache.Gist {
	gists := make([]gistcache.Gist, len(ids))
	for i, id := range ids {
		gists[i] = gistcache.Gist{
			ID:        id,
			HTMLURL:   fmt.Sprintf("https://gist.github.com/%s", id),
			Public:    true,
			CreatedAt: time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
			UpdatedAt: time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC),
			Files:     map[string]gistcache.GistFile{},
		}
	}
	return gists
}

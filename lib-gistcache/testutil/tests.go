package testutil

import (
	"context"
	"testing"

	"github.com/macrat/gistcache/lib-gistcache"
)

// AssertGists is check that a fetcher answers the expected gists.
func AssertGists(t *testing.T, fetcher gistcache.Fetcher, req gistcache.ListRequest, cached bool, ids ...string) {
	t.Helper()

	result, err := fetcher.FetchGists(context.Background(), req)
	if err != nil {
		t.Errorf("%s: failed to fetch: %s", req, err)
		return
	}

	if result.Cached != cached {
		t.Errorf("%s: unexpected cached flag: expected %v but got %v", req, cached, result.Cached)
	}

	if len(result.Gists) != len(ids) {
		t.Errorf("%s: unexpected gists: expected length %d but got %d", req, len(ids), len(result.Gists))
		return
	}

	for i, id := range ids {
		if result.Gists[i].ID != id {
			t.Errorf(`%s: unexpected gist: expected "%s" but got "%s"`, req, id, result.Gists[i].ID)
		}
	}
}

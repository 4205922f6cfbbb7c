package gistcache_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/macrat/gistcache/lib-gistcache"
	"github.com/macrat/gistcache/lib-gistcache/client"
	"github.com/macrat/gistcache/lib-gistcache/testutil"
)

func StartServer(ctx context.Context, t testing.TB) (client.Client, *net.TCPAddr, *testutil.GitHubStub) {
	t.Helper()

	metrics := gistcache.NewMetrics("gistcache")

	stub := testutil.StartGitHubStub(ctx, t, map[string][]gistcache.Gist{
		"octocat": testutil.MakeGists("g1", "g2", "g3"),
	})

	fetcher, err := gistcache.NewGitHubFetcher(stub.URL, "", 5*time.Second, metrics)
	if err != nil {
		t.Fatalf("failed to make fetcher: %s", err)
	}

	cache, err := gistcache.NewCache[[]gistcache.Gist](time.Minute, 100, time.Minute, metrics)
	if err != nil {
		t.Fatalf("failed to make cache: %s", err)
	}

	s := &gistcache.Server{
		Metrics:        metrics,
		Fetcher:        gistcache.NewCachedFetcher(fetcher, cache, metrics),
		Health:         fetcher,
		Cache:          cache,
		DefaultPerPage: 30,
	}

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: FindEmptyPort()}

	go func() {
		if err := s.ListenAndServe(ctx, addr); err != nil {
			t.Fatalf("failed to start server: %s", err)
		}
	}()

	u, err := url.Parse(fmt.Sprintf("http://%s/", addr))
	if err != nil {
		t.Fatalf("failed to parse URL: %s", err)
	}

	time.Sleep(10 * time.Millisecond) // wait for start server

	return client.New(u), addr, stub
}

func TestServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, addr, stub := StartServer(ctx, t)

	resp, err := c.ListGists("octocat", 1, 30)
	if err != nil {
		t.Errorf("failed to list gists: %s", err)
	} else {
		if len(resp.Gists) != 3 {
			t.Errorf("expected 3 gists but got %d", len(resp.Gists))
		}
		if resp.Cached {
			t.Errorf("first response should not be cached")
		}
		if resp.CacheExpiresAt == nil {
			t.Errorf("expected cache_expires_at but got null")
		}
	}

	resp, err = c.ListGists("octocat", 1, 30)
	if err != nil {
		t.Errorf("failed to list gists: %s", err)
	} else if !resp.Cached {
		t.Errorf("second response should be cached")
	}

	if count := stub.RequestCount(); count != 1 {
		t.Errorf("expected 1 upstream request but got %d", count)
	}

	if health, err := c.Health(); err != nil {
		t.Errorf("failed to get health: %s", err)
	} else {
		expect := gistcache.HealthResponse{Status: "healthy", Version: "1.0.0", GitHubAPIReachable: true}
		if health != expect {
			t.Errorf("expected %#v but got %#v", expect, health)
		}
	}

	if stats, err := c.CacheStats(); err != nil {
		t.Errorf("failed to get cache stats: %s", err)
	} else {
		expect := gistcache.CacheStats{Size: 1, MaxSize: 100, TTLSeconds: 60}
		if stats != expect {
			t.Errorf("expected %#v but got %#v", expect, stats)
		}
	}

	if err := c.FlushCache(); err != nil {
		t.Errorf("failed to flush cache: %s", err)
	}

	if stats, err := c.CacheStats(); err != nil {
		t.Errorf("failed to get cache stats: %s", err)
	} else if stats.Size != 0 {
		t.Errorf("expected size 0 after flush but got %d", stats.Size)
	}

	resp, err = c.ListGists("octocat", 1, 30)
	if err != nil {
		t.Errorf("failed to list gists: %s", err)
	} else if resp.Cached {
		t.Errorf("response after flush should not be cached")
	}

	if count := stub.RequestCount(); count != 2 {
		t.Errorf("expected 2 upstream requests but got %d", count)
	}

	if _, err := c.ListGists("nobody", 1, 30); err == nil {
		t.Errorf("expected error but got nil")
	} else {
		var apiErr client.APIError
		if !errors.As(err, &apiErr) {
			t.Errorf("unexpected error: %#v", err)
		} else {
			if apiErr.StatusCode != 404 {
				t.Errorf("expected status 404 but got %d", apiErr.StatusCode)
			}
			if apiErr.Response.Error != "user_not_found" {
				t.Errorf(`expected error "user_not_found" but got "%s"`, apiErr.Response.Error)
			}
		}
	}

	if resp, err := http.Get(fmt.Sprintf("http://%s/health/live", addr)); err != nil {
		t.Errorf("failed to get liveness: %s", err)
	} else {
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Errorf("failed to read liveness: %s", err)
		} else if strings.TrimSpace(string(body)) != `{"status":"alive"}` {
			t.Errorf("unexpected liveness response: %s", body)
		}
	}

	if resp, err := http.Get(fmt.Sprintf("http://%s/metrics", addr)); err != nil {
		t.Errorf("failed to get metrics: %s", err)
	} else {
		defer resp.Body.Close()

		if resp.StatusCode != 200 {
			t.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Errorf("failed to read metrics: %s", err)
		} else if !strings.Contains(string(body), "gistcache_received_request_count") {
			t.Errorf("unexpected metrics response:\n%s", body)
		}
	}
}

func TestServer_readiness(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, addr, stub := StartServer(ctx, t)

	if resp, err := http.Get(fmt.Sprintf("http://%s/health/ready", addr)); err != nil {
		t.Errorf("failed to get readiness: %s", err)
	} else {
		resp.Body.Close()
		if resp.StatusCode != 200 {
			t.Errorf("unexpected status code: %d", resp.StatusCode)
		}
	}

	stub.SetHealthy(false)

	if resp, err := http.Get(fmt.Sprintf("http://%s/health/ready", addr)); err != nil {
		t.Errorf("failed to get readiness: %s", err)
	} else {
		defer resp.Body.Close()

		if resp.StatusCode != 503 {
			t.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Errorf("failed to read readiness: %s", err)
		} else if !strings.Contains(string(body), "not_ready") {
			t.Errorf("unexpected readiness response: %s", body)
		}
	}
}

func TestServer_StartStop(t *testing.T) {
	for i := 0; i < 10; i++ {
		ctx, cancel := context.WithCancel(context.Background())

		StartServer(ctx, t)

		cancel()

		time.Sleep(10 * time.Millisecond) // wait for stop server
	}
}

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/macrat/gistcache/lib-gistcache"
)

const (
	// RateLimitedUser is the username that GitHubStub always answers with
	// a rate limit error.
	RateLimitedUser = "ratelimited"

	// BrokenUser is the username that GitHubStub always answers with a
	// server error.
	BrokenUser = "broken"
)

// GitHubStub is a fake GitHub API server.
//
// It serves the gists listing endpoint and the rate limit endpoint with
// the same JSON shapes as the real API.
type GitHubStub struct {
	URL   string
	Reset time.Time

	mutex    sync.Mutex
	gists    map[string][]gistcache.Gist
	healthy  bool
	requests int
}

// StartGitHubStub is starter of a GitHubStub that stops when ctx is done.
func StartGitHubStub(ctx context.Context, t FatalFormatter, gists map[string][]gistcache.Gist) *GitHubStub {
	stub := &GitHubStub{
		Reset:   time.Now().Add(time.Hour).Truncate(time.Second),
		gists:   gists,
		healthy: true,
	}

	addr := &net.TCPAddr{IP: net.ParseIP("127.0.0.1"), Port: FindEmptyPort()}
	stub.URL = fmt.Sprintf("http://%s", addr)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /rate_limit", stub.handleRateLimit)
	mux.HandleFunc("GET /users/{username}/gists", stub.handleGists)

	server := http.Server{
		Addr:    addr.String(),
		Handler: mux,
	}

	go func() {
		err := server.ListenAndServe()
		if ctx.Err() == nil {
			t.Fatalf("failed to serve GitHub stub: %s", err)
		}
	}()

	go func() {
		<-ctx.Done()
		c, cancel := context.WithTimeout(context.Background(), 1*time.Second)
		defer cancel()
		if err := server.Shutdown(c); err != nil {
			t.Fatalf("failed to stop GitHub stub: %s", err)
		}
	}()

	time.Sleep(10 * time.Millisecond) // Wait for start HTTP server

	return stub
}

// RequestCount is getter of how many gists listing requests arrived.
func (s *GitHubStub) RequestCount() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return s.requests
}

// SetHealthy is setter of the rate limit endpoint behavior.
func (s *GitHubStub) SetHealthy(healthy bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.healthy = healthy
}

func (s *GitHubStub) handleRateLimit(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	healthy := s.healthy
	s.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")

	if !healthy {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "Internal Server Error"}`)
		return
	}

	core := fmt.Sprintf(`{"limit": 5000, "remaining": 4999, "reset": %d, "used": 1}`, s.Reset.Unix())
	fmt.Fprintf(w, `{"resources": {"core": %s}, "rate": %s}`, core, core)
}

func (s *GitHubStub) handleGists(w http.ResponseWriter, r *http.Request) {
	username := r.PathValue("username")

	s.mutex.Lock()
	s.requests++
	gists, ok := s.gists[username]
	s.mutex.Unlock()

	w.Header().Set("Content-Type", "application/json")

	switch username {
	case RateLimitedUser:
		w.Header().Set("X-Ratelimit-Limit", "60")
		w.Header().Set("X-Ratelimit-Remaining", "0")
		w.Header().Set("X-Ratelimit-Reset", strconv.FormatInt(s.Reset.Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, `{"message": "API rate limit exceeded"}`)
		return
	case BrokenUser:
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"message": "Internal Server Error"}`)
		return
	}

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message": "Not Found"}`)
		return
	}

	page, perPage := 1, 30
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && v > 0 {
		page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && v > 0 {
		perPage = v
	}

	start := (page - 1) * perPage
	if start > len(gists) {
		start = len(gists)
	}
	end := start + perPage
	if end > len(gists) {
		end = len(gists)
	}

	if err := json.NewEncoder(w).Encode(gists[start:end]); err != nil {
		panic(err)
	}
}

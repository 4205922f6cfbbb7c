package gistcache

import (
	"context"
	"net"
	"net/http"
)

// Server is the gistcache server instance.
type Server struct {
	Metrics        *Metrics
	Fetcher        Fetcher
	Health         HealthChecker
	Cache          *Cache[[]Gist]
	DefaultPerPage int
}

// HTTPHandler is getter of http.Handler.
func (s *Server) HTTPHandler() (http.Handler, error) {
	mux := http.NewServeMux()

	metrics, err := s.Metrics.HTTPHandler()
	if err != nil {
		return nil, err
	}

	mux.Handle("/metrics", metrics)
	mux.Handle("/", NewGistAPI(s.Fetcher, s.Health, s.Cache, s.Metrics, s.DefaultPerPage).Handler())

	return mux, nil
}

// ListenAndServe is starter of server.
//
// The cache reclamation loop runs while the server is listening.
func (s *Server) ListenAndServe(ctx context.Context, address *net.TCPAddr) error {
	handler, err := s.HTTPHandler()
	if err != nil {
		return err
	}

	httpServer := http.Server{
		Addr:    address.String(),
		Handler: handler,
	}

	s.Cache.Start()
	defer s.Cache.Stop()

	httpch := make(chan error)
	defer close(httpch)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			httpch <- err
		}
	}()

	select {
	case err = <-httpch:
		return err
	case <-ctx.Done():
		httpServer.Shutdown(ctx)
		return nil
	}
}

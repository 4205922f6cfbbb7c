package gistcache

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/macrat/gistcache/lib-gistcache/logger"
)

// Version is the version string that the health endpoint reports.
const Version = "1.0.0"

// GistAPI is the HTTP API for the gists cache.
type GistAPI struct {
	fetcher        Fetcher
	health         HealthChecker
	cache          *Cache[[]Gist]
	metrics        *Metrics
	defaultPerPage int
}

// NewGistAPI is constructor of GistAPI.
func NewGistAPI(fetcher Fetcher, health HealthChecker, cache *Cache[[]Gist], metrics *Metrics, defaultPerPage int) GistAPI {
	return GistAPI{
		fetcher:        fetcher,
		health:         health,
		cache:          cache,
		metrics:        metrics,
		defaultPerPage: defaultPerPage,
	}
}

// makeErrorResponse is converter from an error to a status code and response body.
func makeErrorResponse(err error) (int, ErrorResponse) {
	var e Error
	if !errors.As(err, &e) {
		e = newError(0, err, "internal server error")
	}

	resp := ErrorResponse{Error: e.Code(), Message: e.Message}

	if e.Original != nil {
		detail := e.Original.Error()
		resp.Detail = &detail
	}

	switch e.Type {
	case TypeNotFound:
		detail := "The specified username does not exist on GitHub"
		resp.Detail = &detail
	case TypeRateLimited:
		if !e.Reset.IsZero() {
			detail := fmt.Sprintf("Rate limit resets at: %s", e.Reset.Format(time.RFC3339))
			resp.Detail = &detail
		}
	}

	return e.HTTPStatus(), resp
}

func (a GistAPI) sendError(c echo.Context, err error) error {
	a.metrics.Error(err)

	var e Error
	if errors.As(err, &e) && e.Type == TypeRateLimited && !e.Reset.IsZero() {
		c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(e.Reset.Unix(), 10))
	}

	status, resp := makeErrorResponse(err)
	return c.JSON(status, resp)
}

func (a GistAPI) GetGists(c echo.Context) error {
	req := ListRequest{
		Username: Username(c.Param("username")),
		Page:     1,
		PerPage:  a.defaultPerPage,
	}

	if v := c.QueryParam("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return a.sendError(c, newError(TypeArgumentError, nil, "page must be an integer but got %#v", v))
		}
		req.Page = n
	}
	if v := c.QueryParam("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return a.sendError(c, newError(TypeArgumentError, nil, "per_page must be an integer but got %#v", v))
		}
		req.PerPage = n
	}

	if err := req.Validate(); err != nil {
		return a.sendError(c, err)
	}

	end := a.metrics.Start()

	result, err := a.fetcher.FetchGists(c.Request().Context(), req)
	if err != nil {
		logger.Warn("failed to fetch gists", logger.Fields{"request": req.String(), "error": err.Error()})
		return a.sendError(c, err)
	}

	end(result.Cached)

	resp := ListResponse{
		Username: req.Username,
		Page:     req.Page,
		PerPage:  req.PerPage,
		Gists:    result.Gists,
		Cached:   result.Cached,
	}
	if !result.Expires.IsZero() {
		expires := result.Expires
		resp.CacheExpiresAt = &expires
	}

	return c.JSON(http.StatusOK, resp)
}

func (a GistAPI) GetHealth(c echo.Context) error {
	resp := HealthResponse{
		Status:             "healthy",
		Version:            Version,
		GitHubAPIReachable: true,
	}

	if err := a.health.CheckHealth(c.Request().Context()); err != nil {
		logger.Info("GitHub API is unreachable", logger.Fields{"error": err.Error()})
		resp.Status = "degraded"
		resp.GitHubAPIReachable = false
	}

	return c.JSON(http.StatusOK, resp)
}

func (a GistAPI) GetLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
}

func (a GistAPI) GetReadiness(c echo.Context) error {
	if err := a.health.CheckHealth(c.Request().Context()); err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{
			"status": "not_ready",
			"reason": "GitHub API unreachable",
		})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "ready"})
}

func (a GistAPI) GetCacheStats(c echo.Context) error {
	return c.JSON(http.StatusOK, a.cache.Stats())
}

func (a GistAPI) FlushCache(c echo.Context) error {
	a.cache.Clear()

	logger.Info("cache flushed", logger.Fields{})

	return c.NoContent(http.StatusNoContent)
}

func (a GistAPI) Handler() http.Handler {
	e := echo.New()

	e.GET("/health", a.GetHealth)
	e.GET("/health/live", a.GetLiveness)
	e.GET("/health/ready", a.GetReadiness)

	e.GET("/cache/stats", a.GetCacheStats)
	e.DELETE("/cache", a.FlushCache)

	e.GET("/:username", a.GetGists)

	return e
}

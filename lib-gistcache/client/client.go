package client

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/macrat/gistcache/lib-gistcache"
)

// APIError is an error response from the gistcache server.
type APIError struct {
	StatusCode int
	Response   gistcache.ErrorResponse
}

func (e APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Response.Error, e.Response.Message)
}

// Client is the client of the gistcache HTTP API.
type Client struct {
	endpoint *url.URL
	client   *http.Client
}

// New is constructor of Client.
func New(endpoint *url.URL) Client {
	return Client{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

func (c Client) do(method, path string, response interface{}) error {
	u, err := c.endpoint.Parse(path)
	if err != nil {
		return err
	}

	req, err := http.NewRequest(method, u.String(), nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		var e gistcache.ErrorResponse
		if err := json.Unmarshal(body, &e); err == nil && e.Error != "" {
			return APIError{StatusCode: resp.StatusCode, Response: e}
		}
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if response == nil {
		return nil
	}
	return json.Unmarshal(body, response)
}

// ListGists is getter of the gists listing of a user.
func (c Client) ListGists(username gistcache.Username, page, perPage int) (gistcache.ListResponse, error) {
	var response gistcache.ListResponse
	err := c.do("GET", fmt.Sprintf("%s?page=%d&per_page=%d", username, page, perPage), &response)
	return response, err
}

// Health is getter of the server health.
func (c Client) Health() (gistcache.HealthResponse, error) {
	var response gistcache.HealthResponse
	err := c.do("GET", "health", &response)
	return response, err
}

// Live is checker that the server process is responding.
func (c Client) Live() error {
	return c.do("GET", "health/live", nil)
}

// Ready is checker that the server can reach the GitHub API.
func (c Client) Ready() error {
	return c.do("GET", "health/ready", nil)
}

// CacheStats is getter of the cache usage.
func (c Client) CacheStats() (gistcache.CacheStats, error) {
	var response gistcache.CacheStats
	err := c.do("GET", "cache/stats", &response)
	return response, err
}

// FlushCache is remover of all cached entries.
func (c Client) FlushCache() error {
	return c.do("DELETE", "cache", nil)
}

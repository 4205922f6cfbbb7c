package gistcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v67/github"

	"github.com/macrat/gistcache/lib-gistcache/logger"
)

// GitHubFetcher is the Fetcher that asks the GitHub API for public gists.
type GitHubFetcher struct {
	client  *github.Client
	metrics *Metrics
}

// NewGitHubFetcher is constructor of GitHubFetcher.
//
// baseURL is the GitHub API endpoint. Leave it empty for the public API.
// token is optional; without it requests share the unauthenticated rate limit.
func NewGitHubFetcher(baseURL, token string, timeout time.Duration, metrics *Metrics) (GitHubFetcher, error) {
	client := github.NewClient(&http.Client{Timeout: timeout})
	if token != "" {
		client = client.WithAuthToken(token)
	}

	if baseURL != "" {
		if !strings.HasSuffix(baseURL, "/") {
			baseURL += "/"
		}
		u, err := url.Parse(baseURL)
		if err != nil {
			return GitHubFetcher{}, newError(TypeArgumentError, err, "invalid GitHub API base URL: %s", baseURL)
		}
		client.BaseURL = u
	}

	return GitHubFetcher{client: client, metrics: metrics}, nil
}

func (gf GitHubFetcher) String() string {
	return fmt.Sprintf("GitHubFetcher[%s]", gf.client.BaseURL)
}

func (gf GitHubFetcher) FetchGists(ctx context.Context, req ListRequest) (ListResult, error) {
	opts := &github.GistListOptions{
		ListOptions: github.ListOptions{
			Page:    req.Page,
			PerPage: req.PerPage,
		},
	}

	stm := time.Now()
	gists, _, err := gf.client.Gists.List(ctx, req.Username.String(), opts)
	gf.metrics.UpstreamTime(time.Since(stm))

	if err != nil {
		return ListResult{}, translateGitHubError(err, req.Username)
	}

	logger.Debug("fetched gists from GitHub", logger.Fields{
		"username": req.Username,
		"page":     req.Page,
		"count":    len(gists),
	})

	result := make([]Gist, len(gists))
	for i, g := range gists {
		result[i] = convertGist(g)
	}

	return ListResult{Gists: result}, nil
}

// CheckHealth is check that the GitHub API answers at all.
//
// The rate limit endpoint is used because asking for it does not consume
// the rate limit itself.
func (gf GitHubFetcher) CheckHealth(ctx context.Context) error {
	if _, _, err := gf.client.RateLimit.Get(ctx); err != nil {
		return translateGitHubError(err, "")
	}
	return nil
}

func convertGist(g *github.Gist) Gist {
	gist := Gist{
		ID:          g.GetID(),
		HTMLURL:     g.GetHTMLURL(),
		Description: g.Description,
		Public:      g.GetPublic(),
		CreatedAt:   g.GetCreatedAt().Time,
		UpdatedAt:   g.GetUpdatedAt().Time,
		Comments:    g.GetComments(),
		Files:       make(map[string]GistFile, len(g.Files)),
	}

	for name, file := range g.Files {
		gist.Files[string(name)] = GistFile{
			Filename: file.GetFilename(),
			Type:     file.Type,
			Language: file.Language,
			RawURL:   file.GetRawURL(),
			Size:     file.GetSize(),
		}
	}

	if owner := g.GetOwner(); owner != nil {
		gist.Owner = &GistOwner{
			Login:     owner.GetLogin(),
			ID:        owner.GetID(),
			AvatarURL: owner.GetAvatarURL(),
			HTMLURL:   owner.GetHTMLURL(),
		}
	}

	return gist
}

// translateGitHubError is converter from go-github errors to Error.
func translateGitHubError(err error, username Username) error {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		e := newError(TypeRateLimited, err, "GitHub API rate limit exceeded")
		e.Reset = rateErr.Rate.Reset.Time
		return e
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		e := newError(TypeRateLimited, err, "GitHub API rate limit exceeded")
		if abuseErr.RetryAfter != nil {
			e.Reset = time.Now().Add(*abuseErr.RetryAfter)
		}
		return e
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) {
		if respErr.Response != nil && respErr.Response.StatusCode == http.StatusNotFound {
			return newError(TypeNotFound, nil, "GitHub user '%s' not found", username)
		}

		e := newError(TypeUpstreamError, err, "Error communicating with GitHub API")
		if respErr.Response != nil {
			e.Status = respErr.Response.StatusCode
		}
		return e
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newError(TypeTimeout, err, "GitHub API request timed out")
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return newError(TypeTimeout, err, "GitHub API request timed out")
	}

	return newError(TypeTransportError, err, "Error communicating with GitHub API")
}

package gistcache

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,39}$`)
)

// InvalidUsername is error for invalid GitHub user name.
type InvalidUsername string

func (u InvalidUsername) Error() string {
	return fmt.Sprintf("invalid username: \"%s\"", string(u))
}

// Username is GitHub user name.
type Username string

func (u Username) String() string {
	return string(u)
}

// Normalized is getter of the canonical lower-case form.
//
// Cache keys use the normalized form so that "Octocat" and "octocat" share
// one cache slot. Responses keep the name as requested.
func (u Username) Normalized() Username {
	return Username(strings.ToLower(string(u)))
}

func (u Username) Validate() error {
	if !usernamePattern.MatchString(string(u)) {
		return InvalidUsername(string(u))
	}
	return nil
}

// GistFile is one file that included in a Gist.
type GistFile struct {
	Filename string  `json:"filename"`
	Type     *string `json:"type"`
	Language *string `json:"language"`
	RawURL   string  `json:"raw_url"`
	Size     int     `json:"size"`
}

// GistOwner is the owner account of a Gist.
type GistOwner struct {
	Login     string `json:"login"`
	ID        int64  `json:"id"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Gist is one gist that fetched from GitHub.
type Gist struct {
	ID          string              `json:"id"`
	HTMLURL     string              `json:"html_url"`
	Description *string             `json:"description"`
	Public      bool                `json:"public"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Comments    int                 `json:"comments"`
	Files       map[string]GistFile `json:"files"`
	Owner       *GistOwner          `json:"owner"`
}

// ListResponse is the response of the gists listing API.
type ListResponse struct {
	Username       Username   `json:"username"`
	Page           int        `json:"page"`
	PerPage        int        `json:"per_page"`
	Gists          []Gist     `json:"gists"`
	TotalCount     *int       `json:"total_count"`
	Cached         bool       `json:"cached"`
	CacheExpiresAt *time.Time `json:"cache_expires_at"`
}

// ErrorResponse is the response of all API endpoints when something wrong.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Message string  `json:"message"`
	Detail  *string `json:"detail"`
}

// HealthResponse is the response of the health check API.
type HealthResponse struct {
	Status             string `json:"status"`
	Version            string `json:"version"`
	GitHubAPIReachable bool   `json:"github_api_reachable"`
}

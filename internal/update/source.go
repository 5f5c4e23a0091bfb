package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/five82/harbor/internal/version"
)

// Release is the latest published release.
type Release struct {
	Tag string
	URL string
}

// ReleaseSource fetches the latest release.
type ReleaseSource interface {
	Latest(ctx context.Context) (Release, error)
}

// GitHubSource reads a GitHub "latest release" endpoint.
type GitHubSource struct {
	url  string
	http *http.Client
}

// NewGitHubSource returns a source reading url.
func NewGitHubSource(url string) *GitHubSource {
	return &GitHubSource{
		url:  strings.TrimSpace(url),
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

// Latest performs one GET. Any non-2xx response is an error.
func (s *GitHubSource) Latest(ctx context.Context) (Release, error) {
	if s.url == "" {
		return Release{}, fmt.Errorf("release url is empty")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return Release{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "harbor/"+version.Current())

	resp, err := s.http.Do(req)
	if err != nil {
		return Release{}, fmt.Errorf("fetch latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return Release{}, fmt.Errorf("release check failed: %s", resp.Status)
	}

	var payload struct {
		TagName string `json:"tag_name"`
		HTMLURL string `json:"html_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Release{}, fmt.Errorf("decode release: %w", err)
	}
	if strings.TrimSpace(payload.TagName) == "" {
		return Release{}, fmt.Errorf("release has no tag")
	}
	return Release{Tag: payload.TagName, URL: payload.HTMLURL}, nil
}

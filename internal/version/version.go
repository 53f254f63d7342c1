// Package version carries build metadata and checks GitHub for newer
// dotledger releases.
package version

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Build metadata, overridden at link time.
//
//nolint:gochecknoglobals // Set via -ldflags at build time
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Release repository coordinates.
const (
	releaseOwner = "polagate"
	releaseRepo  = "dotledger"

	defaultBaseURL  = "https://api.github.com"
	defaultTimeout  = 30 * time.Second
	maxResponseSize = 64 * 1024
)

// ErrReleaseFetchFailed indicates the GitHub releases API returned a
// non-success status.
var ErrReleaseFetchFailed = errors.New("release fetch failed")

// Release is the subset of a GitHub release the update check needs.
type Release struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	Prerelease  bool      `json:"prerelease"`
	PublishedAt time.Time `json:"published_at"`
}

// Client fetches dotledger releases from GitHub.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a release client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// LatestRelease fetches the latest published dotledger release.
func (c *Client) LatestRelease(ctx context.Context) (*Release, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, releaseOwner, releaseRepo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", fmt.Sprintf("dotledger/%s (%s/%s)", Version, runtime.GOOS, runtime.GOARCH))
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrReleaseFetchFailed, resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&release); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}
	return &release, nil
}

// IsNewer reports whether latest is a newer release than current.
// Development builds ("dev", empty, bare commit hashes) are treated as
// older than any tagged release.
func IsNewer(current, latest string) bool {
	return compare(latest, current) > 0
}

func compare(a, b string) int {
	aDev := isDev(a)
	bDev := isDev(b)
	switch {
	case aDev && bDev:
		return 0
	case aDev:
		return -1
	case bDev:
		return 1
	}

	av := parse(a)
	bv := parse(b)
	for i := 0; i < 3; i++ {
		if av[i] != bv[i] {
			if av[i] > bv[i] {
				return 1
			}
			return -1
		}
	}
	return 0
}

func isDev(v string) bool {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if v == "" || v == "dev" {
		return true
	}
	// A bare commit hash has no dots.
	return !strings.Contains(v, ".")
}

// parse extracts major, minor, patch. Pre-release and build suffixes
// are ignored.
func parse(v string) [3]int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}

	var out [3]int
	for i, part := range strings.SplitN(v, ".", 3) {
		n, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		out[i] = n
	}
	return out
}

// Package release fetches firmware releases from GitHub (§6). It is kept
// behind the Fetcher interface so the core library never takes a hard
// network dependency: only cmd/esparrierctl constructs a GitHubFetcher.
package release

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	releasesLatestURL = "https://api.github.com/repos/windoze/esparrier/releases/latest"
	releasesByTagURL  = "https://api.github.com/repos/windoze/esparrier/releases/tags"
	userAgent         = "esparrierctl"
)

// Asset is one downloadable file attached to a GitHub release.
type Asset struct {
	Name               string `json:"name"`
	Size               int64  `json:"size"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Info describes a release resolved for a specific device model, before
// its asset has been downloaded.
type Info struct {
	// Tag is the release's git tag, e.g. "v1.4.0".
	Tag string
	// Version is Tag normalized to exactly one leading "v", the form
	// golang.org/x/mod/semver comparison expects.
	Version string
	Asset   Asset
}

// Fetcher resolves and downloads firmware releases for a given device
// model name (device.ModelName's first return value).
type Fetcher interface {
	// Latest resolves the latest release's matching asset for modelName,
	// without downloading it.
	Latest(ctx context.Context, modelName string) (Info, error)
	// Download streams asset's bytes.
	Download(ctx context.Context, asset Asset) (io.ReadCloser, error)
}

// GitHubFetcher is the production Fetcher, backed by GitHub's REST API.
type GitHubFetcher struct {
	HTTPClient *http.Client
}

// NewGitHubFetcher returns a GitHubFetcher with a bounded-timeout client.
func NewGitHubFetcher() *GitHubFetcher {
	return &GitHubFetcher{HTTPClient: &http.Client{Timeout: 30 * time.Second}}
}

type githubRelease struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Latest fetches the repository's latest release and selects the asset
// whose name matches "esparrier-<modelName>-v*.tar.gz".
func (f *GitHubFetcher) Latest(ctx context.Context, modelName string) (Info, error) {
	rel, err := f.fetchRelease(ctx, releasesLatestURL)
	if err != nil {
		return Info{}, err
	}
	return selectAsset(rel, modelName)
}

// ByTag fetches a specific tagged release, e.g. for pinning to a known
// version instead of the latest.
func (f *GitHubFetcher) ByTag(ctx context.Context, modelName, tag string) (Info, error) {
	rel, err := f.fetchRelease(ctx, releasesByTagURL+"/"+tag)
	if err != nil {
		return Info{}, err
	}
	return selectAsset(rel, modelName)
}

func (f *GitHubFetcher) fetchRelease(ctx context.Context, url string) (githubRelease, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return githubRelease{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return githubRelease{}, fmt.Errorf("fetching release metadata: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return githubRelease{}, fmt.Errorf("GitHub API returned %s", resp.Status)
	}

	var rel githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return githubRelease{}, fmt.Errorf("decoding release metadata: %w", err)
	}
	return rel, nil
}

func selectAsset(rel githubRelease, modelName string) (Info, error) {
	prefix := fmt.Sprintf("esparrier-%s-v", modelName)
	for _, asset := range rel.Assets {
		if strings.HasPrefix(asset.Name, prefix) && strings.HasSuffix(asset.Name, ".tar.gz") {
			version := strings.TrimPrefix(rel.TagName, "v")
			return Info{Tag: rel.TagName, Version: "v" + version, Asset: asset}, nil
		}
	}
	return Info{}, fmt.Errorf("no firmware found for model %q in release %s", modelName, rel.TagName)
}

// Download streams asset's bytes from its browser_download_url. The
// caller must close the returned reader.
func (f *GitHubFetcher) Download(ctx context.Context, asset Asset) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, asset.BrowserDownloadURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", asset.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("downloading %s: GitHub returned %s", asset.Name, resp.Status)
	}
	return resp.Body, nil
}

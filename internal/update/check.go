// Package update checks whether a newer release of the updater itself is
// available. All checks fail silently: an update notice is a courtesy, never
// an obstacle to running the tool.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"ukcpup/internal/version"
)

const (
	// releasesURL is the GitHub API endpoint for the latest release
	releasesURL = "https://api.github.com/repos/vatsim-uk/ukcp-updater/releases/latest"

	// releasesPage is the user-facing releases page
	releasesPage = "https://github.com/vatsim-uk/ukcp-updater/releases"

	// checkInterval is how often to check for updates (24 hours)
	checkInterval = 24 * time.Hour

	// httpTimeout is the timeout for the GitHub API request
	httpTimeout = 3 * time.Second

	// cacheFileName sits under the user's .ukcpup directory and throttles
	// the release lookup to one request per check interval
	cacheFileName = "update-check.json"
)

// releaseInfo represents the relevant fields from the GitHub Releases API
type releaseInfo struct {
	TagName string `json:"tag_name"`
}

// Info describes an available update
type Info struct {
	CurrentVersion string
	LatestVersion  string
	ReleasesPage   string
}

// Checker handles update checking with caching
type Checker struct {
	cachePath  string
	endpoint   string
	httpClient *http.Client
}

// NewChecker creates a new update checker
func NewChecker() *Checker {
	var cachePath string
	if home, err := os.UserHomeDir(); err == nil {
		cachePath = filepath.Join(home, ".ukcpup", cacheFileName)
	}
	return &Checker{
		cachePath:  cachePath,
		endpoint:   releasesURL,
		httpClient: http.DefaultClient,
	}
}

// Check checks for an available update, consulting the cache first.
// Returns nil if no update is available, the check is disabled, or any error
// occurs.
func (c *Checker) Check(ctx context.Context) *Info {
	if os.Getenv("UKCPUP_NO_UPDATE_CHECK") != "" {
		return nil
	}

	cached, stale := c.readCache()
	if cached != nil && !stale {
		return c.compareVersions(cached.LatestVersion)
	}

	latest := c.fetchLatestVersion(ctx)
	if latest == "" {
		return nil
	}
	c.writeCache(latest)

	return c.compareVersions(latest)
}

// cacheEntry is the persisted result of the last release lookup
type cacheEntry struct {
	LatestVersion string    `json:"latest_version"`
	CheckedAt     time.Time `json:"checked_at"`
}

// readCache returns the cached lookup result and whether it is stale. A
// missing or unreadable cache counts as stale.
func (c *Checker) readCache() (*cacheEntry, bool) {
	if c.cachePath == "" {
		return nil, true
	}
	data, err := os.ReadFile(c.cachePath)
	if err != nil {
		return nil, true
	}
	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, true
	}
	return &entry, time.Since(entry.CheckedAt) > checkInterval
}

// writeCache stores the lookup result, atomically via a rename. Failures are
// swallowed like every other failure in this package.
func (c *Checker) writeCache(latest string) {
	if c.cachePath == "" {
		return
	}
	data, err := json.Marshal(cacheEntry{LatestVersion: latest, CheckedAt: time.Now()})
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(c.cachePath), 0755); err != nil {
		return
	}
	tmp := c.cachePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return
	}
	_ = os.Rename(tmp, c.cachePath)
}

// fetchLatestVersion fetches the latest version from the GitHub Releases API.
// Returns empty string on any error (silent failure).
func (c *Checker) fetchLatestVersion(ctx context.Context) string {
	ctx, cancel := context.WithTimeout(ctx, httpTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", "ukcpup/"+version.Version)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	var release releaseInfo
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return ""
	}

	return strings.TrimPrefix(release.TagName, "v")
}

// compareVersions returns update info when the latest version is newer than
// the running one.
func (c *Checker) compareVersions(latest string) *Info {
	current := version.Version
	if latest == "" || current == "dev" {
		return nil
	}
	if !isNewerVersion(latest, current) {
		return nil
	}
	return &Info{
		CurrentVersion: current,
		LatestVersion:  latest,
		ReleasesPage:   releasesPage,
	}
}

// parseVersion parses a semver-ish string into major/minor/patch.
// Pre-release suffixes are ignored.
func parseVersion(v string) [3]int {
	if i := strings.IndexByte(v, '-'); i >= 0 {
		v = v[:i]
	}
	var out [3]int
	parts := strings.SplitN(v, ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n := 0
		for _, ch := range parts[i] {
			if ch < '0' || ch > '9' {
				break
			}
			n = n*10 + int(ch-'0')
		}
		out[i] = n
	}
	return out
}

// isNewerVersion reports whether version a is strictly newer than version b
func isNewerVersion(a, b string) bool {
	va, vb := parseVersion(a), parseVersion(b)
	for i := 0; i < 3; i++ {
		if va[i] != vb[i] {
			return va[i] > vb[i]
		}
	}
	return false
}

// Notice formats a one-line update notice for display after a command runs.
func (i *Info) Notice() string {
	return fmt.Sprintf("A new release is available: %s -> %s (%s)",
		i.CurrentVersion, i.LatestVersion, i.ReleasesPage)
}

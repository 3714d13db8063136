// Package sector locates and replaces the versioned sector file the rest of
// the controller pack references. Exactly one sector file may exist in a pack;
// its name embeds the release tag it was built for.
package sector

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"

	"ukcpup/internal/errors"
)

// fetchTimeout bounds the sector archive download.
const fetchTimeout = 30 * time.Second

// supersededExtensions are the sibling files replaced together with the
// sector file itself.
var supersededExtensions = []string{".sct", ".ese", ".rwy"}

// FindAll walks workingDir and returns every sector (.sct) file beneath it.
func FindAll(workingDir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(workingDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".sct") {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.New(errors.InternalError, "searching for sector files", err)
	}
	return found, nil
}

// Resolve walks workingDir for sector (.sct) files and returns the single
// match. Zero or multiple matches is AmbiguousReferenceFile: the pack is in a
// state only a re-download can repair.
func Resolve(workingDir string) (string, error) {
	found, err := FindAll(workingDir)
	if err != nil {
		return "", err
	}
	if len(found) != 1 {
		return "", errors.New(errors.AmbiguousReferenceFile,
			fmt.Sprintf("found %d sector files, expected exactly 1", len(found)), nil).
			WithDetails(found)
	}
	return found[0], nil
}

// TagFilename converts a release tag into the form embedded in sector file
// names ("2023/05" becomes "2023_05").
func TagFilename(tag string) string {
	return strings.ReplaceAll(tag, "/", "_")
}

// IsCurrent reports whether the sector file at path was built for the given
// release tag.
func IsCurrent(path, tag string) bool {
	return strings.Contains(filepath.Base(path), TagFilename(tag))
}

// Fetcher downloads and installs sector archives.
type Fetcher struct {
	BaseURL string
	Client  *http.Client
	Logger  *slog.Logger
}

// NewFetcher creates a Fetcher against the given distribution base URL.
func NewFetcher(baseURL string, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Fetcher{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: fetchTimeout},
		Logger:  logger,
	}
}

// ArchiveURL returns the download URL for the sector archive of a release tag.
func (f *Fetcher) ArchiveURL(tag string) string {
	base := f.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return fmt.Sprintf("%sUK_%s.zip", base, TagFilename(tag))
}

// Fetch downloads the archive at url.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.New(errors.DownloadFailed, fmt.Sprintf("building request for %s", url), err)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, errors.New(errors.DownloadFailed, fmt.Sprintf("fetching %s", url), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.DownloadFailed,
			fmt.Sprintf("fetching %s: unexpected status %s", url, resp.Status), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.New(errors.DownloadFailed, fmt.Sprintf("reading %s", url), err)
	}
	return data, nil
}

// Extract unpacks a sector archive into destDir. Entries escaping destDir are
// rejected.
func Extract(data []byte, destDir string) error {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return errors.New(errors.DownloadFailed, "opening sector archive", err)
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return errors.New(errors.DownloadFailed, "creating sector data directory", err)
	}

	for _, entry := range zr.File {
		target := filepath.Join(destDir, filepath.FromSlash(entry.Name))
		rel, err := filepath.Rel(destDir, target)
		if err != nil || strings.HasPrefix(rel, "..") {
			return errors.New(errors.DownloadFailed,
				fmt.Sprintf("archive entry %q escapes the destination", entry.Name), nil)
		}
		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return errors.New(errors.DownloadFailed, "creating archive directory", err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return errors.New(errors.DownloadFailed, "creating archive directory", err)
		}
		if err := extractFile(entry, target); err != nil {
			return err
		}
	}
	return nil
}

func extractFile(entry *zip.File, target string) error {
	in, err := entry.Open()
	if err != nil {
		return errors.New(errors.DownloadFailed, fmt.Sprintf("reading archive entry %s", entry.Name), err)
	}
	defer in.Close()

	out, err := os.Create(target)
	if err != nil {
		return errors.New(errors.DownloadFailed, fmt.Sprintf("writing %s", target), err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return errors.New(errors.DownloadFailed, fmt.Sprintf("writing %s", target), err)
	}
	return nil
}

// RemoveSet deletes the sector file at path together with its .ese and .rwy
// siblings. Missing siblings are ignored.
func RemoveSet(path string) error {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	for _, ext := range supersededExtensions {
		err := os.Remove(stem + ext)
		if err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

// Replace downloads the sector archive for tag, unpacks it into dataDir,
// removes the superseded file set and returns the path of the new sector
// file.
func (f *Fetcher) Replace(ctx context.Context, dataDir, oldSector, tag string) (string, error) {
	url := f.ArchiveURL(tag)
	f.Logger.Debug("Downloading sector archive", "url", url)

	data, err := f.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if err := Extract(data, dataDir); err != nil {
		return "", err
	}
	if oldSector != "" {
		if err := RemoveSet(oldSector); err != nil {
			f.Logger.Warn("Could not remove superseded sector files", "error", err)
		}
	}

	newPath := filepath.Join(dataDir, fmt.Sprintf("UK_%s.sct", TagFilename(tag)))
	if _, err := os.Stat(newPath); err != nil {
		return "", errors.New(errors.DownloadFailed,
			fmt.Sprintf("archive did not contain the expected sector file %s", filepath.Base(newPath)), err)
	}
	f.Logger.Info("Sector file replaced", "path", newPath)
	return newPath, nil
}

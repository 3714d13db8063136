// Package extract harvests candidate custom settings from unified diffs of a
// user's locally modified files against the reference release tag.
package extract

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"
)

// Candidate is one added line eligible for a retention decision.
type Candidate struct {
	FilePath string
	Line     string
}

// candidatePattern keeps only added lines starting with an alphabetic
// character, which excludes pure punctuation and structural diff noise.
var candidatePattern = regexp.MustCompile(`^[A-Za-z]`)

// excludePatterns drop additions that always differ between releases and are
// handled elsewhere: the sector file path/title lines, and the vSMR ground
// trail line that git flags whenever anything is appended below it.
var excludePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^SECTOR(FILE|TITLE)`),
	regexp.MustCompile(`^PLUGIN:vSMR:GndTrailsDots`),
}

// skippedExtensions are file types the review never diffs. Profiles carry
// the login credentials and are rebuilt wholesale by the merge; sector files
// are replaced as a set by the downloader.
var skippedExtensions = map[string]bool{
	".prf": true,
	".sct": true,
	".ese": true,
	".rwy": true,
}

// Reviewable reports whether a changed file is eligible for the line-by-line
// review. Files handled by other pipeline stages never enter it.
func Reviewable(path string) bool {
	return !skippedExtensions[strings.ToLower(filepath.Ext(path))]
}

// ExtractCandidates parses a unified diff and returns the added lines that
// pass the content heuristic, in diff scan order. Duplicate lines within the
// same diff are emitted once. filePath labels the candidates; the diff is
// expected to cover a single file but multi-file input is tolerated.
func ExtractCandidates(filePath, diffText string) ([]Candidate, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	fileDiffs, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, fmt.Errorf("failed to parse diff for %s: %w", filePath, err)
	}

	var out []Candidate
	seen := make(map[string]struct{})

	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			for _, line := range strings.Split(string(hunk.Body), "\n") {
				if len(line) == 0 || line[0] != '+' {
					continue
				}
				content := line[1:]
				if !keep(content) {
					continue
				}
				if _, dup := seen[content]; dup {
					continue
				}
				seen[content] = struct{}{}
				out = append(out, Candidate{FilePath: filePath, Line: content})
			}
		}
	}

	return out, nil
}

// keep applies the alphabetic-start and exclude-pattern filters.
func keep(content string) bool {
	if !candidatePattern.MatchString(content) {
		return false
	}
	for _, p := range excludePatterns {
		if p.MatchString(content) {
			return false
		}
	}
	return true
}

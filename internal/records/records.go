// Package records persists retained customizations harvested during a
// reconciliation run. The flat CSV store is the hand-off between the change
// review and the settings merge; the sqlite journal is an audit trail of runs.
package records

import "strings"

// Record is one retained custom line from a diff, keyed by file path and content.
type Record struct {
	FilePath    string
	LineContent string
}

// Store is the persistence surface the change extractor streams into and the
// settings merger reads back.
type Store interface {
	// Append persists one retained record. Duplicate (filePath, lineContent)
	// pairs are suppressed and do not error.
	Append(rec Record) error

	// All returns every stored record in insertion order.
	All() ([]Record, error)

	// ForFile returns the stored records that refer to the file at path,
	// per MatchesFile.
	ForFile(path string) ([]Record, error)

	Close() error
}

// MatchesFile reports whether a stored record path refers to the file at
// filePath. Record paths come from the version-control collaborator and are
// repo-relative with forward slashes; filePath may be absolute and
// platform-native, so matching is by normalized suffix.
func MatchesFile(filePath, recordPath string) bool {
	norm := func(p string) string {
		return strings.ReplaceAll(p, "\\", "/")
	}
	return strings.HasSuffix(norm(filePath), norm(recordPath))
}

package merge

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// rewriteFunc recomputes a file's lines. It returns the new lines and whether
// anything changed; an unchanged file is not rewritten.
type rewriteFunc func(path string, lines []string) ([]string, bool, error)

// forEachFile walks root for files with the given extension and applies fn to
// each, rewriting the file in full when fn reports a change. I/O errors on a
// single file are logged and skipped so one bad file never aborts the stage.
func (s *Session) forEachFile(root, ext string, fn rewriteFunc) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ext) {
			return nil
		}
		s.logger.Debug("Found target file", "path", path)

		lines, eol, err := readLines(path)
		if err != nil {
			s.logger.Warn("Skipping unreadable file", "path", path, "error", err)
			return nil
		}
		out, changed, err := fn(path, lines)
		if err != nil {
			s.logger.Warn("Skipping file after rewrite error", "path", path, "error", err)
			return nil
		}
		if !changed {
			return nil
		}
		if err := writeLines(path, out, eol); err != nil {
			s.logger.Warn("Failed to rewrite file", "path", path, "error", err)
		}
		return nil
	})
}

// readLines loads a whole file and splits it into lines, remembering the line
// ending so the rewrite preserves it. A trailing newline is represented by the
// absence of a final empty element.
func readLines(path string) ([]string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	eol := "\n"
	if strings.Contains(string(data), "\r\n") {
		eol = "\r\n"
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil, eol, nil
	}
	return strings.Split(text, "\n"), eol, nil
}

// writeLines truncates and rewrites the whole file. Rewriting in full avoids
// interleaved corruption when the new content is shorter than the old.
func writeLines(path string, lines []string, eol string) error {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString(eol)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

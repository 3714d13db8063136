package records

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// csvHeader is the fixed two-column header of the flat record file
var csvHeader = []string{"filepath", "data"}

// CSVStore persists records to a flat filepath,data table. Appends are
// flushed immediately so partial progress survives an interrupted run.
type CSVStore struct {
	path   string
	file   *os.File
	writer *csv.Writer
	seen   map[Record]struct{}
	order  []Record
}

// CreateCSV starts a fresh record file at path, discarding whatever a
// previous run left behind. The record file carries one run's harvest from
// review to merge and nothing longer-lived.
func CreateCSV(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to reset record file: %w", err)
	}
	return OpenCSV(path)
}

// OpenCSV opens or creates the flat record file at path. An existing file is
// read back so an interrupted run can resume where it stopped.
func OpenCSV(path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create record directory: %w", err)
	}

	existing, err := readAll(path)
	if err != nil {
		return nil, err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}

	s := &CSVStore{
		path:   path,
		file:   f,
		writer: csv.NewWriter(f),
		seen:   make(map[Record]struct{}, len(existing)),
		order:  existing,
	}
	for _, rec := range existing {
		s.seen[rec] = struct{}{}
	}

	if len(existing) == 0 {
		info, err := f.Stat()
		if err != nil {
			f.Close()
			return nil, err
		}
		if info.Size() == 0 {
			if err := s.writer.Write(csvHeader); err != nil {
				f.Close()
				return nil, err
			}
			s.writer.Flush()
		}
	}

	return s, nil
}

// Append persists one record, flushing immediately. Duplicates are dropped.
func (s *CSVStore) Append(rec Record) error {
	if _, ok := s.seen[rec]; ok {
		return nil
	}

	if err := s.writer.Write([]string{rec.FilePath, rec.LineContent}); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush record: %w", err)
	}

	s.seen[rec] = struct{}{}
	s.order = append(s.order, rec)
	return nil
}

// All returns every stored record in insertion order.
func (s *CSVStore) All() ([]Record, error) {
	out := make([]Record, len(s.order))
	copy(out, s.order)
	return out, nil
}

// ForFile returns the stored records that refer to the file at path.
func (s *CSVStore) ForFile(path string) ([]Record, error) {
	var out []Record
	for _, rec := range s.order {
		if MatchesFile(path, rec.FilePath) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Close flushes and closes the underlying file.
func (s *CSVStore) Close() error {
	s.writer.Flush()
	return s.file.Close()
}

// Path returns the location of the flat record file.
func (s *CSVStore) Path() string {
	return s.path
}

// readAll loads the records already present at path, skipping the header.
// A missing file is not an error.
func readAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	var out []Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record file: %w", err)
		}
		if first {
			first = false
			if row[0] == csvHeader[0] {
				continue
			}
		}
		out = append(out, Record{FilePath: row[0], LineContent: row[1]})
	}
	return out, nil
}

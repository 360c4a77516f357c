package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"naver-map-bookmarker/models"
)

// CSVWriter records failed rows in a CSV whose first two columns use the
// input's column labels, so the file can be fed back in as a re-run input.
type CSVWriter struct {
	mu     sync.Mutex
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path, nameColumn, addressColumn string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write([]string{nameColumn, addressColumn, "row", "stage", "error"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{file: f, writer: w}, nil
}

// WriteResult appends r if it failed. Successful rows are ignored.
func (c *CSVWriter) WriteResult(r *models.RowResult) error {
	if r == nil || r.OK() {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	msg := ""
	if r.Err != nil {
		msg = r.Err.Error()
	}
	row := []string{
		r.Place.Name,
		r.Place.Address,
		strconv.Itoa(r.Place.Row),
		string(r.Stage),
		msg,
	}
	if err := c.writer.Write(row); err != nil {
		return fmt.Errorf("csv: write row: %w", err)
	}

	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

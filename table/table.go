// Package table reads and writes whole CSV files held in memory.
package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ErrMissingColumn is returned when an expected column is not in the header
var ErrMissingColumn = errors.New("missing expected column")

// Table is a CSV file with a header row
type Table struct {
	Header []string
	Rows   [][]string
}

// Read loads the CSV file at path
func Read(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}

// Decode parses a CSV stream whose first record is the header
func Decode(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, errors.New("empty csv: no header row")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	t := &Table{Header: header}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(t.Rows)+1, err)
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

// Write stores the table at path, creating parent directories as needed
func Write(path string, t *Table) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	bw := bufio.NewWriter(f)
	if err := t.Encode(bw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("flush %s: %w", path, err)
	}
	return f.Close()
}

// Encode writes the header and all rows as CSV
func (t *Table) Encode(w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(t.Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Index returns the position of column in the header, or -1
func (t *Table) Index(column string) int {
	for i, name := range t.Header {
		if strings.TrimSpace(name) == column {
			return i
		}
	}
	return -1
}

// MustIndex is like Index but reports a missing column as an error
func (t *Table) MustIndex(column string) (int, error) {
	idx := t.Index(column)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %q", ErrMissingColumn, column)
	}
	return idx, nil
}

// SetColumn overwrites column with values, appending it when absent.
// values must hold one entry per row.
func (t *Table) SetColumn(column string, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", column, len(values), len(t.Rows))
	}

	idx := t.Index(column)
	if idx < 0 {
		t.Header = append(t.Header, column)
		idx = len(t.Header) - 1
	}
	for i, row := range t.Rows {
		for len(row) <= idx {
			row = append(row, "")
		}
		row[idx] = values[i]
		t.Rows[i] = row
	}
	return nil
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

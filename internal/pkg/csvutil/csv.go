// Package csvutil converts between CSV text and header-keyed rows.
package csvutil

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrNoHeader = errors.New("csv: missing header row")

// Parse reads a CSV document whose first record is the header row and
// returns one map per data record. Cells and headers are trimmed, a UTF-8
// BOM on the first header is dropped and blank lines are skipped. Records
// shorter than the header leave the missing keys empty.
func Parse(r io.Reader) ([]map[string]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv record: %w", err)
		}
		if blank(rec) {
			continue
		}

		row := make(map[string]string, len(header))
		for i, h := range header {
			if h == "" {
				continue
			}
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Write emits headers followed by rows. Each row must have len(headers)
// cells; quoting is handled by encoding/csv.
func Write(w io.Writer, headers []string, rows [][]string) error {
	cw := NewWriter(w, headers)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.WriteRow(r); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// Writer streams rows so large exports never sit in memory at once.
type Writer struct {
	w       *csv.Writer
	headers []string
}

func NewWriter(w io.Writer, headers []string) *Writer {
	return &Writer{w: csv.NewWriter(w), headers: headers}
}

func (w *Writer) WriteHeader() error {
	return w.w.Write(w.headers)
}

func (w *Writer) WriteRow(cells []string) error {
	if len(cells) != len(w.headers) {
		return fmt.Errorf("csv: row has %d cells, want %d", len(cells), len(w.headers))
	}
	return w.w.Write(cells)
}

func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

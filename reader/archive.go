package reader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"cotreport/models"

	"github.com/klauspost/compress/zip"
)

var utf8BOM = []byte("\ufeff")

// Rows iterates the records of the table stored in an archive. Rows are
// decoded one at a time; nothing beyond the current record is buffered.
type Rows struct {
	name    string
	entry   io.ReadCloser
	csv     *csv.Reader
	columns []string
	count   int
}

// DecodeArchive opens data as a zip container and prepares the first file
// inside it for row-by-row reading. The header row is read eagerly so that
// column problems surface here rather than on the first Next call.
func DecodeArchive(data []byte) (*Rows, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedArchive, err)
	}

	var file *zip.File
	for _, f := range zr.File {
		if !f.FileInfo().IsDir() {
			file = f
			break
		}
	}
	if file == nil {
		return nil, fmt.Errorf("%w: archive has no entries", models.ErrMalformedArchive)
	}

	entry, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", models.ErrMalformedArchive, file.Name, err)
	}

	br := bufio.NewReader(entry)
	if prefix, _ := br.Peek(len(utf8BOM)); bytes.Equal(prefix, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			entry.Close()
			return nil, fmt.Errorf("%w: read %s: %v", models.ErrMalformedTable, file.Name, err)
		}
	}

	r := csv.NewReader(br)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		entry.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s has no header row", models.ErrMalformedTable, file.Name)
		}
		return nil, fmt.Errorf("%w: read header of %s: %v", models.ErrMalformedTable, file.Name, err)
	}

	columns, err := normalizeHeader(header)
	if err != nil {
		entry.Close()
		return nil, fmt.Errorf("%w: %s: %v", models.ErrMalformedTable, file.Name, err)
	}

	return &Rows{
		name:    file.Name,
		entry:   entry,
		csv:     r,
		columns: columns,
	}, nil
}

func normalizeHeader(header []string) ([]string, error) {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			return nil, fmt.Errorf("column %d has an empty name", i+1)
		}
		if prev, ok := seen[h]; ok {
			return nil, fmt.Errorf("column %q appears at positions %d and %d", h, prev+1, i+1)
		}
		seen[h] = i
		columns[i] = h
	}
	return columns, nil
}

// Next returns the next record keyed by column name, or io.EOF once the
// table is exhausted.
func (r *Rows) Next() (models.RawRow, error) {
	record, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: %s: %v", models.ErrMalformedTable, r.name, err)
	}

	if len(record) != len(r.columns) {
		line, _ := r.csv.FieldPos(0)
		return nil, fmt.Errorf("%w: %s line %d has %d fields, header has %d",
			models.ErrMalformedTable, r.name, line, len(record), len(r.columns))
	}

	row := make(models.RawRow, len(record))
	for i, v := range record {
		row[r.columns[i]] = strings.TrimSpace(v)
	}
	r.count++
	return row, nil
}

// Columns returns the header of the table.
func (r *Rows) Columns() []string {
	out := make([]string, len(r.columns))
	copy(out, r.columns)
	return out
}

// Name is the archive entry the rows are read from.
func (r *Rows) Name() string { return r.name }

// Count is the number of records returned so far.
func (r *Rows) Count() int { return r.count }

func (r *Rows) Close() error {
	if r.entry == nil {
		return nil
	}
	err := r.entry.Close()
	r.entry = nil
	return err
}

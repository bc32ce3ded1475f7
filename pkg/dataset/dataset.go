// Package dataset holds the in-memory table of reviews a session works on
// and the delimiter-sniffing parser that produces it.
package dataset

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Dataset is a parsed delimited file: a header row plus string cells.
// It is replaced wholesale on re-upload and never mutated in place.
type Dataset struct {
	Header    []string   `json:"columns"`
	Rows      [][]string `json:"-"`
	Delimiter rune       `json:"-"`
}

// Len returns the number of data rows.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// HasColumn reports whether name is one of the header columns.
func (d *Dataset) HasColumn(name string) bool {
	return d.columnIndex(name) >= 0
}

func (d *Dataset) columnIndex(name string) int {
	for i, h := range d.Header {
		if h == name {
			return i
		}
	}
	return -1
}

// Column extracts one column as optional strings. Empty cells are nil.
func (d *Dataset) Column(name string) ([]*string, error) {
	idx := d.columnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in header %v", name, d.Header)
	}
	out := make([]*string, len(d.Rows))
	for i, row := range d.Rows {
		if idx >= len(row) || row[idx] == "" {
			continue
		}
		cell := row[idx]
		out[i] = &cell
	}
	return out, nil
}

// Labels extracts a column as integer class labels ("1", "0", "1.0", "true").
func (d *Dataset) Labels(name string) ([]int, error) {
	idx := d.columnIndex(name)
	if idx < 0 {
		return nil, fmt.Errorf("column %q not found in header %v", name, d.Header)
	}
	out := make([]int, len(d.Rows))
	for i, row := range d.Rows {
		if idx >= len(row) {
			return nil, fmt.Errorf("row %d: missing label", i+1)
		}
		v, err := toLabel(strings.TrimSpace(row[idx]))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}

func toLabel(cell string) (int, error) {
	if v, err := cast.ToIntE(cell); err == nil {
		return v, nil
	}
	if f, err := cast.ToFloat64E(cell); err == nil && f == float64(int(f)) {
		return int(f), nil
	}
	if b, err := cast.ToBoolE(cell); err == nil {
		return cast.ToInt(b), nil
	}
	return 0, fmt.Errorf("label %q is not an integer", cell)
}

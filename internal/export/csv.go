package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrNoRecords is returned when there is nothing to derive a header from.
	ErrNoRecords = errors.New("no records to export")
	// ErrHeterogeneousRows is returned when a row's keys differ from the header.
	ErrHeterogeneousRows = errors.New("rows do not share the same columns")
)

// Field is one named value of an exported row.
type Field struct {
	Key   string
	Value string
}

// Row is an ordered list of fields.
type Row []Field

// Keys returns the row's keys in order.
func (r Row) Keys() []string {
	keys := make([]string, len(r))
	for i, f := range r {
		keys[i] = f.Key
	}
	return keys
}

// Values returns the row's values in order.
func (r Row) Values() []string {
	vals := make([]string, len(r))
	for i, f := range r {
		vals[i] = f.Value
	}
	return vals
}

// WriteCSV writes rows to w as CSV. The header is the first row's key
// sequence and every later row must carry exactly the same keys in the same
// order. Validation happens before anything is written.
func WriteCSV(w io.Writer, rows []Row) error {
	if len(rows) == 0 {
		return ErrNoRecords
	}

	header := rows[0].Keys()
	for i, row := range rows[1:] {
		if !sameKeys(header, row) {
			return fmt.Errorf("row %d: %w", i+2, ErrHeterogeneousRows)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for i, row := range rows {
		if err := cw.Write(row.Values()); err != nil {
			return fmt.Errorf("write csv row %d: %w", i+1, err)
		}
	}
	cw.Flush()

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func sameKeys(header []string, row Row) bool {
	if len(header) != len(row) {
		return false
	}
	for i, f := range row {
		if f.Key != header[i] {
			return false
		}
	}
	return true
}

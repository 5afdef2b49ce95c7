package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// WriteCSV writes the table as CSV with a header row.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	cols := t.Columns()

	if err := cw.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	record := make([]string, len(cols))
	for ri := range t.Rows {
		r := &t.Rows[ri]
		for ci, c := range cols {
			if c.Kind == KindInt {
				record[ci] = strconv.FormatInt(t.IntValue(r, ci), 10)
			} else {
				record[ci] = strconv.FormatFloat(t.FloatValue(r, ci), 'g', -1, 64)
			}
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv row %d: %w", ri, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadCSV reads a table written by WriteCSV.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("csv: missing header")
		}
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	projections, err := projectionsFromColumns(append([]string(nil), header...))
	if err != nil {
		return nil, fmt.Errorf("csv header: %w", err)
	}

	t := New(projections)
	cols := t.Columns()
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv: %w", err)
		}

		row := t.newRow()
		for ci, c := range cols {
			if c.Kind == KindInt {
				v, err := strconv.ParseInt(record[ci], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("csv line %d column %s: %w", line, c.Name, err)
				}
				t.setInt(&row, ci, v)
			} else {
				v, err := strconv.ParseFloat(record[ci], 64)
				if err != nil {
					return nil, fmt.Errorf("csv line %d column %s: %w", line, c.Name, err)
				}
				t.setFloat(&row, ci, v)
			}
		}
		t.Append(row)
	}

	return t, nil
}

package circuit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// csvFile reads a headed CSV file row by row and looks up columns by name.
type csvFile struct {
	path    string
	f       *os.File
	r       *csv.Reader
	columns map[string]int
	line    int
	row     []string
}

func openCSV(path string, required ...string) (*csvFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	r := csv.NewReader(f)
	r.Comment = '#'
	r.TrimLeadingSpace = true
	r.ReuseRecord = true

	header, err := r.Read()
	if err != nil {
		f.Close()
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: missing header", path)
		}
		return nil, fmt.Errorf("%s: reading header: %w", path, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			f.Close()
			return nil, fmt.Errorf("%s: missing required column %q", path, name)
		}
	}
	r.FieldsPerRecord = len(header)

	return &csvFile{path: path, f: f, r: r, columns: columns, line: 1}, nil
}

// next advances to the next row. It returns false at end of file.
func (c *csvFile) next() (bool, error) {
	row, err := c.r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", c.path, err)
	}
	c.line, _ = c.r.FieldPos(0)
	c.row = row
	return true, nil
}

func (c *csvFile) str(column string) string {
	return strings.TrimSpace(c.row[c.columns[column]])
}

func (c *csvFile) parseInt(column string) (int64, error) {
	v, err := strconv.ParseInt(c.str(column), 10, 64)
	if err != nil {
		return 0, c.errorf("column %s: %w", column, err)
	}
	return v, nil
}

func (c *csvFile) parseFloat(column string) (float64, error) {
	v, err := strconv.ParseFloat(c.str(column), 64)
	if err != nil {
		return 0, c.errorf("column %s: %w", column, err)
	}
	return v, nil
}

func (c *csvFile) errorf(format string, args ...any) error {
	return fmt.Errorf("%s:%d: %w", c.path, c.line, fmt.Errorf(format, args...))
}

func (c *csvFile) close() error {
	return c.f.Close()
}

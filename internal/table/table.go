// Package table defines the per-neuron cell table produced by an extraction
// run, along with its file codecs and summary statistics.
package table

import (
	"fmt"
	"slices"
	"strings"

	"github.com/nvandessel/dendsyn/internal/constants"
)

// Row holds the results for one neuron. ProjectionCounts and
// ProjectionDensities are aligned with Table.Projections.
type Row struct {
	GID     int64
	X, Y, Z float64

	// DendriteLength is the total basal plus apical dendrite length in um.
	DendriteLength float64

	LocalECount int64
	LocalICount int64

	ProjectionCounts []int64

	LocalEDensity float64
	LocalIDensity float64

	ProjectionDensities []float64
}

// Table is a cell table: one row per neuron, in target order.
type Table struct {
	Projections []string
	Rows        []Row
}

// New creates an empty table with the given projection columns.
func New(projections []string) *Table {
	return &Table{Projections: slices.Clone(projections)}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds rows to the table.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Row returns the row of a gid.
func (t *Table) Row(gid int64) (Row, bool) {
	for _, r := range t.Rows {
		if r.GID == gid {
			return r, true
		}
	}
	return Row{}, false
}

// GIDs returns the gids of all rows in order.
func (t *Table) GIDs() []int64 {
	gids := make([]int64, len(t.Rows))
	for i, r := range t.Rows {
		gids[i] = r.GID
	}
	return gids
}

// Concat joins tables in order. All tables must share the same projections.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return New(nil), nil
	}

	out := New(tables[0].Projections)
	for i, t := range tables {
		if !slices.Equal(t.Projections, out.Projections) {
			return nil, fmt.Errorf("table %d has projections %v, want %v", i, t.Projections, out.Projections)
		}
		out.Append(t.Rows...)
	}
	return out, nil
}

// Validate checks the table invariants: projection values are aligned with
// the projection columns, gids are unique and counts, lengths and densities
// are non-negative.
func (t *Table) Validate() error {
	seen := make(map[int64]bool, len(t.Rows))
	for _, r := range t.Rows {
		if seen[r.GID] {
			return fmt.Errorf("duplicate gid %d", r.GID)
		}
		seen[r.GID] = true

		if len(r.ProjectionCounts) != len(t.Projections) || len(r.ProjectionDensities) != len(t.Projections) {
			return fmt.Errorf("gid %d: projection values do not match %d projections", r.GID, len(t.Projections))
		}
		if r.DendriteLength < 0 || r.LocalECount < 0 || r.LocalICount < 0 {
			return fmt.Errorf("gid %d: negative length or count", r.GID)
		}
		if !(r.LocalEDensity >= 0) || !(r.LocalIDensity >= 0) {
			return fmt.Errorf("gid %d: density must be non-negative", r.GID)
		}
		for i, p := range t.Projections {
			if r.ProjectionCounts[i] < 0 || !(r.ProjectionDensities[i] >= 0) {
				return fmt.Errorf("gid %d: negative %s count or density", r.GID, p)
			}
		}
	}
	return nil
}

// Kind is the value type of a column.
type Kind int

const (
	KindInt Kind = iota
	KindFloat
)

// Column describes a table column.
type Column struct {
	Name string
	Kind Kind
}

// Columns returns the column layout:
// gid, x, y, z, total_dendrite_length, local_E_syn_count, local_I_syn_count,
// <proj>_count..., local_E_syn_density, local_I_syn_density, <proj>_density...
func (t *Table) Columns() []Column {
	cols := []Column{
		{constants.ColGID, KindInt},
		{constants.ColX, KindFloat},
		{constants.ColY, KindFloat},
		{constants.ColZ, KindFloat},
		{constants.ColDendriteLength, KindFloat},
		{constants.ColLocalECount, KindInt},
		{constants.ColLocalICount, KindInt},
	}
	for _, p := range t.Projections {
		cols = append(cols, Column{p + constants.CountSuffix, KindInt})
	}
	cols = append(cols,
		Column{constants.ColLocalEDensity, KindFloat},
		Column{constants.ColLocalIDensity, KindFloat},
	)
	for _, p := range t.Projections {
		cols = append(cols, Column{p + constants.DensitySuffix, KindFloat})
	}
	return cols
}

// ColumnNames returns the column names in layout order.
func (t *Table) ColumnNames() []string {
	cols := t.Columns()
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// column indices of the fixed part of the layout
const (
	colGID = iota
	colX
	colY
	colZ
	colLength
	colECount
	colICount
	numLeading
)

// IntValue returns the value of an integer column of a row.
func (t *Table) IntValue(r *Row, col int) int64 {
	np := len(t.Projections)
	switch {
	case col == colGID:
		return r.GID
	case col == colECount:
		return r.LocalECount
	case col == colICount:
		return r.LocalICount
	case col >= numLeading && col < numLeading+np:
		return r.ProjectionCounts[col-numLeading]
	}
	panic(fmt.Sprintf("table: column %d is not an integer column", col))
}

// FloatValue returns the value of a column of a row as float64.
func (t *Table) FloatValue(r *Row, col int) float64 {
	np := len(t.Projections)
	switch {
	case col == colX:
		return r.X
	case col == colY:
		return r.Y
	case col == colZ:
		return r.Z
	case col == colLength:
		return r.DendriteLength
	case col == numLeading+np:
		return r.LocalEDensity
	case col == numLeading+np+1:
		return r.LocalIDensity
	case col >= numLeading+np+2 && col < numLeading+2*np+2:
		return r.ProjectionDensities[col-numLeading-np-2]
	}
	return float64(t.IntValue(r, col))
}

// setInt sets an integer column of a row. Rows must have projection slices allocated.
func (t *Table) setInt(r *Row, col int, v int64) {
	np := len(t.Projections)
	switch {
	case col == colGID:
		r.GID = v
	case col == colECount:
		r.LocalECount = v
	case col == colICount:
		r.LocalICount = v
	case col >= numLeading && col < numLeading+np:
		r.ProjectionCounts[col-numLeading] = v
	default:
		panic(fmt.Sprintf("table: column %d is not an integer column", col))
	}
}

// setFloat sets a float column of a row. Rows must have projection slices allocated.
func (t *Table) setFloat(r *Row, col int, v float64) {
	np := len(t.Projections)
	switch {
	case col == colX:
		r.X = v
	case col == colY:
		r.Y = v
	case col == colZ:
		r.Z = v
	case col == colLength:
		r.DendriteLength = v
	case col == numLeading+np:
		r.LocalEDensity = v
	case col == numLeading+np+1:
		r.LocalIDensity = v
	case col >= numLeading+np+2 && col < numLeading+2*np+2:
		r.ProjectionDensities[col-numLeading-np-2] = v
	default:
		panic(fmt.Sprintf("table: column %d is not a float column", col))
	}
}

// newRow allocates a row with projection slices sized for the table.
func (t *Table) newRow() Row {
	return Row{
		ProjectionCounts:    make([]int64, len(t.Projections)),
		ProjectionDensities: make([]float64, len(t.Projections)),
	}
}

// projectionsFromColumns recovers projection names from a column header and
// checks the header matches the layout.
func projectionsFromColumns(names []string) ([]string, error) {
	fixed := numLeading + 2
	if len(names) < fixed || (len(names)-fixed)%2 != 0 {
		return nil, fmt.Errorf("unexpected column count %d", len(names))
	}
	np := (len(names) - fixed) / 2

	projections := make([]string, np)
	for i := 0; i < np; i++ {
		name := names[numLeading+i]
		base, ok := strings.CutSuffix(name, constants.CountSuffix)
		if !ok || base == "" {
			return nil, fmt.Errorf("column %q is not a projection count column", name)
		}
		projections[i] = base
	}

	want := New(projections).ColumnNames()
	if !slices.Equal(names, want) {
		return nil, fmt.Errorf("columns %v do not match layout %v", names, want)
	}
	return projections, nil
}

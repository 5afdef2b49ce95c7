package table

import (
	"encoding/json"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ColumnSummary holds descriptive statistics of one column.
type ColumnSummary struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// MarshalJSON encodes undefined statistics (NaN) as null.
func (s ColumnSummary) MarshalJSON() ([]byte, error) {
	num := func(v float64) *float64 {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	}
	return json.Marshal(struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		Median *float64 `json:"median"`
		Max    *float64 `json:"max"`
	}{s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min), num(s.Median), num(s.Max)})
}

// Values returns the values of a column as float64. The gid column is included.
func (t *Table) Values(col int) []float64 {
	vals := make([]float64, len(t.Rows))
	for i := range t.Rows {
		vals[i] = t.FloatValue(&t.Rows[i], col)
	}
	return vals
}

// Summarize computes count, mean, sample standard deviation, min, median and
// max of every column except gid. Statistics of an empty table are NaN.
func Summarize(t *Table) []ColumnSummary {
	cols := t.Columns()
	out := make([]ColumnSummary, 0, len(cols)-1)
	for ci, c := range cols {
		if ci == colGID {
			continue
		}
		out = append(out, summarize(c.Name, t.Values(ci)))
	}
	return out
}

func summarize(name string, vals []float64) ColumnSummary {
	s := ColumnSummary{Column: name, Count: len(vals)}
	if len(vals) == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Median, s.Max = nan, nan, nan, nan, nan
		return s
	}

	s.Mean, s.Std = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		s.Std = math.NaN()
	}
	s.Min = floats.Min(vals)
	s.Max = floats.Max(vals)

	sorted := slices.Clone(vals)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		s.Median = sorted[mid]
	} else {
		s.Median = (sorted[mid-1] + sorted[mid]) / 2
	}
	return s
}

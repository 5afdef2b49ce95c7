package mcp

import (
	"time"
)

// DensityInfoInput defines the input for density_info tool.
type DensityInfoInput struct{}

// DensityInfoOutput defines the output for density_info tool.
type DensityInfoOutput struct {
	Path          string    `json:"path" jsonschema:"Table file being served"`
	RunID         string    `json:"run_id,omitempty" jsonschema:"ID of the extraction run that produced the table"`
	CircuitConfig string    `json:"circuit_config,omitempty" jsonschema:"Circuit config path of the run"`
	CircuitName   string    `json:"circuit_name,omitempty" jsonschema:"Circuit name derived from the config path"`
	Target        string    `json:"target,omitempty" jsonschema:"Circuit target the table was extracted for"`
	Jobs          int       `json:"jobs,omitempty" jsonschema:"Parallel jobs used by the run"`
	Splits        int       `json:"splits,omitempty" jsonschema:"Data splits used by the run"`
	SplitIndex    int       `json:"split_index" jsonschema:"Split processed by the run, -1 for all"`
	StartedAt     time.Time `json:"started_at,omitzero" jsonschema:"Run start time"`
	FinishedAt    time.Time `json:"finished_at,omitzero" jsonschema:"Run finish time"`
	NumCells      int       `json:"num_cells" jsonschema:"Number of cells in the table"`
	Projections   []string  `json:"projections" jsonschema:"Projection names with count and density columns"`
	Columns       []string  `json:"columns" jsonschema:"Table columns in order"`
}

// DensityCellsInput defines the input for density_cells tool.
type DensityCellsInput struct {
	GIDs   []int64 `json:"gids,omitempty" jsonschema:"Cell gids to return. When empty, rows are returned in table order using offset and limit"`
	Offset int     `json:"offset,omitempty" jsonschema:"Number of rows to skip (default: 0)"`
	Limit  int     `json:"limit,omitempty" jsonschema:"Maximum number of rows to return (default: 20, max: 1000)"`
}

// DensityCellsOutput defines the output for density_cells tool.
type DensityCellsOutput struct {
	Cells    []CellRecord `json:"cells" jsonschema:"Matching cell rows"`
	Count    int          `json:"count" jsonschema:"Number of rows returned"`
	Total    int          `json:"total" jsonschema:"Number of rows in the table"`
	NotFound []int64      `json:"not_found,omitempty" jsonschema:"Requested gids that are not in the table"`
}

// CellRecord is one cell table row.
type CellRecord struct {
	GID            int64                      `json:"gid"`
	X              float64                    `json:"x"`
	Y              float64                    `json:"y"`
	Z              float64                    `json:"z"`
	DendriteLength float64                    `json:"total_dendrite_length"`
	LocalECount    int64                      `json:"local_E_syn_count"`
	LocalICount    int64                      `json:"local_I_syn_count"`
	LocalEDensity  float64                    `json:"local_E_syn_density"`
	LocalIDensity  float64                    `json:"local_I_syn_density"`
	Projections    map[string]ProjectionValue `json:"projections,omitempty"`
}

// ProjectionValue holds the afferent synapse count and density of one projection.
type ProjectionValue struct {
	Count   int64   `json:"count"`
	Density float64 `json:"density"`
}

// DensitySummaryInput defines the input for density_summary tool.
type DensitySummaryInput struct {
	Columns []string `json:"columns,omitempty" jsonschema:"Columns to summarize (default: all except gid)"`
}

// DensitySummaryOutput defines the output for density_summary tool.
type DensitySummaryOutput struct {
	NumCells int           `json:"num_cells" jsonschema:"Number of cells in the table"`
	Columns  []ColumnStats `json:"columns" jsonschema:"Descriptive statistics per column"`
}

// ColumnStats holds descriptive statistics of a column. Statistics that are
// undefined (empty table, std of one value) are null.
type ColumnStats struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Median *float64 `json:"median"`
	Max    *float64 `json:"max"`
}

package mcp

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/dendsyn/internal/table"
)

const (
	defaultCellLimit = 20
	maxCellLimit     = 1000

	summaryResourceURI = "dendsyn://table/summary"
)

// registerTools registers all density tools with the MCP server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "density_info",
		Description: "Describe the served cell table: circuit, target, run parameters, projections and columns",
	}, s.handleDensityInfo)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "density_cells",
		Description: "Get per-neuron dendritic synapse counts and densities, by gid or by page",
	}, s.handleDensityCells)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "density_summary",
		Description: "Descriptive statistics (count, mean, std, min, median, max) of the table columns",
	}, s.handleDensitySummary)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         summaryResourceURI,
		Name:        "dendsyn-table-summary",
		Description: "Overview of the served cell table with per-column statistics.",
		MIMEType:    "text/markdown",
	}, s.handleSummaryResource)
}

// handleSummaryResource renders the table summary as markdown.
func (s *Server) handleSummaryResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	var b strings.Builder
	b.WriteString("# Cell table\n\n")
	if s.run != nil {
		fmt.Fprintf(&b, "Circuit `%s`, target `%s`, %d cells.\n\n", s.run.CircuitName, s.run.Target, s.table.Len())
	} else {
		fmt.Fprintf(&b, "%d cells.\n\n", s.table.Len())
	}

	b.WriteString("| column | count | mean | std | min | median | max |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for _, c := range table.Summarize(s.table) {
		fmt.Fprintf(&b, "| %s | %d | %.4g | %.4g | %.4g | %.4g | %.4g |\n",
			c.Column, c.Count, c.Mean, c.Std, c.Min, c.Median, c.Max)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      summaryResourceURI,
				MIMEType: "text/markdown",
				Text:     b.String(),
			},
		},
	}, nil
}

// handleDensityInfo implements the density_info tool.
func (s *Server) handleDensityInfo(ctx context.Context, req *sdk.CallToolRequest, args DensityInfoInput) (_ *sdk.CallToolResult, _ DensityInfoOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("density_info", start, retErr, nil) }()

	if err := s.limiters.Check("density_info"); err != nil {
		return nil, DensityInfoOutput{}, err
	}

	out := DensityInfoOutput{
		Path:        s.path,
		SplitIndex:  -1,
		NumCells:    s.table.Len(),
		Projections: slices.Clone(s.table.Projections),
		Columns:     s.table.ColumnNames(),
	}
	if out.Projections == nil {
		out.Projections = []string{}
	}
	if r := s.run; r != nil {
		out.RunID = r.ID
		out.CircuitConfig = r.CircuitConfig
		out.CircuitName = r.CircuitName
		out.Target = r.Target
		out.Jobs = r.Jobs
		out.Splits = r.Splits
		out.SplitIndex = r.SplitIndex
		out.StartedAt = r.StartedAt
		out.FinishedAt = r.FinishedAt
	}
	return nil, out, nil
}

// handleDensityCells implements the density_cells tool.
func (s *Server) handleDensityCells(ctx context.Context, req *sdk.CallToolRequest, args DensityCellsInput) (_ *sdk.CallToolResult, _ DensityCellsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("density_cells", start, retErr, map[string]any{
			"gids": gidParams(args.GIDs), "offset": args.Offset, "limit": args.Limit,
		})
	}()

	if err := s.limiters.Check("density_cells"); err != nil {
		return nil, DensityCellsOutput{}, err
	}
	if args.Offset < 0 {
		return nil, DensityCellsOutput{}, fmt.Errorf("offset must be non-negative, got %d", args.Offset)
	}
	if args.Limit < 0 {
		return nil, DensityCellsOutput{}, fmt.Errorf("limit must be non-negative, got %d", args.Limit)
	}

	out := DensityCellsOutput{Cells: []CellRecord{}, Total: s.table.Len()}

	if len(args.GIDs) > 0 {
		if len(args.GIDs) > maxCellLimit {
			return nil, DensityCellsOutput{}, fmt.Errorf("at most %d gids per call, got %d", maxCellLimit, len(args.GIDs))
		}
		for _, gid := range args.GIDs {
			i, ok := s.index[gid]
			if !ok {
				out.NotFound = append(out.NotFound, gid)
				continue
			}
			out.Cells = append(out.Cells, s.record(&s.table.Rows[i]))
		}
		out.Count = len(out.Cells)
		return nil, out, nil
	}

	limit := args.Limit
	if limit == 0 {
		limit = defaultCellLimit
	}
	limit = min(limit, maxCellLimit)

	lo := min(args.Offset, s.table.Len())
	hi := min(lo+limit, s.table.Len())
	for i := lo; i < hi; i++ {
		out.Cells = append(out.Cells, s.record(&s.table.Rows[i]))
	}
	out.Count = len(out.Cells)
	return nil, out, nil
}

// handleDensitySummary implements the density_summary tool.
func (s *Server) handleDensitySummary(ctx context.Context, req *sdk.CallToolRequest, args DensitySummaryInput) (_ *sdk.CallToolResult, _ DensitySummaryOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("density_summary", start, retErr, map[string]any{"columns": len(args.Columns)})
	}()

	if err := s.limiters.Check("density_summary"); err != nil {
		return nil, DensitySummaryOutput{}, err
	}

	summaries := table.Summarize(s.table)
	if len(args.Columns) > 0 {
		byName := make(map[string]table.ColumnSummary, len(summaries))
		for _, c := range summaries {
			byName[c.Column] = c
		}
		selected := make([]table.ColumnSummary, 0, len(args.Columns))
		for _, name := range args.Columns {
			c, ok := byName[name]
			if !ok {
				return nil, DensitySummaryOutput{}, fmt.Errorf("unknown column %q", name)
			}
			selected = append(selected, c)
		}
		summaries = selected
	}

	out := DensitySummaryOutput{NumCells: s.table.Len(), Columns: make([]ColumnStats, len(summaries))}
	for i, c := range summaries {
		out.Columns[i] = ColumnStats{
			Column: c.Column,
			Count:  c.Count,
			Mean:   finite(c.Mean),
			Std:    finite(c.Std),
			Min:    finite(c.Min),
			Median: finite(c.Median),
			Max:    finite(c.Max),
		}
	}
	return nil, out, nil
}

func (s *Server) record(r *table.Row) CellRecord {
	rec := CellRecord{
		GID:            r.GID,
		X:              r.X,
		Y:              r.Y,
		Z:              r.Z,
		DendriteLength: r.DendriteLength,
		LocalECount:    r.LocalECount,
		LocalICount:    r.LocalICount,
		LocalEDensity:  r.LocalEDensity,
		LocalIDensity:  r.LocalIDensity,
	}
	if len(s.table.Projections) > 0 {
		rec.Projections = make(map[string]ProjectionValue, len(s.table.Projections))
		for i, p := range s.table.Projections {
			rec.Projections[p] = ProjectionValue{Count: r.ProjectionCounts[i], Density: r.ProjectionDensities[i]}
		}
	}
	return rec
}

// finite returns nil for NaN and infinities, which JSON cannot carry.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

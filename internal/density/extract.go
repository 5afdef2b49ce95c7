package density

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/nvandessel/dendsyn/internal/circuit"
	"github.com/nvandessel/dendsyn/internal/constants"
	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/nvandessel/dendsyn/internal/morphology"
	"github.com/nvandessel/dendsyn/internal/table"
)

// Source is the circuit data an extraction reads. *circuit.Circuit implements it.
type Source interface {
	CellIDs(target string) ([]int64, error)
	Cell(gid int64) (circuit.Cell, bool)
	AfferentSynapses(gid int64) []circuit.Synapse
	ProjectionNames() []string
	ProjectionAfferentCount(name string, gid int64) (int, error)
}

// MorphologyStats looks up neurite lengths by morphology name.
// *morphology.Loader implements it.
type MorphologyStats interface {
	Stats(name string) (morphology.Stats, error)
}

// Extractor computes cell table rows for gids of one target.
type Extractor struct {
	src         Source
	morphs      MorphologyStats
	target      map[int64]struct{}
	projections []string
	logger      *slog.Logger

	// ProgressSteps is the number of progress reports per Extract call.
	ProgressSteps int
}

// NewExtractor creates an extractor counting local synapses whose
// presynaptic cell is one of targetGIDs.
func NewExtractor(src Source, morphs MorphologyStats, targetGIDs []int64, logger *slog.Logger) *Extractor {
	target := make(map[int64]struct{}, len(targetGIDs))
	for _, gid := range targetGIDs {
		target[gid] = struct{}{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		src:           src,
		morphs:        morphs,
		target:        target,
		projections:   src.ProjectionNames(),
		logger:        logger,
		ProgressSteps: constants.DefaultProgressSteps,
	}
}

// Projections returns the projection names in column order.
func (e *Extractor) Projections() []string {
	return e.projections
}

// Extract builds the cell table rows of gids, in order.
func (e *Extractor) Extract(ctx context.Context, gids []int64) (*table.Table, error) {
	t := table.New(e.projections)
	n := len(gids)
	if n == 0 {
		return t, nil
	}

	e.logger.Info("Creating cell table",
		"projections", len(e.projections), "cells", n, "gids", gidRange(gids))

	t.Rows = make([]table.Row, 0, n)
	step := 0
	if e.ProgressSteps > 0 {
		step = n / e.ProgressSteps
	}
	for idx, gid := range gids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := e.row(gid)
		if err != nil {
			return nil, err
		}
		t.Append(row)
		e.logger.Log(ctx, logging.LevelTrace, "Cell processed",
			"gid", gid, "length", row.DendriteLength, "E", row.LocalECount, "I", row.LocalICount)

		if e.ProgressSteps > 0 && (idx == 0 || step == 0 || (idx+1)%step == 0) {
			e.logger.Info("Progress",
				"gids", fmt.Sprintf("%d..%d", gids[0], gids[n-1]),
				"percent", int(math.Round(100*float64(idx+1)/float64(n))))
		}
	}
	return t, nil
}

func (e *Extractor) row(gid int64) (table.Row, error) {
	cell, ok := e.src.Cell(gid)
	if !ok {
		return table.Row{}, fmt.Errorf("gid %d is not a cell of the circuit", gid)
	}

	stats, err := e.morphs.Stats(cell.Morphology)
	if err != nil {
		return table.Row{}, fmt.Errorf("gid %d: %w", gid, err)
	}

	row := table.Row{
		GID:                 gid,
		X:                   cell.X,
		Y:                   cell.Y,
		Z:                   cell.Z,
		DendriteLength:      stats.DendriteLength(),
		ProjectionCounts:    make([]int64, len(e.projections)),
		ProjectionDensities: make([]float64, len(e.projections)),
	}

	for _, syn := range e.src.AfferentSynapses(gid) {
		if !syn.PostBranchType.IsDendrite() {
			continue
		}
		if _, ok := e.target[syn.PreGID]; !ok {
			continue
		}
		if syn.Excitatory() {
			row.LocalECount++
		} else {
			row.LocalICount++
		}
	}

	// Projections carry no branch or type info; all of their synapses are
	// assumed to target dendrites.
	for i, p := range e.projections {
		count, err := e.src.ProjectionAfferentCount(p, gid)
		if err != nil {
			return table.Row{}, fmt.Errorf("gid %d: %w", gid, err)
		}
		row.ProjectionCounts[i] = int64(count)
	}

	if row.DendriteLength > 0 {
		row.LocalEDensity = float64(row.LocalECount) / row.DendriteLength
		row.LocalIDensity = float64(row.LocalICount) / row.DendriteLength
		for i, c := range row.ProjectionCounts {
			row.ProjectionDensities[i] = float64(c) / row.DendriteLength
		}
	} else {
		e.logger.Warn("Zero dendrite length, densities set to 0",
			"gid", gid, "morphology", cell.Morphology)
	}

	return row, nil
}

// gidRange formats the first and last three gids, e.g. "[1 2 3]..[8 9 10]".
func gidRange(gids []int64) string {
	k := min(3, len(gids))
	return fmt.Sprintf("%v..%v", gids[:k], gids[len(gids)-k:])
}

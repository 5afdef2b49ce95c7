package circuit

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/nvandessel/dendsyn/internal/constants"
)

// ErrUnknownProjection is returned when a projection name is not configured.
var ErrUnknownProjection = errors.New("unknown projection")

// Circuit is a loaded circuit. It is read-only after Open and safe for
// concurrent use.
type Circuit struct {
	cfg         *Config
	cells       map[int64]Cell
	ids         []int64
	targets     targetSet
	afferent    map[int64][]Synapse
	projections map[string]map[int64]int
}

// Open loads the circuit described by the config file at path.
func Open(ctx context.Context, path string) (*Circuit, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	c := &Circuit{cfg: cfg, targets: targetSet{}}

	if c.cells, c.ids, err = readCells(cfg.Cells); err != nil {
		return nil, fmt.Errorf("loading cells: %w", err)
	}

	if cfg.Targets != "" {
		if c.targets, err = readTargets(cfg.Targets); err != nil {
			return nil, err
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if c.afferent, err = readConnectome(cfg.Connectome); err != nil {
		return nil, fmt.Errorf("loading connectome: %w", err)
	}

	c.projections = make(map[string]map[int64]int, len(cfg.Projections))
	for _, name := range cfg.ProjectionNames() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		counts, err := readProjection(cfg.Projections[name])
		if err != nil {
			return nil, fmt.Errorf("loading projection %s: %w", name, err)
		}
		c.projections[name] = counts
	}

	return c, nil
}

// Config returns the circuit config.
func (c *Circuit) Config() *Config {
	return c.cfg
}

// Name returns the circuit name derived from the config path.
func (c *Circuit) Name() string {
	return Name(c.cfg.Path())
}

// MorphologyDir returns the directory holding the morphology files.
func (c *Circuit) MorphologyDir() string {
	return c.cfg.Morphologies
}

// NumCells returns the number of cells in the circuit.
func (c *Circuit) NumCells() int {
	return len(c.ids)
}

// TargetNames returns the built-in and defined target names.
func (c *Circuit) TargetNames() []string {
	return append([]string{constants.DefaultTarget}, c.targets.names()...)
}

// CellIDs returns the gids of a target in ascending order.
func (c *Circuit) CellIDs(target string) ([]int64, error) {
	set, err := c.targets.resolve(target, c.ids)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(set))
	for gid := range set {
		if _, ok := c.cells[gid]; !ok {
			return nil, fmt.Errorf("target %q: gid %d is not a cell of the circuit", target, gid)
		}
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Cell returns the cell with the given gid.
func (c *Circuit) Cell(gid int64) (Cell, bool) {
	cell, ok := c.cells[gid]
	return cell, ok
}

// AfferentSynapses returns the local afferent synapses of a cell.
// The returned slice must not be modified.
func (c *Circuit) AfferentSynapses(gid int64) []Synapse {
	return c.afferent[gid]
}

// ProjectionNames returns the projection names in sorted order.
func (c *Circuit) ProjectionNames() []string {
	return c.cfg.ProjectionNames()
}

// ProjectionAfferentCount returns the number of synapses a projection makes onto a cell.
func (c *Circuit) ProjectionAfferentCount(name string, gid int64) (int, error) {
	counts, ok := c.projections[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProjection, name)
	}
	return counts[gid], nil
}

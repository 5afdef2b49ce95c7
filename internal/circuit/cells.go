package circuit

import (
	"fmt"
	"sort"
)

// Cell is a neuron of the circuit.
type Cell struct {
	GID        int64
	X, Y, Z    float64
	Morphology string
}

// readCells loads the cell table, keyed by gid.
func readCells(path string) (map[int64]Cell, []int64, error) {
	c, err := openCSV(path, "gid", "x", "y", "z", "morphology")
	if err != nil {
		return nil, nil, err
	}
	defer c.close()

	cells := make(map[int64]Cell)
	for {
		ok, err := c.next()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			break
		}

		var cell Cell
		if cell.GID, err = c.parseInt("gid"); err != nil {
			return nil, nil, err
		}
		if cell.X, err = c.parseFloat("x"); err != nil {
			return nil, nil, err
		}
		if cell.Y, err = c.parseFloat("y"); err != nil {
			return nil, nil, err
		}
		if cell.Z, err = c.parseFloat("z"); err != nil {
			return nil, nil, err
		}
		cell.Morphology = c.str("morphology")
		if cell.Morphology == "" {
			return nil, nil, c.errorf("cell %d has no morphology", cell.GID)
		}
		if _, dup := cells[cell.GID]; dup {
			return nil, nil, c.errorf("duplicate gid %d", cell.GID)
		}
		cells[cell.GID] = cell
	}

	if len(cells) == 0 {
		return nil, nil, fmt.Errorf("%s: no cells", path)
	}

	ids := make([]int64, 0, len(cells))
	for gid := range cells {
		ids = append(ids, gid)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return cells, ids, nil
}

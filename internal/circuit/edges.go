package circuit

import (
	"github.com/nvandessel/dendsyn/internal/constants"
)

// Synapse is an afferent synapse of a cell in the local connectome.
type Synapse struct {
	PreGID int64

	// PostBranchType is the neurite type of the postsynaptic branch.
	PostBranchType constants.NeuriteType

	// Type is the synapse type id; ids >= 100 are excitatory.
	Type int
}

// Excitatory reports whether the synapse type is excitatory.
func (s Synapse) Excitatory() bool {
	return s.Type >= constants.ExcitatoryTypeThreshold
}

// readConnectome loads the local connectome indexed by post gid.
func readConnectome(path string) (map[int64][]Synapse, error) {
	c, err := openCSV(path, "pre_gid", "post_gid", "post_branch_type", "type")
	if err != nil {
		return nil, err
	}
	defer c.close()

	afferent := make(map[int64][]Synapse)
	for {
		ok, err := c.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		pre, err := c.parseInt("pre_gid")
		if err != nil {
			return nil, err
		}
		post, err := c.parseInt("post_gid")
		if err != nil {
			return nil, err
		}
		branch, err := c.parseInt("post_branch_type")
		if err != nil {
			return nil, err
		}
		typ, err := c.parseInt("type")
		if err != nil {
			return nil, err
		}

		afferent[post] = append(afferent[post], Synapse{
			PreGID:         pre,
			PostBranchType: constants.NeuriteType(branch),
			Type:           int(typ),
		})
	}

	return afferent, nil
}

// readProjection loads a projection's afferent synapse counts indexed by post gid.
// Projection files carry no branch or type information.
func readProjection(path string) (map[int64]int, error) {
	c, err := openCSV(path, "pre_gid", "post_gid")
	if err != nil {
		return nil, err
	}
	defer c.close()

	counts := make(map[int64]int)
	for {
		ok, err := c.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}

		post, err := c.parseInt("post_gid")
		if err != nil {
			return nil, err
		}
		counts[post]++
	}

	return counts, nil
}

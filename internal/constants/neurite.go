package constants

// NeuriteType is the structure identifier of a morphology point, following the
// SWC convention also used for the post branch type of a synapse.
type NeuriteType int

const (
	// NeuriteUndefined marks points with no structure identifier.
	NeuriteUndefined NeuriteType = 0

	// NeuriteSoma marks soma points.
	NeuriteSoma NeuriteType = 1

	// NeuriteAxon marks axon points.
	NeuriteAxon NeuriteType = 2

	// NeuriteBasalDendrite marks basal dendrite points.
	NeuriteBasalDendrite NeuriteType = 3

	// NeuriteApicalDendrite marks apical dendrite points.
	NeuriteApicalDendrite NeuriteType = 4
)

// DendriteTypes lists the neurite types counted as dendritic.
var DendriteTypes = []NeuriteType{NeuriteBasalDendrite, NeuriteApicalDendrite}

// IsDendrite returns true for basal and apical dendrites.
func (n NeuriteType) IsDendrite() bool {
	return n == NeuriteBasalDendrite || n == NeuriteApicalDendrite
}

// String returns the name of the neurite type.
func (n NeuriteType) String() string {
	switch n {
	case NeuriteSoma:
		return "soma"
	case NeuriteAxon:
		return "axon"
	case NeuriteBasalDendrite:
		return "basal_dendrite"
	case NeuriteApicalDendrite:
		return "apical_dendrite"
	case NeuriteUndefined:
		return "undefined"
	}
	return "custom"
}

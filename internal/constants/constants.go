// Package constants provides named constants used throughout the dendsyn codebase.
// This centralizes magic numbers and circuit conventions in one place.
package constants

// Synapse classification constants
const (
	// ExcitatoryTypeThreshold splits synapse type ids: types >= this value are
	// excitatory, types below it are inhibitory.
	ExcitatoryTypeThreshold = 100
)

// Extraction defaults
const (
	// DefaultTarget is the target that selects every cell in the circuit.
	DefaultTarget = "All"

	// DefaultJobs is the number of parallel jobs when none is given (no parallelization).
	DefaultJobs = 1

	// AllCPUs requests one job per available CPU.
	AllCPUs = -1

	// DefaultProgressSteps is how many progress reports a split emits (every 20%).
	DefaultProgressSteps = 5

	// CircuitNameComponents is the number of trailing config path components
	// joined to form the circuit name used in output file names.
	CircuitNameComponents = 4

	// SaveDateLayout is the timestamp layout embedded in output file names.
	SaveDateLayout = "2006-01-02_15-04-05"

	// SQLiteTablesFile is the database in the output directory that collects
	// the runs saved in sqlite format.
	SQLiteTablesFile = "cell_tables.db"
)

// Morphology loading defaults
const (
	// DefaultMaxMorphologySize is the largest morphology file accepted.
	DefaultMaxMorphologySize = "64MB"

	// DefaultMorphologyCacheSize is the number of parsed morphologies kept in memory.
	DefaultMorphologyCacheSize = 2048

	// MorphologyExt is the file extension of morphology files.
	MorphologyExt = ".swc"
)

// Output table column names. Projection columns are "<projection>_count"
// and "<projection>_density".
const (
	ColGID            = "gid"
	ColX              = "x"
	ColY              = "y"
	ColZ              = "z"
	ColDendriteLength = "total_dendrite_length"
	ColLocalECount    = "local_E_syn_count"
	ColLocalICount    = "local_I_syn_count"
	ColLocalEDensity  = "local_E_syn_density"
	ColLocalIDensity  = "local_I_syn_density"
	CountSuffix       = "_count"
	DensitySuffix     = "_density"
)

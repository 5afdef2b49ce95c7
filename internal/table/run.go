package table

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nvandessel/dendsyn/internal/circuit"
	"github.com/nvandessel/dendsyn/internal/constants"
)

// Run records the provenance of a cell table.
type Run struct {
	ID            string    `json:"id"`
	CircuitConfig string    `json:"circuit_config"`
	CircuitName   string    `json:"circuit_name"`
	Target        string    `json:"target"`
	Jobs          int       `json:"jobs"`
	Splits        int       `json:"splits"`
	SplitIndex    int       `json:"split_index"` // -1 when all splits were processed
	NumCells      int       `json:"num_cells"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// NewRun starts a run record with a fresh id.
func NewRun(circuitConfig, target string, jobs, splits int) *Run {
	return &Run{
		ID:            uuid.NewString(),
		CircuitConfig: circuitConfig,
		CircuitName:   circuit.Name(circuitConfig),
		Target:        target,
		Jobs:          jobs,
		Splits:        splits,
		SplitIndex:    -1,
		StartedAt:     time.Now().UTC(),
	}
}

// Finish stamps the finish time and cell count.
func (r *Run) Finish(numCells int) {
	r.NumCells = numCells
	r.FinishedAt = time.Now().UTC()
}

// Elapsed returns the wall time of the run.
func (r *Run) Elapsed() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// metadata keys used to embed a Run in table files
const (
	metaRunID         = "dendsyn.run_id"
	metaCircuitConfig = "dendsyn.circuit_config"
	metaCircuitName   = "dendsyn.circuit_name"
	metaTarget        = "dendsyn.target"
	metaJobs          = "dendsyn.jobs"
	metaSplits        = "dendsyn.splits"
	metaSplitIndex    = "dendsyn.split_index"
	metaNumCells      = "dendsyn.num_cells"
	metaStartedAt     = "dendsyn.started_at"
	metaFinishedAt    = "dendsyn.finished_at"
)

// Metadata flattens the run into string key/value pairs.
func (r *Run) Metadata() (keys, values []string) {
	keys = []string{metaRunID, metaCircuitConfig, metaCircuitName, metaTarget,
		metaJobs, metaSplits, metaSplitIndex, metaNumCells, metaStartedAt, metaFinishedAt}
	values = []string{r.ID, r.CircuitConfig, r.CircuitName, r.Target,
		strconv.Itoa(r.Jobs), strconv.Itoa(r.Splits), strconv.Itoa(r.SplitIndex), strconv.Itoa(r.NumCells),
		r.StartedAt.Format(time.RFC3339Nano), r.FinishedAt.Format(time.RFC3339Nano)}
	return keys, values
}

// RunFromMetadata rebuilds a run from Metadata pairs. It returns nil when
// the pairs carry no run id.
func RunFromMetadata(lookup func(key string) (string, bool)) (*Run, error) {
	id, ok := lookup(metaRunID)
	if !ok || id == "" {
		return nil, nil
	}

	r := &Run{ID: id}
	r.CircuitConfig, _ = lookup(metaCircuitConfig)
	r.CircuitName, _ = lookup(metaCircuitName)
	r.Target, _ = lookup(metaTarget)

	ints := map[string]*int{metaJobs: &r.Jobs, metaSplits: &r.Splits, metaSplitIndex: &r.SplitIndex, metaNumCells: &r.NumCells}
	for key, dst := range ints {
		if v, ok := lookup(key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return nil, fmt.Errorf("run metadata %s: %w", key, err)
			}
			*dst = n
		}
	}

	times := map[string]*time.Time{metaStartedAt: &r.StartedAt, metaFinishedAt: &r.FinishedAt}
	for key, dst := range times {
		if v, ok := lookup(key); ok {
			ts, err := time.Parse(time.RFC3339Nano, v)
			if err != nil {
				return nil, fmt.Errorf("run metadata %s: %w", key, err)
			}
			*dst = ts
		}
	}

	return r, nil
}

// FileName returns the output file name for a run:
// cell_table__<circuit name>__Target_<target>__<YYYY-MM-DD_HH-MM-SS>.<ext>
// A run restricted to one split gets a __Split_<i> suffix before the extension.
func FileName(circuitConfig, target string, splitIndex int, ext string, now time.Time) string {
	var b strings.Builder
	b.WriteString("cell_table__")
	b.WriteString(circuit.Name(circuitConfig))
	b.WriteString("__Target_")
	b.WriteString(target)
	b.WriteString("__")
	b.WriteString(now.Format(constants.SaveDateLayout))
	if splitIndex >= 0 {
		fmt.Fprintf(&b, "__Split_%d", splitIndex)
	}
	b.WriteString(".")
	b.WriteString(ext)
	return b.String()
}

// SavePath joins dir and FileName.
func SavePath(dir, circuitConfig, target string, splitIndex int, ext string, now time.Time) string {
	return filepath.Join(dir, FileName(circuitConfig, target, splitIndex, ext, now))
}

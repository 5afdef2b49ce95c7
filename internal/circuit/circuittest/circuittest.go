// Package circuittest writes small synthetic circuits to disk for tests.
//
// The circuit has five cells. Cells 1 and 2 use morphology "pyr" (40 um of
// dendrite: 20 basal, 20 apical), cells 3 and 4 use "bc" (5 um of basal
// dendrite) and cell 5 uses "nodend" (soma and axon only). Targets:
// Exc=[1,2], Inh=[3,4], Column=[Exc,Inh], Loop=[Loop].
package circuittest

import (
	"os"
	"path/filepath"
	"testing"
)

const cellsCSV = `gid,x,y,z,morphology,mtype
1,0,0,0,pyr,L5_TPC
2,10,0,0,pyr,L5_TPC
3,20,5,0,bc,L4_BC
4,30,5,0,bc,L4_BC
5,40,10,1.5,nodend,L1_NGC
`

const pyrSWC = `# pyramidal test cell
1 1 0 0 0 5 -1
2 3 0 5 0 1 1
3 3 0 15 0 1 2
4 3 0 15 10 1 3
5 4 0 -5 0 1 1
6 4 0 -25 0 1 5
7 2 5 0 0 1 1
8 2 50 0 0 1 7
`

const bcSWC = `1 1 0 0 0 4 -1
2 3 3 4 0 1 1
3 3 6 8 0 1 2
`

const nodendSWC = `1 1 0 0 0 4 -1
2 2 0 0 10 1 1
3 2 0 0 30 1 2
`

// Synapses onto cell 1: from 2 (basal, E), 2 (apical, E), 3 (basal, I),
// 4 (soma, I), 2 (axon, E) and 5 (basal, E).
// Synapses onto cell 3: from 1 (basal, E), 4 (basal, I), 4 (apical, I).
const connectomeCSV = `pre_gid,post_gid,post_branch_type,type
2,1,3,120
2,1,4,113
3,1,3,5
4,1,1,6
2,1,2,120
5,1,3,100
1,3,3,120
4,3,3,10
4,3,4,99
`

const vpmCSV = `pre_gid,post_gid
9001,1
9002,1
9003,1
9004,3
`

const targetsYAML = `Exc: [1, 2]
Inh: [3, 4]
Column: [Exc, Inh]
Loop: [Loop]
`

const configYAML = `cells: cells.csv
morphologies: morphologies
connectome: connectome.csv
targets: targets.yaml
projections:
  VPM: projections/vpm.csv
`

// Write creates the test circuit under a new temp dir and returns the config path.
func Write(t testing.TB) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"CircuitConfig.yaml":      configYAML,
		"cells.csv":               cellsCSV,
		"connectome.csv":          connectomeCSV,
		"targets.yaml":            targetsYAML,
		"projections/vpm.csv":     vpmCSV,
		"morphologies/pyr.swc":    pyrSWC,
		"morphologies/bc.swc":     bcSWC,
		"morphologies/nodend.swc": nodendSWC,
	}
	for name, content := range files {
		WriteFile(t, filepath.Join(dir, name), content)
	}

	return filepath.Join(dir, "CircuitConfig.yaml")
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

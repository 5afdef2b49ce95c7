package circuit_test

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/nvandessel/dendsyn/internal/circuit"
	"github.com/nvandessel/dendsyn/internal/circuit/circuittest"
	"github.com/nvandessel/dendsyn/internal/constants"
)

func openTestCircuit(t *testing.T) *circuit.Circuit {
	t.Helper()
	c, err := circuit.Open(context.Background(), circuittest.Write(t))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return c
}

func TestOpen(t *testing.T) {
	c := openTestCircuit(t)

	if c.NumCells() != 5 {
		t.Errorf("NumCells() = %d, want 5", c.NumCells())
	}
	if got := c.ProjectionNames(); !reflect.DeepEqual(got, []string{"VPM"}) {
		t.Errorf("ProjectionNames() = %v, want [VPM]", got)
	}
	if !strings.HasSuffix(c.MorphologyDir(), "morphologies") {
		t.Errorf("MorphologyDir() = %q, want suffix morphologies", c.MorphologyDir())
	}
	if !filepath.IsAbs(c.Config().Cells) {
		t.Errorf("Config().Cells = %q, want absolute path", c.Config().Cells)
	}
}

func TestCellIDs(t *testing.T) {
	c := openTestCircuit(t)

	tests := []struct {
		target  string
		want    []int64
		wantErr error
	}{
		{"All", []int64{1, 2, 3, 4, 5}, nil},
		{"Exc", []int64{1, 2}, nil},
		{"Inh", []int64{3, 4}, nil},
		{"Column", []int64{1, 2, 3, 4}, nil},
		{"Loop", nil, circuit.ErrTargetCycle},
		{"Missing", nil, circuit.ErrUnknownTarget},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			got, err := c.CellIDs(tt.target)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CellIDs(%q) error = %v, want %v", tt.target, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CellIDs(%q) error = %v", tt.target, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("CellIDs(%q) = %v, want %v", tt.target, got, tt.want)
			}
		})
	}
}

func TestTargetNames(t *testing.T) {
	c := openTestCircuit(t)

	want := []string{"All", "Column", "Exc", "Inh", "Loop"}
	if got := c.TargetNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("TargetNames() = %v, want %v", got, want)
	}
}

func TestCell(t *testing.T) {
	c := openTestCircuit(t)

	cell, ok := c.Cell(5)
	if !ok {
		t.Fatal("Cell(5) not found")
	}
	if cell.X != 40 || cell.Y != 10 || cell.Z != 1.5 {
		t.Errorf("Cell(5) position = (%v, %v, %v), want (40, 10, 1.5)", cell.X, cell.Y, cell.Z)
	}
	if cell.Morphology != "nodend" {
		t.Errorf("Cell(5).Morphology = %q, want nodend", cell.Morphology)
	}

	if _, ok := c.Cell(42); ok {
		t.Error("Cell(42) should not exist")
	}
}

func TestAfferentSynapses(t *testing.T) {
	c := openTestCircuit(t)

	syns := c.AfferentSynapses(1)
	if len(syns) != 6 {
		t.Fatalf("len(AfferentSynapses(1)) = %d, want 6", len(syns))
	}

	first := syns[0]
	if first.PreGID != 2 || first.PostBranchType != constants.NeuriteBasalDendrite || first.Type != 120 {
		t.Errorf("first synapse = %+v, want pre 2, basal, type 120", first)
	}
	if !first.Excitatory() {
		t.Error("type 120 should be excitatory")
	}
	if syns[2].Excitatory() {
		t.Error("type 5 should be inhibitory")
	}

	if got := c.AfferentSynapses(2); len(got) != 0 {
		t.Errorf("AfferentSynapses(2) = %v, want none", got)
	}
}

func TestProjectionAfferentCount(t *testing.T) {
	c := openTestCircuit(t)

	tests := []struct {
		gid  int64
		want int
	}{
		{1, 3},
		{2, 0},
		{3, 1},
	}
	for _, tt := range tests {
		got, err := c.ProjectionAfferentCount("VPM", tt.gid)
		if err != nil {
			t.Fatalf("ProjectionAfferentCount(VPM, %d) error = %v", tt.gid, err)
		}
		if got != tt.want {
			t.Errorf("ProjectionAfferentCount(VPM, %d) = %d, want %d", tt.gid, got, tt.want)
		}
	}

	if _, err := c.ProjectionAfferentCount("POm", 1); !errors.Is(err, circuit.ErrUnknownProjection) {
		t.Errorf("ProjectionAfferentCount(POm) error = %v, want ErrUnknownProjection", err)
	}
}

func TestOpen_Cancelled(t *testing.T) {
	path := circuittest.Write(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := circuit.Open(ctx, path); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		wantMsg string
	}{
		{"bad gid", "cells.csv", "gid,x,y,z,morphology\nabc,0,0,0,pyr\n", "cells.csv:2"},
		{"missing column", "cells.csv", "gid,x,y,morphology\n1,0,0,pyr\n", `missing required column "z"`},
		{"duplicate gid", "cells.csv", "gid,x,y,z,morphology\n1,0,0,0,pyr\n1,0,0,0,pyr\n", "duplicate gid 1"},
		{"empty cells", "cells.csv", "gid,x,y,z,morphology\n", "no cells"},
		{"bad synapse type", "connectome.csv", "pre_gid,post_gid,post_branch_type,type\n1,2,3,E\n", "column type"},
		{"short row", "connectome.csv", "pre_gid,post_gid,post_branch_type,type\n1,2,3\n", "wrong number of fields"},
		{"redefined All", "targets.yaml", "All: [1]\n", "built in"},
		{"bad target entry", "targets.yaml", "Exc: [1.5]\n", "invalid entry"},
		{"missing cells key", "CircuitConfig.yaml", "morphologies: m\nconnectome: c.csv\n", "cells is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := circuittest.Write(t)
			circuittest.WriteFile(t, filepath.Join(filepath.Dir(path), tt.file), tt.content)

			_, err := circuit.Open(context.Background(), path)
			if err == nil {
				t.Fatal("Open() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("Open() error = %q, want it to contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestCellIDs_UnknownGIDInTarget(t *testing.T) {
	path := circuittest.Write(t)
	circuittest.WriteFile(t, filepath.Join(filepath.Dir(path), "targets.yaml"), "Ghost: [1, 77]\n")

	c, err := circuit.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if _, err := c.CellIDs("Ghost"); err == nil || !strings.Contains(err.Error(), "gid 77") {
		t.Errorf("CellIDs(Ghost) error = %v, want gid 77 error", err)
	}
}

func TestName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/gpfs/bbp/circuits/O1/20190307/CircuitConfig", "circuits_O1_20190307_CircuitConfig"},
		{"O1/CircuitConfig", "O1_CircuitConfig"},
		{"/a/b", "_a_b"},
		{"CircuitConfig", "CircuitConfig"},
	}
	for _, tt := range tests {
		if got := circuit.Name(tt.path); got != tt.want {
			t.Errorf("Name(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nvandessel/dendsyn/internal/circuit/circuittest"
	"github.com/nvandessel/dendsyn/internal/constants"
	"github.com/nvandessel/dendsyn/internal/output"
	"github.com/nvandessel/dendsyn/internal/table"
	"github.com/spf13/cobra"
)

// newTestRootCmd creates a root command with persistent flags for testing subcommands
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "dendsyn",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level")
	rootCmd.PersistentFlags().String("config", "", "Config file")
	return rootCmd
}

// isolateEnv points HOME at a temp directory and clears DENDSYN_* variables
// so tests never read a real ~/.dendsyn/config.yaml.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	for _, k := range []string{
		"DENDSYN_OUTPUT_DIR", "DENDSYN_OUTPUT_FORMAT", "DENDSYN_DEFAULT_TARGET", "DENDSYN_JOBS",
		"DENDSYN_MAX_MORPHOLOGY_SIZE", "DENDSYN_MORPHOLOGY_CACHE_SIZE", "DENDSYN_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

// execute runs cmd under a test root with args and returns stdout and stderr.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(cmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(append([]string{cmd.Name()}, args...))
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestNewRootCmd(t *testing.T) {
	rootCmd := newRootCmd()
	want := []string{"config", "extract", "runs", "serve", "splits", "summary", "version"}
	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("root command missing subcommand %q", name)
		}
	}
	for _, flag := range []string{"json", "log-level", "config"} {
		if rootCmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("root command missing persistent flag --%s", flag)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, newVersionCmd())
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.Contains(out, "dendsyn version "+version) {
		t.Errorf("version output = %q", out)
	}

	out, _, err = execute(t, newVersionCmd(), "--json")
	if err != nil {
		t.Fatalf("version --json failed: %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("version --json output is not JSON: %v", err)
	}
	if got["version"] != version || got["commit"] != commit {
		t.Errorf("version --json = %v", got)
	}
}

func TestConfigCmd(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DENDSYN_JOBS", "4")

	out, _, err := execute(t, newConfigCmd())
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	for _, want := range []string{"format: arrow", "jobs: 4", "default_target: All"} {
		if !strings.Contains(out, want) {
			t.Errorf("config output missing %q:\n%s", want, out)
		}
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	circuittest.WriteFile(t, path, "output:\n  format: csv\n")
	out, _, err = execute(t, newConfigCmd(), "--config", path, "--json")
	if err != nil {
		t.Fatalf("config --json failed: %v", err)
	}
	var got struct {
		Output struct {
			Format string `json:"format"`
		} `json:"output"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("config --json output is not JSON: %v", err)
	}
	if got.Output.Format != "csv" {
		t.Errorf("output.format = %q, want csv", got.Output.Format)
	}

	if _, _, err := execute(t, newConfigCmd(), "--log-level", "loud"); err == nil {
		t.Error("config with invalid --log-level expected error")
	}
}

func TestSplitsCmd(t *testing.T) {
	isolateEnv(t)
	cfgPath := circuittest.Write(t)

	out, _, err := execute(t, newSplitsCmd(), cfgPath, "All", "2", "4", "--json")
	if err != nil {
		t.Fatalf("splits failed: %v", err)
	}
	var got struct {
		Cells  int         `json:"cells"`
		Jobs   int         `json:"jobs"`
		Splits []splitInfo `json:"splits"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("splits --json output is not JSON: %v", err)
	}
	want := []splitInfo{
		{Index: 0, Cells: 2, FirstGID: 1, LastGID: 2},
		{Index: 1, Cells: 2, FirstGID: 3, LastGID: 4},
		{Index: 2, Cells: 1, FirstGID: 5, LastGID: 5},
		{Index: 3, Cells: 0},
	}
	if got.Cells != 5 || got.Jobs != 2 || len(got.Splits) != len(want) {
		t.Fatalf("splits = %+v", got)
	}
	for i := range want {
		if got.Splits[i] != want[i] {
			t.Errorf("split %d = %+v, want %+v", i, got.Splits[i], want[i])
		}
	}

	out, _, err = execute(t, newSplitsCmd(), cfgPath, "Exc")
	if err != nil {
		t.Fatalf("splits failed: %v", err)
	}
	if !strings.Contains(out, "Target Exc") || !strings.Contains(out, "1..2") {
		t.Errorf("splits output = %q", out)
	}

	if _, _, err := execute(t, newSplitsCmd(), cfgPath, "All", "4", "2"); err == nil {
		t.Error("splits with fewer splits than jobs expected error")
	}
}

func writeTestTable(t *testing.T, dir string) string {
	t.Helper()
	tbl := table.New([]string{"VPM"})
	for i := int64(1); i <= 3; i++ {
		tbl.Append(table.Row{
			GID:                 i,
			DendriteLength:      10,
			LocalECount:         i,
			LocalICount:         1,
			ProjectionCounts:    []int64{i},
			LocalEDensity:       float64(i) / 10,
			LocalIDensity:       0.1,
			ProjectionDensities: []float64{float64(i) / 10},
		})
	}
	run := table.NewRun("/a/b/c/d/CircuitConfig", "Exc", 1, 1)
	run.Finish(tbl.Len())

	path := filepath.Join(dir, "cells.arrow")
	if err := output.Save(context.Background(), path, "arrow", tbl, run); err != nil {
		t.Fatalf("output.Save() error = %v", err)
	}
	return path
}

func TestSummaryCmd(t *testing.T) {
	path := writeTestTable(t, t.TempDir())

	out, _, err := execute(t, newSummaryCmd(), path)
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	for _, want := range []string{"target Exc", "local_E_syn_count", "VPM_density"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q:\n%s", want, out)
		}
	}

	out, _, err = execute(t, newSummaryCmd(), path, "--json", "--columns", "local_E_syn_count")
	if err != nil {
		t.Fatalf("summary --json failed: %v", err)
	}
	var got struct {
		Cells   int `json:"cells"`
		Columns []struct {
			Column string  `json:"column"`
			Mean   float64 `json:"mean"`
			Median float64 `json:"median"`
		} `json:"columns"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("summary --json output is not JSON: %v", err)
	}
	if got.Cells != 3 || len(got.Columns) != 1 || got.Columns[0].Mean != 2 || got.Columns[0].Median != 2 {
		t.Errorf("summary --json = %+v", got)
	}

	for _, col := range []string{"nope", "gid"} {
		if _, _, err := execute(t, newSummaryCmd(), path, "--columns", col); err == nil {
			t.Errorf("summary --columns %s expected error", col)
		}
	}
	if _, _, err := execute(t, newSummaryCmd(), filepath.Join(t.TempDir(), "none.arrow")); err == nil {
		t.Error("summary of missing file expected error")
	}
}

func TestServeCmd_RequiresTable(t *testing.T) {
	isolateEnv(t)
	if _, _, err := execute(t, newServeCmd()); err == nil {
		t.Error("serve without --table expected error")
	}
	if _, _, err := execute(t, newServeCmd(), "--table", filepath.Join(t.TempDir(), "none.arrow")); err == nil {
		t.Error("serve with missing table expected error")
	}
}

func TestRunsCmd(t *testing.T) {
	isolateEnv(t)
	cfgPath := circuittest.Write(t)
	outDir := t.TempDir()

	for _, target := range []string{"Exc", "Inh"} {
		if _, _, err := execute(t, newExtractCmd(), cfgPath, target, "--format", "sqlite", "--output-dir", outDir); err != nil {
			t.Fatalf("extract %s failed: %v", target, err)
		}
	}
	dbPath := filepath.Join(outDir, constants.SQLiteTablesFile)

	out, _, err := execute(t, newRunsCmd(), dbPath, "--json")
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	var runs []table.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("runs --json output is not JSON: %v", err)
	}
	if len(runs) != 2 || runs[0].Target != "Exc" || runs[1].Target != "Inh" {
		t.Fatalf("runs = %+v, want Exc then Inh", runs)
	}

	if _, _, err := execute(t, newRunsCmd(), dbPath, "--delete", runs[0].ID); err != nil {
		t.Fatalf("runs --delete failed: %v", err)
	}
	out, _, err = execute(t, newRunsCmd(), dbPath)
	if err != nil {
		t.Fatalf("runs failed: %v", err)
	}
	if strings.Contains(out, runs[0].ID) || !strings.Contains(out, runs[1].ID) {
		t.Errorf("runs after delete = %q", out)
	}

	if _, _, err := execute(t, newRunsCmd(), dbPath, "--delete", "missing"); err == nil {
		t.Error("runs --delete of unknown run expected error")
	}
	if _, _, err := execute(t, newRunsCmd(), filepath.Join(t.TempDir(), "none.db")); err == nil {
		t.Error("runs of missing database expected error")
	}
	if _, err := os.Stat(filepath.Join(outDir, "none.db")); err == nil {
		t.Error("runs created a database for a missing path")
	}
}

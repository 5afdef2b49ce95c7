package config

import (
	"os"
	"path/filepath"
	"testing"
)

// isolateEnv points HOME at a temp dir and clears DENDSYN_* overrides.
func isolateEnv(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"DENDSYN_OUTPUT_DIR", "DENDSYN_OUTPUT_FORMAT", "DENDSYN_DEFAULT_TARGET",
		"DENDSYN_JOBS", "DENDSYN_MAX_MORPHOLOGY_SIZE", "DENDSYN_MORPHOLOGY_CACHE_SIZE",
		"DENDSYN_LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
	return home
}

func TestDefault(t *testing.T) {
	config := Default()

	if config.Output.Dir != "." {
		t.Errorf("expected Output.Dir '.', got '%s'", config.Output.Dir)
	}
	if config.Output.Format != FormatArrow {
		t.Errorf("expected Output.Format 'arrow', got '%s'", config.Output.Format)
	}
	if config.Extract.DefaultTarget != "All" {
		t.Errorf("expected DefaultTarget 'All', got '%s'", config.Extract.DefaultTarget)
	}
	if config.Extract.Jobs != 1 {
		t.Errorf("expected Jobs 1, got %d", config.Extract.Jobs)
	}
	if config.Extract.ProgressSteps != 5 {
		t.Errorf("expected ProgressSteps 5, got %d", config.Extract.ProgressSteps)
	}
	if config.Morphology.MaxFileSize != "64MB" {
		t.Errorf("expected MaxFileSize '64MB', got '%s'", config.Morphology.MaxFileSize)
	}
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	configContent := `
output:
  dir: /scratch/tables
  format: sqlite

extract:
  default_target: mc2_Column
  jobs: 8
  progress_steps: 10

morphology:
  max_file_size: 16MB
  cache_size: 100
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Output.Dir != "/scratch/tables" {
		t.Errorf("expected Output.Dir '/scratch/tables', got '%s'", config.Output.Dir)
	}
	if config.Output.Format != FormatSQLite {
		t.Errorf("expected Output.Format 'sqlite', got '%s'", config.Output.Format)
	}
	if config.Extract.DefaultTarget != "mc2_Column" {
		t.Errorf("expected DefaultTarget 'mc2_Column', got '%s'", config.Extract.DefaultTarget)
	}
	if config.Extract.Jobs != 8 {
		t.Errorf("expected Jobs 8, got %d", config.Extract.Jobs)
	}
	if config.Morphology.CacheSize != 100 {
		t.Errorf("expected CacheSize 100, got %d", config.Morphology.CacheSize)
	}
	// Unset keys keep their defaults
	if config.Logging.Level != "info" {
		t.Errorf("expected Logging.Level 'info', got '%s'", config.Logging.Level)
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configPath, []byte("output:\n  dir: ${TEST_SCRATCH}/tables\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("TEST_SCRATCH", "/gpfs/scratch")

	config, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if config.Output.Dir != "/gpfs/scratch/tables" {
		t.Errorf("expected Output.Dir '/gpfs/scratch/tables', got '%s'", config.Output.Dir)
	}
}

func TestLoad_DefaultLocation(t *testing.T) {
	home := isolateEnv(t)

	dir := filepath.Join(home, ".dendsyn")
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("output:\n  format: csv\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Output.Format != FormatCSV {
		t.Errorf("expected Output.Format 'csv', got '%s'", config.Output.Format)
	}
}

func TestLoad_NoFile(t *testing.T) {
	isolateEnv(t)

	config, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if config.Output.Format != FormatArrow {
		t.Errorf("expected default format, got '%s'", config.Output.Format)
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	isolateEnv(t)

	if _, err := Load("/nonexistent/dendsyn.yaml"); err == nil {
		t.Error("expected error for explicit missing config file")
	}
}

func TestEnvOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DENDSYN_OUTPUT_DIR", "/tmp/out")
	t.Setenv("DENDSYN_OUTPUT_FORMAT", "CSV")
	t.Setenv("DENDSYN_DEFAULT_TARGET", "Mosaic")
	t.Setenv("DENDSYN_JOBS", "-1")
	t.Setenv("DENDSYN_MAX_MORPHOLOGY_SIZE", "1GB")
	t.Setenv("DENDSYN_MORPHOLOGY_CACHE_SIZE", "0")
	t.Setenv("DENDSYN_LOG_LEVEL", "debug")

	config := Default()
	applyEnvOverrides(config)

	if config.Output.Dir != "/tmp/out" {
		t.Errorf("expected Output.Dir '/tmp/out', got '%s'", config.Output.Dir)
	}
	if config.Output.Format != FormatCSV {
		t.Errorf("expected Output.Format 'csv', got '%s'", config.Output.Format)
	}
	if config.Extract.DefaultTarget != "Mosaic" {
		t.Errorf("expected DefaultTarget 'Mosaic', got '%s'", config.Extract.DefaultTarget)
	}
	if config.Extract.Jobs != -1 {
		t.Errorf("expected Jobs -1, got %d", config.Extract.Jobs)
	}
	if config.Morphology.MaxFileSize != "1GB" {
		t.Errorf("expected MaxFileSize '1GB', got '%s'", config.Morphology.MaxFileSize)
	}
	if config.Morphology.CacheSize != 0 {
		t.Errorf("expected CacheSize 0, got %d", config.Morphology.CacheSize)
	}
	if config.Logging.Level != "debug" {
		t.Errorf("expected Logging.Level 'debug', got '%s'", config.Logging.Level)
	}
}

func TestEnvOverrides_IgnoresBadNumbers(t *testing.T) {
	isolateEnv(t)
	t.Setenv("DENDSYN_JOBS", "many")

	config := Default()
	applyEnvOverrides(config)

	if config.Extract.Jobs != 1 {
		t.Errorf("expected Jobs to stay 1, got %d", config.Extract.Jobs)
	}
}

func TestMaxMorphologyBytes(t *testing.T) {
	tests := []struct {
		name    string
		size    string
		want    uint64
		wantErr bool
	}{
		{"empty means unlimited", "", 0, false},
		{"kilobytes", "2KB", 2048, false},
		{"megabytes", "64MB", 64 * 1024 * 1024, false},
		{"garbage", "lots", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			config.Morphology.MaxFileSize = tt.size
			got, err := config.MaxMorphologyBytes()
			if (err != nil) != tt.wantErr {
				t.Fatalf("MaxMorphologyBytes() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("MaxMorphologyBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *DendsynConfig)
		wantErr bool
	}{
		{"defaults", func(c *DendsynConfig) {}, false},
		{"csv format", func(c *DendsynConfig) { c.Output.Format = FormatCSV }, false},
		{"unknown format", func(c *DendsynConfig) { c.Output.Format = "pickle" }, true},
		{"all cpus", func(c *DendsynConfig) { c.Extract.Jobs = -1 }, false},
		{"zero jobs", func(c *DendsynConfig) { c.Extract.Jobs = 0 }, true},
		{"negative jobs", func(c *DendsynConfig) { c.Extract.Jobs = -4 }, true},
		{"negative progress steps", func(c *DendsynConfig) { c.Extract.ProgressSteps = -1 }, true},
		{"negative cache", func(c *DendsynConfig) { c.Morphology.CacheSize = -1 }, true},
		{"bad size", func(c *DendsynConfig) { c.Morphology.MaxFileSize = "big" }, true},
		{"bad log level", func(c *DendsynConfig) { c.Logging.Level = "verbose" }, true},
		{"empty log level", func(c *DendsynConfig) { c.Logging.Level = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := Default()
			tt.mutate(config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/path/config.yaml"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configPath, []byte("output:\n  format: [invalid yaml\n"), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if _, err := LoadFromFile(configPath); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

// Package circuit provides read access to a circuit dataset on disk: cell
// positions and morphologies, named targets, the local connectome and the
// external projections.
package circuit

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvandessel/dendsyn/internal/constants"
	"gopkg.in/yaml.v3"
)

// Config describes where the parts of a circuit live. Relative paths are
// resolved against the directory of the config file. JSON configs are
// accepted too since they are valid YAML.
type Config struct {
	// Cells is a CSV file with gid,x,y,z,morphology columns.
	Cells string `json:"cells" yaml:"cells"`

	// Morphologies is the directory holding <morphology>.swc files.
	Morphologies string `json:"morphologies" yaml:"morphologies"`

	// Connectome is a CSV file with pre_gid,post_gid,post_branch_type,type columns.
	Connectome string `json:"connectome" yaml:"connectome"`

	// Targets is an optional YAML file mapping target names to gids and/or other targets.
	Targets string `json:"targets,omitempty" yaml:"targets,omitempty"`

	// Projections maps projection names to CSV files with pre_gid,post_gid columns.
	Projections map[string]string `json:"projections,omitempty" yaml:"projections,omitempty"`

	path string
}

// LoadConfig reads a circuit config and resolves its paths.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading circuit config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing circuit config %s: %w", path, err)
	}
	cfg.path = path

	if cfg.Cells == "" {
		return nil, fmt.Errorf("circuit config %s: cells is required", path)
	}
	if cfg.Morphologies == "" {
		return nil, fmt.Errorf("circuit config %s: morphologies is required", path)
	}
	if cfg.Connectome == "" {
		return nil, fmt.Errorf("circuit config %s: connectome is required", path)
	}

	base := filepath.Dir(path)
	cfg.Cells = resolve(base, cfg.Cells)
	cfg.Morphologies = resolve(base, cfg.Morphologies)
	cfg.Connectome = resolve(base, cfg.Connectome)
	if cfg.Targets != "" {
		cfg.Targets = resolve(base, cfg.Targets)
	}
	for name, p := range cfg.Projections {
		if strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("circuit config %s: projection with empty name", path)
		}
		cfg.Projections[name] = resolve(base, p)
	}

	return &cfg, nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

// ProjectionNames returns the configured projection names in sorted order.
func (c *Config) ProjectionNames() []string {
	names := make([]string, 0, len(c.Projections))
	for name := range c.Projections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Name derives a circuit name from a config path by joining its last four
// path components with underscores, e.g.
// "/gpfs/circuits/O1/20190307/CircuitConfig" -> "circuits_O1_20190307_CircuitConfig".
func Name(configPath string) string {
	parts := strings.Split(filepath.ToSlash(configPath), "/")
	if len(parts) > constants.CircuitNameComponents {
		parts = parts[len(parts)-constants.CircuitNameComponents:]
	}
	return strings.Join(parts, "_")
}

func resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

package circuit

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/nvandessel/dendsyn/internal/constants"
	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownTarget is returned when a target name is not defined.
	ErrUnknownTarget = errors.New("unknown target")

	// ErrTargetCycle is returned when targets include each other.
	ErrTargetCycle = errors.New("target cycle")
)

// targetSet holds the raw target definitions. Each entry is either a gid or
// the name of another target.
type targetSet map[string][]any

func readTargets(path string) (targetSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading targets: %w", err)
	}

	var raw map[string][]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing targets %s: %w", path, err)
	}

	targets := make(targetSet, len(raw))
	for name, entries := range raw {
		if name == constants.DefaultTarget {
			return nil, fmt.Errorf("targets %s: %q is built in and cannot be redefined", path, name)
		}
		for _, e := range entries {
			switch e.(type) {
			case int, string:
			default:
				return nil, fmt.Errorf("targets %s: target %q has invalid entry %v (want gid or target name)", path, name, e)
			}
		}
		targets[name] = entries
	}
	return targets, nil
}

// names returns the defined target names in sorted order.
func (ts targetSet) names() []string {
	names := make([]string, 0, len(ts))
	for name := range ts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// resolve expands a target into a set of gids, following included targets.
func (ts targetSet) resolve(name string, all []int64) (map[int64]struct{}, error) {
	out := make(map[int64]struct{})
	visiting := make(map[string]bool)

	var walk func(n string) error
	walk = func(n string) error {
		if n == constants.DefaultTarget {
			for _, gid := range all {
				out[gid] = struct{}{}
			}
			return nil
		}
		entries, ok := ts[n]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownTarget, n)
		}
		if visiting[n] {
			return fmt.Errorf("%w: %q includes itself", ErrTargetCycle, n)
		}
		visiting[n] = true
		defer delete(visiting, n)

		for _, e := range entries {
			switch v := e.(type) {
			case int:
				out[int64(v)] = struct{}{}
			case string:
				if err := walk(v); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(name); err != nil {
		return nil, err
	}
	return out, nil
}

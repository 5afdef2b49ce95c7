// Package output saves and loads cell tables in the supported file formats.
package output

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/dendsyn/internal/config"
	"github.com/nvandessel/dendsyn/internal/store"
	"github.com/nvandessel/dendsyn/internal/table"
)

// Extension returns the file extension used for a format.
func Extension(format string) (string, error) {
	switch format {
	case config.FormatArrow:
		return "arrow", nil
	case config.FormatCSV:
		return "csv", nil
	case config.FormatSQLite:
		return "db", nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

// FormatOf infers the format of a table file from its extension.
func FormatOf(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".arrow", ".feather":
		return config.FormatArrow, nil
	case ".csv":
		return config.FormatCSV, nil
	case ".db", ".sqlite", ".sqlite3":
		return config.FormatSQLite, nil
	}
	return "", fmt.Errorf("cannot infer table format from %q", path)
}

// Save writes a table to path in the given format. Arrow and SQLite files
// keep the run record; CSV files hold the table only. A SQLite file may hold
// many runs and is added to rather than overwritten.
func Save(ctx context.Context, path, format string, t *table.Table, run *table.Run) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	switch format {
	case config.FormatArrow, config.FormatCSV:
		return writeFile(path, func(f *os.File) error {
			if format == config.FormatArrow {
				return table.WriteArrow(f, t, run)
			}
			return table.WriteCSV(f, t)
		})
	case config.FormatSQLite:
		s, err := store.NewSQLiteTableStore(path)
		if err != nil {
			return err
		}
		defer s.Close()
		return s.SaveRun(ctx, run, t)
	}
	return fmt.Errorf("unknown output format %q", format)
}

// tableFileMode is the permission of saved Arrow and CSV tables.
const tableFileMode = 0644

// writeFile writes through a temp file in the same directory and renames it
// into place, so readers never see a partial table.
func writeFile(path string, write func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dendsyn-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	// CreateTemp uses 0600; tables are shared with other users of the cluster.
	if err := tmp.Chmod(tableFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("setting mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming into %s: %w", path, err)
	}
	return nil
}

// Load reads a table file. For SQLite files runID selects the run; an empty
// runID loads the latest run. The returned run is nil for CSV files.
func Load(ctx context.Context, path, runID string) (*table.Table, *table.Run, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case config.FormatArrow:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		return table.ReadArrow(f)

	case config.FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, err
		}
		defer f.Close()
		t, err := table.ReadCSV(f)
		return t, nil, err

	default:
		if _, err := os.Stat(path); err != nil {
			return nil, nil, err
		}
		s, err := store.NewSQLiteTableStore(path)
		if err != nil {
			return nil, nil, err
		}
		defer s.Close()

		if runID == "" {
			latest, err := s.LatestRun(ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("%s: %w", path, err)
			}
			runID = latest.ID
		}
		return s.LoadRun(ctx, runID)
	}
}

// Package store defines the TableStore interface for persisting cell tables
// and their run records.
package store

import (
	"context"
	"errors"

	"github.com/nvandessel/dendsyn/internal/table"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("run not found")

// TableStore persists cell tables keyed by run.
type TableStore interface {
	// SaveRun stores a table under run.ID, replacing any earlier table with that id.
	SaveRun(ctx context.Context, run *table.Run, t *table.Table) error

	// LoadRun returns the table and run record of a run.
	LoadRun(ctx context.Context, id string) (*table.Table, *table.Run, error)

	// ListRuns returns all run records, oldest first.
	ListRuns(ctx context.Context) ([]table.Run, error)

	// LatestRun returns the most recently started run.
	LatestRun(ctx context.Context) (*table.Run, error)

	// DeleteRun removes a run and its cells.
	DeleteRun(ctx context.Context, id string) error

	Close() error
}

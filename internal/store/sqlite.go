package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nvandessel/dendsyn/internal/table"
	_ "modernc.org/sqlite" // SQLite driver
)

// SQLiteTableStore implements TableStore on a single SQLite database file.
type SQLiteTableStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	dbPath string
}

var _ TableStore = (*SQLiteTableStore)(nil)

// NewSQLiteTableStore opens or creates the database at dbPath.
func NewSQLiteTableStore(dbPath string) (*SQLiteTableStore, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite works best with single writer

	if err := InitSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteTableStore{db: db, dbPath: dbPath}, nil
}

// Path returns the database file path.
func (s *SQLiteTableStore) Path() string {
	return s.dbPath
}

// SaveRun stores a table and its run record in one transaction.
func (s *SQLiteTableStore) SaveRun(ctx context.Context, run *table.Run, t *table.Table) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid table: %w", err)
	}

	projections, err := json.Marshal(t.Projections)
	if err != nil {
		return fmt.Errorf("marshal projections: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to replace run %s: %w", run.ID, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, circuit_config, circuit_name, target, jobs, splits,
			split_index, num_cells, projections, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CircuitConfig, run.CircuitName, run.Target, run.Jobs, run.Splits,
		run.SplitIndex, run.NumCells, string(projections),
		formatTime(run.StartedAt), nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	cellStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cells (run_id, gid, row_index, x, y, z, total_dendrite_length,
			local_e_syn_count, local_i_syn_count, local_e_syn_density, local_i_syn_density)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cell insert: %w", err)
	}
	defer cellStmt.Close()

	projStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO projection_counts (run_id, gid, projection, count, density)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare projection insert: %w", err)
	}
	defer projStmt.Close()

	for i, r := range t.Rows {
		if _, err := cellStmt.ExecContext(ctx, run.ID, r.GID, i, r.X, r.Y, r.Z, r.DendriteLength,
			r.LocalECount, r.LocalICount, r.LocalEDensity, r.LocalIDensity); err != nil {
			return fmt.Errorf("failed to insert cell %d: %w", r.GID, err)
		}
		for pi, p := range t.Projections {
			if _, err := projStmt.ExecContext(ctx, run.ID, r.GID, p,
				r.ProjectionCounts[pi], r.ProjectionDensities[pi]); err != nil {
				return fmt.Errorf("failed to insert %s count of cell %d: %w", p, r.GID, err)
			}
		}
	}

	return tx.Commit()
}

const runColumns = `id, circuit_config, circuit_name, target, jobs, splits,
	split_index, num_cells, projections, started_at, finished_at`

// LoadRun returns the table and run record of a run, rows in saved order.
func (s *SQLiteTableStore) LoadRun(ctx context.Context, id string) (*table.Table, *table.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, projections, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, nil, err
	}

	t := table.New(projections)
	index := make(map[int64]int)

	rows, err := s.db.QueryContext(ctx, `
		SELECT gid, x, y, z, total_dendrite_length, local_e_syn_count, local_i_syn_count,
			local_e_syn_density, local_i_syn_density
		FROM cells WHERE run_id = ? ORDER BY row_index`, id)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query cells: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r := table.Row{
			ProjectionCounts:    make([]int64, len(projections)),
			ProjectionDensities: make([]float64, len(projections)),
		}
		if err := rows.Scan(&r.GID, &r.X, &r.Y, &r.Z, &r.DendriteLength,
			&r.LocalECount, &r.LocalICount, &r.LocalEDensity, &r.LocalIDensity); err != nil {
			return nil, nil, fmt.Errorf("failed to scan cell: %w", err)
		}
		index[r.GID] = len(t.Rows)
		t.Append(r)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read cells: %w", err)
	}

	if len(projections) > 0 {
		if err := s.loadProjectionCounts(ctx, id, t, index); err != nil {
			return nil, nil, err
		}
	}

	return t, run, nil
}

func (s *SQLiteTableStore) loadProjectionCounts(ctx context.Context, id string, t *table.Table, index map[int64]int) error {
	column := make(map[string]int, len(t.Projections))
	for i, p := range t.Projections {
		column[p] = i
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT gid, projection, count, density FROM projection_counts WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to query projection counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			gid        int64
			projection string
			count      int64
			density    float64
		)
		if err := rows.Scan(&gid, &projection, &count, &density); err != nil {
			return fmt.Errorf("failed to scan projection count: %w", err)
		}
		ri, ok := index[gid]
		pi, pok := column[projection]
		if !ok || !pok {
			return fmt.Errorf("projection count for unknown cell %d or projection %q", gid, projection)
		}
		t.Rows[ri].ProjectionCounts[pi] = count
		t.Rows[ri].ProjectionDensities[pi] = density
	}
	return rows.Err()
}

// ListRuns returns all run records ordered by start time.
func (s *SQLiteTableStore) ListRuns(ctx context.Context) ([]table.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+runColumns+` FROM runs ORDER BY started_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []table.Run
	for rows.Next() {
		run, _, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// LatestRun returns the most recently started run.
func (s *SQLiteTableStore) LatestRun(ctx context.Context) (*table.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, _, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	return run, err
}

// DeleteRun removes a run; its cells and projection counts cascade.
func (s *SQLiteTableStore) DeleteRun(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteTableStore) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*table.Run, []string, error) {
	var (
		run         table.Run
		projections string
		startedAt   string
		finishedAt  sql.NullString
	)
	err := row.Scan(&run.ID, &run.CircuitConfig, &run.CircuitName, &run.Target,
		&run.Jobs, &run.Splits, &run.SplitIndex, &run.NumCells,
		&projections, &startedAt, &finishedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("failed to scan run: %w", err)
	}

	var names []string
	if err := json.Unmarshal([]byte(projections), &names); err != nil {
		return nil, nil, fmt.Errorf("run %s: invalid projections: %w", run.ID, err)
	}
	if run.StartedAt, err = time.Parse(timeLayout, startedAt); err != nil {
		return nil, nil, fmt.Errorf("run %s: invalid started_at: %w", run.ID, err)
	}
	if finishedAt.Valid {
		if run.FinishedAt, err = time.Parse(timeLayout, finishedAt.String); err != nil {
			return nil, nil, fmt.Errorf("run %s: invalid finished_at: %w", run.ID, err)
		}
	}
	return &run, names, nil
}

// timeLayout is fixed width so that stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

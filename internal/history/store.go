// Package history persists every Run Result row and every Refine transition
// to a local, embedded sqlite database (modernc.org/sqlite — a pure-Go
// driver, no cgo), queryable after the fact via `policyd history`. Grounded
// in the teacher pack's own sqlite stores (e.g.
// ManuGH-xg2g/internal/pipeline/resume.SqliteStore): open with mandatory
// PRAGMAs, migrate via a user_version-gated schema, then plain
// parameterized SQL.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/edge-dvfs/policyd/internal/sensor"
	"github.com/edge-dvfs/policyd/internal/supervisor"
)

const schemaVersion = 1

// Store is a handle to the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the sqlite database at path, applying
// WAL mode and a busy timeout so the CLI's `run` and `history` subcommands
// can safely share one file without a writer lock stall.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening history db: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, fmt.Errorf("pinging history db: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close() //nolint:errcheck // best-effort cleanup on the error path
		return nil, fmt.Errorf("migrating history db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	var current int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&current); err != nil {
		return err
	}
	if current >= schemaVersion {
		return nil
	}

	const schema = `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT NOT NULL,
		app TEXT NOT NULL,
		device TEXT NOT NULL,
		target_tp REAL NOT NULL,
		unachievable BOOLEAN NOT NULL,
		programmed_cpu INTEGER NOT NULL,
		programmed_gpu INTEGER NOT NULL,
		last_observed_tp REAL,
		last_actual_tp REAL,
		vdd_in REAL,
		vdd_cpu_gpu_cv REAL,
		vdd_soc REAL,
		run_cpu_freq INTEGER NOT NULL,
		run_gpu_freq INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (run_id, app)
	);
	CREATE INDEX IF NOT EXISTS idx_runs_app ON runs(app);

	CREATE TABLE IF NOT EXISTS refine_transitions (
		run_id TEXT NOT NULL,
		prev_cpu_freq INTEGER NOT NULL,
		prev_gpu_freq INTEGER NOT NULL,
		next_cpu_freq INTEGER NOT NULL,
		next_gpu_freq INTEGER NOT NULL,
		recorded_at TEXT NOT NULL,
		PRIMARY KEY (run_id)
	);
	`
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op once committed

	if _, err := tx.Exec(schema); err != nil {
		return err
	}
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}
	return tx.Commit()
}

// RecordRun appends every app row of result. Uses INSERT OR REPLACE so a
// re-run under the same RunID (e.g. a retried CLI invocation) does not
// produce duplicate rows.
func (s *Store) RecordRun(ctx context.Context, result supervisor.RunResult) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op once committed

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO runs (
		run_id, app, device, target_tp, unachievable, programmed_cpu, programmed_gpu,
		last_observed_tp, last_actual_tp, vdd_in, vdd_cpu_gpu_cv, vdd_soc,
		run_cpu_freq, run_gpu_freq, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close() //nolint:errcheck // read side of a committed tx

	now := time.Now().UTC().Format(time.RFC3339)
	for _, ar := range result.Apps {
		_, err := stmt.ExecContext(ctx,
			result.RunID.String(), ar.App, string(ar.Device), ar.TargetTp, ar.Unachievable,
			ar.ProgrammedCPU, ar.ProgrammedGPU,
			nullableFloat(ar.LastObservedTp), nullableFloat(ar.LastActualTp),
			nullableRail(ar.AvgPowerMilliwatt, sensor.VDDIn),
			nullableRail(ar.AvgPowerMilliwatt, sensor.VDDCPUGPUCV),
			nullableRail(ar.AvgPowerMilliwatt, sensor.VDDSoC),
			ar.RunCPUFreq, ar.RunGPUFreq, now,
		)
		if err != nil {
			return fmt.Errorf("recording run row for %q: %w", ar.App, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{"run_id": result.RunID, "apps": len(result.Apps)}).Debug("run recorded to history")
	return nil
}

// RecordRefine appends one Refine transition for runID.
func (s *Store) RecordRefine(ctx context.Context, runID uuid.UUID, prevCPU, prevGPU, nextCPU, nextGPU int64) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO refine_transitions (run_id, prev_cpu_freq, prev_gpu_freq, next_cpu_freq, next_gpu_freq, recorded_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, runID.String(), prevCPU, prevGPU, nextCPU, nextGPU, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Row is one persisted app-run record, as returned by AppHistory.
type Row struct {
	RunID          string
	App            string
	Device         string
	TargetTp       float64
	Unachievable   bool
	LastObservedTp *float64
	LastActualTp   *float64
	RunCPUFreq     int64
	RunGPUFreq     int64
	RecordedAt     string
}

// AppHistory returns every recorded row for app, most recent first.
func (s *Store) AppHistory(ctx context.Context, app string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
	SELECT run_id, app, device, target_tp, unachievable, last_observed_tp, last_actual_tp,
	       run_cpu_freq, run_gpu_freq, recorded_at
	FROM runs WHERE app = ? ORDER BY recorded_at DESC
	`, app)
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // read-only query

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.RunID, &r.App, &r.Device, &r.TargetTp, &r.Unachievable,
			&r.LastObservedTp, &r.LastActualTp, &r.RunCPUFreq, &r.RunGPUFreq, &r.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullableRail(m map[sensor.Rail]float64, rail sensor.Rail) interface{} {
	v, ok := m[rail]
	if !ok {
		return nil
	}
	return v
}

// Package store keeps a history of batch runs and their activity summaries
// in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	tcxanalyzer "github.com/lucasjlepore/tcx-analyzer"
	"github.com/lucasjlepore/tcx-analyzer/statsexport"
)

// ErrRunNotFound is returned when a run ID is unknown.
var ErrRunNotFound = errors.New("run not found")

var schema = []string{
	`CREATE TABLE IF NOT EXISTS runs (
	id             TEXT PRIMARY KEY,
	source_dir     TEXT NOT NULL,
	created_at     TEXT NOT NULL,
	elapsed_ns     INTEGER NOT NULL,
	activity_count INTEGER NOT NULL,
	failure_count  INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS activity_stats (
	run_id              TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position            INTEGER NOT NULL,
	activity_id         TEXT NOT NULL,
	sport               TEXT NOT NULL,
	creator             TEXT NOT NULL,
	laps                INTEGER NOT NULL,
	distance_mi         REAL NOT NULL,
	distance_km         REAL NOT NULL,
	average_hr_bpm      INTEGER NOT NULL,
	average_pace        TEXT NOT NULL,
	pace_seconds_per_mi INTEGER NOT NULL,
	average_power_w     INTEGER NOT NULL,
	average_cadence_spm INTEGER NOT NULL,
	elevation_gain_ft   INTEGER NOT NULL,
	elevation_loss_ft   INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
)`,
	`CREATE TABLE IF NOT EXISTS failures (
	run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	path   TEXT NOT NULL,
	error  TEXT NOT NULL
)`,
	`CREATE INDEX IF NOT EXISTS idx_activity_stats_activity ON activity_stats(activity_id)`,
}

// Run is one stored batch invocation.
type Run struct {
	ID            string
	SourceDir     string
	CreatedAt     time.Time
	Elapsed       time.Duration
	ActivityCount int
	FailureCount  int
}

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply schema: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores run together with its ordered summaries and failures in a
// single transaction. An empty run.ID is replaced with a new UUID; the stored
// run is returned.
func (s *Store) SaveRun(ctx context.Context, run Run, stats []tcxanalyzer.ActivityStats, failures []statsexport.Failure) (Run, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.CreatedAt = run.CreatedAt.UTC()
	run.ActivityCount = len(stats)
	run.FailureCount = len(failures)

	err := s.transaction(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, source_dir, created_at, elapsed_ns, activity_count, failure_count)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, run.SourceDir, run.CreatedAt.Format(time.RFC3339Nano),
			int64(run.Elapsed), run.ActivityCount, run.FailureCount,
		); err != nil {
			return fmt.Errorf("insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO activity_stats (
				run_id, position, activity_id, sport, creator, laps, distance_mi, distance_km,
				average_hr_bpm, average_pace, pace_seconds_per_mi, average_power_w,
				average_cadence_spm, elevation_gain_ft, elevation_loss_ft
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare stats insert: %w", err)
		}
		defer stmt.Close()
		for i, st := range stats {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, st.ID, st.Sport, st.Creator, st.Laps, st.DistanceMiles, st.DistanceKilometers,
				st.AverageHeartRate, st.AveragePace, st.PaceSecondsPerMile, st.AverageWatts,
				st.AverageCadence, st.ElevationGainFeet, st.ElevationLossFeet,
			); err != nil {
				return fmt.Errorf("insert stats %q: %w", st.ID, err)
			}
		}

		for _, f := range failures {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO failures (run_id, path, error) VALUES (?, ?, ?)`,
				run.ID, f.Path, f.Error,
			); err != nil {
				return fmt.Errorf("insert failure: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return Run{}, err
	}
	return run, nil
}

// ListRuns returns stored runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source_dir, created_at, elapsed_ns, activity_count, failure_count
		 FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r         Run
			createdAt string
			elapsed   int64
		)
		if err := rows.Scan(&r.ID, &r.SourceDir, &createdAt, &elapsed, &r.ActivityCount, &r.FailureCount); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse created_at for run %s: %w", r.ID, err)
		}
		r.Elapsed = time.Duration(elapsed)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// StatsForRun returns the summaries stored for runID, in report order.
func (s *Store) StatsForRun(ctx context.Context, runID string) ([]tcxanalyzer.ActivityStats, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT activity_id, sport, creator, laps, distance_mi, distance_km,
			average_hr_bpm, average_pace, pace_seconds_per_mi, average_power_w,
			average_cadence_spm, elevation_gain_ft, elevation_loss_ft
		 FROM activity_stats WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	var out []tcxanalyzer.ActivityStats
	for rows.Next() {
		var st tcxanalyzer.ActivityStats
		if err := rows.Scan(
			&st.ID, &st.Sport, &st.Creator, &st.Laps, &st.DistanceMiles, &st.DistanceKilometers,
			&st.AverageHeartRate, &st.AveragePace, &st.PaceSecondsPerMile, &st.AverageWatts,
			&st.AverageCadence, &st.ElevationGainFeet, &st.ElevationLossFeet,
		); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		st.AveragePaceDuration = time.Duration(st.PaceSecondsPerMile) * time.Second
		out = append(out, st)
	}
	return out, rows.Err()
}

// FailuresForRun returns the parse failures stored for runID.
func (s *Store) FailuresForRun(ctx context.Context, runID string) ([]statsexport.Failure, error) {
	if err := s.requireRun(ctx, runID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT path, error FROM failures WHERE run_id = ? ORDER BY rowid`, runID)
	if err != nil {
		return nil, fmt.Errorf("query failures: %w", err)
	}
	defer rows.Close()

	var out []statsexport.Failure
	for rows.Next() {
		var f statsexport.Failure
		if err := rows.Scan(&f.Path, &f.Error); err != nil {
			return nil, fmt.Errorf("scan failure: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// DeleteRun removes a run and everything stored with it.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

func (s *Store) requireRun(ctx context.Context, runID string) error {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, runID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	if err != nil {
		return fmt.Errorf("lookup run: %w", err)
	}
	return nil
}

func (s *Store) transaction(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("transaction error: %v, rollback error: %w", err, rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

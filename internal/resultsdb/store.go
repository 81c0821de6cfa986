// Package resultsdb persists analysis runs and their joined feature
// tables to SQLite. Schema changes are applied through embedded
// migrations, so opening an older database upgrades it in place.
package resultsdb

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/wavesense-data/motion.report/internal/feature"
	"github.com/wavesense-data/motion.report/internal/monitoring"
	"github.com/wavesense-data/motion.report/internal/timeutil"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Run statuses.
const (
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Capture statuses.
const (
	CaptureProcessed = "processed"
	CaptureSkipped   = "skipped"
)

// Store provides persistence for analysis runs.
type Store struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens the results database at path, creating it if needed, and
// applies any pending migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open results database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, clock: timeutil.RealClock{}}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrateUp applies all pending migrations from the embedded filesystem.
func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	m.Log = &migrateLogger{}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// migrateLogger implements migrate.Logger.
type migrateLogger struct{}

var storeLog = monitoring.Tagged("ResultsDB")

func (l *migrateLogger) Printf(format string, v ...interface{}) {
	storeLog(format, v...)
}

func (l *migrateLogger) Verbose() bool { return false }

// StartRun records a new run over baseDir and returns its ID. params
// may be any JSON-encodable value describing the pipeline settings.
func (s *Store) StartRun(baseDir string, params interface{}) (string, error) {
	runID := uuid.New().String()

	var paramsJSON interface{}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return "", fmt.Errorf("failed to encode run params: %w", err)
		}
		paramsJSON = string(data)
	}

	_, err := s.db.Exec(`
		INSERT INTO analysis_runs (run_id, base_dir, params_json, status, started_at)
		VALUES (?, ?, ?, ?, ?)`,
		runID, baseDir, paramsJSON, StatusRunning, s.clock.Now().UnixNano())
	if err != nil {
		return "", fmt.Errorf("insert analysis run: %w", err)
	}
	return runID, nil
}

// CompleteRun marks a run as finished successfully.
func (s *Store) CompleteRun(runID string) error {
	return s.finishRun(runID, StatusCompleted, "")
}

// FailRun marks a run as failed and records the cause.
func (s *Store) FailRun(runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return s.finishRun(runID, StatusFailed, msg)
}

func (s *Store) finishRun(runID, status, errMsg string) error {
	var errVal interface{}
	if errMsg != "" {
		errVal = errMsg
	}

	result, err := s.db.Exec(`
		UPDATE analysis_runs SET status = ?, finished_at = ?, error = ?
		WHERE run_id = ?`,
		status, s.clock.Now().UnixNano(), errVal, runID)
	if err != nil {
		return fmt.Errorf("update analysis run: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("run %s not found", runID)
	}
	return nil
}

// RecordCapture stores a processed capture's joined table. The result
// row and all feature rows are written in one transaction.
func (s *Store) RecordCapture(runID, key string, joined *feature.Joined) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rowCount := 0
	if joined != nil {
		rowCount = joined.Len()
	}

	if _, err := tx.Exec(`
		INSERT INTO capture_results (result_id, run_id, capture_key, status, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, key, CaptureProcessed, rowCount, s.clock.Now().UnixNano()); err != nil {
		return fmt.Errorf("insert capture result: %w", err)
	}

	if rowCount > 0 {
		stmt, err := tx.Prepare(`
			INSERT INTO joined_features (run_id, capture_key, ts, csi_feature, bitrate_median)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare feature insert: %w", err)
		}
		defer stmt.Close()

		for i := range joined.Timestamps {
			if _, err := stmt.Exec(runID, key, joined.Timestamps[i],
				nullFloat(joined.CSIFeature[i]), nullFloat(joined.BitrateMedian[i])); err != nil {
				return fmt.Errorf("insert feature row: %w", err)
			}
		}
	}

	return tx.Commit()
}

// SkipCapture records a capture that could not be processed.
func (s *Store) SkipCapture(runID, key, reason string) error {
	var reasonVal interface{}
	if reason != "" {
		reasonVal = reason
	}

	_, err := s.db.Exec(`
		INSERT INTO capture_results (result_id, run_id, capture_key, status, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		uuid.New().String(), runID, key, CaptureSkipped, reasonVal, s.clock.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("insert capture result: %w", err)
	}
	return nil
}

// Run is one recorded pipeline invocation.
type Run struct {
	RunID      string          `json:"run_id"`
	BaseDir    string          `json:"base_dir"`
	ParamsJSON json.RawMessage `json:"params_json,omitempty"`
	Status     string          `json:"status"`
	StartedAt  int64           `json:"started_at"`
	FinishedAt int64           `json:"finished_at,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// GetRun returns a single run by ID.
func (s *Store) GetRun(runID string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, base_dir, params_json, status, started_at, finished_at, error
		FROM analysis_runs
		WHERE run_id = ?`, runID)

	var r Run
	var params, errMsg sql.NullString
	var finished sql.NullInt64
	err := row.Scan(&r.RunID, &r.BaseDir, &params, &r.Status, &r.StartedAt, &finished, &errMsg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("run %s not found", runID)
		}
		return nil, fmt.Errorf("scan analysis run: %w", err)
	}
	if params.Valid {
		r.ParamsJSON = json.RawMessage(params.String)
	}
	if finished.Valid {
		r.FinishedAt = finished.Int64
	}
	if errMsg.Valid {
		r.Error = errMsg.String
	}
	return &r, nil
}

// CaptureResult is one per-capture outcome within a run.
type CaptureResult struct {
	RunID      string `json:"run_id"`
	CaptureKey string `json:"capture_key"`
	Status     string `json:"status"`
	Reason     string `json:"reason,omitempty"`
	RowCount   int    `json:"row_count"`
	CreatedAt  int64  `json:"created_at"`
}

// ListCaptureResults returns all capture outcomes for a run, ordered by
// capture key.
func (s *Store) ListCaptureResults(runID string) ([]CaptureResult, error) {
	rows, err := s.db.Query(`
		SELECT run_id, capture_key, status, reason, row_count, created_at
		FROM capture_results
		WHERE run_id = ?
		ORDER BY capture_key`, runID)
	if err != nil {
		return nil, fmt.Errorf("query capture results: %w", err)
	}
	defer rows.Close()

	var results []CaptureResult
	for rows.Next() {
		var cr CaptureResult
		var reason sql.NullString
		if err := rows.Scan(&cr.RunID, &cr.CaptureKey, &cr.Status, &reason, &cr.RowCount, &cr.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan capture result: %w", err)
		}
		if reason.Valid {
			cr.Reason = reason.String
		}
		results = append(results, cr)
	}
	return results, rows.Err()
}

// JoinedFeatures reloads the joined table stored for one capture,
// ordered by timestamp. NULL cells come back as NaN.
func (s *Store) JoinedFeatures(runID, key string) (*feature.Joined, error) {
	rows, err := s.db.Query(`
		SELECT ts, csi_feature, bitrate_median
		FROM joined_features
		WHERE run_id = ? AND capture_key = ?
		ORDER BY ts`, runID, key)
	if err != nil {
		return nil, fmt.Errorf("query joined features: %w", err)
	}
	defer rows.Close()

	joined := &feature.Joined{}
	for rows.Next() {
		var ts float64
		var csi, bitrate sql.NullFloat64
		if err := rows.Scan(&ts, &csi, &bitrate); err != nil {
			return nil, fmt.Errorf("scan joined feature row: %w", err)
		}
		joined.Timestamps = append(joined.Timestamps, ts)
		joined.CSIFeature = append(joined.CSIFeature, floatOrNaN(csi))
		joined.BitrateMedian = append(joined.BitrateMedian, floatOrNaN(bitrate))
	}
	return joined, rows.Err()
}

// nullFloat maps NaN to NULL so gaps survive the round trip.
func nullFloat(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func floatOrNaN(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}

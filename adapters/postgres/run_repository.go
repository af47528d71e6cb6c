package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"proxtest/domain/core"
	"proxtest/domain/stats"
	"proxtest/internal/errors"
	"proxtest/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Open connects to a run store. postgres:// and postgresql:// URLs use
// lib/pq; sqlite:// URLs and bare paths open a local SQLite file.
func Open(ctx context.Context, url string) (*sqlx.DB, error) {
	driver, dsn := driverFor(url)
	db, err := sqlx.ConnectContext(ctx, driver, dsn)
	if err != nil {
		return nil, errors.DatabaseError("failed to connect to run store", err)
	}
	return db, nil
}

func driverFor(url string) (driver, dsn string) {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres", url
	case strings.HasPrefix(url, "sqlite://"):
		return "sqlite3", strings.TrimPrefix(url, "sqlite://")
	default:
		return "sqlite3", url
	}
}

// runRow mirrors one permutation_runs record
type runRow struct {
	RunID           string    `db:"run_id"`
	Fingerprint     string    `db:"fingerprint"`
	Seed            int64     `db:"seed"`
	Iterations      int       `db:"iterations"`
	Workers         int       `db:"workers"`
	Communities     int       `db:"communities"`
	ObservedRows    int       `db:"observed_rows"`
	LookupPairs     int       `db:"lookup_pairs"`
	ObservedMeanKm  float64   `db:"observed_mean_km"`
	ObservedMeanH   float64   `db:"observed_mean_h"`
	NullMeanKm      float64   `db:"null_mean_km"`
	NullMeanH       float64   `db:"null_mean_h"`
	PDistance       float64   `db:"p_distance"`
	PTime           float64   `db:"p_time"`
	MissingPolicy   string    `db:"missing_policy"`
	RowsDropped     int       `db:"rows_dropped"`
	LookupAugmented int       `db:"lookup_augmented"`
	ElapsedMs       int64     `db:"elapsed_ms"`
	CreatedAt       time.Time `db:"created_at"`
}

func (row runRow) summary() ports.RunSummary {
	return ports.RunSummary{
		RunID:         core.RunID(row.RunID),
		Fingerprint:   core.Hash(row.Fingerprint),
		Seed:          row.Seed,
		Iterations:    row.Iterations,
		ObservedMeanD: row.ObservedMeanKm,
		ObservedMeanT: row.ObservedMeanH,
		PDistance:     row.PDistance,
		PTime:         row.PTime,
		Policy:        stats.MissingPolicy(row.MissingPolicy),
		RowsDropped:   row.RowsDropped,
		CreatedAt:     core.NewTimestamp(row.CreatedAt),
	}
}

const selectRuns = `SELECT
		run_id, fingerprint, seed, iterations, workers, communities, observed_rows, lookup_pairs,
		observed_mean_km, observed_mean_h, null_mean_km, null_mean_h, p_distance, p_time,
		missing_policy, rows_dropped, lookup_augmented, elapsed_ms, created_at
	FROM permutation_runs`

// runRepository implements ports.RunRepositoryPort
type runRepository struct {
	db *sqlx.DB
}

// NewRunRepository creates a run repository, creating its table if needed
func NewRunRepository(ctx context.Context, db *sqlx.DB) (ports.RunRepositoryPort, error) {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, errors.DatabaseError("failed to create permutation_runs schema", err)
		}
	}
	return &runRepository{db: db}, nil
}

// SaveRun inserts the headline numbers of a run
func (r *runRepository) SaveRun(ctx context.Context, result *stats.RunResult) error {
	row := runRow{
		RunID:           result.RunID.String(),
		Fingerprint:     result.Fingerprint.String(),
		Seed:            result.Seed,
		Iterations:      result.Iterations,
		Workers:         result.Workers,
		Communities:     result.Communities,
		ObservedRows:    result.ObservedRows,
		LookupPairs:     result.LookupPairs,
		ObservedMeanKm:  result.Observed.Distance.Mean,
		ObservedMeanH:   result.Observed.Time.Mean,
		NullMeanKm:      result.NullDistance.Mean,
		NullMeanH:       result.NullTime.Mean,
		PDistance:       result.PValues.Distance,
		PTime:           result.PValues.Time,
		MissingPolicy:   string(result.Diagnostics.Policy),
		RowsDropped:     result.Diagnostics.RowsDropped,
		LookupAugmented: result.Diagnostics.LookupAugmented,
		ElapsedMs:       result.Elapsed.Milliseconds(),
		CreatedAt:       result.StartedAt.Time().UTC(),
	}

	query := `INSERT INTO permutation_runs (
		run_id, fingerprint, seed, iterations, workers, communities, observed_rows, lookup_pairs,
		observed_mean_km, observed_mean_h, null_mean_km, null_mean_h, p_distance, p_time,
		missing_policy, rows_dropped, lookup_augmented, elapsed_ms, created_at
	) VALUES (
		:run_id, :fingerprint, :seed, :iterations, :workers, :communities, :observed_rows, :lookup_pairs,
		:observed_mean_km, :observed_mean_h, :null_mean_km, :null_mean_h, :p_distance, :p_time,
		:missing_policy, :rows_dropped, :lookup_augmented, :elapsed_ms, :created_at
	)`

	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return errors.DatabaseError(fmt.Sprintf("failed to save run %s", result.RunID), err)
	}
	return nil
}

// ListRuns returns the most recent runs first
func (r *runRepository) ListRuns(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	query := r.db.Rebind(selectRuns + `
	ORDER BY created_at DESC, run_id DESC
	LIMIT ?`)

	var rows []runRow
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, errors.DatabaseError("failed to list runs", err)
	}

	summaries := make([]ports.RunSummary, 0, len(rows))
	for _, row := range rows {
		summaries = append(summaries, row.summary())
	}
	return summaries, nil
}

// GetRun returns one stored run by ID
func (r *runRepository) GetRun(ctx context.Context, id core.RunID) (*ports.RunSummary, error) {
	query := r.db.Rebind(selectRuns + ` WHERE run_id = ?`)

	var row runRow
	if err := r.db.GetContext(ctx, &row, query, id.String()); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NotFound(fmt.Sprintf("run %s", id))
		}
		return nil, errors.DatabaseError(fmt.Sprintf("failed to load run %s", id), err)
	}
	summary := row.summary()
	return &summary, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"feature-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// EnsureTables creates the run-tracking and segment tables if absent. The
// feature table itself is materialized per run via staging + swap.
func (s *Store) EnsureTables(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS feature_runs (
			run_id TEXT PRIMARY KEY,
			as_of_date DATE NOT NULL,
			status TEXT NOT NULL,
			orders_read BIGINT NOT NULL DEFAULT 0,
			orders_aggregated BIGINT NOT NULL DEFAULT 0,
			unresolved_orders BIGINT NOT NULL DEFAULT 0,
			missing_rate_items BIGINT NOT NULL DEFAULT 0,
			customers_emitted BIGINT NOT NULL DEFAULT 0,
			schema_fingerprint TEXT NOT NULL DEFAULT '',
			error TEXT NOT NULL DEFAULT '',
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS customer_segments (
			external_customer_key TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			score DOUBLE PRECISION NOT NULL,
			segment TEXT NOT NULL,
			assigned_at TIMESTAMPTZ NOT NULL
		)`,
	}

	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to ensure tables: %w", err)
		}
	}
	return nil
}

// CreateRun records the start of a feature run
func (s *Store) CreateRun(ctx context.Context, run *models.FeatureRun) error {
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO feature_runs (run_id, as_of_date, status, schema_fingerprint, started_at)
		VALUES (:run_id, :as_of_date, :status, :schema_fingerprint, :started_at)`, run)
	return err
}

// CompleteRun marks a run as completed and stores its report counters
func (s *Store) CompleteRun(ctx context.Context, runID string, report models.RunReport) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE feature_runs
		SET status = $1, orders_read = $2, orders_aggregated = $3,
		    unresolved_orders = $4, missing_rate_items = $5,
		    customers_emitted = $6, finished_at = NOW()
		WHERE run_id = $7`,
		models.RunStatusCompleted,
		report.OrdersRead, report.OrdersAggregated,
		report.UnresolvedOrders, report.MissingRateItems,
		report.CustomersEmitted, runID)
	return err
}

// FailRun marks a run as failed with a reason
func (s *Store) FailRun(ctx context.Context, runID, reason string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE feature_runs SET status = $1, error = $2, finished_at = NOW()
		WHERE run_id = $3`,
		models.RunStatusFailed, reason, runID)
	return err
}

// GetRun retrieves a run by ID
func (s *Store) GetRun(ctx context.Context, runID string) (*models.FeatureRun, error) {
	var run models.FeatureRun
	err := s.db.GetContext(ctx, &run, "SELECT * FROM feature_runs WHERE run_id = $1", runID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", runID)
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"feature-service/internal/models"
	"feature-service/internal/schema"
)

const (
	featureTable        = "customer_features"
	featureStagingTable = "customer_features_staging"
	featurePrevTable    = "customer_features_prev"

	insertBatchSize = 500
)

// WriteFeatures materializes a feature run atomically: the records are
// inserted into a staging table, the staging columns are validated against
// the versioned schema, and the table is swapped into place in one
// transaction. A partially written output is never visible under the
// published name; on any error the previous table stays published.
func (s *Store) WriteFeatures(ctx context.Context, records []models.CustomerFeatureRecord) error {
	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+featureStagingTable); err != nil {
		return fmt.Errorf("failed to drop stale staging table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, featureTableDDL(featureStagingTable)); err != nil {
		return fmt.Errorf("failed to create staging table: %w", err)
	}

	insert := featureInsertStatement(featureStagingTable)
	for start := 0; start < len(records); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(records) {
			end = len(records)
		}
		if _, err := s.db.NamedExecContext(ctx, insert, records[start:end]); err != nil {
			return fmt.Errorf("failed to insert feature records: %w", err)
		}
	}

	if err := s.validateTableSchema(ctx, featureStagingTable); err != nil {
		return err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	swap := []string{
		"DROP TABLE IF EXISTS " + featurePrevTable,
		"ALTER TABLE IF EXISTS " + featureTable + " RENAME TO " + featurePrevTable,
		"ALTER TABLE " + featureStagingTable + " RENAME TO " + featureTable,
	}
	for _, stmt := range swap {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to swap feature table: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to publish feature table: %w", err)
	}

	// best effort; the swap already succeeded
	_, _ = s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+featurePrevTable)

	return nil
}

// GetFeatureRecord retrieves the published record for a customer
func (s *Store) GetFeatureRecord(ctx context.Context, customerKey string) (*models.CustomerFeatureRecord, error) {
	var rec models.CustomerFeatureRecord
	query := "SELECT " + strings.Join(schema.Columns(), ", ") +
		" FROM " + featureTable + " WHERE externalcustomerkey = $1"
	err := s.db.GetContext(ctx, &rec, query, customerKey)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("feature record not found: %s", customerKey)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ListFeatureRecords streams the published table sorted by customer key
func (s *Store) ListFeatureRecords(ctx context.Context) ([]models.CustomerFeatureRecord, error) {
	var recs []models.CustomerFeatureRecord
	query := "SELECT " + strings.Join(schema.Columns(), ", ") +
		" FROM " + featureTable + " ORDER BY externalcustomerkey"
	err := s.db.SelectContext(ctx, &recs, query)
	return recs, err
}

// UpsertSegments stores segment assignments, replacing a customer's
// previous assignment
func (s *Store) UpsertSegments(ctx context.Context, segments []models.CustomerSegment) error {
	for _, seg := range segments {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO customer_segments (external_customer_key, run_id, score, segment, assigned_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (external_customer_key)
			DO UPDATE SET run_id = $2, score = $3, segment = $4, assigned_at = $5`,
			seg.ExternalCustomerKey, seg.RunID, seg.Score, seg.Segment, seg.AssignedAt)
		if err != nil {
			return fmt.Errorf("failed to upsert segment for %s: %w", seg.ExternalCustomerKey, err)
		}
	}
	return nil
}

// GetSegment retrieves the latest segment assignment for a customer
func (s *Store) GetSegment(ctx context.Context, customerKey string) (*models.CustomerSegment, error) {
	var seg models.CustomerSegment
	err := s.db.GetContext(ctx, &seg,
		"SELECT * FROM customer_segments WHERE external_customer_key = $1", customerKey)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("segment not found: %s", customerKey)
	}
	if err != nil {
		return nil, err
	}
	return &seg, nil
}

// validateTableSchema checks the actual column set and order of a table
// against the versioned feature schema; mismatch aborts the run before the
// swap makes anything visible.
func (s *Store) validateTableSchema(ctx context.Context, table string) error {
	var actual []string
	err := s.db.SelectContext(ctx, &actual, `
		SELECT column_name FROM information_schema.columns
		WHERE table_name = $1 ORDER BY ordinal_position`, table)
	if err != nil {
		return fmt.Errorf("failed to introspect %s: %w", table, err)
	}
	return schema.Validate(actual)
}

// featureTableDDL builds the CREATE TABLE statement from the schema so the
// physical layout can never drift from the contract.
func featureTableDDL(table string) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE " + table + " (\n")
	for i, col := range schema.Columns() {
		if i > 0 {
			b.WriteString(",\n")
		}
		b.WriteString("\t" + col + " " + columnType(col))
	}
	b.WriteString("\n)")
	return b.String()
}

func columnType(col string) string {
	switch {
	case col == "externalcustomerkey":
		return "TEXT PRIMARY KEY"
	case col == "as_of_date":
		return "DATE NOT NULL"
	case col == "first_order_date" || col == "last_order_date":
		return "DATE"
	case col == "country" || col == "gender":
		return "TEXT NOT NULL"
	case col == "days_since_last_order":
		return "BIGINT"
	case col == "shops_included":
		return "BIGINT NOT NULL"
	case strings.HasPrefix(col, "orders_") || strings.HasPrefix(col, "items_"):
		return "BIGINT NOT NULL"
	default:
		return "DOUBLE PRECISION"
	}
}

// featureInsertStatement builds the named insert from the schema columns;
// the struct db tags mirror the same names.
func featureInsertStatement(table string) string {
	cols := schema.Columns()
	named := make([]string, len(cols))
	for i, c := range cols {
		named[i] = ":" + c
	}
	return "INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ") VALUES (" +
		strings.Join(named, ", ") + ")"
}

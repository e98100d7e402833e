package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/opscart/k8s-resource-gather/pkg/models"
)

//go:embed migrations/*.sql
var postgresFS embed.FS

// PostgresStore implements Store interface using PostgreSQL
type PostgresStore struct {
	db  *sql.DB
	dsn string
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{
		db:  db,
		dsn: dsn,
	}

	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	schema, err := postgresFS.ReadFile("migrations/001_postgres_schema.sql")
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	if _, err := s.db.Exec(string(schema)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// SaveRun saves (or finalizes) a run descriptor.
func (s *PostgresStore) SaveRun(ctx context.Context, run *models.Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now()
	}

	query := `
		INSERT INTO runs (id, cluster_id, started_at, finished_at, output_dir)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET finished_at = EXCLUDED.finished_at
	`

	var finishedAt *time.Time
	if !run.FinishedAt.IsZero() {
		finishedAt = &run.FinishedAt
	}

	_, err := s.db.ExecContext(ctx, query,
		run.ID, run.ClusterID, run.StartedAt, finishedAt, run.OutputDir,
	)

	return err
}

// SaveReportStat records the row count of one report table for a run.
func (s *PostgresStore) SaveReportStat(ctx context.Context, stat *models.ReportStat) error {
	if stat.ID == "" {
		stat.ID = uuid.New().String()
	}

	query := `
		INSERT INTO run_reports (id, run_id, report, row_count)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.db.ExecContext(ctx, query,
		stat.ID, stat.RunID, stat.Report, stat.RowCount,
	)

	return err
}

// ListRuns retrieves recent runs for a cluster.
func (s *PostgresStore) ListRuns(ctx context.Context, clusterID string, limit int) ([]*models.Run, error) {
	query := `
		SELECT id, cluster_id, started_at, finished_at, output_dir
		FROM runs
		WHERE cluster_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := s.db.QueryContext(ctx, query, clusterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		var run models.Run
		var finishedAt sql.NullTime

		if err := rows.Scan(&run.ID, &run.ClusterID, &run.StartedAt, &finishedAt, &run.OutputDir); err != nil {
			return nil, err
		}
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}

		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

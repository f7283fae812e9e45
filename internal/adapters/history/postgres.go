package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
)

// PostgresStore is a PostgreSQL implementation of the HistoryStore port
type PostgresStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPostgresStore connects to PostgreSQL using the given DSN
func NewPostgresStore(dsn string, logger *zap.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			id TEXT PRIMARY KEY,
			message TEXT,
			verdict TEXT,
			category TEXT,
			final_score DOUBLE PRECISION,
			analyzed_at TIMESTAMPTZ
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	_, err = db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_analyzed_at ON analysis_history(analyzed_at)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &PostgresStore{db: db, logger: logger}, nil
}

// Save stores one analysis record
func (s *PostgresStore) Save(ctx context.Context, record *core.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (id, message, verdict, category, final_score, analyzed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			verdict = EXCLUDED.verdict,
			category = EXCLUDED.category,
			final_score = EXCLUDED.final_score,
			analyzed_at = EXCLUDED.analyzed_at
	`, record.ID, record.Message, string(record.Verdict), record.Category, record.FinalScore, record.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first
func (s *PostgresStore) Recent(ctx context.Context, n int) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, verdict, category, final_score, analyzed_at
		FROM analysis_history
		ORDER BY analyzed_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanNativeRecords(rows)
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

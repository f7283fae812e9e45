package history

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
)

// MySQLStore is a MySQL implementation of the HistoryStore port
type MySQLStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLStore connects to MySQL using the given DSN. The DSN must enable
// parseTime so DATETIME columns scan into time.Time.
func NewMySQLStore(dsn string, logger *zap.Logger) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			id VARCHAR(36) PRIMARY KEY,
			message TEXT,
			verdict VARCHAR(16),
			category VARCHAR(64),
			final_score DOUBLE,
			analyzed_at DATETIME,
			INDEX idx_analyzed_at (analyzed_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLStore{db: db, logger: logger}, nil
}

// Save stores one analysis record
func (s *MySQLStore) Save(ctx context.Context, record *core.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analysis_history (id, message, verdict, category, final_score, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			verdict = VALUES(verdict),
			category = VALUES(category),
			final_score = VALUES(final_score),
			analyzed_at = VALUES(analyzed_at)
	`, record.ID, record.Message, string(record.Verdict), record.Category, record.FinalScore, record.Timestamp)

	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first
func (s *MySQLStore) Recent(ctx context.Context, n int) ([]*core.AnalysisRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, message, verdict, category, final_score, analyzed_at
		FROM analysis_history
		ORDER BY analyzed_at DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	return scanNativeRecords(rows)
}

// Close closes the database connection
func (s *MySQLStore) Close() error {
	return s.db.Close()
}

// scanNativeRecords is the row scanner for drivers that return time.Time
func scanNativeRecords(rows *sql.Rows) ([]*core.AnalysisRecord, error) {
	var records []*core.AnalysisRecord
	for rows.Next() {
		var record core.AnalysisRecord
		var verdict string
		if err := rows.Scan(&record.ID, &record.Message, &verdict, &record.Category, &record.FinalScore, &record.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		record.Verdict = core.Verdict(verdict)
		records = append(records, &record)
	}
	return records, rows.Err()
}

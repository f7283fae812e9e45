package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/core"
)

// SQLiteStore is a SQLite implementation of the HistoryStore port
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (or creates) the history database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS analysis_history (
			id TEXT PRIMARY KEY,
			message TEXT,
			verdict TEXT,
			category TEXT,
			final_score REAL,
			analyzed_at TIMESTAMP
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

	return &SQLiteStore{db: db, logger: logger}, nil
}

// Save stores one analysis record
func (s *SQLiteStore) Save(ctx context.Context, record *core.AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO analysis_history (id, message, verdict, category, final_score, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, record.ID, record.Message, string(record.Verdict), record.Category, record.FinalScore, record.Timestamp.Format(time.RFC3339))

	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first
func (s *SQLiteStore) Recent(ctx context.Context, n int) ([]*core.AnalysisRecord, error) {
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

	return scanRecords(rows, s.logger)
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanRecords converts query rows into records, skipping rows whose
// timestamp does not parse
func scanRecords(rows *sql.Rows, logger *zap.Logger) ([]*core.AnalysisRecord, error) {
	var records []*core.AnalysisRecord
	for rows.Next() {
		var record core.AnalysisRecord
		var verdict, analyzedAt string
		if err := rows.Scan(&record.ID, &record.Message, &verdict, &record.Category, &record.FinalScore, &analyzedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		record.Verdict = core.Verdict(verdict)

		ts, err := time.Parse(time.RFC3339, analyzedAt)
		if err != nil {
			logger.Warn("Skipping history row with bad timestamp",
				zap.String("id", record.ID), zap.Error(err))
			continue
		}
		record.Timestamp = ts
		records = append(records, &record)
	}
	return records, rows.Err()
}

package factory

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/mikey/mailsentry/internal/adapters/history"
	"github.com/mikey/mailsentry/internal/config"
	"github.com/mikey/mailsentry/internal/core"
)

// HistoryFactory creates analysis history stores based on configuration
type HistoryFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewHistoryFactory creates a new history factory
func NewHistoryFactory(cfg *config.Config, logger *zap.Logger) *HistoryFactory {
	return &HistoryFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateHistoryStore creates a history store, or nil when persistence is disabled
func (f *HistoryFactory) CreateHistoryStore() (core.HistoryStore, error) {
	if !f.cfg.GetBool("history.enabled") {
		return nil, nil
	}

	historyType := f.cfg.GetString("history.type")

	switch historyType {
	case "memory":
		return history.NewMemoryStore(f.cfg.GetInt("history.memory_size"), f.logger), nil
	case "sqlite":
		sqlitePath := f.cfg.GetString("history.sqlite_path")
		if err := os.MkdirAll(filepath.Dir(sqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create SQLite directory: %w", err)
		}
		return history.NewSQLiteStore(sqlitePath, f.logger)
	case "mysql":
		return history.NewMySQLStore(f.cfg.GetString("history.mysql_dsn"), f.logger)
	case "postgres":
		return history.NewPostgresStore(f.cfg.GetString("history.postgres_dsn"), f.logger)
	default:
		return nil, fmt.Errorf("unsupported history store type: %s", historyType)
	}
}

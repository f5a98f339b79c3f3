package database

import (
	"fmt"
	"os"
	"path/filepath"

	"feedback-go/internal/config"
)

// DatabaseFileName is the SQLite file created inside data_dir.
const DatabaseFileName = "feedback.db"

// NewDatabaseFromConfig creates a Store implementation based on the database config type.
func NewDatabaseFromConfig(cfg config.DatabaseConfig) (Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return NewSQLiteDatabase(filepath.Join(cfg.DataDir, DatabaseFileName))
	case "memory":
		return NewMemoryDatabase(), nil
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}

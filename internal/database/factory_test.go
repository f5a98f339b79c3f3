package database

import (
	"os"
	"path/filepath"
	"testing"

	"feedback-go/internal/config"
)

func TestNewDatabaseFromConfig(t *testing.T) {
	t.Run("memory database", func(t *testing.T) {
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "memory"})
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, ok := got.(*MemoryDatabase); !ok {
			t.Errorf("NewDatabaseFromConfig() = %T, want *MemoryDatabase", got)
		}
	})

	t.Run("sqlite database", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "db")
		got, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite", DataDir: dir})
		if err != nil {
			t.Fatalf("NewDatabaseFromConfig() unexpected error: %v", err)
		}
		defer got.Close()

		if _, ok := got.(*SQLiteDatabase); !ok {
			t.Errorf("NewDatabaseFromConfig() = %T, want *SQLiteDatabase", got)
		}
		if _, err := os.Stat(filepath.Join(dir, DatabaseFileName)); err != nil {
			t.Errorf("database file not created: %v", err)
		}
	})

	t.Run("sqlite requires data dir", func(t *testing.T) {
		_, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "sqlite"})
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for missing data_dir")
		}
	})

	t.Run("unknown type", func(t *testing.T) {
		_, err := NewDatabaseFromConfig(config.DatabaseConfig{Type: "postgres"})
		if err == nil {
			t.Error("NewDatabaseFromConfig() expected error for unknown type")
		}
	})
}

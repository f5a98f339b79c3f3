package testutil

import (
	"testing"

	"feedback-go/internal/database"
)

// NewTestDatabase creates a new in-memory SQLite database with migrations applied.
// The database is automatically closed when the test completes.
func NewTestDatabase(t *testing.T) database.Store {
	t.Helper()

	db, err := database.NewSQLiteDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	if err := db.MigrateUp(); err != nil {
		t.Fatalf("failed to apply migrations: %v", err)
	}

	return db
}

// NewMemoryTestDatabase creates an empty in-memory store without SQL.
func NewMemoryTestDatabase(t *testing.T) database.Store {
	t.Helper()
	return database.NewMemoryDatabase()
}

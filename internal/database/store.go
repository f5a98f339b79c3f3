package database

import "feedback-go/internal/feedback"

// Store is a feedback.Database that also manages its own schema.
type Store interface {
	feedback.Database

	// MigrateUp applies pending schema changes.
	MigrateUp() error

	// CheckMigrations returns an error unless the schema is current.
	CheckMigrations() error
}

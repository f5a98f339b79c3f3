package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"

	"feedback-go/internal/database/migrations"
	"feedback-go/internal/feedback"
)

// SQLiteDatabase implements feedback.Database on SQLite.
type SQLiteDatabase struct {
	db   *sqlx.DB
	path string
}

type inboxRow struct {
	ID                string    `db:"id"`
	Topic             string    `db:"topic"`
	OwnerSignature    string    `db:"owner_signature"`
	RequiresSignature bool      `db:"requires_signature"`
	CreatedAt         time.Time `db:"created_at"`
	ExpiresAt         time.Time `db:"expires_at"`
}

type messageRow struct {
	ID        int64          `db:"id"`
	InboxID   string         `db:"inbox_id"`
	Body      string         `db:"body"`
	Signature sql.NullString `db:"signature"`
	CreatedAt time.Time      `db:"created_at"`
}

const inboxColumns = `id, topic, owner_signature, requires_signature, created_at, expires_at`

// NewSQLiteDatabase opens a SQLite database at path.
// path can be a file path or ":memory:" for an in-memory database.
// The schema is not touched; see MigrateUp and CheckMigrations.
func NewSQLiteDatabase(path string) (*SQLiteDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	return &SQLiteDatabase{db: sqlx.NewDb(db, "sqlite3"), path: path}, nil
}

// NewSQLiteDatabaseFromDB wraps an existing database connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB) *SQLiteDatabase {
	return &SQLiteDatabase{db: sqlx.NewDb(db, "sqlite3")}
}

// OpenConnection opens a SQLite connection with foreign keys enabled.
// The pool is limited to one connection: SQLite serializes writers anyway,
// and an in-memory database only exists on the connection that created it.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

func (s *SQLiteDatabase) SaveNewInbox(ctx context.Context, inbox *feedback.Inbox) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO inboxes (`+inboxColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		inbox.ID(), inbox.Topic(), inbox.OwnerSignature(), inbox.RequiresSignature(),
		inbox.CreatedAt().UTC(), inbox.ExpiresAt().UTC(),
	)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("saving inbox %s: %w", inbox.ID(), feedback.ErrIDCollision)
		}
		return fmt.Errorf("inserting inbox: %w", err)
	}

	for _, msg := range inbox.Messages() {
		if err := insertMessage(ctx, tx, inbox.ID(), msg); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteDatabase) FindInboxByID(ctx context.Context, id string) (*feedback.Inbox, error) {
	var row inboxRow
	err := s.db.GetContext(ctx, &row, `SELECT `+inboxColumns+` FROM inboxes WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, fmt.Errorf("finding inbox by id: %w", err)
	}

	inboxes, err := s.attachMessages(ctx, []inboxRow{row})
	if err != nil {
		return nil, err
	}
	return inboxes[0], nil
}

func (s *SQLiteDatabase) ListInboxes(ctx context.Context) ([]*feedback.Inbox, error) {
	var rows []inboxRow
	err := s.db.SelectContext(ctx, &rows, `SELECT `+inboxColumns+` FROM inboxes ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("listing inboxes: %w", err)
	}
	return s.attachMessages(ctx, rows)
}

func (s *SQLiteDatabase) ListInboxesByOwner(ctx context.Context, ownerSignature string) ([]*feedback.Inbox, error) {
	var rows []inboxRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+inboxColumns+` FROM inboxes WHERE owner_signature = ? ORDER BY created_at, id`, ownerSignature)
	if err != nil {
		return nil, fmt.Errorf("listing inboxes by owner: %w", err)
	}
	return s.attachMessages(ctx, rows)
}

func (s *SQLiteDatabase) UpdateInboxTopic(ctx context.Context, id string, topic string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE inboxes SET topic = ? WHERE id = ?`, topic, id)
	if err != nil {
		return fmt.Errorf("updating inbox topic: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating inbox topic: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("updating inbox %s: %w", id, feedback.ErrInboxNotFound)
	}
	return nil
}

func (s *SQLiteDatabase) AppendMessage(ctx context.Context, id string, msg feedback.Message) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.GetContext(ctx, &exists, `SELECT 1 FROM inboxes WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("appending to inbox %s: %w", id, feedback.ErrInboxNotFound)
	} else if err != nil {
		return fmt.Errorf("checking inbox: %w", err)
	}

	if err := insertMessage(ctx, tx, id, msg); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// messageBatchSize bounds the ids bound in one IN (...) query, well below
// SQLite's limit on host parameters (32766 since 3.32).
const messageBatchSize = 500

// attachMessages loads the messages of all rows in batches of
// messageBatchSize ids and builds the domain inboxes, preserving row order.
func (s *SQLiteDatabase) attachMessages(ctx context.Context, rows []inboxRow) ([]*feedback.Inbox, error) {
	if len(rows) == 0 {
		return []*feedback.Inbox{}, nil
	}

	byInbox := make(map[string][]feedback.Message, len(rows))
	for start := 0; start < len(rows); start += messageBatchSize {
		end := min(start+messageBatchSize, len(rows))

		ids := make([]string, 0, end-start)
		for _, r := range rows[start:end] {
			ids = append(ids, r.ID)
		}

		query, args, err := sqlx.In(`SELECT id, inbox_id, body, signature, created_at FROM messages WHERE inbox_id IN (?) ORDER BY id`, ids)
		if err != nil {
			return nil, fmt.Errorf("building message query: %w", err)
		}

		var msgRows []messageRow
		if err := s.db.SelectContext(ctx, &msgRows, s.db.Rebind(query), args...); err != nil {
			return nil, fmt.Errorf("loading messages: %w", err)
		}

		for _, m := range msgRows {
			byInbox[m.InboxID] = append(byInbox[m.InboxID], feedback.Message{
				Body:      m.Body,
				Timestamp: m.CreatedAt.UTC(),
				Signature: m.Signature.String,
			})
		}
	}

	result := make([]*feedback.Inbox, len(rows))
	for i, r := range rows {
		result[i] = feedback.RestoreInbox(r.ID, r.Topic, r.OwnerSignature, r.RequiresSignature, r.CreatedAt, r.ExpiresAt, byInbox[r.ID])
	}
	return result, nil
}

func insertMessage(ctx context.Context, tx *sqlx.Tx, inboxID string, msg feedback.Message) error {
	signature := sql.NullString{String: msg.Signature, Valid: msg.Signature != ""}
	_, err := tx.ExecContext(ctx,
		`INSERT INTO messages (inbox_id, body, signature, created_at) VALUES (?, ?, ?, ?)`,
		inboxID, msg.Body, signature, msg.Timestamp.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

func isPrimaryKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Path returns the database file path (or ":memory:" for in-memory databases).
func (s *SQLiteDatabase) Path() string {
	return s.path
}

// MigrateUp applies pending schema migrations.
func (s *SQLiteDatabase) MigrateUp() error {
	return migrations.MigrateUp(s.db.DB)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLiteDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db.DB)
}

// MigrationStatus reports the applied and latest schema versions.
func (s *SQLiteDatabase) MigrationStatus() (migrations.Status, error) {
	return migrations.GetStatus(s.db.DB)
}

// Schema returns the current schema as SQL.
func (s *SQLiteDatabase) Schema() (string, error) {
	return migrations.Schema(s.db.DB)
}

// Close closes the database connection.
func (s *SQLiteDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLiteDatabase implements Store.
var _ Store = (*SQLiteDatabase)(nil)

package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLogger persists audit entries to a local SQLite database. One
// writer per process; SQLite serializes writes internally.
type SQLiteLogger struct {
	db *sql.DB
}

// NewSQLiteLogger opens (or creates) the database at path and ensures the
// audit table exists.
func NewSQLiteLogger(path string) (*SQLiteLogger, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}

	logger := &SQLiteLogger{db: db}
	if err := logger.ensureTable(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure audit table: %w", err)
	}
	return logger, nil
}

func (l *SQLiteLogger) ensureTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS billing_audit (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		entity_kind TEXT NOT NULL,
		entity_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		detail TEXT,
		at TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_billing_audit_entity ON billing_audit(entity_kind, entity_id);
	CREATE INDEX IF NOT EXISTS idx_billing_audit_customer ON billing_audit(customer_id);
	`
	_, err := l.db.Exec(query)
	return err
}

// Log inserts the entry.
func (l *SQLiteLogger) Log(ctx context.Context, entry Entry) error {
	var detail []byte
	if entry.Detail != nil {
		var err error
		detail, err = json.Marshal(entry.Detail)
		if err != nil {
			return fmt.Errorf("marshal audit detail: %w", err)
		}
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO billing_audit (operation, entity_kind, entity_id, customer_id, detail, at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(entry.Operation), entry.EntityKind, entry.EntityID, entry.CustomerID,
		string(detail), entry.At,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ByEntity returns entries for one entity, newest first.
func (l *SQLiteLogger) ByEntity(ctx context.Context, entityKind, entityID string) ([]Entry, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT operation, entity_kind, entity_id, customer_id, detail, at
		FROM billing_audit
		WHERE entity_kind = ? AND entity_id = ?
		ORDER BY id DESC`,
		entityKind, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("query audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var op string
		var detail sql.NullString
		if err := rows.Scan(&op, &e.EntityKind, &e.EntityID, &e.CustomerID, &detail, &e.At); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Operation = Operation(op)
		if detail.Valid && detail.String != "" {
			if err := json.Unmarshal([]byte(detail.String), &e.Detail); err != nil {
				return nil, fmt.Errorf("unmarshal audit detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close closes the database.
func (l *SQLiteLogger) Close() error {
	return l.db.Close()
}

// Package store provides audit trail persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"satudata/internal/audit"
	id "satudata/pkg/domain"
	txcontext "satudata/pkg/platform/tx"
)

// Postgres appends audit entries to the audit_log table. When the context
// carries a transaction the append joins it, so a rolled-back mutation never
// leaves an orphaned audit row.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *Postgres) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Append inserts one audit entry. There is no update or delete path.
func (s *Postgres) Append(ctx context.Context, entry audit.Entry) error {
	query := `
		INSERT INTO audit_log (id, table_name, record_id, action, user_id, old_values, new_values, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var oldValues, newValues any
	if entry.OldValues != nil {
		oldValues = []byte(entry.OldValues)
	}
	if entry.NewValues != nil {
		newValues = []byte(entry.NewValues)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		entry.ID,
		entry.TableName,
		entry.RecordID,
		string(entry.Action),
		uuid.UUID(entry.UserID),
		oldValues,
		newValues,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByRecord returns the history of one record, oldest first.
func (s *Postgres) ListByRecord(ctx context.Context, table, recordID string) ([]audit.Entry, error) {
	query := `
		SELECT id, table_name, record_id, action, user_id, old_values, new_values, created_at
		FROM audit_log
		WHERE table_name = $1 AND record_id = $2
		ORDER BY created_at, id
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, table, recordID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			entry     audit.Entry
			action    string
			userID    uuid.UUID
			oldValues []byte
			newValues []byte
		)
		if err := rows.Scan(&entry.ID, &entry.TableName, &entry.RecordID, &action, &userID, &oldValues, &newValues, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.Action = audit.Action(action)
		entry.UserID = id.UserID(userID)
		if oldValues != nil {
			entry.OldValues = oldValues
		}
		if newValues != nil {
			entry.NewValues = newValues
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

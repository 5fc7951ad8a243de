// Package audit defines the append-only audit trail. Every mutation of the
// data core writes exactly one entry in the same transaction; entries are
// never updated or deleted, and deleting a record leaves its history intact.
//
// Payloads are stored as opaque JSON snapshots but constructed from the typed
// per-action structs below, so call sites cannot put a delete snapshot where
// a verify transition belongs.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// Action classifies an audit entry.
type Action string

const (
	ActionCreate     Action = "CREATE"
	ActionUpdate     Action = "UPDATE"
	ActionDelete     Action = "DELETE"
	ActionVerify     Action = "VERIFY"
	ActionBulkImport Action = "BULK_IMPORT"
	ActionDeactivate Action = "DEACTIVATE"
)

// Entry is one append-only audit record.
type Entry struct {
	ID        uuid.UUID
	TableName string
	RecordID  string
	Action    Action
	UserID    id.UserID
	OldValues json.RawMessage // nil when the action had no prior state
	NewValues json.RawMessage // nil only for DELETE
	CreatedAt time.Time
}

// Store persists audit entries. Implementations must append in the caller's
// transaction when one is present in the context.
type Store interface {
	Append(ctx context.Context, entry Entry) error
}

// Typed payload union. One struct per action keeps snapshots honest at
// compile time; the Record fields hold the domain's own snapshot shape.
type (
	// CreateSnapshot captures the full record as inserted.
	CreateSnapshot struct {
		Record any `json:"record"`
	}

	// UpdatePatch pairs the pre-mutation snapshot with the applied changes.
	UpdatePatch struct {
		Changes map[string]any `json:"changes"`
	}

	// DeleteSnapshot is the recovery snapshot of a hard-deleted record.
	DeleteSnapshot struct {
		Record any `json:"record"`
	}

	// VerifyTransition records a status move to final.
	VerifyTransition struct {
		PreviousStatus string `json:"previous_status"`
		NewStatus      string `json:"new_status"`
		VerifiedBy     string `json:"verified_by"`
		VerifiedAt     string `json:"verified_at"`
	}

	// BulkImportSummary is the single entry written at the end of a batch.
	BulkImportSummary struct {
		Operation    string `json:"operation"`
		Category     string `json:"category,omitempty"`
		TotalRows    int    `json:"total_rows"`
		ImportedRows int    `json:"imported_count"`
		UpdatedRows  int    `json:"updated_count"`
		SkippedRows  int    `json:"skipped_count"`
		ErrorRows    int    `json:"error_count"`
	}

	// DeactivationChange records an indicator's active flag being cleared.
	DeactivationChange struct {
		Active bool `json:"active"`
	}
)

func newEntry(table, recordID string, action Action, userID id.UserID, oldValues, newValues any, at time.Time) (Entry, error) {
	entry := Entry{
		ID:        uuid.New(),
		TableName: table,
		RecordID:  recordID,
		Action:    action,
		UserID:    userID,
		CreatedAt: at,
	}
	if oldValues != nil {
		raw, err := json.Marshal(oldValues)
		if err != nil {
			return Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "marshal audit old_values")
		}
		entry.OldValues = raw
	}
	if newValues != nil {
		raw, err := json.Marshal(newValues)
		if err != nil {
			return Entry{}, dErrors.Wrap(err, dErrors.CodeInternal, "marshal audit new_values")
		}
		entry.NewValues = raw
	}
	return entry, nil
}

// NewCreateEntry builds a CREATE entry with the full new record.
func NewCreateEntry(table, recordID string, userID id.UserID, record any, at time.Time) (Entry, error) {
	return newEntry(table, recordID, ActionCreate, userID, nil, CreateSnapshot{Record: record}, at)
}

// NewUpdateEntry builds an UPDATE entry with the pre-mutation snapshot and the patch.
func NewUpdateEntry(table, recordID string, userID id.UserID, before any, changes map[string]any, at time.Time) (Entry, error) {
	return newEntry(table, recordID, ActionUpdate, userID, before, UpdatePatch{Changes: changes}, at)
}

// NewDeleteEntry builds a DELETE entry carrying the recovery snapshot.
func NewDeleteEntry(table, recordID string, userID id.UserID, before any, at time.Time) (Entry, error) {
	return newEntry(table, recordID, ActionDelete, userID, DeleteSnapshot{Record: before}, nil, at)
}

// NewVerifyEntry builds a VERIFY entry recording the prior status.
func NewVerifyEntry(table, recordID string, userID id.UserID, transition VerifyTransition, at time.Time) (Entry, error) {
	old := map[string]string{"status": transition.PreviousStatus}
	return newEntry(table, recordID, ActionVerify, userID, old, transition, at)
}

// NewBulkImportEntry builds the batch summary entry. The record id is the
// batch id so per-row entries and the summary correlate.
func NewBulkImportEntry(table string, batchID uuid.UUID, userID id.UserID, summary BulkImportSummary, at time.Time) (Entry, error) {
	return newEntry(table, batchID.String(), ActionBulkImport, userID, nil, summary, at)
}

// NewDeactivateEntry builds a DEACTIVATE entry for a catalog indicator.
func NewDeactivateEntry(table, recordID string, userID id.UserID, at time.Time) (Entry, error) {
	old := DeactivationChange{Active: true}
	return newEntry(table, recordID, ActionDeactivate, userID, old, DeactivationChange{Active: false}, at)
}

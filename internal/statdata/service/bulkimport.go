package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"satudata/internal/audit"
	indicatormodels "satudata/internal/indicator/models"
	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/requestcontext"
)

// ImportOperation selects how bulk import treats rows that collide with an
// existing data point.
type ImportOperation string

const (
	// OperationUpsert inserts new rows and updates colliding ones.
	OperationUpsert ImportOperation = "upsert"
	// OperationUpdate updates colliding rows and rejects rows with no
	// existing data point.
	OperationUpdate ImportOperation = "update"
	// OperationSkip inserts new rows and leaves colliding ones untouched.
	OperationSkip ImportOperation = "skip"
)

// ImportRow is one raw row of a bulk import batch. Fields arrive unvalidated;
// every problem becomes a row error rather than a batch failure.
type ImportRow struct {
	IndicatorID    string   `json:"indicator_id"`
	Year           int      `json:"year"`
	PeriodMonth    *int     `json:"period_month,omitempty"`
	PeriodQuarter  *int     `json:"period_quarter,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	SourceDocument string   `json:"source_document,omitempty"`
}

// BulkImportInput is a full batch request.
type BulkImportInput struct {
	Rows      []ImportRow
	Category  id.Category // optional; rows outside it are row errors
	Operation ImportOperation
}

// RowError reports one failed row. Row numbers are 1-based to match the
// uploaded file the operator is looking at.
type RowError struct {
	Row   int       `json:"row"`
	Error string    `json:"error"`
	Data  ImportRow `json:"data"`
}

// BulkImportResult is the per-batch outcome. Success means every row landed;
// any row error makes the batch a partial result.
type BulkImportResult struct {
	BatchID       uuid.UUID  `json:"batch_id"`
	Success       bool       `json:"success"`
	TotalRows     int        `json:"total_rows"`
	ImportedCount int        `json:"imported_count"`
	UpdatedCount  int        `json:"updated_count"`
	SkippedCount  int        `json:"skipped_count"`
	ErrorCount    int        `json:"error_count"`
	Errors        []RowError `json:"errors"`
}

// BulkImport processes an ordered batch in a single transaction. Rows fail
// individually — validation, authorization, resolution, and duplicate problems
// are recorded per row and processing continues; only a structurally invalid
// batch or a storage failure aborts. Each written row runs inside its own
// savepoint so a statement failure cannot poison the batch transaction.
func (s *Service) BulkImport(ctx context.Context, in BulkImportInput) (*BulkImportResult, error) {
	ctx, span := tracer.Start(ctx, "statdata.BulkImport")
	defer span.End()
	start := time.Now()

	if len(in.Rows) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "import batch contains no rows")
	}
	op := in.Operation
	if op == "" {
		op = OperationUpsert
	}
	switch op {
	case OperationUpsert, OperationUpdate, OperationSkip:
	default:
		return nil, dErrors.Newf(dErrors.CodeBadRequest, "unknown operation: %s", in.Operation)
	}
	if in.Category != "" && !in.Category.IsValid() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown category: "+string(in.Category))
	}

	now := requestcontext.Now(ctx)
	role := requestcontext.Role(ctx)
	userID := requestcontext.UserID(ctx)

	result := &BulkImportResult{
		BatchID:   uuid.New(),
		TotalRows: len(in.Rows),
		Errors:    []RowError{},
	}

	indicators, err := s.resolveRowIndicators(ctx, in.Rows)
	if err != nil {
		return nil, err
	}

	var committed []audit.Entry
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		for i, row := range in.Rows {
			rowNum := i + 1
			if err := s.importRow(txCtx, rowNum, row, op, in.Category, indicators, role, userID, now, result, &committed); err != nil {
				return err
			}
		}

		summary, err := audit.NewBulkImportEntry(auditTable, result.BatchID, userID, audit.BulkImportSummary{
			Operation:    string(op),
			Category:     string(in.Category),
			TotalRows:    result.TotalRows,
			ImportedRows: result.ImportedCount,
			UpdatedRows:  result.UpdatedCount,
			SkippedRows:  result.SkippedCount,
			ErrorRows:    result.ErrorCount,
		}, now)
		if err != nil {
			return err
		}
		return s.appendAudit(txCtx, summary, &committed)
	})
	if err != nil {
		return nil, err
	}

	result.Success = result.ErrorCount == 0
	span.SetAttributes(
		attribute.Int("import.total_rows", result.TotalRows),
		attribute.Int("import.imported", result.ImportedCount),
		attribute.Int("import.updated", result.UpdatedCount),
		attribute.Int("import.skipped", result.SkippedCount),
		attribute.Int("import.errors", result.ErrorCount),
	)
	s.publishCommitted(committed)
	if s.metrics != nil {
		s.metrics.ObserveBulkImport(start, result.ImportedCount, result.UpdatedCount, result.SkippedCount, result.ErrorCount)
	}
	s.logger.InfoContext(ctx, "bulk import finished",
		"batch_id", result.BatchID.String(),
		"operation", string(op),
		"total_rows", result.TotalRows,
		"imported", result.ImportedCount,
		"updated", result.UpdatedCount,
		"skipped", result.SkippedCount,
		"errors", result.ErrorCount,
		"user_id", userID.String(),
		"log_type", "audit",
	)
	return result, nil
}

// resolveRowIndicators batch-loads every distinct indicator referenced by the
// rows. Unparseable ids are left out and fail row-by-row later.
func (s *Service) resolveRowIndicators(ctx context.Context, rows []ImportRow) (map[id.IndicatorID]*indicatormodels.Indicator, error) {
	seen := make(map[id.IndicatorID]struct{})
	var ids []id.IndicatorID
	for _, row := range rows {
		indicatorID, err := id.ParseIndicatorID(row.IndicatorID)
		if err != nil {
			continue
		}
		if _, ok := seen[indicatorID]; ok {
			continue
		}
		seen[indicatorID] = struct{}{}
		ids = append(ids, indicatorID)
	}
	if len(ids) == 0 {
		return map[id.IndicatorID]*indicatormodels.Indicator{}, nil
	}
	return s.catalog.ResolveBatch(ctx, ids)
}

// importRow handles one row. A nil return with a recorded RowError is the
// normal failure path; a non-nil return aborts the whole batch and is reserved
// for storage-level failures.
func (s *Service) importRow(
	txCtx context.Context,
	rowNum int,
	row ImportRow,
	op ImportOperation,
	categoryFilter id.Category,
	indicators map[id.IndicatorID]*indicatormodels.Indicator,
	role id.Role,
	userID id.UserID,
	now time.Time,
	result *BulkImportResult,
	committed *[]audit.Entry,
) error {
	fail := func(msg string) {
		result.ErrorCount++
		result.Errors = append(result.Errors, RowError{Row: rowNum, Error: msg, Data: row})
	}

	if row.IndicatorID == "" {
		fail("indicator_id is required")
		return nil
	}
	if row.Year == 0 {
		fail("year is required")
		return nil
	}
	indicatorID, err := id.ParseIndicatorID(row.IndicatorID)
	if err != nil {
		fail("indicator_id is not a valid id")
		return nil
	}
	indicator, ok := indicators[indicatorID]
	if !ok {
		fail("indicator not found or inactive")
		return nil
	}
	if categoryFilter != "" && indicator.Category != categoryFilter {
		fail(fmt.Sprintf("indicator belongs to %s, not the requested category", indicator.Category))
		return nil
	}
	if !s.gate.CanMutate(role, indicator.Category) {
		fail(fmt.Sprintf("role %s may not modify data in category %s", role, indicator.Category))
		return nil
	}

	key, err := models.NormalizePeriod(models.PeriodInput{
		Year:    row.Year,
		Month:   row.PeriodMonth,
		Quarter: row.PeriodQuarter,
	}, indicator.PeriodType, now)
	if err != nil {
		fail(dErrors.MessageOf(err))
		return nil
	}

	existing, err := s.store.FindByPeriod(txCtx, indicatorID, key)
	switch {
	case err == nil:
		return s.importExisting(txCtx, rowNum, row, op, existing, userID, now, result, committed, fail)
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		return s.importNew(txCtx, rowNum, row, op, indicatorID, key, userID, now, result, committed, fail)
	default:
		return err
	}
}

// importNew inserts a fresh data point for a row with no existing record.
func (s *Service) importNew(
	txCtx context.Context,
	rowNum int,
	row ImportRow,
	op ImportOperation,
	indicatorID id.IndicatorID,
	key models.PeriodKey,
	userID id.UserID,
	now time.Time,
	result *BulkImportResult,
	committed *[]audit.Entry,
	fail func(msg string),
) error {
	if op == OperationUpdate {
		fail(fmt.Sprintf("no existing data point for %s", key.Label()))
		return nil
	}

	dp, err := models.NewDataPoint(id.DataPointID(uuid.New()), indicatorID, key, row.Value, models.StatusDraft, userID, now)
	if err != nil {
		fail(dErrors.MessageOf(err))
		return nil
	}
	dp.Notes = row.Notes
	dp.SourceDocument = row.SourceDocument

	err = s.tx.RunInSavepoint(txCtx, fmt.Sprintf("import_row_%d", rowNum), func(spCtx context.Context) error {
		if err := s.store.Insert(spCtx, dp); err != nil {
			return err
		}
		entry, err := audit.NewCreateEntry(auditTable, dp.ID.String(), userID, dp.ToSnapshot(), now)
		if err != nil {
			return err
		}
		return s.appendAudit(spCtx, entry, committed)
	})
	if err != nil {
		// A concurrent insert for the same period surfaces as a conflict
		// from the unique index; that is a row error, not a batch failure.
		if dErrors.HasCode(err, dErrors.CodeConflict) {
			fail(dErrors.MessageOf(err))
			return nil
		}
		return err
	}
	result.ImportedCount++
	return nil
}

// importExisting applies the batch operation to a row that collided with an
// existing data point.
func (s *Service) importExisting(
	txCtx context.Context,
	rowNum int,
	row ImportRow,
	op ImportOperation,
	existing *models.DataPoint,
	userID id.UserID,
	now time.Time,
	result *BulkImportResult,
	committed *[]audit.Entry,
	fail func(msg string),
) error {
	if op == OperationSkip {
		result.SkippedCount++
		return nil
	}

	before := existing.Clone()
	changes := make(map[string]any)
	if row.Value != nil {
		existing.Value = row.Value
		changes["value"] = *row.Value
	}
	if row.Notes != "" {
		existing.Notes = row.Notes
		changes["notes"] = row.Notes
	}
	if row.SourceDocument != "" {
		existing.SourceDocument = row.SourceDocument
		changes["source_document"] = row.SourceDocument
	}
	if len(changes) == 0 {
		result.SkippedCount++
		return nil
	}
	existing.RevisionNumber++
	existing.UpdatedAt = now
	changes["revision_number"] = existing.RevisionNumber

	err := s.tx.RunInSavepoint(txCtx, fmt.Sprintf("import_row_%d", rowNum), func(spCtx context.Context) error {
		if err := s.store.Update(spCtx, existing); err != nil {
			return err
		}
		entry, err := audit.NewUpdateEntry(auditTable, existing.ID.String(), userID, before.ToSnapshot(), changes, now)
		if err != nil {
			return err
		}
		return s.appendAudit(spCtx, entry, committed)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			fail(dErrors.MessageOf(err))
			return nil
		}
		return err
	}
	result.UpdatedCount++
	return nil
}

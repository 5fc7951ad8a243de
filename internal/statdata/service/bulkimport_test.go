package service

import (
	"testing"

	"github.com/google/uuid"

	"satudata/internal/audit"
	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

func TestBulkImportAllNew(t *testing.T) {
	f := newFixture(t)
	indicator := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodMonthly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	rows := make([]ImportRow, 0, 3)
	for month := 1; month <= 3; month++ {
		rows = append(rows, ImportRow{
			IndicatorID: indicator.ID.String(),
			Year:        2024,
			PeriodMonth: intPtr(month),
			Value:       floatPtr(float64(month)),
		})
	}

	result, err := f.svc.BulkImport(ctx, BulkImportInput{Rows: rows})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if !result.Success {
		t.Fatalf("all-new batch must succeed: %+v", result)
	}
	if result.ImportedCount != 3 || result.ErrorCount != 0 {
		t.Fatalf("expected 3 imported, 0 errors, got %+v", result)
	}
	if f.points.Count() != 3 {
		t.Fatalf("expected 3 stored points, got %d", f.points.Count())
	}

	// Three CREATE entries plus one summary, all correlated.
	entries := f.audits.Entries()
	if len(entries) != 4 {
		t.Fatalf("expected 4 audit entries, got %d", len(entries))
	}
	last := entries[3]
	if last.Action != audit.ActionBulkImport {
		t.Fatalf("final entry must be the batch summary, got %s", last.Action)
	}
	if last.RecordID != result.BatchID.String() {
		t.Fatalf("summary must reference the batch id")
	}
}

func TestBulkImportSkipPolicy(t *testing.T) {
	f := newFixture(t)
	indicator := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodYearly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	existing, err := f.svc.Create(ctx, CreateInput{
		IndicatorID: indicator.ID,
		Period:      models.PeriodInput{Year: 2022},
		Value:       floatPtr(100),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Operation: OperationSkip,
		Rows: []ImportRow{
			{IndicatorID: indicator.ID.String(), Year: 2022, Value: floatPtr(999)},
			{IndicatorID: indicator.ID.String(), Year: 2023, Value: floatPtr(5)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.SkippedCount != 1 || result.ImportedCount != 1 || result.ErrorCount != 0 {
		t.Fatalf("expected 1 skipped, 1 imported, got %+v", result)
	}

	// The colliding row is untouched.
	unchanged, err := f.svc.Get(ctx, existing.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *unchanged.Value != 100 || unchanged.RevisionNumber != 1 {
		t.Fatalf("skip must not modify the existing row: %+v", unchanged)
	}
}

func TestBulkImportUpsertUpdatesExisting(t *testing.T) {
	f := newFixture(t)
	indicator := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodYearly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	existing, err := f.svc.Create(ctx, CreateInput{
		IndicatorID: indicator.ID,
		Period:      models.PeriodInput{Year: 2022},
		Value:       floatPtr(100),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Operation: OperationUpsert,
		Rows: []ImportRow{
			{IndicatorID: indicator.ID.String(), Year: 2022, Value: floatPtr(150)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.UpdatedCount != 1 || result.ErrorCount != 0 {
		t.Fatalf("expected 1 updated, got %+v", result)
	}

	updated, err := f.svc.Get(ctx, existing.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if *updated.Value != 150 {
		t.Fatalf("expected value 150, got %v", *updated.Value)
	}
	if updated.RevisionNumber != 2 {
		t.Fatalf("upsert update must bump the revision, got %d", updated.RevisionNumber)
	}
}

func TestBulkImportUpdateRequiresExisting(t *testing.T) {
	f := newFixture(t)
	indicator := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodYearly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Operation: OperationUpdate,
		Rows: []ImportRow{
			{IndicatorID: indicator.ID.String(), Year: 2022, Value: floatPtr(1)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.Success || result.ErrorCount != 1 || result.ImportedCount != 0 {
		t.Fatalf("update against a missing row must be a row error: %+v", result)
	}
	if f.points.Count() != 0 {
		t.Fatalf("update operation must never insert")
	}
}

func TestBulkImportRowErrorsDoNotAbort(t *testing.T) {
	f := newFixture(t)
	ekonomi := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodMonthly)
	sosial := f.seedIndicator(t, id.CategorySosial, id.PeriodMonthly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Rows: []ImportRow{
			{IndicatorID: ekonomi.ID.String(), Year: 2024, PeriodMonth: intPtr(1), Value: floatPtr(1)},
			{IndicatorID: "", Year: 2024, PeriodMonth: intPtr(2)},                                      // missing indicator
			{IndicatorID: "not-a-uuid", Year: 2024, PeriodMonth: intPtr(3)},                           // unparseable id
			{IndicatorID: uuid.NewString(), Year: 2024, PeriodMonth: intPtr(4)},                       // unknown indicator
			{IndicatorID: sosial.ID.String(), Year: 2024, PeriodMonth: intPtr(5), Value: floatPtr(2)}, // wrong category for role
			{IndicatorID: ekonomi.ID.String(), Year: 2024, PeriodQuarter: intPtr(1)},                  // quarter on monthly indicator
			{IndicatorID: ekonomi.ID.String(), Year: 2024, PeriodMonth: intPtr(6), Value: floatPtr(3)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.ImportedCount != 2 {
		t.Fatalf("valid rows must land despite neighbors failing, got %+v", result)
	}
	if result.ErrorCount != 5 || result.Success {
		t.Fatalf("expected 5 row errors and no overall success, got %+v", result)
	}
	if len(result.Errors) != 5 {
		t.Fatalf("every failed row needs an error entry, got %d", len(result.Errors))
	}
	// Row numbers are 1-based and point at the failing rows.
	if result.Errors[0].Row != 2 || result.Errors[4].Row != 6 {
		t.Fatalf("unexpected row numbers: %+v", result.Errors)
	}
}

func TestBulkImportCategoryFilter(t *testing.T) {
	f := newFixture(t)
	ekonomi := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodYearly)
	sosial := f.seedIndicator(t, id.CategorySosial, id.PeriodYearly)
	ctx := identityCtx(id.RoleSuperadmin)

	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Category: id.CategoryEkonomi,
		Rows: []ImportRow{
			{IndicatorID: ekonomi.ID.String(), Year: 2024, Value: floatPtr(1)},
			{IndicatorID: sosial.ID.String(), Year: 2024, Value: floatPtr(2)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.ImportedCount != 1 || result.ErrorCount != 1 {
		t.Fatalf("out-of-category row must fail, got %+v", result)
	}
}

func TestBulkImportDuplicateRowsInBatch(t *testing.T) {
	f := newFixture(t)
	indicator := f.seedIndicator(t, id.CategoryEkonomi, id.PeriodYearly)
	ctx := identityCtx(id.RoleAdminEkonomi)

	// The second row collides with the first inside the same batch; under
	// skip it is counted, not errored.
	result, err := f.svc.BulkImport(ctx, BulkImportInput{
		Operation: OperationSkip,
		Rows: []ImportRow{
			{IndicatorID: indicator.ID.String(), Year: 2024, Value: floatPtr(1)},
			{IndicatorID: indicator.ID.String(), Year: 2024, Value: floatPtr(2)},
		},
	})
	if err != nil {
		t.Fatalf("bulk import: %v", err)
	}
	if result.ImportedCount != 1 || result.SkippedCount != 1 {
		t.Fatalf("in-batch duplicate must be skipped, got %+v", result)
	}
}

func TestBulkImportRejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)
	ctx := identityCtx(id.RoleSuperadmin)

	_, err := f.svc.BulkImport(ctx, BulkImportInput{})
	if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("empty batch must be a request-level error, got %v", err)
	}

	_, err = f.svc.BulkImport(ctx, BulkImportInput{
		Operation: "merge",
		Rows:      []ImportRow{{IndicatorID: uuid.NewString(), Year: 2024}},
	})
	if !dErrors.HasCode(err, dErrors.CodeBadRequest) {
		t.Fatalf("unknown operation must be a request-level error, got %v", err)
	}
}

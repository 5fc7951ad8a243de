// Package store persists indicator data points. The database-enforced unique
// index on the NULL-safe period key is the real protection against duplicate
// submissions racing each other; the service's pre-check only exists for
// friendlier error messages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	txcontext "satudata/pkg/platform/tx"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// Postgres stores data points in the indicator_data table.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed data point store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

type dbQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Postgres) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const dataPointColumns = `id, indicator_id, year, period_month, period_quarter, value, status, notes, source_document, revision_number, created_by, verified_by, verified_at, created_at, updated_at`

func nullInt(v *int) sql.NullInt32 {
	if v == nil {
		return sql.NullInt32{}
	}
	return sql.NullInt32{Int32: int32(*v), Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func scanDataPoint(scan func(...any) error) (*models.DataPoint, error) {
	var (
		dp         models.DataPoint
		pointID    uuid.UUID
		indicID    uuid.UUID
		month      sql.NullInt32
		quarter    sql.NullInt32
		value      sql.NullFloat64
		status     string
		createdBy  uuid.UUID
		verifiedBy uuid.NullUUID
		verifiedAt sql.NullTime
	)
	err := scan(
		&pointID,
		&indicID,
		&dp.Year,
		&month,
		&quarter,
		&value,
		&status,
		&dp.Notes,
		&dp.SourceDocument,
		&dp.RevisionNumber,
		&createdBy,
		&verifiedBy,
		&verifiedAt,
		&dp.CreatedAt,
		&dp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	dp.ID = id.DataPointID(pointID)
	dp.IndicatorID = id.IndicatorID(indicID)
	dp.Status = models.Status(status)
	dp.CreatedBy = id.UserID(createdBy)
	if month.Valid {
		m := int(month.Int32)
		dp.PeriodMonth = &m
	}
	if quarter.Valid {
		q := int(quarter.Int32)
		dp.PeriodQuarter = &q
	}
	if value.Valid {
		v := value.Float64
		dp.Value = &v
	}
	if verifiedBy.Valid {
		vb := id.UserID(verifiedBy.UUID)
		dp.VerifiedBy = &vb
	}
	if verifiedAt.Valid {
		va := verifiedAt.Time
		dp.VerifiedAt = &va
	}
	return &dp, nil
}

// Insert writes a new data point. A unique index race on the period key is
// translated to the same conflict error the pre-check would have produced.
func (s *Postgres) Insert(ctx context.Context, dp *models.DataPoint) error {
	query := `
		INSERT INTO indicator_data (` + dataPointColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	var verifiedBy uuid.NullUUID
	if dp.VerifiedBy != nil {
		verifiedBy = uuid.NullUUID{UUID: uuid.UUID(*dp.VerifiedBy), Valid: true}
	}
	var verifiedAt sql.NullTime
	if dp.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *dp.VerifiedAt, Valid: true}
	}

	_, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(dp.ID),
		uuid.UUID(dp.IndicatorID),
		dp.Year,
		nullInt(dp.PeriodMonth),
		nullInt(dp.PeriodQuarter),
		nullFloat(dp.Value),
		string(dp.Status),
		dp.Notes,
		dp.SourceDocument,
		dp.RevisionNumber,
		uuid.UUID(dp.CreatedBy),
		verifiedBy,
		verifiedAt,
		dp.CreatedAt,
		dp.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return dErrors.Newf(dErrors.CodeConflict, "data point already exists for %s", dp.PeriodKey().Label())
		}
		return fmt.Errorf("insert data point: %w", err)
	}
	return nil
}

// FindByID loads one data point.
func (s *Postgres) FindByID(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error) {
	query := `SELECT ` + dataPointColumns + ` FROM indicator_data WHERE id = $1`
	row := s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(pointID))
	dp, err := scanDataPoint(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "data point not found")
		}
		return nil, fmt.Errorf("find data point: %w", err)
	}
	return dp, nil
}

// FindByPeriod performs the NULL-safe duplicate lookup: month/quarter absence
// matches absence, never merely unequal-to-null.
func (s *Postgres) FindByPeriod(ctx context.Context, indicatorID id.IndicatorID, key models.PeriodKey) (*models.DataPoint, error) {
	query := `
		SELECT ` + dataPointColumns + `
		FROM indicator_data
		WHERE indicator_id = $1
		  AND year = $2
		  AND period_month IS NOT DISTINCT FROM $3
		  AND period_quarter IS NOT DISTINCT FROM $4
	`
	row := s.querier(ctx).QueryRowContext(ctx, query,
		uuid.UUID(indicatorID),
		key.Year,
		nullInt(key.MonthPtr()),
		nullInt(key.QuarterPtr()),
	)
	dp, err := scanDataPoint(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "data point not found")
		}
		return nil, fmt.Errorf("find data point by period: %w", err)
	}
	return dp, nil
}

// Update rewrites the mutable columns of an existing row.
func (s *Postgres) Update(ctx context.Context, dp *models.DataPoint) error {
	query := `
		UPDATE indicator_data
		SET value = $2,
		    status = $3,
		    notes = $4,
		    source_document = $5,
		    revision_number = $6,
		    verified_by = $7,
		    verified_at = $8,
		    updated_at = $9
		WHERE id = $1
	`
	var verifiedBy uuid.NullUUID
	if dp.VerifiedBy != nil {
		verifiedBy = uuid.NullUUID{UUID: uuid.UUID(*dp.VerifiedBy), Valid: true}
	}
	var verifiedAt sql.NullTime
	if dp.VerifiedAt != nil {
		verifiedAt = sql.NullTime{Time: *dp.VerifiedAt, Valid: true}
	}

	res, err := s.querier(ctx).ExecContext(ctx, query,
		uuid.UUID(dp.ID),
		nullFloat(dp.Value),
		string(dp.Status),
		dp.Notes,
		dp.SourceDocument,
		dp.RevisionNumber,
		verifiedBy,
		verifiedAt,
		dp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update data point: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update data point: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	return nil
}

// Delete removes the row permanently. Audit history is untouched; the trail
// lives in its own table and is never rewritten.
func (s *Postgres) Delete(ctx context.Context, pointID id.DataPointID) error {
	res, err := s.querier(ctx).ExecContext(ctx, `DELETE FROM indicator_data WHERE id = $1`, uuid.UUID(pointID))
	if err != nil {
		return fmt.Errorf("delete data point: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete data point: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "data point not found")
	}
	return nil
}

// ListByIndicator returns an indicator's data points in period order.
func (s *Postgres) ListByIndicator(ctx context.Context, indicatorID id.IndicatorID) ([]*models.DataPoint, error) {
	query := `
		SELECT ` + dataPointColumns + `
		FROM indicator_data
		WHERE indicator_id = $1
		ORDER BY year, period_quarter NULLS FIRST, period_month NULLS FIRST
	`
	rows, err := s.querier(ctx).QueryContext(ctx, query, uuid.UUID(indicatorID))
	if err != nil {
		return nil, fmt.Errorf("list data points: %w", err)
	}
	defer rows.Close()

	var out []*models.DataPoint
	for rows.Next() {
		dp, err := scanDataPoint(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan data point: %w", err)
		}
		out = append(out, dp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate data points: %w", err)
	}
	return out, nil
}

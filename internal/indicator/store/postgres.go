package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"satudata/internal/indicator/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	txcontext "satudata/pkg/platform/tx"
)

// Postgres persists the indicator catalog in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed catalog store.
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

const indicatorColumns = `id, code, sequence, name, category, subcategory, unit, period_type, active, description, created_at, updated_at`

func scanIndicator(scan func(...any) error) (*models.Indicator, error) {
	var (
		indicator  models.Indicator
		indicID    uuid.UUID
		category   string
		periodType string
	)
	err := scan(
		&indicID,
		&indicator.Code,
		&indicator.Sequence,
		&indicator.Name,
		&category,
		&indicator.Subcategory,
		&indicator.Unit,
		&periodType,
		&indicator.Active,
		&indicator.Description,
		&indicator.CreatedAt,
		&indicator.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	indicator.ID = id.IndicatorID(indicID)
	indicator.Category = id.Category(category)
	indicator.PeriodType = id.PeriodType(periodType)
	return &indicator, nil
}

// FindByID returns the indicator regardless of its active flag.
func (s *Postgres) FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error) {
	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE id = $1`
	row := s.querier(ctx).QueryRowContext(ctx, query, uuid.UUID(indicatorID))
	indicator, err := scanIndicator(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, dErrors.New(dErrors.CodeNotFound, "indicator not found")
		}
		return nil, fmt.Errorf("find indicator: %w", err)
	}
	return indicator, nil
}

// ListActive returns active indicators ordered by sequence, optionally
// filtered by category.
func (s *Postgres) ListActive(ctx context.Context, category id.Category) ([]*models.Indicator, error) {
	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE active AND ($1 = '' OR category = $1) ORDER BY sequence, code`
	rows, err := s.querier(ctx).QueryContext(ctx, query, string(category))
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	defer rows.Close()

	var out []*models.Indicator
	for rows.Next() {
		indicator, err := scanIndicator(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		out = append(out, indicator)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return out, nil
}

// ListByIDs resolves a batch of indicator ids with one ANY($1) query. Bulk
// import uses it to resolve a whole batch up front instead of one query per
// row. Missing ids are absent from the result.
func (s *Postgres) ListByIDs(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error) {
	if len(ids) == 0 {
		return map[id.IndicatorID]*models.Indicator{}, nil
	}
	raw := make([]uuid.UUID, len(ids))
	for i, indicatorID := range ids {
		raw[i] = uuid.UUID(indicatorID)
	}

	query := `SELECT ` + indicatorColumns + ` FROM indicators WHERE id = ANY($1)`
	rows, err := s.querier(ctx).QueryContext(ctx, query, pq.Array(raw))
	if err != nil {
		return nil, fmt.Errorf("list indicators by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[id.IndicatorID]*models.Indicator, len(ids))
	for rows.Next() {
		indicator, err := scanIndicator(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan indicator: %w", err)
		}
		out[indicator.ID] = indicator
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate indicators: %w", err)
	}
	return out, nil
}

// SetActive updates the active flag.
func (s *Postgres) SetActive(ctx context.Context, indicatorID id.IndicatorID, active bool) error {
	query := `UPDATE indicators SET active = $2, updated_at = now() WHERE id = $1`
	res, err := s.querier(ctx).ExecContext(ctx, query, uuid.UUID(indicatorID), active)
	if err != nil {
		return fmt.Errorf("set indicator active flag: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set indicator active flag: %w", err)
	}
	if affected == 0 {
		return dErrors.New(dErrors.CodeNotFound, "indicator not found")
	}
	return nil
}

// Package service exposes the indicator catalog to the data core and the
// admin surface. The catalog is read-mostly; the only mutation is
// deactivation, which is audited like every other write in the system.
package service

import (
	"context"
	"log/slog"

	"satudata/internal/audit"
	"satudata/internal/indicator/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/requestcontext"
)

// Store is the catalog persistence surface the service needs.
type Store interface {
	FindByID(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error)
	ListActive(ctx context.Context, category id.Category) ([]*models.Indicator, error)
	ListByIDs(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error)
	SetActive(ctx context.Context, indicatorID id.IndicatorID, active bool) error
}

// Gate is the slice of the access gate the catalog consults.
type Gate interface {
	CanManageCatalog(role id.Role) bool
}

// StoreTx runs a function inside one storage transaction.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// noopTx satisfies StoreTx for setups without transactional storage.
type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// Catalog orchestrates indicator reads and deactivation.
type Catalog struct {
	store  Store
	gate   Gate
	audits audit.Store
	tx     StoreTx
	logger *slog.Logger
}

// Option configures optional collaborators.
type Option func(c *Catalog)

func WithLogger(logger *slog.Logger) Option {
	return func(c *Catalog) {
		c.logger = logger
	}
}

func WithTx(tx StoreTx) Option {
	return func(c *Catalog) {
		c.tx = tx
	}
}

// New constructs a Catalog service.
func New(store Store, gate Gate, audits audit.Store, opts ...Option) *Catalog {
	c := &Catalog{
		store:  store,
		gate:   gate,
		audits: audits,
		tx:     noopTx{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// auditTable is the table name recorded for catalog audit entries.
const auditTable = "indicators"

// Resolve returns an active indicator for the data core. Missing and inactive
// indicators are both not-found: the data core never writes against either.
func (c *Catalog) Resolve(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error) {
	indicator, err := c.store.FindByID(ctx, indicatorID)
	if err != nil {
		return nil, err
	}
	if !indicator.Active {
		return nil, dErrors.New(dErrors.CodeNotFound, "indicator is inactive")
	}
	return indicator, nil
}

// ResolveBatch resolves many indicators at once for bulk import. The result
// contains only active indicators; callers treat absent ids as row errors.
func (c *Catalog) ResolveBatch(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*models.Indicator, error) {
	found, err := c.store.ListByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for indicatorID, indicator := range found {
		if !indicator.Active {
			delete(found, indicatorID)
		}
	}
	return found, nil
}

// ListVisible returns the active indicators the caller's role may see:
// domain admins their own category, everyone else all three. An explicit
// category narrows further.
func (c *Catalog) ListVisible(ctx context.Context, role id.Role, category id.Category) ([]*models.Indicator, error) {
	scope := roleCategoryScope(role)
	if category != "" {
		if !category.IsValid() {
			return nil, dErrors.New(dErrors.CodeInvalidInput, "unknown category: "+string(category))
		}
		if scope != "" && scope != category {
			return []*models.Indicator{}, nil
		}
		scope = category
	}
	return c.store.ListActive(ctx, scope)
}

// roleCategoryScope maps domain admin roles to their category; empty means
// unrestricted (superadmin, viewer).
func roleCategoryScope(role id.Role) id.Category {
	switch role {
	case id.RoleAdminEkonomi:
		return id.CategoryEkonomi
	case id.RoleAdminSosial:
		return id.CategorySosial
	case id.RoleAdminLingkungan:
		return id.CategoryLingkungan
	default:
		return ""
	}
}

// Deactivate clears the active flag and writes a DEACTIVATE audit entry in
// the same transaction. Superadmin only.
func (c *Catalog) Deactivate(ctx context.Context, indicatorID id.IndicatorID) (*models.Indicator, error) {
	role := requestcontext.Role(ctx)
	if !c.gate.CanManageCatalog(role) {
		return nil, dErrors.New(dErrors.CodeForbidden, "role may not manage the indicator catalog")
	}

	var deactivated *models.Indicator
	err := c.tx.RunInTx(ctx, func(txCtx context.Context) error {
		indicator, err := c.store.FindByID(txCtx, indicatorID)
		if err != nil {
			return err
		}
		if err := indicator.CanDeactivate(); err != nil {
			return dErrors.New(dErrors.CodeConflict, "indicator is already inactive")
		}

		now := requestcontext.Now(txCtx)
		if err := c.store.SetActive(txCtx, indicatorID, false); err != nil {
			return err
		}

		entry, err := audit.NewDeactivateEntry(auditTable, indicatorID.String(), requestcontext.UserID(txCtx), now)
		if err != nil {
			return err
		}
		if err := c.audits.Append(txCtx, entry); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to write audit entry")
		}

		indicator.ApplyDeactivation(now)
		deactivated = indicator
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.InfoContext(ctx, "indicator deactivated",
		"indicator_id", indicatorID.String(),
		"user_id", requestcontext.UserID(ctx).String(),
		"log_type", "audit",
	)
	return deactivated, nil
}

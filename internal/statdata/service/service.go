// Package service implements the data point operations: single-record
// mutations, verification, reads, and bulk import. Every mutation runs in one
// storage transaction together with its audit entry, so a committed change
// always has a committed trail and a rolled-back change leaves none.
package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"

	"satudata/internal/audit"
	indicatormodels "satudata/internal/indicator/models"
	"satudata/internal/statdata/metrics"
	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
)

var tracer = otel.Tracer("satudata/statdata")

// Store is the data point persistence surface the service needs.
type Store interface {
	Insert(ctx context.Context, dp *models.DataPoint) error
	FindByID(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error)
	FindByPeriod(ctx context.Context, indicatorID id.IndicatorID, key models.PeriodKey) (*models.DataPoint, error)
	Update(ctx context.Context, dp *models.DataPoint) error
	Delete(ctx context.Context, pointID id.DataPointID) error
	ListByIndicator(ctx context.Context, indicatorID id.IndicatorID) ([]*models.DataPoint, error)
}

// Catalog resolves indicators for authorization and period validation.
// Inactive indicators never resolve.
type Catalog interface {
	Resolve(ctx context.Context, indicatorID id.IndicatorID) (*indicatormodels.Indicator, error)
	ResolveBatch(ctx context.Context, ids []id.IndicatorID) (map[id.IndicatorID]*indicatormodels.Indicator, error)
}

// Gate answers category-scoped permission checks.
type Gate interface {
	CanMutate(role id.Role, category id.Category) bool
	CanVerify(role id.Role, category id.Category) bool
}

// StoreTx runs a function inside one storage transaction, and a savepoint
// inside an open transaction. Bulk import relies on savepoints to keep the
// batch transaction usable after a failed row.
type StoreTx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
	RunInSavepoint(ctx context.Context, name string, fn func(spCtx context.Context) error) error
}

// noopTx satisfies StoreTx for setups without transactional storage. The
// in-memory store's operations are individually atomic, so a pass-through is
// correct there.
type noopTx struct{}

func (noopTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

func (noopTx) RunInSavepoint(ctx context.Context, _ string, fn func(spCtx context.Context) error) error {
	return fn(ctx)
}

// Sink receives committed audit entries for background publishing.
type Sink interface {
	Enqueue(entry audit.Entry)
}

type noopSink struct{}

func (noopSink) Enqueue(audit.Entry) {}

// auditTable is the table name recorded for data point audit entries.
const auditTable = "indicator_data"

// Service orchestrates data point mutations over the store, catalog, gate,
// and audit trail.
type Service struct {
	store   Store
	catalog Catalog
	gate    Gate
	audits  audit.Store
	tx      StoreTx
	sink    Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures optional collaborators.
type Option func(s *Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTx sets the transaction runner.
func WithTx(tx StoreTx) Option {
	return func(s *Service) {
		s.tx = tx
	}
}

// WithAuditSink forwards committed audit entries to a background publisher.
func WithAuditSink(sink Sink) Option {
	return func(s *Service) {
		s.sink = sink
	}
}

// New constructs a data point Service.
func New(store Store, catalog Catalog, gate Gate, audits audit.Store, opts ...Option) *Service {
	s := &Service{
		store:   store,
		catalog: catalog,
		gate:    gate,
		audits:  audits,
		tx:      noopTx{},
		sink:    noopSink{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// appendAudit writes the entry inside the transaction and remembers it for
// post-commit publishing.
func (s *Service) appendAudit(ctx context.Context, entry audit.Entry, committed *[]audit.Entry) error {
	if err := s.audits.Append(ctx, entry); err != nil {
		return err
	}
	*committed = append(*committed, entry)
	return nil
}

// publishCommitted hands entries to the sink after the transaction committed.
func (s *Service) publishCommitted(entries []audit.Entry) {
	for _, entry := range entries {
		s.sink.Enqueue(entry)
	}
}

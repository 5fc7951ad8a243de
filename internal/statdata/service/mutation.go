package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"satudata/internal/audit"
	"satudata/internal/statdata/models"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
	"satudata/pkg/requestcontext"
)

// CreateInput carries a single data point submission.
type CreateInput struct {
	IndicatorID    id.IndicatorID
	Period         models.PeriodInput
	Value          *float64
	Status         string
	Notes          string
	SourceDocument string
}

// UpdateInput carries a partial update; nil fields are left unchanged.
// Status can only advance, and never directly to final.
type UpdateInput struct {
	Value          *float64
	Status         *string
	Notes          *string
	SourceDocument *string
}

// Create validates, authorizes, and inserts one data point, writing the CREATE
// audit entry in the same transaction. A duplicate period is a conflict naming
// the period, like "data point already exists for Jan 2024".
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "statdata.Create")
	defer span.End()
	start := time.Now()

	indicator, err := s.catalog.Resolve(ctx, in.IndicatorID)
	if err != nil {
		return nil, err
	}
	role := requestcontext.Role(ctx)
	if !s.gate.CanMutate(role, indicator.Category) {
		return nil, dErrors.Newf(dErrors.CodeForbidden, "role %s may not modify data in category %s", role, indicator.Category)
	}

	now := requestcontext.Now(ctx)
	key, err := models.NormalizePeriod(in.Period, indicator.PeriodType, now)
	if err != nil {
		return nil, err
	}

	status := models.Status(in.Status)
	dp, err := models.NewDataPoint(id.DataPointID(uuid.New()), in.IndicatorID, key, in.Value, status, requestcontext.UserID(ctx), now)
	if err != nil {
		return nil, err
	}
	dp.Notes = in.Notes
	dp.SourceDocument = in.SourceDocument

	var committed []audit.Entry
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		// Pre-check for a friendlier message; the unique index catches races.
		if _, err := s.store.FindByPeriod(txCtx, in.IndicatorID, key); err == nil {
			return dErrors.Newf(dErrors.CodeConflict, "data point already exists for %s", key.Label())
		} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return err
		}

		if err := s.store.Insert(txCtx, dp); err != nil {
			return err
		}

		entry, err := audit.NewCreateEntry(auditTable, dp.ID.String(), dp.CreatedBy, dp.ToSnapshot(), now)
		if err != nil {
			return err
		}
		return s.appendAudit(txCtx, entry, &committed)
	})
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeConflict) && s.metrics != nil {
			s.metrics.IncrementPeriodConflict()
		}
		return nil, err
	}

	s.publishCommitted(committed)
	if s.metrics != nil {
		s.metrics.IncrementCreated()
		s.metrics.ObserveMutation(start)
	}
	s.logger.InfoContext(ctx, "data point created",
		"data_point_id", dp.ID.String(),
		"indicator_id", in.IndicatorID.String(),
		"period", key.Label(),
		"user_id", dp.CreatedBy.String(),
		"log_type", "audit",
	)
	return dp, nil
}

// Update applies a partial edit to one data point, bumping the revision and
// writing the UPDATE audit entry with the pre-mutation snapshot.
func (s *Service) Update(ctx context.Context, pointID id.DataPointID, in UpdateInput) (*models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "statdata.Update")
	defer span.End()
	start := time.Now()

	now := requestcontext.Now(ctx)
	role := requestcontext.Role(ctx)
	userID := requestcontext.UserID(ctx)

	var (
		updated   *models.DataPoint
		committed []audit.Entry
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		dp, err := s.store.FindByID(txCtx, pointID)
		if err != nil {
			return err
		}
		indicator, err := s.catalog.Resolve(txCtx, dp.IndicatorID)
		if err != nil {
			return err
		}
		if !s.gate.CanMutate(role, indicator.Category) {
			return dErrors.Newf(dErrors.CodeForbidden, "role %s may not modify data in category %s", role, indicator.Category)
		}

		before := dp.Clone()
		changes, err := applyUpdate(dp, in)
		if err != nil {
			return err
		}
		if len(changes) == 0 {
			return dErrors.New(dErrors.CodeValidation, "update contains no changes")
		}
		dp.RevisionNumber++
		dp.UpdatedAt = now
		changes["revision_number"] = dp.RevisionNumber

		if err := s.store.Update(txCtx, dp); err != nil {
			return err
		}

		entry, err := audit.NewUpdateEntry(auditTable, dp.ID.String(), userID, before.ToSnapshot(), changes, now)
		if err != nil {
			return err
		}
		if err := s.appendAudit(txCtx, entry, &committed); err != nil {
			return err
		}
		updated = dp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCommitted(committed)
	if s.metrics != nil {
		s.metrics.IncrementUpdated()
		s.metrics.ObserveMutation(start)
	}
	s.logger.InfoContext(ctx, "data point updated",
		"data_point_id", pointID.String(),
		"revision", updated.RevisionNumber,
		"user_id", userID.String(),
		"log_type", "audit",
	)
	return updated, nil
}

// applyUpdate mutates dp in place and returns the audit change set.
func applyUpdate(dp *models.DataPoint, in UpdateInput) (map[string]any, error) {
	changes := make(map[string]any)
	if in.Status != nil {
		next, err := models.ParseStatus(*in.Status)
		if err != nil {
			return nil, err
		}
		if next != dp.Status {
			if err := dp.Status.CanAdvanceTo(next); err != nil {
				return nil, err
			}
			dp.Status = next
			changes["status"] = string(next)
		}
	}
	if in.Value != nil {
		dp.Value = in.Value
		changes["value"] = *in.Value
	}
	if in.Notes != nil {
		dp.Notes = *in.Notes
		changes["notes"] = *in.Notes
	}
	if in.SourceDocument != nil {
		dp.SourceDocument = *in.SourceDocument
		changes["source_document"] = *in.SourceDocument
	}
	return changes, nil
}

// Verify moves a data point to final, stamping verified_by/verified_at in the
// same write as the status change. A record that is already final conflicts;
// there is no re-verification.
func (s *Service) Verify(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "statdata.Verify")
	defer span.End()
	start := time.Now()

	now := requestcontext.Now(ctx)
	role := requestcontext.Role(ctx)
	userID := requestcontext.UserID(ctx)

	var (
		verified  *models.DataPoint
		committed []audit.Entry
	)
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		dp, err := s.store.FindByID(txCtx, pointID)
		if err != nil {
			return err
		}
		indicator, err := s.catalog.Resolve(txCtx, dp.IndicatorID)
		if err != nil {
			return err
		}
		if !s.gate.CanVerify(role, indicator.Category) {
			return dErrors.Newf(dErrors.CodeForbidden, "role %s may not verify data in category %s", role, indicator.Category)
		}
		if err := dp.CanVerify(); err != nil {
			return err
		}

		previous := dp.Status
		dp.ApplyVerification(userID, now)
		if err := s.store.Update(txCtx, dp); err != nil {
			return err
		}

		entry, err := audit.NewVerifyEntry(auditTable, dp.ID.String(), userID, audit.VerifyTransition{
			PreviousStatus: string(previous),
			NewStatus:      string(dp.Status),
			VerifiedBy:     userID.String(),
			VerifiedAt:     now.UTC().Format(time.RFC3339Nano),
		}, now)
		if err != nil {
			return err
		}
		if err := s.appendAudit(txCtx, entry, &committed); err != nil {
			return err
		}
		verified = dp
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publishCommitted(committed)
	if s.metrics != nil {
		s.metrics.IncrementVerified()
		s.metrics.ObserveMutation(start)
	}
	s.logger.InfoContext(ctx, "data point verified",
		"data_point_id", pointID.String(),
		"user_id", userID.String(),
		"log_type", "audit",
	)
	return verified, nil
}

// Delete removes a data point permanently. The DELETE audit entry carries the
// full snapshot, so history survives the row.
func (s *Service) Delete(ctx context.Context, pointID id.DataPointID) error {
	ctx, span := tracer.Start(ctx, "statdata.Delete")
	defer span.End()
	start := time.Now()

	now := requestcontext.Now(ctx)
	role := requestcontext.Role(ctx)
	userID := requestcontext.UserID(ctx)

	var committed []audit.Entry
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		dp, err := s.store.FindByID(txCtx, pointID)
		if err != nil {
			return err
		}
		indicator, err := s.catalog.Resolve(txCtx, dp.IndicatorID)
		if err != nil {
			return err
		}
		if !s.gate.CanMutate(role, indicator.Category) {
			return dErrors.Newf(dErrors.CodeForbidden, "role %s may not modify data in category %s", role, indicator.Category)
		}

		entry, err := audit.NewDeleteEntry(auditTable, dp.ID.String(), userID, dp.ToSnapshot(), now)
		if err != nil {
			return err
		}
		if err := s.appendAudit(txCtx, entry, &committed); err != nil {
			return err
		}
		return s.store.Delete(txCtx, pointID)
	})
	if err != nil {
		return err
	}

	s.publishCommitted(committed)
	if s.metrics != nil {
		s.metrics.IncrementDeleted()
		s.metrics.ObserveMutation(start)
	}
	s.logger.InfoContext(ctx, "data point deleted",
		"data_point_id", pointID.String(),
		"user_id", userID.String(),
		"log_type", "audit",
	)
	return nil
}

// Get loads one data point. Reads are open to every authenticated role.
func (s *Service) Get(ctx context.Context, pointID id.DataPointID) (*models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "statdata.Get")
	defer span.End()
	return s.store.FindByID(ctx, pointID)
}

// ListByIndicator returns an indicator's data points in period order. The
// indicator must exist and be active.
func (s *Service) ListByIndicator(ctx context.Context, indicatorID id.IndicatorID) ([]*models.DataPoint, error) {
	ctx, span := tracer.Start(ctx, "statdata.ListByIndicator")
	defer span.End()
	if _, err := s.catalog.Resolve(ctx, indicatorID); err != nil {
		return nil, err
	}
	return s.store.ListByIndicator(ctx, indicatorID)
}

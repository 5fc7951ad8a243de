// Package models defines the indicator catalog entities.
package models

import (
	"time"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// Indicator is a read-mostly reference entity owned by the catalog. The data
// core reads its category, active flag, and period type; everything else is
// presentation metadata.
type Indicator struct {
	ID          id.IndicatorID
	Code        string
	Sequence    int
	Name        string
	Category    id.Category
	Subcategory string
	Unit        string
	PeriodType  id.PeriodType
	Active      bool
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewIndicator constructs an active indicator, enforcing catalog invariants.
func NewIndicator(indicatorID id.IndicatorID, code, name string, category id.Category, periodType id.PeriodType, now time.Time) (*Indicator, error) {
	if indicatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator id is required")
	}
	if code == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator code is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator name is required")
	}
	if !category.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator category is invalid")
	}
	if !periodType.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator period type is invalid")
	}
	return &Indicator{
		ID:         indicatorID,
		Code:       code,
		Name:       name,
		Category:   category,
		PeriodType: periodType,
		Active:     true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// CanDeactivate rejects deactivating an already-inactive indicator.
func (i *Indicator) CanDeactivate() error {
	if !i.Active {
		return dErrors.New(dErrors.CodeInvariantViolation, "indicator is already inactive")
	}
	return nil
}

// ApplyDeactivation flips the active flag.
func (i *Indicator) ApplyDeactivation(now time.Time) {
	i.Active = false
	i.UpdatedAt = now
}

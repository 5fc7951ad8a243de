// Package models defines the data point entity, its status state machine, and
// the canonical period key.
package models

import (
	"time"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// Status is the publication state of a data point.
// It only advances: draft → preliminary → final. The final transition happens
// exclusively through verification, which sets verified_by/verified_at
// atomically with the status change.
type Status string

const (
	StatusDraft       Status = "draft"
	StatusPreliminary Status = "preliminary"
	StatusFinal       Status = "final"
)

var statusRank = map[Status]int{
	StatusDraft:       0,
	StatusPreliminary: 1,
	StatusFinal:       2,
}

// ParseStatus constructs a Status from external input.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if _, ok := statusRank[st]; !ok {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status: "+s)
	}
	return st, nil
}

// IsValid checks membership in the status enum.
func (s Status) IsValid() bool {
	_, ok := statusRank[s]
	return ok
}

// CanAdvanceTo rejects backward transitions and any direct move to final,
// which is reserved for Verify.
func (s Status) CanAdvanceTo(next Status) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown status: "+string(next))
	}
	if next == StatusFinal {
		return dErrors.New(dErrors.CodeValidation, "status final is set through verification, not update")
	}
	if statusRank[next] < statusRank[s] {
		return dErrors.Newf(dErrors.CodeValidation, "status cannot move back from %s to %s", s, next)
	}
	return nil
}

// DataPoint is one dated statistical value for an indicator.
type DataPoint struct {
	ID             id.DataPointID
	IndicatorID    id.IndicatorID
	Year           int
	PeriodMonth    *int
	PeriodQuarter  *int
	Value          *float64
	Status         Status
	Notes          string
	SourceDocument string
	RevisionNumber int
	CreatedBy      id.UserID
	VerifiedBy     *id.UserID
	VerifiedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewDataPoint constructs a first-revision data point for a normalized period.
func NewDataPoint(pointID id.DataPointID, indicatorID id.IndicatorID, key PeriodKey, value *float64, status Status, createdBy id.UserID, now time.Time) (*DataPoint, error) {
	if pointID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "data point id is required")
	}
	if indicatorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "indicator id is required")
	}
	if createdBy.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "created_by is required")
	}
	if status == "" {
		status = StatusDraft
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown status: "+string(status))
	}
	if status == StatusFinal {
		return nil, dErrors.New(dErrors.CodeValidation, "a data point cannot be created as final")
	}
	return &DataPoint{
		ID:             pointID,
		IndicatorID:    indicatorID,
		Year:           key.Year,
		PeriodMonth:    key.MonthPtr(),
		PeriodQuarter:  key.QuarterPtr(),
		Value:          value,
		Status:         status,
		RevisionNumber: 1,
		CreatedBy:      createdBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// PeriodKey rebuilds the canonical key from the stored period fields.
func (d *DataPoint) PeriodKey() PeriodKey {
	key := PeriodKey{Year: d.Year}
	if d.PeriodMonth != nil {
		key.Month = *d.PeriodMonth
	}
	if d.PeriodQuarter != nil {
		key.Quarter = *d.PeriodQuarter
	}
	return key
}

// CanVerify rejects verifying a record that is already final.
func (d *DataPoint) CanVerify() error {
	if d.Status == StatusFinal {
		return dErrors.New(dErrors.CodeConflict, "data point is already final")
	}
	return nil
}

// ApplyVerification moves the record to final and stamps the verifier.
// Callers must have checked CanVerify.
func (d *DataPoint) ApplyVerification(verifiedBy id.UserID, now time.Time) {
	d.Status = StatusFinal
	d.VerifiedBy = &verifiedBy
	d.VerifiedAt = &now
	d.UpdatedAt = now
}

// Clone returns a deep copy, used for audit snapshots taken before mutation.
func (d *DataPoint) Clone() *DataPoint {
	c := *d
	if d.PeriodMonth != nil {
		m := *d.PeriodMonth
		c.PeriodMonth = &m
	}
	if d.PeriodQuarter != nil {
		q := *d.PeriodQuarter
		c.PeriodQuarter = &q
	}
	if d.Value != nil {
		v := *d.Value
		c.Value = &v
	}
	if d.VerifiedBy != nil {
		vb := *d.VerifiedBy
		c.VerifiedBy = &vb
	}
	if d.VerifiedAt != nil {
		va := *d.VerifiedAt
		c.VerifiedAt = &va
	}
	return &c
}

// Snapshot is the JSON shape of a data point inside audit payloads.
type Snapshot struct {
	ID             string   `json:"id"`
	IndicatorID    string   `json:"indicator_id"`
	Year           int      `json:"year"`
	PeriodMonth    *int     `json:"period_month"`
	PeriodQuarter  *int     `json:"period_quarter"`
	Value          *float64 `json:"value"`
	Status         string   `json:"status"`
	Notes          string   `json:"notes,omitempty"`
	SourceDocument string   `json:"source_document,omitempty"`
	RevisionNumber int      `json:"revision_number"`
	CreatedBy      string   `json:"created_by"`
	VerifiedBy     *string  `json:"verified_by,omitempty"`
	VerifiedAt     *string  `json:"verified_at,omitempty"`
}

// ToSnapshot flattens the data point for audit serialization.
func (d *DataPoint) ToSnapshot() Snapshot {
	s := Snapshot{
		ID:             d.ID.String(),
		IndicatorID:    d.IndicatorID.String(),
		Year:           d.Year,
		PeriodMonth:    d.PeriodMonth,
		PeriodQuarter:  d.PeriodQuarter,
		Value:          d.Value,
		Status:         string(d.Status),
		Notes:          d.Notes,
		SourceDocument: d.SourceDocument,
		RevisionNumber: d.RevisionNumber,
		CreatedBy:      d.CreatedBy.String(),
	}
	if d.VerifiedBy != nil {
		vb := d.VerifiedBy.String()
		s.VerifiedBy = &vb
	}
	if d.VerifiedAt != nil {
		va := d.VerifiedAt.UTC().Format(time.RFC3339Nano)
		s.VerifiedAt = &va
	}
	return s
}

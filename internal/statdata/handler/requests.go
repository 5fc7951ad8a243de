package handler

import (
	"strings"

	"satudata/internal/statdata/service"
	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// maxImportRows bounds one bulk import request. Larger files are split by the
// uploader.
const maxImportRows = 5000

// CreateDataPointRequest is the HTTP request body for POST /datapoints.
type CreateDataPointRequest struct {
	IndicatorID    string   `json:"indicator_id"`
	Year           int      `json:"year"`
	PeriodMonth    *int     `json:"period_month,omitempty"`
	PeriodQuarter  *int     `json:"period_quarter,omitempty"`
	Value          *float64 `json:"value,omitempty"`
	Status         string   `json:"status,omitempty"`
	Notes          string   `json:"notes,omitempty"`
	SourceDocument string   `json:"source_document,omitempty"`

	parsedIndicatorID id.IndicatorID
}

// Validate validates and parses the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateDataPointRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}

	r.IndicatorID = strings.TrimSpace(r.IndicatorID)
	if r.IndicatorID == "" {
		return dErrors.New(dErrors.CodeValidation, "indicator_id is required")
	}
	indicatorID, err := id.ParseIndicatorID(r.IndicatorID)
	if err != nil {
		return err
	}
	r.parsedIndicatorID = indicatorID

	if r.Year == 0 {
		return dErrors.New(dErrors.CodeValidation, "year is required")
	}
	// Period and status semantics are validated by the service against the
	// indicator's period type.
	return nil
}

// ParsedIndicatorID returns the validated indicator id.
func (r *CreateDataPointRequest) ParsedIndicatorID() id.IndicatorID {
	return r.parsedIndicatorID
}

// UpdateDataPointRequest is the HTTP request body for PATCH /datapoints/{id}.
// Absent fields are left unchanged.
type UpdateDataPointRequest struct {
	Value          *float64 `json:"value,omitempty"`
	Status         *string  `json:"status,omitempty"`
	Notes          *string  `json:"notes,omitempty"`
	SourceDocument *string  `json:"source_document,omitempty"`
}

// Validate checks that the patch carries at least one field.
func (r *UpdateDataPointRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Value == nil && r.Status == nil && r.Notes == nil && r.SourceDocument == nil {
		return dErrors.New(dErrors.CodeValidation, "update contains no changes")
	}
	return nil
}

// BulkImportRequest is the HTTP request body for POST /import.
type BulkImportRequest struct {
	Data      []service.ImportRow `json:"data"`
	Category  string              `json:"category,omitempty"`
	Operation string              `json:"operation,omitempty"`
}

// Validate checks batch structure only; row content fails row by row.
func (r *BulkImportRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Data) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "data must be a non-empty array of rows")
	}
	if len(r.Data) > maxImportRows {
		return dErrors.Newf(dErrors.CodeBadRequest, "batch exceeds %d rows", maxImportRows)
	}
	return nil
}

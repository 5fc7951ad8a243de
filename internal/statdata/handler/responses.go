package handler

import (
	"time"

	indicatormodels "satudata/internal/indicator/models"
	"satudata/internal/statdata/models"
)

// DataPointResponse is the HTTP shape of one data point.
type DataPointResponse struct {
	ID             string     `json:"id"`
	IndicatorID    string     `json:"indicator_id"`
	Year           int        `json:"year"`
	PeriodMonth    *int       `json:"period_month,omitempty"`
	PeriodQuarter  *int       `json:"period_quarter,omitempty"`
	PeriodLabel    string     `json:"period_label"`
	Value          *float64   `json:"value"`
	Status         string     `json:"status"`
	Notes          string     `json:"notes,omitempty"`
	SourceDocument string     `json:"source_document,omitempty"`
	RevisionNumber int        `json:"revision_number"`
	CreatedBy      string     `json:"created_by"`
	VerifiedBy     *string    `json:"verified_by,omitempty"`
	VerifiedAt     *time.Time `json:"verified_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FromDataPoint converts a domain data point to an HTTP response.
func FromDataPoint(dp *models.DataPoint) *DataPointResponse {
	resp := &DataPointResponse{
		ID:             dp.ID.String(),
		IndicatorID:    dp.IndicatorID.String(),
		Year:           dp.Year,
		PeriodMonth:    dp.PeriodMonth,
		PeriodQuarter:  dp.PeriodQuarter,
		PeriodLabel:    dp.PeriodKey().Label(),
		Value:          dp.Value,
		Status:         string(dp.Status),
		Notes:          dp.Notes,
		SourceDocument: dp.SourceDocument,
		RevisionNumber: dp.RevisionNumber,
		CreatedBy:      dp.CreatedBy.String(),
		CreatedAt:      dp.CreatedAt,
		UpdatedAt:      dp.UpdatedAt,
	}
	if dp.VerifiedBy != nil {
		vb := dp.VerifiedBy.String()
		resp.VerifiedBy = &vb
	}
	resp.VerifiedAt = dp.VerifiedAt
	return resp
}

// FromDataPoints converts a slice, never returning null in JSON.
func FromDataPoints(points []*models.DataPoint) []*DataPointResponse {
	out := make([]*DataPointResponse, 0, len(points))
	for _, dp := range points {
		out = append(out, FromDataPoint(dp))
	}
	return out
}

// IndicatorResponse is the catalog entry shape for GET /import?action=indicators.
type IndicatorResponse struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Unit        string `json:"unit,omitempty"`
	PeriodType  string `json:"period_type"`
}

// FromIndicators converts catalog entries to their HTTP shape.
func FromIndicators(indicators []*indicatormodels.Indicator) []*IndicatorResponse {
	out := make([]*IndicatorResponse, 0, len(indicators))
	for _, indicator := range indicators {
		out = append(out, &IndicatorResponse{
			ID:          indicator.ID.String(),
			Code:        indicator.Code,
			Name:        indicator.Name,
			Category:    string(indicator.Category),
			Subcategory: indicator.Subcategory,
			Unit:        indicator.Unit,
			PeriodType:  string(indicator.PeriodType),
		})
	}
	return out
}

// TemplateField describes one column of the import template.
type TemplateField struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// TemplateResponse is the import template: field schema plus a sample row.
type TemplateResponse struct {
	Fields []TemplateField `json:"fields"`
	Sample map[string]any  `json:"sample"`
}

// importTemplate is the static field schema uploaders build files against.
func importTemplate() *TemplateResponse {
	return &TemplateResponse{
		Fields: []TemplateField{
			{Name: "indicator_id", Type: "uuid", Required: true, Description: "Catalog id of the indicator"},
			{Name: "year", Type: "integer", Required: true, Description: "Reference year, 2000 or later"},
			{Name: "period_month", Type: "integer", Required: false, Description: "1-12, required for monthly indicators"},
			{Name: "period_quarter", Type: "integer", Required: false, Description: "1-4, required for quarterly indicators"},
			{Name: "value", Type: "number", Required: false, Description: "Observed value; empty means not yet available"},
			{Name: "notes", Type: "string", Required: false, Description: "Free-form remarks"},
			{Name: "source_document", Type: "string", Required: false, Description: "Reference to the source publication"},
		},
		Sample: map[string]any{
			"indicator_id":    "8d5e6f4a-0000-0000-0000-000000000000",
			"year":            2024,
			"period_month":    1,
			"value":           5.2,
			"notes":           "preliminary figure",
			"source_document": "BPS-2024-01",
		},
	}
}

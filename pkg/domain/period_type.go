package domain

import dErrors "satudata/pkg/domain-errors"

// PeriodType classifies how an indicator's data points are dated. It dictates
// which period fields a data point must carry: monthly requires a month,
// quarterly requires a quarter, yearly forbids both.
type PeriodType string

const (
	PeriodYearly    PeriodType = "yearly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

var validPeriodTypes = map[PeriodType]bool{
	PeriodYearly:    true,
	PeriodMonthly:   true,
	PeriodQuarterly: true,
}

// ParsePeriodType constructs a PeriodType from external input.
func ParsePeriodType(s string) (PeriodType, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "period type cannot be empty")
	}
	p := PeriodType(s)
	if !validPeriodTypes[p] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown period type: "+s)
	}
	return p, nil
}

// IsValid checks if the period type is one of the supported values.
func (p PeriodType) IsValid() bool {
	return validPeriodTypes[p]
}

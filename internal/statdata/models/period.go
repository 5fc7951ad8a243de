package models

import (
	"fmt"
	"time"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

// MinYear is the earliest year the portal accepts data for.
const MinYear = 2000

// yearHorizon bounds how far into the future a period may lie.
const yearHorizon = 5

// PeriodKey is the canonical period of a data point: year plus at most one of
// month/quarter. Zero month and quarter mean "absent", which makes the key
// comparable and NULL-safe: absence matches absence, never another value.
// All duplicate lookups go through this key.
type PeriodKey struct {
	Year    int
	Month   int // 1-12, 0 = absent
	Quarter int // 1-4, 0 = absent
}

// PeriodInput carries raw period fields before normalization.
type PeriodInput struct {
	Year    int
	Month   *int
	Quarter *int
}

// NormalizePeriod validates raw period fields against the indicator's period
// type and produces the canonical key. Yearly indicators reject any period
// field, including a "reference" month; tolerating one would let two rows for
// the same year coexist under the uniqueness key.
func NormalizePeriod(in PeriodInput, periodType id.PeriodType, now time.Time) (PeriodKey, error) {
	maxYear := now.Year() + yearHorizon
	if in.Year < MinYear || in.Year > maxYear {
		return PeriodKey{}, dErrors.Newf(dErrors.CodeValidation, "year must be between %d and %d", MinYear, maxYear)
	}

	key := PeriodKey{Year: in.Year}

	switch periodType {
	case id.PeriodMonthly:
		if in.Quarter != nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_quarter is not allowed for a monthly indicator")
		}
		if in.Month == nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_month is required for a monthly indicator")
		}
		if *in.Month < 1 || *in.Month > 12 {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_month must be between 1 and 12")
		}
		key.Month = *in.Month
	case id.PeriodQuarterly:
		if in.Month != nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_month is not allowed for a quarterly indicator")
		}
		if in.Quarter == nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_quarter is required for a quarterly indicator")
		}
		if *in.Quarter < 1 || *in.Quarter > 4 {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_quarter must be between 1 and 4")
		}
		key.Quarter = *in.Quarter
	case id.PeriodYearly:
		if in.Month != nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_month is not allowed for a yearly indicator")
		}
		if in.Quarter != nil {
			return PeriodKey{}, dErrors.New(dErrors.CodeValidation, "period_quarter is not allowed for a yearly indicator")
		}
	default:
		return PeriodKey{}, dErrors.Newf(dErrors.CodeValidation, "unknown period type: %s", periodType)
	}

	return key, nil
}

// Label renders the period for humans: "2024", "Jan 2024", "Q1 2024".
// Conflict messages use it so a duplicate submission names the exact period.
func (k PeriodKey) Label() string {
	switch {
	case k.Month != 0:
		return fmt.Sprintf("%s %d", time.Month(k.Month).String()[:3], k.Year)
	case k.Quarter != 0:
		return fmt.Sprintf("Q%d %d", k.Quarter, k.Year)
	default:
		return fmt.Sprintf("%d", k.Year)
	}
}

// MonthPtr returns the month as a nullable value for persistence.
func (k PeriodKey) MonthPtr() *int {
	if k.Month == 0 {
		return nil
	}
	m := k.Month
	return &m
}

// QuarterPtr returns the quarter as a nullable value for persistence.
func (k PeriodKey) QuarterPtr() *int {
	if k.Quarter == 0 {
		return nil
	}
	q := k.Quarter
	return &q
}

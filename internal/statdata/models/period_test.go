package models

import (
	"testing"
	"time"

	id "satudata/pkg/domain"
	dErrors "satudata/pkg/domain-errors"
)

var testNow = time.Date(2024, time.March, 15, 10, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func TestNormalizePeriod(t *testing.T) {
	cases := []struct {
		name       string
		in         PeriodInput
		periodType id.PeriodType
		want       PeriodKey
		wantErr    bool
	}{
		{
			name:       "monthly with valid month",
			in:         PeriodInput{Year: 2024, Month: intPtr(1)},
			periodType: id.PeriodMonthly,
			want:       PeriodKey{Year: 2024, Month: 1},
		},
		{
			name:       "monthly missing month",
			in:         PeriodInput{Year: 2024},
			periodType: id.PeriodMonthly,
			wantErr:    true,
		},
		{
			name:       "monthly with quarter set",
			in:         PeriodInput{Year: 2024, Month: intPtr(1), Quarter: intPtr(1)},
			periodType: id.PeriodMonthly,
			wantErr:    true,
		},
		{
			name:       "monthly month out of range",
			in:         PeriodInput{Year: 2024, Month: intPtr(13)},
			periodType: id.PeriodMonthly,
			wantErr:    true,
		},
		{
			name:       "quarterly with valid quarter",
			in:         PeriodInput{Year: 2023, Quarter: intPtr(4)},
			periodType: id.PeriodQuarterly,
			want:       PeriodKey{Year: 2023, Quarter: 4},
		},
		{
			name:       "quarterly with month set",
			in:         PeriodInput{Year: 2023, Month: intPtr(6), Quarter: intPtr(2)},
			periodType: id.PeriodQuarterly,
			wantErr:    true,
		},
		{
			name:       "quarterly quarter out of range",
			in:         PeriodInput{Year: 2023, Quarter: intPtr(5)},
			periodType: id.PeriodQuarterly,
			wantErr:    true,
		},
		{
			name:       "yearly with no period fields",
			in:         PeriodInput{Year: 2020},
			periodType: id.PeriodYearly,
			want:       PeriodKey{Year: 2020},
		},
		{
			name:       "yearly rejects reference month",
			in:         PeriodInput{Year: 2020, Month: intPtr(6)},
			periodType: id.PeriodYearly,
			wantErr:    true,
		},
		{
			name:       "yearly rejects quarter",
			in:         PeriodInput{Year: 2020, Quarter: intPtr(1)},
			periodType: id.PeriodYearly,
			wantErr:    true,
		},
		{
			name:       "year below range",
			in:         PeriodInput{Year: 1999},
			periodType: id.PeriodYearly,
			wantErr:    true,
		},
		{
			name:       "year at future horizon",
			in:         PeriodInput{Year: 2029},
			periodType: id.PeriodYearly,
			want:       PeriodKey{Year: 2029},
		},
		{
			name:       "year beyond future horizon",
			in:         PeriodInput{Year: 2030},
			periodType: id.PeriodYearly,
			wantErr:    true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NormalizePeriod(tc.in, tc.periodType, testNow)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected validation error, got key %+v", got)
				}
				if !dErrors.HasCode(err, dErrors.CodeValidation) {
					t.Fatalf("expected validation code, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected key %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestPeriodKeyLabel(t *testing.T) {
	cases := []struct {
		key  PeriodKey
		want string
	}{
		{PeriodKey{Year: 2024, Month: 1}, "Jan 2024"},
		{PeriodKey{Year: 2024, Month: 12}, "Dec 2024"},
		{PeriodKey{Year: 2023, Quarter: 3}, "Q3 2023"},
		{PeriodKey{Year: 2020}, "2020"},
	}
	for _, tc := range cases {
		if got := tc.key.Label(); got != tc.want {
			t.Fatalf("expected label %q, got %q", tc.want, got)
		}
	}
}

func TestPeriodKeyNullSafety(t *testing.T) {
	// Absence must match absence, not another value: distinct keys for the
	// same year with different shapes must not compare equal.
	yearly := PeriodKey{Year: 2024}
	monthly := PeriodKey{Year: 2024, Month: 1}
	quarterly := PeriodKey{Year: 2024, Quarter: 1}

	if yearly == monthly || yearly == quarterly || monthly == quarterly {
		t.Fatalf("period keys of different shapes must be distinct")
	}
	if (PeriodKey{Year: 2024, Month: 1}) != monthly {
		t.Fatalf("identical keys must compare equal")
	}
}

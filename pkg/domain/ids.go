// Package domain holds shared domain primitives: typed identifiers and the
// enumerations that cross module boundaries (roles, statistical categories,
// period types). Construct values via the Parse functions at trust boundaries;
// direct casting bypasses validation.
package domain

import (
	"github.com/google/uuid"

	dErrors "satudata/pkg/domain-errors"
)

// Typed identifiers. Distinct types so an indicator id can never be passed
// where a data point id is expected.
type (
	UserID      uuid.UUID
	IndicatorID uuid.UUID
	DataPointID uuid.UUID
)

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" id cannot be nil")
	}
	return u, nil
}

// ParseUserID constructs a UserID from external input.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user")
	return UserID(u), err
}

// ParseIndicatorID constructs an IndicatorID from external input.
func ParseIndicatorID(s string) (IndicatorID, error) {
	u, err := parseUUID(s, "indicator")
	return IndicatorID(u), err
}

// ParseDataPointID constructs a DataPointID from external input.
func ParseDataPointID(s string) (DataPointID, error) {
	u, err := parseUUID(s, "data point")
	return DataPointID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id IndicatorID) String() string { return uuid.UUID(id).String() }
func (id DataPointID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id IndicatorID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id DataPointID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

package dErrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "period already taken")
	if !HasCode(err, CodeConflict) {
		t.Fatalf("expected conflict code")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("did not expect not_found code")
	}
	if HasCode(nil, CodeConflict) {
		t.Fatalf("nil error must not carry a code")
	}
}

func TestHasCodeThroughWrapping(t *testing.T) {
	inner := New(CodeNotFound, "data point not found")
	outer := fmt.Errorf("loading record: %w", inner)

	if !HasCode(outer, CodeNotFound) {
		t.Fatalf("expected code to survive fmt.Errorf wrapping")
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeInternal, "failed to insert data point")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause in chain")
	}
	if Code(err) != CodeInternal {
		t.Fatalf("expected internal code, got %s", Code(err))
	}
	if Wrap(nil, CodeInternal, "x") != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestCodeFallsBackToInternal(t *testing.T) {
	if Code(errors.New("plain")) != CodeInternal {
		t.Fatalf("plain errors must map to internal")
	}
}

func TestMessageOfHidesForeignErrors(t *testing.T) {
	if MessageOf(errors.New("pq: relation does not exist")) != "internal error" {
		t.Fatalf("foreign error messages must not leak")
	}
	if MessageOf(New(CodeValidation, "year out of range")) != "year out of range" {
		t.Fatalf("domain message must be returned verbatim")
	}
}

package domainerrors

import (
	"errors"
	"fmt"
	"testing"
)

func TestHasCode(t *testing.T) {
	err := New(CodeConflict, "client code already exists")
	if !HasCode(err, CodeConflict) {
		t.Fatalf("expected CodeConflict")
	}
	if HasCode(err, CodeNotFound) {
		t.Fatalf("did not expect CodeNotFound")
	}
	if HasCode(errors.New("plain"), CodeConflict) {
		t.Fatalf("plain errors carry no code")
	}
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "store unavailable")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause in chain")
	}
	if CodeOf(err) != CodeInternal {
		t.Fatalf("expected CodeInternal, got %s", CodeOf(err))
	}

	// Wrapping again at a higher layer keeps the outermost code.
	outer := Wrap(fmt.Errorf("analyze clients: %w", err), CodeUnavailable, "try again")
	if CodeOf(outer) != CodeUnavailable {
		t.Fatalf("expected outermost code, got %s", CodeOf(outer))
	}
}

func TestWrapNil(t *testing.T) {
	if Wrap(nil, CodeInternal, "x") != nil {
		t.Fatalf("wrapping nil must return nil")
	}
}

func TestCodeOfDefaultsToInternal(t *testing.T) {
	if CodeOf(errors.New("boom")) != CodeInternal {
		t.Fatalf("uncoded errors default to internal")
	}
	if MessageOf(errors.New("boom")) != "" {
		t.Fatalf("uncoded errors have no safe message")
	}
}

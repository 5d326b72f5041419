package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal metadata, got status %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(CodeDependency, cause, "loading row")

	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	typed := New(CodeStateConflict, "cannot approve").WithReason("capacity_full")
	wrapped := fmt.Errorf("outer: %w", typed)

	found := As(wrapped)
	if found == nil {
		t.Fatalf("expected typed error to be found")
	}
	if found.Reason() != "capacity_full" {
		t.Fatalf("unexpected reason %q", found.Reason())
	}
	if ReasonOf(wrapped) != "capacity_full" {
		t.Fatalf("ReasonOf should traverse wrapping")
	}
}

func TestErrorStringIncludesReason(t *testing.T) {
	err := New(CodeStateConflict, "date has passed").WithReason("date_passed")
	want := "STATE_CONFLICT/date_passed: date has passed"
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	inner := errors.New("driver failure")
	err := Wrap(CodeDependency, inner, "save gathering")

	dump := Dump(err)
	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) < 2 {
		t.Fatalf("expected chain to include wrapper and cause, got %v", dump.Chain)
	}
}

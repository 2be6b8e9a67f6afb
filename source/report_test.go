package source_test

import (
	"strings"
	"testing"

	"github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/source"
)

func TestReportCleanHasNoErr(t *testing.T) {
	r := source.NewReport()
	if r.HasErrors() {
		t.Fatal("fresh report should have no errors")
	}
	if r.Err() != nil {
		t.Fatal("fresh report should fold to nil error")
	}
}

func TestReportAggregatesMultierror(t *testing.T) {
	r := source.NewReport()
	span := source.Span{
		Begin: source.Location{Stream: "t.flow", Line: 1, Column: 1},
		End:   source.Location{Stream: "t.flow", Line: 1, Column: 5},
	}
	r.Add(errors.TypeError, span, "cannot compare %s with %s", "int", "string")
	r.Add(errors.ParseError, span, "")

	if !r.HasErrors() {
		t.Fatal("expected errors after Add")
	}
	if len(r.Diagnostics()) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(r.Diagnostics()))
	}

	err := r.Err()
	if err == nil {
		t.Fatal("expected non-nil folded error")
	}
	if !strings.Contains(err.Error(), "cannot compare int with string") {
		t.Fatalf("folded error missing detail: %v", err)
	}
}

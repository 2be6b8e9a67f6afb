package duration_test

import (
	"testing"
	"time"

	"github.com/nabbar/x0d/duration"
)

func TestParseNativeSyntax(t *testing.T) {
	d, err := duration.Parse("30s")
	if err != nil {
		t.Fatal(err)
	}
	if d.Time() != 30*time.Second {
		t.Fatalf("expected 30s, got %s", d)
	}
}

func TestParseUnitSuffix(t *testing.T) {
	d, err := duration.Parse("5min")
	if err != nil {
		t.Fatal(err)
	}
	if d.Time() != 5*time.Minute {
		t.Fatalf("expected 5m, got %s", d)
	}
}

func TestByteUnit(t *testing.T) {
	mult, ok := duration.ByteUnit("mbyte")
	if !ok || mult != 1<<20 {
		t.Fatalf("expected 1<<20, got %d ok=%v", mult, ok)
	}
}

func TestUnknownUnit(t *testing.T) {
	if _, err := duration.Parse("10furlongs"); err == nil {
		t.Fatal("expected error for unknown unit")
	}
}

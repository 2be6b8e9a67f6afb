package errors_test

import (
	"errors"
	"testing"

	x0derr "github.com/nabbar/x0d/errors"
)

func TestNewAndError(t *testing.T) {
	e := x0derr.New(x0derr.TypeError, "parser", "operator %q not defined for (%s, %s)", "+", "Number", "String")
	if e.Code() != x0derr.TypeError {
		t.Fatalf("expected TypeError, got %v", e.Code())
	}
	if e.Error() == "" {
		t.Fatal("expected non-empty message")
	}
}

func TestWrapUnwrap(t *testing.T) {
	cause := errors.New("connection refused")
	e := x0derr.Wrap(x0derr.UpstreamError, "cluster.member", cause, "dial %s", "10.0.0.1:80")

	if !e.HasParent() {
		t.Fatal("expected parent to be set")
	}
	if errors.Unwrap(e) != cause {
		t.Fatal("expected Unwrap to return the wrapped cause")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	a := x0derr.New(x0derr.QueueTimeout, "cluster", "")
	b := x0derr.New(x0derr.QueueTimeout, "cluster", "different message")

	if !errors.Is(a, b) {
		t.Fatal("expected errors with the same code to match via errors.Is")
	}

	c := x0derr.New(x0derr.RetryExhausted, "cluster", "")
	if errors.Is(a, c) {
		t.Fatal("expected errors with different codes not to match")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[x0derr.CodeError]int{
		x0derr.UpstreamError:         503,
		x0derr.QueueTimeout:          504,
		x0derr.InternalRedirectLimit: 500,
	}
	for code, want := range cases {
		if got := code.HTTPStatus(); got != want {
			t.Errorf("code %v: expected status %d, got %d", code, want, got)
		}
	}
}

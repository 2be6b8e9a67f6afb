package reqctx_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/nabbar/x0d/reqctx"
)

func TestPushRedirectBound(t *testing.T) {
	req := httptest.NewRequest("GET", "/missing", nil)
	rec := httptest.NewRecorder()
	c := reqctx.New(context.Background(), req, rec, 3)

	for i := 0; i < 3; i++ {
		if !c.PushRedirect("/errors/404") {
			t.Fatalf("redirect %d should have been allowed", i)
		}
	}
	if c.PushRedirect("/errors/404") {
		t.Fatal("fourth redirect should have exceeded max_internal_redirect_count")
	}
	if c.RedirectCount() != 3 {
		t.Fatalf("expected count 3, got %d", c.RedirectCount())
	}
}

func TestCloseCancelsContext(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := reqctx.New(context.Background(), req, rec, 10)

	if c.IsDone() {
		t.Fatal("context should not be done before Close")
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !c.IsDone() {
		t.Fatal("context should be done after Close")
	}
	select {
	case <-c.Done():
	default:
		t.Fatal("Done() channel should be closed")
	}
}

func TestSetGet(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	c := reqctx.New(context.Background(), req, rec, 10)

	c.Set("regex.group.0", "matched")
	v, ok := c.Get("regex.group.0")
	if !ok || v != "matched" {
		t.Fatalf("expected matched, got %v ok=%v", v, ok)
	}
}

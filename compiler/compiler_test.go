package compiler_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/compiler"
	"github.com/nabbar/x0d/reqctx"
	"github.com/nabbar/x0d/runtime"
	"github.com/nabbar/x0d/source"
)

func newHost(t *testing.T) *builtin.Registry {
	t.Helper()
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	return reg
}

// TestCompileEchoEndToEnd drives the full lexer->parser->ir->passmgr->
// codegen->runtime pipeline over the scenario 2 worked example (§8):
// an interpolated string evaluated and echoed back.
func TestCompileEchoEndToEnd(t *testing.T) {
	src := source.FromString("t.flow", `var s = "hi #{1+2}"; handler setup {} handler main { echo s; }`)

	res, err := compiler.Compile(src, newHost(t), compiler.Options{OptLevel: 1})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Program == nil {
		t.Fatal("expected a non-nil runtime.Program")
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(context.Background(), req, rec, 10)
	defer rc.Close()

	runner, err := runtime.New(res.Program, rc, "main")
	if err != nil {
		t.Fatalf("runtime.New: %v", err)
	}
	if _, err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if got, want := rec.Body.String(), "hi 3\n"; got != want {
		t.Fatalf("expected body %q, got %q", want, got)
	}
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
}

// TestCompileOperatorTypeErrorFails exercises scenario 1 (§8): adding a
// Number to a String must fail to compile with a TypeError rather than
// reach IR building.
func TestCompileOperatorTypeErrorFails(t *testing.T) {
	src := source.FromString("t.flow", `handler main { if 1 + "a" then blank; }`)

	_, err := compiler.Compile(src, newHost(t), compiler.Options{})
	if err == nil {
		t.Fatal("expected a type error compiling `1 + \"a\"`")
	}
}

// TestCompileMatchHead exercises scenario 3 (§8): a match-head `=^` dispatch
// where the path /about takes the "/a" case by prefix.
func TestCompileMatchHead(t *testing.T) {
	src := source.FromString("t.flow", `handler setup {}
	handler main {
		match req.path =^ {
			on "/a" echo "A";
			on "/b" echo "B";
			else blank;
		}
	}`)

	res, err := compiler.Compile(src, newHost(t), compiler.Options{})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	req := httptest.NewRequest("GET", "/about", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(context.Background(), req, rec, 10)
	defer rc.Close()

	runner, err := runtime.New(res.Program, rc, "main")
	if err != nil {
		t.Fatalf("runtime.New: %v", err)
	}
	if _, err := runner.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.Code != 200 {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "A\n" {
		t.Fatalf("expected body %q from the \"/a\" case, got %q", "A\n", got)
	}
}

func TestCompileDumpToggles(t *testing.T) {
	src := source.FromString("t.flow", `handler setup {} handler main { echo "hi"; }`)

	res, err := compiler.Compile(src, newHost(t), compiler.Options{DumpAST: true, DumpIR: true, DumpTC: true})
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.ASTDump == "" {
		t.Error("expected a non-empty AST dump")
	}
	if res.IRDump == "" {
		t.Error("expected a non-empty IR dump")
	}
	if res.TCDump == "" {
		t.Error("expected a non-empty target-code dump")
	}
}

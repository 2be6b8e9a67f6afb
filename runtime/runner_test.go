package runtime_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/codegen"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/reqctx"
	"github.com/nabbar/x0d/runtime"
	"github.com/nabbar/x0d/source"
)

// buildEchoProgram hand-builds the IR a parser would produce for
// `handler main { echo "hi"; }` without going through the lexer/parser,
// exercising the same Builder -> Generate -> Link -> Runner pipeline the
// CLI drives.
func buildEchoProgram(t *testing.T) *ir.Program {
	t.Helper()
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	for _, name := range []string{"setup"} {
		sym := &ast.Symbol{Name: name, Kind: ast.SymHandler}
		u.Global.Declare(sym)
		node := u.AddNode(ast.NewCompound(span, nil))
		sym.Implement(node, span)
	}

	call := ast.NewCall(span, 0, "echo", []ast.Expression{
		ast.NewLiteral(span, ast.String, "hi"),
	}, ast.Void, ast.CallBuiltinHandler)
	body := ast.NewCompound(span, []ast.Statement{ast.NewExprStmt(span, call)})

	sym := &ast.Symbol{Name: "main", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(body)
	sym.Implement(node, span)

	b := ir.NewBuilder(source.NewReport())
	return b.Build(u)
}

func TestRunnerExecutesEchoHandler(t *testing.T) {
	prog := buildEchoProgram(t)
	cg := codegen.Generate(prog)

	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}

	diags := source.NewReport()
	if err := cg.Link(reg, diags); err != nil {
		t.Fatalf("Link: %v", err)
	}

	linked, err := runtime.NewProgram(cg, reg)
	if err != nil {
		t.Fatalf("NewProgram: %v", err)
	}

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	rc := reqctx.New(context.Background(), req, rec, 10)
	defer rc.Close()

	runner, err := runtime.New(linked, rc, "main")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	handled, err := runner.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !handled {
		t.Fatal("expected echo to report handled=true")
	}
	if got := rec.Body.String(); got != "hi\n" {
		t.Fatalf("expected body %q, got %q", "hi\n", got)
	}
}

package passmgr_test

import (
	"strings"
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/passmgr"
	"github.com/nabbar/x0d/source"
)

func buildMain(t *testing.T, body ast.Statement) (*ir.Program, *ir.Handler) {
	t.Helper()
	u := ast.NewUnit("t.flow")
	sym := &ast.Symbol{Name: "main", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(body)
	sym.Implement(node, source.Span{})

	b := ir.NewBuilder(source.NewReport())
	prog := b.Build(u)
	h, ok := prog.FindHandler("main")
	if !ok {
		t.Fatal("expected main handler")
	}
	return prog, h
}

func TestPatchMainReturnRewritesFallThrough(t *testing.T) {
	span := source.Span{}
	body := ast.NewCompound(span, []ast.Statement{
		ast.NewExprStmt(span, ast.NewLiteral(span, ast.Void, nil)),
	})
	prog, h := buildMain(t, body)

	passmgr.RunAll(prog, 0)

	found := false
	for _, b := range h.Blocks {
		term, ok := b.Terminator()
		if !ok {
			continue
		}
		if term.Op == ir.Ret {
			t.Fatalf("expected no bare Ret left after patch, found one in bb%d", b.ID)
		}
		if term.Op == ir.CallNoReturn && term.CalleeName == "return" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected a patched return(404,0) terminator somewhere in main")
	}
}

func TestInstrElimFoldsConstantArithmetic(t *testing.T) {
	span := source.Span{}
	lhs := ast.NewLiteral(span, ast.Number, int64(2))
	rhs := ast.NewLiteral(span, ast.Number, int64(3))
	sum := ast.NewBinary(span, ast.OpAdd, lhs, rhs, ast.Number)
	v := &ast.Symbol{Name: "x", Kind: ast.SymVariable, Type: ast.Number}

	u := ast.NewUnit("t.flow")
	u.Global.Declare(v)
	assign := ast.NewAssign(span, v.ID, "x", sum)
	sym := &ast.Symbol{Name: "main", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(ast.NewCompound(span, []ast.Statement{assign}))
	sym.Implement(node, span)

	b := ir.NewBuilder(source.NewReport())
	prog := b.Build(u)

	passmgr.RunAll(prog, 1)

	h, _ := prog.FindHandler("main")
	dump := h.Dump(prog)
	if !strings.Contains(dump, "store 5 g0") {
		t.Fatalf("expected folded constant operand in store, got:\n%s", dump)
	}
	for _, b := range h.Blocks {
		for _, in := range b.Instrs {
			if in.Op == ir.NAdd {
				t.Fatalf("expected constant addition to be folded away, found it in dump:\n%s", dump)
			}
		}
	}
}

func TestPassPipelineIsIdempotent(t *testing.T) {
	span := source.Span{}
	cond := ast.NewLiteral(span, ast.Boolean, true)
	thenBody := ast.NewCompound(span, []ast.Statement{
		ast.NewExprStmt(span, ast.NewLiteral(span, ast.Void, nil)),
	})
	body := ast.NewCompound(span, []ast.Statement{
		ast.NewCond(span, cond, false, thenBody, nil),
	})
	prog, h := buildMain(t, body)

	passmgr.RunAll(prog, 3)
	first := h.Dump(prog)

	m := passmgr.New(3)
	m.Run(prog, h)
	second := h.Dump(prog)

	if first != second {
		t.Fatalf("expected a second pass run to be a no-op\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

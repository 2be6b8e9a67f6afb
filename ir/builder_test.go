package ir_test

import (
	"strings"
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/source"
)

func TestBuildHandlerEveryBlockHasOneTerminator(t *testing.T) {
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	thenBody := ast.NewCompound(span, []ast.Statement{
		ast.NewExprStmt(span, ast.NewLiteral(span, ast.Void, nil)),
	})
	cond := ast.NewLiteral(span, ast.Boolean, true)
	body := ast.NewCompound(span, []ast.Statement{
		ast.NewCond(span, cond, false, thenBody, nil),
	})

	sym := &ast.Symbol{Name: "main", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(body)
	sym.Implement(node, span)

	b := ir.NewBuilder(source.NewReport())
	prog := b.Build(u)

	h, ok := prog.FindHandler("main")
	if !ok {
		t.Fatal("expected main handler to be built")
	}
	if len(h.Blocks) == 0 {
		t.Fatal("expected at least one block")
	}
	for _, blk := range h.Blocks {
		if _, ok := blk.Terminator(); !ok {
			t.Fatalf("block bb%d has no terminator", blk.ID)
		}
	}
}

func TestBuildGlobalLoadStore(t *testing.T) {
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	v := &ast.Symbol{Name: "x", Kind: ast.SymVariable, Type: ast.Number}
	u.Global.Declare(v)

	assign := ast.NewAssign(span, v.ID, "x", ast.NewLiteral(span, ast.Number, int64(42)))
	sym := &ast.Symbol{Name: "setup", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(ast.NewCompound(span, []ast.Statement{assign}))
	sym.Implement(node, span)

	b := ir.NewBuilder(source.NewReport())
	prog := b.Build(u)

	if len(prog.Globals) != 1 || prog.Globals[0].Name != "x" {
		t.Fatalf("expected global x to be declared, got %+v", prog.Globals)
	}

	h, _ := prog.FindHandler("setup")
	dump := h.Dump(prog)
	if !strings.Contains(dump, "store") {
		t.Fatalf("expected a store instruction in dump, got:\n%s", dump)
	}
}

func TestBuildMatchHeadLowersToComparisons(t *testing.T) {
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	subj := ast.NewLiteral(span, ast.String, "/about")
	caseA := ast.MatchCase{
		Labels: []ast.Expression{ast.NewLiteral(span, ast.String, "/a")},
		Body:   ast.NewExprStmt(span, ast.NewLiteral(span, ast.Void, nil)),
	}
	match := ast.NewMatch(span, subj, ast.Head, []ast.MatchCase{caseA}, nil)

	sym := &ast.Symbol{Name: "main", Kind: ast.SymHandler}
	u.Global.Declare(sym)
	node := u.AddNode(ast.NewCompound(span, []ast.Statement{match}))
	sym.Implement(node, span)

	b := ir.NewBuilder(source.NewReport())
	prog := b.Build(u)

	h, _ := prog.FindHandler("main")
	dump := h.Dump(prog)
	if !strings.Contains(dump, "s.head") {
		t.Fatalf("expected a head-match opcode in dump, got:\n%s", dump)
	}
}

package ast_test

import (
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/source"
)

func TestScopeShadowing(t *testing.T) {
	outer := ast.NewScope(nil)
	inner := ast.NewScope(outer)

	outer.Declare(&ast.Symbol{Name: "x", Kind: ast.SymVariable, Type: ast.Number})
	inner.Declare(&ast.Symbol{Name: "x", Kind: ast.SymVariable, Type: ast.String})

	sym, ok := inner.Lookup("x", ast.Self)
	if !ok || sym.Type != ast.String {
		t.Fatalf("expected inner-scope string x, got %+v ok=%v", sym, ok)
	}

	sym, ok = inner.Lookup("x", ast.All)
	if !ok || sym.Type != ast.String {
		t.Fatalf("All lookup should still hit the nearest shadowing symbol")
	}

	_, ok = outer.Lookup("x", ast.Self)
	if !ok {
		t.Fatal("outer scope should retain its own x")
	}
}

func TestDeclareRejectsDuplicateInSameScope(t *testing.T) {
	s := ast.NewScope(nil)
	if !s.Declare(&ast.Symbol{Name: "main", Kind: ast.SymHandler}) {
		t.Fatal("first declare should succeed")
	}
	if s.Declare(&ast.Symbol{Name: "main", Kind: ast.SymHandler}) {
		t.Fatal("duplicate declare in the same scope should fail")
	}
}

func TestForwardDeclareThenImplement(t *testing.T) {
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	sym := u.Global.ForwardDeclareHandler("helper", span)
	if sym.Defined {
		t.Fatal("forward-declared handler must start undefined")
	}
	if len(u.Unimplemented()) != 1 {
		t.Fatalf("expected 1 unimplemented handler, got %v", u.Unimplemented())
	}

	node := u.AddNode(ast.NewCompound(span, nil))
	if !sym.Implement(node, span) {
		t.Fatal("Implement should succeed the first time")
	}
	if len(u.Unimplemented()) != 0 {
		t.Fatal("handler should no longer be unimplemented")
	}
	if sym.Implement(node, span) {
		t.Fatal("re-implementing an already-defined handler must fail")
	}
}

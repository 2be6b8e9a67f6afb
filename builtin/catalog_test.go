package builtin_test

import (
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
)

func TestCatalogResolveExactMatch(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	cat := builtin.NewCatalog(reg)

	id, sig, ok := cat.Resolve("echo", []ast.LiteralType{ast.String})
	if !ok {
		t.Fatal("expected echo(string) to resolve")
	}
	if id == 0 {
		t.Fatal("expected a non-zero SymbolID")
	}
	if len(sig.ArgTypes) != 1 || sig.ArgTypes[0] != ast.String {
		t.Fatalf("unexpected signature: %+v", sig)
	}
}

func TestCatalogResolveStableIDPerName(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	cat := builtin.NewCatalog(reg)

	id1, _, ok := cat.Resolve("blank", nil)
	if !ok {
		t.Fatal("expected blank() to resolve")
	}
	id2, _, ok := cat.Resolve("blank", nil)
	if !ok {
		t.Fatal("expected blank() to resolve a second time")
	}
	if id1 != id2 {
		t.Fatalf("expected the same SymbolID across calls, got %v and %v", id1, id2)
	}
}

func TestCatalogResolveRejectsWrongArity(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	cat := builtin.NewCatalog(reg)

	if _, _, ok := cat.Resolve("echo", nil); ok {
		t.Fatal("expected echo() with no arguments to fail to resolve")
	}
	if _, _, ok := cat.Resolve("echo", []ast.LiteralType{ast.Number}); ok {
		t.Fatal("expected echo(number) to fail to resolve")
	}
}

func TestCatalogResolveVariadicProxyCluster(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	cat := builtin.NewCatalog(reg)

	// proxy.cluster NAME[, PATH, BUCKET, BACKEND] — one required String,
	// then zero to three more, all String (§6).
	for n := 1; n <= 4; n++ {
		argTypes := make([]ast.LiteralType, n)
		for i := range argTypes {
			argTypes[i] = ast.String
		}
		if _, _, ok := cat.Resolve("proxy.cluster", argTypes); !ok {
			t.Fatalf("expected proxy.cluster with %d string args to resolve", n)
		}
	}

	if _, _, ok := cat.Resolve("proxy.cluster", nil); ok {
		t.Fatal("expected proxy.cluster() with no arguments (missing required NAME) to fail to resolve")
	}
	if _, _, ok := cat.Resolve("proxy.cluster", []ast.LiteralType{ast.Number}); ok {
		t.Fatal("expected proxy.cluster(number) to fail to resolve")
	}
}

func TestCatalogIsHandler(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}
	cat := builtin.NewCatalog(reg)

	if !cat.IsHandler("echo") {
		t.Fatal("expected echo to be a handler")
	}
	if cat.IsHandler("sys.env") {
		t.Fatal("expected sys.env to not be a handler")
	}
	if cat.IsHandler("no.such.builtin") {
		t.Fatal("expected an unregistered name to not be a handler")
	}
}

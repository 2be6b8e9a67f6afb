package builtin_test

import (
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
)

func noop(p *builtin.Params) (builtin.Value, error) { return builtin.Bool(true), nil }

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	reg := builtin.NewRegistry(false)
	sig := builtin.Signature{Name: "echo", Kind: builtin.KindHandler, ArgTypes: []ast.LiteralType{ast.String}}

	if err := reg.Register(sig, noop, nil); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := reg.Register(sig, noop, nil); err == nil {
		t.Fatal("expected an error registering \"echo\" twice")
	}
}

func TestRegistryLookupUnknownName(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if _, _, _, err := reg.Lookup("no.such.builtin"); err == nil {
		t.Fatal("expected an error looking up an unregistered name")
	}
}

func TestRegistryExperimentalGating(t *testing.T) {
	sig := builtin.Signature{Name: "exp.thing", Kind: builtin.KindFunction, Experimental: true, ReturnType: ast.Boolean}

	closed := builtin.NewRegistry(false)
	if err := closed.Register(sig, noop, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, _, err := closed.Lookup("exp.thing"); err == nil {
		t.Fatal("expected experimental builtin to be rejected without opt-in")
	}

	open := builtin.NewRegistry(true)
	if err := open.Register(sig, noop, nil); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, _, err := open.Lookup("exp.thing"); err != nil {
		t.Fatalf("expected experimental builtin to resolve with opt-in: %v", err)
	}
}

func TestRegisterStdlibPopulatesTheIllustrativeSurface(t *testing.T) {
	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}

	for _, name := range []string{"echo", "blank", "return", "redirect", "docroot", "proxy.cluster", "sys.env"} {
		if _, _, _, err := reg.Lookup(name); err != nil {
			t.Errorf("expected %q to be registered: %v", name, err)
		}
	}
}

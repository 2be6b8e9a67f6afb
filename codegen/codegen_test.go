package codegen_test

import (
	"strings"
	"testing"

	"github.com/nabbar/x0d/ast"
	"github.com/nabbar/x0d/builtin"
	"github.com/nabbar/x0d/codegen"
	"github.com/nabbar/x0d/ir"
	"github.com/nabbar/x0d/source"
)

func buildSetupMainProgram(t *testing.T) *ir.Program {
	t.Helper()
	u := ast.NewUnit("t.flow")
	span := source.Span{}

	for _, name := range []string{"setup", "main"} {
		sym := &ast.Symbol{Name: name, Kind: ast.SymHandler}
		u.Global.Declare(sym)
		node := u.AddNode(ast.NewCompound(span, nil))
		sym.Implement(node, span)
	}

	b := ir.NewBuilder(source.NewReport())
	return b.Build(u)
}

func TestGenerateKeepsSetupAndMainHandlers(t *testing.T) {
	prog := buildSetupMainProgram(t)
	out := codegen.Generate(prog)

	if _, ok := out.FindHandler("setup"); !ok {
		t.Fatal("expected setup handler to survive lowering")
	}
	if _, ok := out.FindHandler("main"); !ok {
		t.Fatal("expected main handler to survive lowering")
	}
}

func TestLinkFailsOnUnresolvedNative(t *testing.T) {
	prog := buildSetupMainProgram(t)
	out := codegen.Generate(prog)

	h, _ := out.FindHandler("main")
	h.Code = append(h.Code, codegen.Instr{
		Op:         ir.CallFunc,
		CalleeName: "does.not.exist",
		Callee:     -1,
	})

	reg := builtin.NewRegistry(false)
	diags := source.NewReport()
	err := out.Link(reg, diags)
	if err == nil {
		t.Fatal("expected Link to fail on unresolved native call")
	}
	if !strings.Contains(err.Error(), "unresolved native call") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLinkFoldsConstantSysEnv(t *testing.T) {
	prog := buildSetupMainProgram(t)
	out := codegen.Generate(prog)

	reg := builtin.NewRegistry(false)
	if err := builtin.RegisterStdlib(reg, nil); err != nil {
		t.Fatalf("RegisterStdlib: %v", err)
	}

	h, _ := out.FindHandler("main")
	arg := ir.ConstStr(out.Consts, "X0D_TEST_VAR")
	h.Code = append(h.Code, codegen.Instr{
		Op:         ir.CallFunc,
		Result:     ir.Value{Kind: ir.ValTemp, Type: ast.String, Idx: 0},
		Args:       []ir.Value{arg},
		CalleeName: "sys.env",
		Callee:     -1,
	})

	diags := source.NewReport()
	if err := out.Link(reg, diags); err != nil {
		t.Fatalf("Link: %v", err)
	}
	if h.Code[len(h.Code)-1].Folded == nil {
		t.Fatal("expected sys.env call with a constant argument to fold")
	}
}

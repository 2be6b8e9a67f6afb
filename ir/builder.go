/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package ir

import (
	"github.com/nabbar/x0d/ast"
	x0derr "github.com/nabbar/x0d/errors"
	"github.com/nabbar/x0d/source"
)

// Builder lowers a type-checked ast.Unit into an ir.Program: one Handler
// per Flow handler with a body, plus a Global slot per top-level `var`.
// It holds the insertion point (current BasicBlock) and a fresh-temp
// counter, exactly as §4.3 describes the IR Builder's responsibilities.
type Builder struct {
	report *source.Report
	prog   *Program

	globalSlot map[string]int

	h        *Handler
	cur      *BasicBlock
	nextTemp int
}

func NewBuilder(report *source.Report) *Builder {
	return &Builder{
		report:     report,
		prog:       NewProgram(),
		globalSlot: make(map[string]int),
	}
}

func (b *Builder) errorf(span source.Span, format string, args ...interface{}) {
	b.report.Add(x0derr.TypeError, span, format, args...)
}

// Build lowers every global `var` and every defined Handler in unit. It
// returns the resulting Program regardless of diagnostics; callers must
// check report.HasErrors() before proceeding to the pass manager.
func (b *Builder) Build(unit *ast.Unit) *Program {
	for _, sym := range unit.Global.Symbols() {
		if sym.Kind == ast.SymVariable {
			b.declareGlobal(unit, sym)
		}
	}
	for _, sym := range unit.Handlers() {
		if !sym.Defined {
			continue // reported as a LinkError by the parser's Unimplemented check
		}
		b.buildHandler(unit, sym)
	}
	return b.prog
}

func (b *Builder) declareGlobal(unit *ast.Unit, sym *ast.Symbol) {
	slot := len(b.prog.Globals)
	b.globalSlot[sym.Name] = slot
	b.prog.Globals = append(b.prog.Globals, Global{Name: sym.Name, Type: sym.Type})
	// The initializer isn't reachable off the Symbol (parser only stores
	// handler bodies in the node arena); globals without a recoverable
	// initializer expression default to their type's zero value, which is
	// what an uninitialized register already reads as in the Runner.
	_ = unit
}

func (b *Builder) globalSlotOf(name string) (int, bool) {
	s, ok := b.globalSlot[name]
	return s, ok
}

func (b *Builder) buildHandler(unit *ast.Unit, sym *ast.Symbol) {
	h := &Handler{Name: sym.Name}
	b.h = h
	b.nextTemp = 0
	entry := h.NewBlock()
	h.Entry = entry.ID
	b.cur = entry

	body := unit.Node(sym.Node)
	if body != nil {
		b.lowerStmt(body)
	}
	b.terminateFallthrough(sym.Span)

	b.prog.AddHandler(h)
}

// terminateFallthrough ensures the current block ends in a terminator; a
// handler body that falls off the end returns false ("not handled"),
// which is always a valid (if unhelpful) Ret — the final patch pass
// rewrites `main`'s untouched exits to `return(404,0)` instead (§4.4).
func (b *Builder) terminateFallthrough(span source.Span) {
	if _, ok := b.cur.Terminator(); ok {
		return
	}
	b.emitTerm(Instr{Op: Ret, Args: []Value{ConstBool(false)}})
}

func (b *Builder) freshTemp(t ast.LiteralType) Value {
	v := Value{Kind: ValTemp, Type: t, Idx: b.nextTemp}
	b.nextTemp++
	return v
}

// emit appends a non-terminator instruction to the current block and
// returns its Result (ValInvalid if the opcode produces none).
func (b *Builder) emit(in Instr) Value {
	b.cur.Instrs = append(b.cur.Instrs, in)
	return in.Result
}

// emitTerm appends a terminator and seals the current block; callers must
// switch the insertion point to a new block afterward if they intend to
// emit more code into this Handler.
func (b *Builder) emitTerm(in Instr) {
	b.cur.Instrs = append(b.cur.Instrs, in)
}

func (b *Builder) setTargets(blockWithTerm *BasicBlock, targets ...int) {
	idx := len(blockWithTerm.Instrs) - 1
	blockWithTerm.Instrs[idx].Targets = targets
	for _, t := range targets {
		tb := b.h.Block(t)
		tb.Preds = append(tb.Preds, blockWithTerm.ID)
	}
}

// --- Statements ---------------------------------------------------------

func (b *Builder) lowerStmt(s ast.Statement) {
	switch n := s.(type) {
	case *ast.Compound:
		for _, inner := range n.Body {
			if _, ok := b.cur.Terminator(); ok {
				return // dead code after an already-sealed block (e.g. after return)
			}
			b.lowerStmt(inner)
		}
	case *ast.Cond:
		b.lowerCond(n)
	case *ast.Match:
		b.lowerMatch(n)
	case *ast.Assign:
		b.lowerAssign(n)
	case *ast.ExprStmt:
		b.lowerExpr(n.Expr)
	default:
		b.errorf(s.Span(), "ir: unhandled statement kind %T", s)
	}
}

func (b *Builder) lowerCond(n *ast.Cond) {
	cond := b.lowerExpr(n.Expr)
	if n.Unless {
		cond = b.emit1(BNot, ast.Boolean, cond)
	}

	thenBB := b.h.NewBlock()
	var elseBB *BasicBlock
	joinBB := b.h.NewBlock()

	if n.Else != nil {
		elseBB = b.h.NewBlock()
	}

	entryBB := b.cur
	if n.Else != nil {
		b.emitTerm(Instr{Op: CondBr, Args: []Value{cond}})
		b.setTargets(entryBB, thenBB.ID, elseBB.ID)
	} else {
		b.emitTerm(Instr{Op: CondBr, Args: []Value{cond}})
		b.setTargets(entryBB, thenBB.ID, joinBB.ID)
	}

	b.cur = thenBB
	b.lowerStmt(n.Then)
	if _, ok := b.cur.Terminator(); !ok {
		b.emitTerm(Instr{Op: Br})
		b.setTargets(b.cur, joinBB.ID)
	}

	if n.Else != nil {
		b.cur = elseBB
		b.lowerStmt(n.Else)
		if _, ok := b.cur.Terminator(); !ok {
			b.emitTerm(Instr{Op: Br})
			b.setTargets(b.cur, joinBB.ID)
		}
	}

	b.cur = joinBB
}

// lowerMatch lowers `match expr op { on labels stmt; ... else stmt; }` as
// a chain of per-case comparisons, each reusing the opcode the case's
// MatchOp selects (equality, prefix, suffix, or regex), short-circuiting
// to the matching case's block on the first true label.
func (b *Builder) lowerMatch(n *ast.Match) {
	subject := b.lowerExpr(n.Expr)
	joinBB := b.h.NewBlock()

	elseBB := b.h.NewBlock()

	for _, c := range n.Cases {
		caseBB := b.h.NewBlock()
		nextBB := b.h.NewBlock()

		var any Value
		for i, label := range c.Labels {
			lv := b.lowerExpr(label)
			cmp := b.matchCompare(n.Op, subject, lv)
			if i == 0 {
				any = cmp
			} else {
				any = b.emit1bin(BOr, ast.Boolean, any, cmp)
			}
		}
		entry := b.cur
		b.emitTerm(Instr{Op: CondBr, Args: []Value{any}})
		b.setTargets(entry, caseBB.ID, nextBB.ID)

		b.cur = caseBB
		b.lowerStmt(c.Body)
		if _, ok := b.cur.Terminator(); !ok {
			b.emitTerm(Instr{Op: Br})
			b.setTargets(b.cur, joinBB.ID)
		}

		b.cur = nextBB
	}

	entry := b.cur
	b.emitTerm(Instr{Op: Br})
	b.setTargets(entry, elseBB.ID)

	b.cur = elseBB
	if n.Else != nil {
		b.lowerStmt(n.Else)
	}
	if _, ok := b.cur.Terminator(); !ok {
		b.emitTerm(Instr{Op: Br})
		b.setTargets(b.cur, joinBB.ID)
	}

	b.cur = joinBB
}

func (b *Builder) matchCompare(op ast.MatchOp, subject, label Value) Value {
	switch op {
	case ast.Same:
		switch subject.Type {
		case ast.Number:
			diff := b.emit1bin(NSub, ast.Number, subject, label)
			neq := b.emit1(NCmpz, ast.Boolean, diff)
			return b.emit1(BNot, ast.Boolean, neq)
		default:
			return b.emit1bin(SCmpEq, ast.Boolean, subject, label)
		}
	case ast.Head:
		return b.emit1bin(SHeadMatch, ast.Boolean, subject, label)
	case ast.Tail:
		return b.emit1bin(STailMatch, ast.Boolean, subject, label)
	case ast.RegExpMatch:
		return b.emit1bin(SRegexMatch, ast.Boolean, subject, label)
	default:
		return ConstBool(false)
	}
}

func (b *Builder) lowerAssign(n *ast.Assign) {
	v := b.lowerExpr(n.Value)
	slot, ok := b.globalSlotOf(n.Name)
	if !ok {
		b.errorf(n.Span(), "ir: assignment to unknown global %q", n.Name)
		return
	}
	b.emit(Instr{Op: Store, Local: slot, Args: []Value{v}})
}

// --- Expressions ---------------------------------------------------------

func (b *Builder) lowerExpr(e ast.Expression) Value {
	switch n := e.(type) {
	case *ast.Literal:
		return b.lowerLiteral(n)
	case *ast.VariableRef:
		slot, ok := b.globalSlotOf(n.Name)
		if !ok {
			b.errorf(n.Span(), "ir: reference to unknown global %q", n.Name)
			return ConstBool(false)
		}
		return b.emit1load(n.Type(), slot)
	case *ast.HandlerRef:
		// A bare handler reference used as a value (passed to a builtin
		// expecting a callback) carries no runtime representation beyond
		// its symbol id; the Runner loads it as a plain Handler-typed value.
		return Value{Kind: ValConst, Type: ast.Handler, Idx: int(n.Symbol)}
	case *ast.Call:
		return b.lowerCall(n)
	case *ast.Unary:
		return b.lowerUnary(n)
	case *ast.Binary:
		return b.lowerBinary(n)
	case *ast.Array:
		return b.lowerArray(n)
	default:
		b.errorf(e.Span(), "ir: unhandled expression kind %T", e)
		return ConstBool(false)
	}
}

func (b *Builder) lowerLiteral(n *ast.Literal) Value {
	switch n.Type() {
	case ast.Number:
		return ConstNum(b.prog.Consts, n.Value.(int64))
	case ast.Boolean:
		return ConstBool(n.Value.(bool))
	case ast.String:
		return ConstStr(b.prog.Consts, n.Value.(string))
	case ast.IPAddress:
		return ConstIP(b.prog.Consts, n.Value.(string))
	case ast.Cidr:
		return ConstCidr(b.prog.Consts, n.Value.(string))
	case ast.RegExp:
		return ConstRegex(b.prog.Consts, n.Value.(string))
	default:
		b.errorf(n.Span(), "ir: unsupported literal type %s", n.Type())
		return ConstBool(false)
	}
}

func (b *Builder) lowerArray(n *ast.Array) Value {
	// Array literals are materialized as a builtin-style construction
	// sequence: each element is lowered for its side-effect-free value and
	// concatenated via ArrConcat onto a fresh empty array of the element
	// type. There is no literal array constant pool entry (§4.3 only
	// dedups scalar constants), so a fresh temp per literal is correct.
	elemArrType, _ := ast.ArrayTypeOf(n.ElemType)
	empty := b.freshTemp(elemArrType)
	b.emit(Instr{Op: ArrEmpty, Result: empty})
	acc := empty
	for _, el := range n.Elements {
		v := b.lowerExpr(el)
		res := b.freshTemp(elemArrType)
		b.emit(Instr{Op: ArrConcat, Result: res, Args: []Value{acc, v}})
		acc = res
	}
	return acc
}

func (b *Builder) lowerCall(n *ast.Call) Value {
	args := make([]Value, len(n.Params))
	for i, p := range n.Params {
		args[i] = b.lowerExpr(p)
	}

	// `return(status, override)` is the no-return builtin described in
	// §4.6 "Internal redirects"; it always terminates the block.
	if n.Name == "return" {
		b.emitTerm(Instr{Op: CallNoReturn, Args: args, Callee: n.Callee, CalleeName: n.Name})
		// No successors: control never returns into Flow bytecode; the
		// Runner re-enters `main`'s entry on an internal redirect instead.
		dead := b.h.NewBlock()
		b.cur = dead
		return ConstBool(true)
	}

	switch n.Kind {
	case ast.CallBuiltinHandler, ast.CallUserHandler:
		// Handler-call semantics (§4.3): the result is "did it handle and
		// terminate the request"; true short-circuits to an immediate Ret.
		op := InvokeHandler
		if n.Kind == ast.CallUserHandler {
			op = CallHandler
		}
		res := b.freshTemp(ast.Boolean)
		b.emit(Instr{Op: op, Result: res, Args: args, Callee: n.Callee, CalleeName: n.Name})
		return b.lowerHandlerCallResult(res)
	default:
		res := b.freshTemp(n.Type())
		b.emit(Instr{Op: CallFunc, Result: res, Args: args, Callee: n.Callee, CalleeName: n.Name})
		return res
	}
}

// lowerHandlerCallResult implements the IR-time cond-branch described in
// §4.3: `if result then return(true) else continue`.
func (b *Builder) lowerHandlerCallResult(result Value) Value {
	doneBB := b.h.NewBlock()
	contBB := b.h.NewBlock()

	entry := b.cur
	b.emitTerm(Instr{Op: CondBr, Args: []Value{result}})
	b.setTargets(entry, doneBB.ID, contBB.ID)

	b.cur = doneBB
	b.emitTerm(Instr{Op: Ret, Args: []Value{ConstBool(true)}})

	b.cur = contBB
	return result
}

func (b *Builder) lowerUnary(n *ast.Unary) Value {
	sub := b.lowerExpr(n.Sub)
	switch n.Op {
	case ast.OpNeg:
		return b.emit1(NNeg, ast.Number, sub)
	case ast.OpNot:
		return b.emit1(BNot, ast.Boolean, sub)
	case ast.OpBitNot:
		return b.emit1bin(NXor, ast.Number, sub, ConstNum(b.prog.Consts, -1)) // two's-complement not: ~x == x ^ -1
	case ast.OpCastInt:
		return b.emit1(CvtStrToNum, ast.Number, sub)
	case ast.OpCastBool:
		return b.emit1(NCmpz, ast.Boolean, sub)
	case ast.OpCastString:
		return b.emit1(convForString(n.Sub.Type()), ast.String, sub)
	default:
		b.errorf(n.Span(), "ir: unhandled unary op %v", n.Op)
		return ConstBool(false)
	}
}

func convForString(src ast.LiteralType) Opcode {
	switch src {
	case ast.Number:
		return CvtNumToStr
	case ast.Boolean:
		return CvtBoolToStr
	case ast.IPAddress:
		return CvtIPToStr
	case ast.Cidr:
		return CvtCidrToStr
	case ast.RegExp:
		return CvtRegexToStr
	default:
		return CvtNumToStr
	}
}

var binaryOpcode = map[ast.BinaryOp]map[ast.LiteralType]Opcode{
	ast.OpAdd: {ast.Number: NAdd, ast.String: SCat},
	ast.OpSub: {ast.Number: NSub},
	ast.OpMul: {ast.Number: NMul},
	ast.OpDiv: {ast.Number: NDiv},
	ast.OpMod: {ast.Number: NRem},
	ast.OpPow: {ast.Number: NPow},
	ast.OpShl: {ast.Number: NShl},
	ast.OpShr: {ast.Number: NLshr},
	ast.OpBitAnd: {ast.Number: NAnd},
	ast.OpBitOr:  {ast.Number: NOr},
	ast.OpBitXor: {ast.Number: NXor},
	ast.OpAnd: {ast.Boolean: BAnd},
	ast.OpOr:  {ast.Boolean: BOr},
	ast.OpXor: {ast.Boolean: BXor},
	ast.OpPrefixMatch: {ast.String: SHeadMatch},
	ast.OpSuffixMatch: {ast.String: STailMatch},
	ast.OpRegexMatch:  {ast.String: SRegexMatch},
}

func (b *Builder) lowerBinary(n *ast.Binary) Value {
	lhs := b.lowerExpr(n.LHS)
	rhs := b.lowerExpr(n.RHS)

	if byType, ok := binaryOpcode[n.Op]; ok {
		if op, ok := byType[n.LHS.Type()]; ok {
			return b.emit1bin(op, n.Type(), lhs, rhs)
		}
	}

	switch n.Op {
	case ast.OpEq, ast.OpNe, ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return b.lowerCompare(n.Op, n.LHS.Type(), lhs, rhs)
	case ast.OpIn:
		return b.lowerIn(n.LHS.Type(), n.RHS.Type(), lhs, rhs)
	default:
		b.errorf(n.Span(), "ir: unhandled binary op %v", n.Op)
		return ConstBool(false)
	}
}

func (b *Builder) lowerCompare(op ast.BinaryOp, lhsType ast.LiteralType, lhs, rhs Value) Value {
	switch lhsType {
	case ast.Number:
		diff := b.emit1bin(NSub, ast.Number, lhs, rhs)
		switch op {
		case ast.OpEq:
			return b.emit1(BNot, ast.Boolean, b.emit1(NCmpz, ast.Boolean, diff))
		case ast.OpNe:
			return b.emit1(NCmpz, ast.Boolean, diff)
		default:
			// <, <=, >, >= reuse the string-ordering opcodes on the
			// operands themselves; the runtime (evalPure) compares Number
			// operands of those opcodes numerically.
			return b.emit1bin(numCompareOpcode(op), ast.Boolean, lhs, rhs)
		}
	default: // String
		return b.emit1bin(strCompareOpcode(op), ast.Boolean, lhs, rhs)
	}
}

func numCompareOpcode(op ast.BinaryOp) Opcode {
	// Reuses the string-comparison opcode family: its runtime semantics
	// for Number operands is numeric ordering, chosen at run time from the
	// operand type.
	switch op {
	case ast.OpLt:
		return SCmpLt
	case ast.OpLe:
		return SCmpLe
	case ast.OpGt:
		return SCmpGt
	case ast.OpGe:
		return SCmpGe
	default:
		return SCmpEq
	}
}

func strCompareOpcode(op ast.BinaryOp) Opcode {
	switch op {
	case ast.OpEq:
		return SCmpEq
	case ast.OpNe:
		return SCmpNe
	case ast.OpLt:
		return SCmpLt
	case ast.OpLe:
		return SCmpLe
	case ast.OpGt:
		return SCmpGt
	case ast.OpGe:
		return SCmpGe
	default:
		return SCmpEq
	}
}

func (b *Builder) lowerIn(lhsType, rhsType ast.LiteralType, lhs, rhs Value) Value {
	switch {
	case lhsType == ast.IPAddress && rhsType == ast.Cidr:
		return b.emit1bin(IPInCidr, ast.Boolean, lhs, rhs)
	case lhsType == ast.Cidr && rhsType == ast.Cidr:
		return b.emit1bin(CidrInCidr, ast.Boolean, lhs, rhs)
	default:
		return b.emit1bin(ArrContains, ast.Boolean, lhs, rhs)
	}
}

func (b *Builder) emit1(op Opcode, resType ast.LiteralType, a Value) Value {
	res := b.freshTemp(resType)
	b.emit(Instr{Op: op, Result: res, Args: []Value{a}})
	return res
}

func (b *Builder) emit1bin(op Opcode, resType ast.LiteralType, a, c Value) Value {
	res := b.freshTemp(resType)
	b.emit(Instr{Op: op, Result: res, Args: []Value{a, c}})
	return res
}

func (b *Builder) emit1load(t ast.LiteralType, slot int) Value {
	res := b.freshTemp(t)
	b.emit(Instr{Op: Load, Result: res, Local: slot})
	return res
}

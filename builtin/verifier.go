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

package builtin

// ConstArg is one constant-folded argument a Verifier inspects: whether it
// was a compile-time constant, and if so, its value.
type ConstArg struct {
	IsConst bool
	Value   Value
}

// VerifyResult lets a Verifier replace a call with a pre-computed constant
// (link-time folding, §4.6 "Native-call ABI": "sys.env('X') ... replacing
// it with a load of a constant string") instead of leaving it as a runtime
// dispatch. Folded is false when the verifier has nothing to fold (the
// common case) and the call proceeds as an ordinary native call.
type VerifyResult struct {
	Folded bool
	Value  Value

	// Err, when non-nil, fails the link (e.g. a builtin that statically
	// rejects its constant argument — out of range, malformed).
	Err error
}

// Verifier inspects a call's constant operands at link time and may
// request constant-folding. name is the builtin's own name (useful when
// one Verifier implementation is shared across several registrations).
type Verifier func(name string, args []ConstArg) VerifyResult

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

package ast

import (
	"fmt"
	"strings"
)

// Dump renders the Unit's global scope as a flat listing of variables and
// handlers, the `--dump-ast` CLI toggle's output (§6, §12 supplement: the
// other two toggles, `dump-ir`/`dump-tc`, render the IR and the linked
// Program and already have full disassemblers; this is the AST-stage
// counterpart). It is a symbol-table summary rather than a tree-printer,
// since the arena's node indices carry no parent/child shape a reader would
// recognize as "the AST" beyond the statement each handler owns.
func (u *Unit) Dump() string {
	var sb strings.Builder
	sb.WriteString("unit {\n")
	for _, sym := range u.Global.Symbols() {
		switch sym.Kind {
		case SymVariable:
			fmt.Fprintf(&sb, "  var %s: %s\n", sym.Name, sym.Type)
		case SymHandler:
			status := "forward-declared"
			if sym.Defined {
				status = "defined"
			}
			fmt.Fprintf(&sb, "  handler %s (%s)\n", sym.Name, status)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

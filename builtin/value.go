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

import (
	"fmt"
	"net"
	"regexp"

	"github.com/nabbar/x0d/ast"
)

// Value is the runtime ABI's data carrier: a tagged union over the closed
// literal-type set (§3 DATA MODEL), used both as register contents in the
// Runner and as the argument/result type every builtin exchanges with it.
// This is the "Value variants over the literal types plus handle pointers"
// the Runner's register file is specified to hold (§4.6).
type Value struct {
	Type ast.LiteralType

	Num  int64
	Str  string
	IP   net.IP
	Cidr *net.IPNet
	Rx   *regexp.Regexp

	Ints   []int64
	Strs   []string
	IPs    []net.IP
	Cidrs  []*net.IPNet
}

func Void() Value                  { return Value{Type: ast.Void} }
func Bool(b bool) Value            { if b { return Value{Type: ast.Boolean, Num: 1} }; return Value{Type: ast.Boolean} }
func Number(n int64) Value         { return Value{Type: ast.Number, Num: n} }
func String(s string) Value        { return Value{Type: ast.String, Str: s} }
func IPAddr(ip net.IP) Value       { return Value{Type: ast.IPAddress, IP: ip} }
func CidrVal(c *net.IPNet) Value   { return Value{Type: ast.Cidr, Cidr: c} }
func Regex(r *regexp.Regexp) Value { return Value{Type: ast.RegExp, Rx: r} }
func IntArray(v []int64) Value     { return Value{Type: ast.IntArray, Ints: v} }
func StringArray(v []string) Value { return Value{Type: ast.StringArray, Strs: v} }
func IPArray(v []net.IP) Value     { return Value{Type: ast.IPAddrArray, IPs: v} }
func CidrArray(v []*net.IPNet) Value { return Value{Type: ast.CidrArray, Cidrs: v} }

// IsTrue implements Boolean truthiness for Value{Type: ast.Boolean}.
func (v Value) IsTrue() bool { return v.Type == ast.Boolean && v.Num != 0 }

func (v Value) String() string {
	switch v.Type {
	case ast.Void:
		return "<void>"
	case ast.Boolean:
		return fmt.Sprintf("%v", v.Num != 0)
	case ast.Number:
		return fmt.Sprintf("%d", v.Num)
	case ast.String:
		return v.Str
	case ast.IPAddress:
		return v.IP.String()
	case ast.Cidr:
		return v.Cidr.String()
	case ast.RegExp:
		return v.Rx.String()
	default:
		return fmt.Sprintf("%s(%v)", v.Type, v.Num)
	}
}

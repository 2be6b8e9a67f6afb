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

package source

import (
	"fmt"
	"os"
)

// Stream is a single re-entrant input, either a file or an in-memory
// string, tracked by name for diagnostics.
type Stream struct {
	Name string
	Text string
}

// FromString builds a Stream over an in-memory string (e.g. a config
// fragment handed in by -e, or an included snippet).
func FromString(name, text string) *Stream {
	return &Stream{Name: name, Text: text}
}

// FromFile reads path fully into memory; Flow configs are small enough
// that streaming the source isn't worth the complexity.
func FromFile(path string) (*Stream, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: reading %s: %w", path, err)
	}
	return &Stream{Name: path, Text: string(b)}, nil
}

// Chain represents a resolved include chain: the root stream plus any
// streams pulled in transitively by `import ... from "..."` or a future
// `include` directive. Kept as a flat slice (not a tree) since only the
// root stream is ever re-entered (imports register builtins, they don't
// textually splice Flow source back into the parser).
type Chain struct {
	Root     *Stream
	Included []*Stream
}

func NewChain(root *Stream) *Chain {
	return &Chain{Root: root}
}

func (c *Chain) Include(s *Stream) {
	c.Included = append(c.Included, s)
}

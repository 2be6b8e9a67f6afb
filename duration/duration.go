/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
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

// Package duration provides the fixed integer multiplier tables the Flow
// lexer applies to numeric literals carrying a unit suffix (§4.1), plus a
// time.Duration-compatible type used anywhere x0d config needs a
// human-writable duration ("30s", "5m", "2h").
package duration

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration with config-friendly (un)marshalling.
type Duration time.Duration

func (d Duration) Time() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// Parse accepts both Go's native duration syntax ("30s") and the bare
// numeric-with-suffix syntax the Flow lexer recognizes ("30sec").
func Parse(s string) (Duration, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"'`)

	if v, err := time.ParseDuration(s); err == nil {
		return Duration(v), nil
	}

	n, unit, err := splitNumberUnit(s)
	if err != nil {
		return 0, err
	}
	mult, ok := TimeUnit(unit)
	if !ok {
		return 0, fmt.Errorf("duration: unknown unit %q", unit)
	}
	return Duration(n * mult), nil
}

func splitNumberUnit(s string) (int64, string, error) {
	i := 0
	for i < len(s) && (s[i] == '-' || (s[i] >= '0' && s[i] <= '9')) {
		i++
	}
	if i == 0 {
		return 0, "", fmt.Errorf("duration: %q has no numeric prefix", s)
	}
	n, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil {
		return 0, "", err
	}
	return n, strings.TrimSpace(s[i:]), nil
}

// TimeUnit returns the fixed integer nanosecond multiplier for a Flow
// lexer time-unit suffix, per §4.1.
func TimeUnit(unit string) (int64, bool) {
	switch unit {
	case "sec", "second", "seconds":
		return int64(time.Second), true
	case "min", "minute", "minutes":
		return int64(time.Minute), true
	case "hour", "hours":
		return int64(time.Hour), true
	case "day", "days":
		return int64(24 * time.Hour), true
	case "week", "weeks":
		return int64(7 * 24 * time.Hour), true
	case "month", "months":
		return int64(30 * 24 * time.Hour), true
	case "year", "years":
		return int64(365 * 24 * time.Hour), true
	default:
		return 0, false
	}
}

// ByteUnit returns the fixed integer byte multiplier for a Flow lexer
// byte-size suffix, per §4.1.
func ByteUnit(unit string) (int64, bool) {
	switch unit {
	case "byte", "bytes":
		return 1, true
	case "kbyte":
		return 1 << 10, true
	case "mbyte":
		return 1 << 20, true
	case "gbyte":
		return 1 << 30, true
	case "tbyte":
		return 1 << 40, true
	default:
		return 0, false
	}
}

// BitUnit returns the fixed integer bit multiplier for a Flow lexer
// bit-rate suffix, per §4.1. Values are expressed in bits, not bytes.
func BitUnit(unit string) (int64, bool) {
	switch unit {
	case "bit", "bits":
		return 1, true
	case "kbit":
		return 1000, true
	case "mbit":
		return 1000 * 1000, true
	case "gbit":
		return 1000 * 1000 * 1000, true
	default:
		return 0, false
	}
}

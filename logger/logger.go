/*
 * MIT License
 *
 * Copyright (c) 2021 Nicolas JUHEL
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

// Package logger wraps logrus with a small, fields-first API so every
// component logs through the same structured sink instead of reaching for
// the standard log package directly.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Level uint8

const (
	NilLevel Level = iota
	FatalLevel
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
)

func (l Level) logrus() logrus.Level {
	switch l {
	case NilLevel:
		return logrus.PanicLevel
	case FatalLevel:
		return logrus.FatalLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case WarnLevel:
		return logrus.WarnLevel
	case InfoLevel:
		return logrus.InfoLevel
	case DebugLevel:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Fields is a structured key/value attachment for one log line.
type Fields map[string]interface{}

// Logger is the logging surface every x0d component depends on.
type Logger interface {
	WithFields(f Fields) Logger
	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)
	Fatal(msg string)
}

type logger struct {
	entry *logrus.Entry
}

// New creates a root Logger writing to w at the given level. Passing a nil
// io.Writer defaults to os.Stderr, matching the teacher's "nil means
// default sink" convention.
func New(lvl Level, w io.Writer) Logger {
	if w == nil {
		w = os.Stderr
	}

	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(lvl.logrus())
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &logger{entry: logrus.NewEntry(l)}
}

func (l *logger) WithFields(f Fields) Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(f))}
}

func (l *logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *logger) Info(msg string)  { l.entry.Info(msg) }
func (l *logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *logger) Error(msg string) { l.entry.Error(msg) }
func (l *logger) Fatal(msg string) { l.entry.Fatal(msg) }

// Discard returns a Logger whose output goes nowhere, used by tests and by
// components that haven't been handed a logger yet (mirrors the teacher's
// nil-safe default-logger pattern in httpserver.New).
func Discard() Logger {
	return New(NilLevel, io.Discard)
}

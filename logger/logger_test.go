package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/nabbar/x0d/logger"
)

func TestWithFieldsIncludesKeys(t *testing.T) {
	var buf bytes.Buffer
	l := logger.New(logger.DebugLevel, &buf)

	l.WithFields(logger.Fields{"bucket": "root", "member": "b1"}).Info("scheduled request")

	out := buf.String()
	if !strings.Contains(out, "bucket=root") || !strings.Contains(out, "member=b1") {
		t.Fatalf("expected structured fields in output, got: %s", out)
	}
	if !strings.Contains(out, "scheduled request") {
		t.Fatalf("expected message in output, got: %s", out)
	}
}

func TestDiscardDoesNotPanic(t *testing.T) {
	l := logger.Discard()
	l.Info("should not appear anywhere")
}

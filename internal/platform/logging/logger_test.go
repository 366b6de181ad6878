package logging

import (
	"errors"
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestToFields(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	fields := toFields([]any{"athlete", "4711", "err", errBoom, "count", 3})
	if len(fields) != 3 {
		t.Fatalf("fields: got %d, want 3", len(fields))
	}
	if fields[0].Key != "athlete" || fields[0].String != "4711" {
		t.Fatalf("first field: %+v", fields[0])
	}
	if fields[1].Key != "err" || fields[1].Type != zapcore.ErrorType {
		t.Fatalf("error field: %+v", fields[1])
	}
	if fields[2].Key != "count" || fields[2].Integer != 3 {
		t.Fatalf("int field: %+v", fields[2])
	}
}

func TestToFields_OddArguments(t *testing.T) {
	t.Parallel()

	fields := toFields([]any{"stream", "letters", "dangling"})
	if len(fields) != 2 {
		t.Fatalf("fields: got %d, want 2", len(fields))
	}
	if fields[1].Key != "dangling" {
		t.Fatalf("dangling key: %+v", fields[1])
	}

	// Non-string keys are kept under a fallback name.
	fields = toFields([]any{42, "value"})
	if len(fields) != 1 || fields[0].Key != "arg" {
		t.Fatalf("fallback key: %+v", fields)
	}
}

func TestDefaultNeverNil(t *testing.T) {
	SetDefault(nil)
	if Default() == nil {
		t.Fatalf("default logger must not be nil")
	}
	// Nil receivers route through the default without panicking.
	var l *Logger
	l.Info("noop")
}

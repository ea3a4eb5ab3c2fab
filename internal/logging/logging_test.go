package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNew_Levels(t *testing.T) {
	l, err := New("warn", false)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Fatal("info should be disabled at warn")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatal("error should be enabled at warn")
	}

	d, err := New("error", true)
	if err != nil {
		t.Fatalf("new debug: %v", err)
	}
	if !d.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("debug logger should enable debug")
	}
}

func TestNew_BadLevel(t *testing.T) {
	if _, err := New("chatty", false); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

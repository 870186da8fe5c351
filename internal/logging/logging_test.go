package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	logger, err := New("warn")
	if err != nil {
		t.Fatalf("New(warn) failed: %v", err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info enabled on a warn logger")
	}
	if !logger.Core().Enabled(zapcore.ErrorLevel) {
		t.Fatalf("error disabled on a warn logger")
	}
	if _, err := New("loud"); err == nil {
		t.Fatalf("New(loud) succeeded")
	}
}

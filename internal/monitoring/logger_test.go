package monitoring

import (
	"strings"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("test message")
	if !called {
		t.Error("Custom logger was not called")
	}

	// nil installs a no-op logger that swallows lines without panicking
	called = false
	SetLogger(nil)
	Logf("test message")
	if called {
		t.Error("No-op logger should not have triggered callback")
	}
}

func TestLogf_Default(t *testing.T) {
	if Logf == nil {
		t.Error("Logf should not be nil by default")
	}

	defer func() {
		if r := recover(); r != nil {
			t.Errorf("Logf panicked: %v", r)
		}
	}()
	Logf("test message: %s", "value")
}

func TestTagged(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, format)
	})

	logf := Tagged("Runner")
	logf("capture %s processed", "2024_06_01_0900")

	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !strings.HasPrefix(lines[0], "[Runner] ") {
		t.Errorf("line %q missing component tag", lines[0])
	}
}

func TestTaggedFollowsLoggerSwap(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	logf := Tagged("Display")

	// Swap the logger after the tagged logger was created.
	var captured string
	SetLogger(func(format string, v ...interface{}) {
		captured = format
	})
	logf("chart failed")

	if captured != "[Display] chart failed" {
		t.Errorf("captured %q, want the tagged line", captured)
	}
}

package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewDebugLogger_EmptyPathIsNop(t *testing.T) {
	l, err := NewDebugLogger("")
	if err != nil {
		t.Fatalf("NewDebugLogger failed: %v", err)
	}
	if l.Enabled() {
		t.Error("empty path should give a disabled logger")
	}
	l.Log("ignored %d", 1)
	if err := l.Close(); err != nil {
		t.Errorf("Close() = %v", err)
	}
}

func TestDebugLogger_WritesLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "debug.log")
	l, err := NewDebugLogger(path)
	if err != nil {
		t.Fatalf("NewDebugLogger failed: %v", err)
	}
	l.Log("admission rejected: %s", "cooldown")
	l.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "debug log started") {
		t.Error("missing header line")
	}
	if !strings.Contains(text, "admission rejected: cooldown") {
		t.Errorf("log = %q, missing message", text)
	}
}

func TestNilLogger(t *testing.T) {
	var l *DebugLogger
	l.Log("no panic")
	if err := l.Close(); err != nil {
		t.Errorf("Close() on nil = %v", err)
	}
}

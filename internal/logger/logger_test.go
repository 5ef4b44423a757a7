package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"proctorfeed/internal/config"
)

func newTestLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()

	l := &Logger{logDir: t.TempDir(), level: ParseLevel(level)}
	var out bytes.Buffer
	l.setupLoggers(&out, &out)
	t.Cleanup(func() { l.Close() })
	return l, &out
}

func TestLogger_WritesToLevelFile(t *testing.T) {
	l, out := newTestLogger(t, "info")

	l.Info("camera %s opened", "0")
	l.Error("dial failed: %v", "refused")

	info, err := os.ReadFile(filepath.Join(l.Dir(), "info.log"))
	if err != nil {
		t.Fatalf("Failed to read info.log: %v", err)
	}
	if !strings.Contains(string(info), "camera 0 opened") {
		t.Errorf("info.log missing entry: %q", info)
	}

	errLog, err := os.ReadFile(filepath.Join(l.Dir(), "error.log"))
	if err != nil {
		t.Fatalf("Failed to read error.log: %v", err)
	}
	if !strings.Contains(string(errLog), "dial failed: refused") {
		t.Errorf("error.log missing entry: %q", errLog)
	}

	if !strings.Contains(out.String(), "INFO") {
		t.Errorf("Expected console output to carry the level prefix, got %q", out.String())
	}
}

func TestLogger_LevelFilter(t *testing.T) {
	l, out := newTestLogger(t, "warning")

	l.Debug("hidden")
	l.Info("hidden too")
	l.Warning("shown")

	if strings.Contains(out.String(), "hidden") {
		t.Errorf("Messages below the level should be dropped, got %q", out.String())
	}
	if !strings.Contains(out.String(), "shown") {
		t.Errorf("Expected warning in output, got %q", out.String())
	}
}

func TestLogger_CleanLogs(t *testing.T) {
	l, _ := newTestLogger(t, "info")
	l.Info("to be cleared")

	if err := l.CleanLogs("info.log"); err != nil {
		t.Fatalf("CleanLogs failed: %v", err)
	}

	info, err := os.ReadFile(filepath.Join(l.Dir(), "info.log"))
	if err != nil {
		t.Fatalf("Failed to read info.log: %v", err)
	}
	if len(info) != 0 {
		t.Errorf("Expected empty info.log, got %q", info)
	}
}

func TestNewLogger_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "logs")
	l := NewLogger(&config.Config{LogDirectory: dir, LogLevel: "error"})
	defer l.Close()

	if _, err := os.Stat(dir); err != nil {
		t.Errorf("Expected log directory to exist: %v", err)
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   LevelDebug,
		"info":    LevelInfo,
		"warn":    LevelWarning,
		"warning": LevelWarning,
		"error":   LevelError,
		"":        LevelInfo,
		"bogus":   LevelInfo,
	}
	for in, expected := range tests {
		if got := ParseLevel(in); got != expected {
			t.Errorf("ParseLevel(%q) = %d, expected %d", in, got, expected)
		}
	}
}

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

// captureLogs redirects the global logger to an in-memory buffer for the
// duration of fn and returns the captured output.
func captureLogs(t *testing.T, fn func()) string {
	t.Helper()
	var buf bytes.Buffer
	handler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	prev := defaultLogger
	SetLogger(slog.New(handler))
	t.Cleanup(func() { SetLogger(prev) })
	fn()
	return buf.String()
}

func TestInfo(t *testing.T) {
	out := captureLogs(t, func() { Info("hello", "key", "val") })
	if !strings.Contains(out, "hello") {
		t.Errorf("expected 'hello' in output, got: %s", out)
	}
}

func TestWarn(t *testing.T) {
	out := captureLogs(t, func() { Warn("warn-msg") })
	if !strings.Contains(out, "warn-msg") {
		t.Errorf("expected warn-msg in output: %s", out)
	}
}

func TestError(t *testing.T) {
	out := captureLogs(t, func() { Error("err-msg", "err", "oops") })
	if !strings.Contains(out, "err-msg") {
		t.Errorf("expected err-msg in output: %s", out)
	}
}

func TestDebug(t *testing.T) {
	out := captureLogs(t, func() { Debug("dbg-msg") })
	if !strings.Contains(out, "dbg-msg") {
		t.Errorf("expected dbg-msg in output: %s", out)
	}
}

func TestPrintf(t *testing.T) {
	out := captureLogs(t, func() { Printf("printf-%s", "z") })
	if !strings.Contains(out, "printf-z") {
		t.Errorf("expected printf-z in output: %s", out)
	}
}

func TestSetLogger(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
	prev := defaultLogger
	SetLogger(l)
	defer SetLogger(prev)
	Info("set-logger-test")
	if !strings.Contains(buf.String(), "set-logger-test") {
		t.Errorf("custom logger should capture output: %s", buf.String())
	}
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger
	SetOutput(&buf)
	t.Cleanup(func() {
		SetLogger(prev)
		_ = SetLevel("info")
	})

	if err := SetLevel("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Info("hidden-info")
	Warn("shown-warn")
	if strings.Contains(buf.String(), "hidden-info") {
		t.Errorf("info should be filtered at warn level: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "shown-warn") {
		t.Errorf("warn should be logged: %s", buf.String())
	}

	if err := SetLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestSource_PointsAtCaller(t *testing.T) {
	var buf bytes.Buffer
	prev := defaultLogger
	SetLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{AddSource: true})))
	t.Cleanup(func() { SetLogger(prev) })

	Info("where")
	if !strings.Contains(buf.String(), "logger_test.go") {
		t.Errorf("expected caller file in source, got: %s", buf.String())
	}
}

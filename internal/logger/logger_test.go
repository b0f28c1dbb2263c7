package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(nil)
		SetLevel("info")
	})
	return &buf
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t)

	SetLevel("info")
	Debugf("hidden %s", "detail")
	Infof("visible %s", "message")
	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible message")

	buf.Reset()
	SetLevel("debug")
	Debugf("now shown")
	assert.Contains(t, buf.String(), "now shown")

	buf.Reset()
	SetLevel("error")
	Warnf("suppressed")
	Errorf("surfaced")
	out = buf.String()
	assert.NotContains(t, out, "suppressed")
	assert.Contains(t, out, "surfaced")
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":    slog.LevelDebug,
		"info":     slog.LevelInfo,
		"warn":     slog.LevelWarn,
		"warning":  slog.LevelWarn,
		"ERROR":    slog.LevelError,
		" Info ":   slog.LevelInfo,
		"":         slog.LevelInfo,
		"gibberic": slog.LevelInfo,
	}
	for in, want := range cases {
		assert.Equal(t, want, parseLevel(in), "input %q", in)
	}
}

func TestWithCarriesContext(t *testing.T) {
	buf := capture(t)
	SetLevel("info")

	With("run", "abc-123", "account", int64(7)).Info("pass finished", "items", 3)
	out := buf.String()
	assert.Contains(t, out, "run=abc-123")
	assert.Contains(t, out, "account=7")
	assert.Contains(t, out, "items=3")
}

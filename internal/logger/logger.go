// Package logger is portsync's process-wide logging surface over log/slog.
// The level is runtime-adjustable so a config reload can flip the service to
// debug without a restart, and With lets reconcile passes stamp run and
// account context onto every record they emit.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var (
	level slog.LevelVar
	root  atomic.Pointer[slog.Logger]
)

func init() {
	root.Store(textLogger(os.Stdout))
}

func textLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: &level}))
}

// SetOutput redirects all subsequent records, typically to a MultiWriter over
// stdout and the configured log file.
func SetOutput(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	root.Store(textLogger(w))
}

// SetLevel applies a config-supplied level name. Unknown names fall back to
// info so a bad reload cannot silence the service.
func SetLevel(name string) {
	level.Set(parseLevel(name))
}

func parseLevel(name string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// With returns a child logger carrying key-value context, e.g.
// logger.With("run", runID, "account", accountID).
func With(args ...any) *slog.Logger {
	return root.Load().With(args...)
}

func Debugf(format string, v ...any) {
	root.Load().Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...any) {
	root.Load().Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...any) {
	root.Load().Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...any) {
	root.Load().Error(fmt.Sprintf(format, v...))
}

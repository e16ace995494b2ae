// Package logger holds the process-wide slog logger used by the hexkit
// binaries. It discards everything until Init enables it.
package logger

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// L is the process logger. It discards until Init is called.
var L = discard()

const (
	logSuffix     = ".log"
	dateLayout    = "2006-01-02"
	retentionDays = 30
)

// Options configures Init.
type Options struct {
	Enabled bool       // false discards all output
	App     string     // log file prefix, e.g. "hexexplorer"
	Dir     string     // log directory, default ~/.hexkit/logs
	Level   slog.Level // minimum level, default Info
	Writer  io.Writer  // if set, text output goes here instead of a file
}

// Init configures L. The returned close func releases the log file and is
// safe to call when logging is disabled.
func Init(opts Options) (func() error, error) {
	noop := func() error { return nil }
	if !opts.Enabled {
		L = discard()
		return noop, nil
	}

	level := opts.Level
	if level == 0 {
		level = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: level}

	if opts.Writer != nil {
		L = slog.New(slog.NewTextHandler(opts.Writer, handlerOpts))
		return noop, nil
	}

	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return noop, err
		}
		dir = filepath.Join(home, ".hexkit", "logs")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return noop, err
	}

	prefix := prefixFor(opts.App)
	cleanOldLogs(dir, prefix, time.Now())

	name := filepath.Join(dir, prefix+time.Now().Format(dateLayout)+logSuffix)
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return noop, err
	}
	L = slog.New(slog.NewJSONHandler(f, handlerOpts))
	return f.Close, nil
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func prefixFor(app string) string {
	if app == "" {
		app = "hexkit"
	}
	return app + "-"
}

// cleanOldLogs removes prefix-YYYY-MM-DD.log files older than the retention
// window. Failures are ignored.
func cleanOldLogs(dir, prefix string, now time.Time) {
	cutoff := now.AddDate(0, 0, -retentionDays)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, logSuffix) {
			continue
		}
		stamp := strings.TrimPrefix(strings.TrimSuffix(name, logSuffix), prefix)
		day, err := time.Parse(dateLayout, stamp)
		if err != nil {
			continue
		}
		if day.Before(cutoff) {
			_ = os.Remove(filepath.Join(dir, name))
		}
	}
}

// Debug logs at debug level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at info level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at warn level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at error level.
func Error(msg string, args ...any) { L.Error(msg, args...) }

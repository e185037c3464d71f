// Package logger wraps log/slog for lesbin. The terminal belongs to the UI,
// so records go to a file (or nowhere) rather than stderr.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const tagKey = "tag"

var (
	mu            sync.RWMutex
	defaultLogger = slog.New(slog.NewTextHandler(io.Discard, nil))
	level         = new(slog.LevelVar)
)

// ParseLevel maps a config/flag string to a slog level. Unknown strings
// fall back to info.
func ParseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error", "err":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Init points the package logger at output. A nil output discards records.
func Init(lvl slog.Level, output io.Writer) {
	if output == nil {
		output = io.Discard
	}
	level.Set(lvl)
	opts := slog.HandlerOptions{
		Level:     level,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				if source, ok := a.Value.Any().(*slog.Source); ok && source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			if a.Key == slog.TimeKey {
				a.Value = slog.StringValue(a.Value.Time().Format(time.TimeOnly))
			}
			return a
		},
	}
	mu.Lock()
	defaultLogger = slog.New(slog.NewTextHandler(output, &opts))
	mu.Unlock()
}

// SetLevel changes the minimum level at runtime.
func SetLevel(lvl slog.Level) {
	level.Set(lvl)
}

// Get returns the package logger.
func Get() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func logAt(lvl slog.Level, tag string, format string, args ...any) {
	l := Get()
	if !l.Enabled(context.Background(), lvl) {
		return
	}
	var pcs [1]uintptr
	// runtime.Callers, logAt, the exported wrapper.
	runtime.Callers(3, pcs[:])
	r := slog.NewRecord(time.Now(), lvl, fmt.Sprintf(format, args...), pcs[0])
	if tag != "" {
		r.AddAttrs(slog.String(tagKey, tag))
	}
	_ = l.Handler().Handle(context.Background(), r)
}

func Debugf(format string, args ...any) { logAt(slog.LevelDebug, "", format, args...) }
func Infof(format string, args ...any)  { logAt(slog.LevelInfo, "", format, args...) }
func Warnf(format string, args ...any)  { logAt(slog.LevelWarn, "", format, args...) }
func Errorf(format string, args ...any) { logAt(slog.LevelError, "", format, args...) }

// DebugTagf logs at debug level with a tag attribute, e.g. "buffer" or "search".
func DebugTagf(tag, format string, args ...any) {
	logAt(slog.LevelDebug, tag, format, args...)
}

package logx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps LOG_LEVEL values to slog levels. Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// NewConsoleHandler builds the tint handler used for process output.
func NewConsoleHandler(w io.Writer, level slog.Level, color bool) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		Level:      level,
		NoColor:    !color,
		TimeFormat: time.TimeOnly,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if s, ok := a.Value.Any().(string); ok && s == "" {
				return slog.Attr{}
			}
			return a
		},
	})
}

// Setup installs the console handler as the process default logger.
// Run-scoped capture never goes through here; see Capture.
func Setup(level string, color bool) *slog.Logger {
	l := slog.New(NewConsoleHandler(os.Stderr, ParseLevel(level), color))
	slog.SetDefault(l)
	return l
}

// UseColor reports whether the environment looks interactive enough for colors.
func UseColor(appEnv string) bool {
	return appEnv == "local" || appEnv == "dev"
}

// --- Public API ---

func Debug(component, msg string, args ...any) {
	logGeneric(slog.LevelDebug, component, msg, args...)
}

func Info(component, msg string, args ...any) {
	logGeneric(slog.LevelInfo, component, msg, args...)
}

func Warn(component, msg string, args ...any) {
	logGeneric(slog.LevelWarn, component, msg, args...)
}

func Error(component, msg string, args ...any) {
	logGeneric(slog.LevelError, component, msg, args...)
}

// --- Core ---

func logGeneric(level slog.Level, component, msg string, args ...any) {
	full := msg
	if len(args) > 0 {
		full = fmt.Sprintf(msg, args...)
	}
	slog.Default().Log(context.Background(), level, full, "component", component)
}

package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Options controls logger construction.
type Options struct {
	Format string // "console" or "json"
	Level  string // debug, info, warn, error
	Writer io.Writer
}

// New builds the root logger. Console output is colorized only when the
// writer is a terminal.
func New(opts Options) *slog.Logger {
	writer := opts.Writer
	if writer == nil {
		writer = os.Stderr
	}

	level := new(slog.LevelVar)
	level.Set(ParseLevel(opts.Level))

	if strings.EqualFold(strings.TrimSpace(opts.Format), "json") {
		return slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(newConsoleHandler(writer, level, writerIsTerminal(writer)))
}

// ParseLevel maps a config string onto a slog level, defaulting to info.
func ParseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
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

func writerIsTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

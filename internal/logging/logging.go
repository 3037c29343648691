// Package logging provides the structured logger shared by the server.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps slog.Logger. Methods accept a nil *Logger: debug and info
// messages are then dropped and warnings and errors go to the default slog
// logger.
type Logger struct {
	*slog.Logger
	LogFile string
	Start   time.Time
}

// Options configures New.
type Options struct {
	Level string
	// Dir enables a rotating log file in the directory.
	Dir        string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Stderr also writes to standard error. Always on when Dir is empty.
	Stderr bool
}

// ParseLevel maps a level name to a slog level. Unknown names yield info
// and an error.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
}

// New builds a JSON logger writing to a size-rotated file and/or stderr.
func New(opts Options) *Logger {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v, using info\n", err)
	}

	var writers []io.Writer
	var file string
	if opts.Dir != "" {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(opts.Dir, "server.log"),
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		if w.MaxSize == 0 {
			w.MaxSize = 64 // MB
		}
		writers = append(writers, w)
		file = w.Filename
	}
	if opts.Stderr || opts.Dir == "" {
		writers = append(writers, os.Stderr)
	}

	return NewWithWriter(io.MultiWriter(writers...), lvl, file)
}

// NewWithWriter builds a JSON logger on an arbitrary writer.
func NewWithWriter(w io.Writer, level slog.Level, file string) *Logger {
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{
		Logger:  slog.New(h),
		LogFile: file,
		Start:   time.Now(),
	}
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return NewWithWriter(io.Discard, slog.LevelError+1, "")
}

func (l *Logger) Debug(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Debug(msg, args...)
	}
}

func (l *Logger) Debugf(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelDebug) {
		l.Logger.Debug(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Info(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Info(msg, args...)
	}
}

func (l *Logger) Infof(msg string, args ...any) {
	if l != nil && l.Logger.Enabled(context.Background(), slog.LevelInfo) {
		l.Logger.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	if l == nil {
		slog.Warn(msg, args...)
	} else {
		l.Logger.Warn(msg, args...)
	}
}

func (l *Logger) Warnf(msg string, args ...any) {
	l.Warn(fmt.Sprintf(msg, args...))
}

func (l *Logger) Error(msg string, args ...any) {
	if l == nil {
		slog.Error(msg, args...)
	} else {
		l.Logger.Error(msg, args...)
	}
}

func (l *Logger) Errorf(msg string, args ...any) {
	l.Error(fmt.Sprintf(msg, args...))
}

// With returns a logger carrying args on every record.
func (l *Logger) With(args ...any) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		Logger:  l.Logger.With(args...),
		LogFile: l.LogFile,
		Start:   l.Start,
	}
}

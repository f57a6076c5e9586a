package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level is a logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSuccess
)

var (
	debugColor   = color.New(color.FgHiBlack)
	infoColor    = color.New(color.FgCyan)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	successColor = color.New(color.FgGreen)
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSuccess:
		return "SUCCESS"
	default:
		return "LOG"
	}
}

func (l Level) color() *color.Color {
	switch l {
	case LevelDebug:
		return debugColor
	case LevelWarn:
		return warnColor
	case LevelError:
		return errorColor
	case LevelSuccess:
		return successColor
	default:
		return infoColor
	}
}

// Logger writes leveled messages to the console (stderr by default) and, optionally, a log file.
// A nil *Logger discards everything.
type Logger struct {
	mu       sync.Mutex
	console  io.Writer
	file     *os.File
	path     string
	minLevel Level
	silent   bool
}

// New creates a console-only logger.
func New(console io.Writer, debug bool) *Logger {
	if console == nil {
		console = os.Stderr
	}
	min := LevelInfo
	if debug {
		min = LevelDebug
	}
	return &Logger{console: console, minLevel: min}
}

// OpenFile additionally appends messages to <dir>/logs/onboard.log.
func (l *Logger) OpenFile(dir string) error {
	if l == nil {
		return nil
	}
	logsDir := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(logsDir, "onboard.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
	}
	l.file = f
	l.path = path
	return nil
}

func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// SetSilent disables console output; file output continues (interactive views own the terminal).
func (l *Logger) SetSilent(silent bool) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.silent = silent
	l.mu.Unlock()
}

func (l *Logger) log(level Level, format string, args ...any) {
	if l == nil || level < l.minLevel {
		return
	}
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.silent {
		level.color().Fprintf(l.console, "[%s] %s\n", level, msg)
	}
	if l.file != nil {
		ts := time.Now().Format("2006-01-02 15:04:05")
		fmt.Fprintf(l.file, "[%s] [%s] %s\n", ts, level, msg)
	}
}

func (l *Logger) Debug(format string, args ...any)   { l.log(LevelDebug, format, args...) }
func (l *Logger) Info(format string, args ...any)    { l.log(LevelInfo, format, args...) }
func (l *Logger) Warn(format string, args ...any)    { l.log(LevelWarn, format, args...) }
func (l *Logger) Error(format string, args ...any)   { l.log(LevelError, format, args...) }
func (l *Logger) Success(format string, args ...any) { l.log(LevelSuccess, format, args...) }

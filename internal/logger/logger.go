// Package logger provides process-wide logging for charterbook.
// Messages go through a zap core with a compact console encoding. When
// verbose mode is enabled via the --verbose flag every level is printed;
// otherwise only messages at or above the configured level (default warn).
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	level   = zapcore.WarnLevel
	atom    = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	base    = newLogger(os.Stderr)
)

func newLogger(w io.Writer) *zap.Logger {
	enc := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel: func(l zapcore.Level, pae zapcore.PrimitiveArrayEncoder) {
			pae.AppendString("[" + l.CapitalString() + "]")
		},
		EncodeDuration: zapcore.StringDurationEncoder,
	})
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(w), atom))
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	applyLevel()
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetLevel sets the minimum level printed when verbose mode is off.
// Accepts debug, info, warn or error.
func SetLevel(name string) error {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(name)))
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	mu.Lock()
	defer mu.Unlock()
	level = l
	applyLevel()
	return nil
}

func applyLevel() {
	if verbose {
		atom.SetLevel(zapcore.DebugLevel)
		return
	}
	atom.SetLevel(level)
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	base = newLogger(w)
}

// L returns the structured logger for callers that log fields.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

func sugar() *zap.SugaredLogger {
	return L().Sugar()
}

// Debug prints a debug message.
func Debug(format string, args ...any) {
	sugar().Debugf(format, args...)
}

// Section prints a section header at debug level.
func Section(name string) {
	sugar().Debugf("=== %s ===", name)
}

// Info prints an informational message.
func Info(format string, args ...any) {
	sugar().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	sugar().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	sugar().Errorf(format, args...)
}

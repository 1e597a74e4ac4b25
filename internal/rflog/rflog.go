// Package rflog is a thin wrapper around charmbracelet/log giving every
// DSP component a named sub-logger, used only for lifecycle and
// diagnostic events (construction, DFE mode transitions, timing
// acquisition) and never per-sample, keeping the hot path allocation
// free. The PLL does not log its lock state.
package rflog

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu      sync.Mutex
	base    = log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	loggers = map[string]*Logger{}
)

// Logger is a named component logger.
type Logger struct {
	l *log.Logger
}

// For returns the shared logger for the named component (e.g. "modulator",
// "demodulator", "dfe", "channel", "slab"), creating it on first use.
func For(component string) *Logger {
	mu.Lock()
	defer mu.Unlock()

	if existing, ok := loggers[component]; ok {
		return existing
	}

	logger := &Logger{l: base.WithPrefix(component)}
	loggers[component] = logger
	return logger
}

// SetLevel adjusts the verbosity of every logger obtained via For, both
// existing and future. Valid values follow charmbracelet/log: debug,
// info, warn, error.
func SetLevel(level log.Level) {
	mu.Lock()
	defer mu.Unlock()
	base.SetLevel(level)
	for _, logger := range loggers {
		logger.l.SetLevel(level)
	}
}

func (l *Logger) Debug(msg string, kv ...any) { l.l.Debug(msg, kv...) }
func (l *Logger) Info(msg string, kv ...any)  { l.l.Info(msg, kv...) }
func (l *Logger) Warn(msg string, kv ...any)  { l.l.Warn(msg, kv...) }
func (l *Logger) Error(msg string, kv ...any) { l.l.Error(msg, kv...) }

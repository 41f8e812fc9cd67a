// Package logctx provides the structured logger used across the GPU driver
// and proving pipeline. It mirrors the call pattern gnark's own logger
// package exposes over zerolog: a package-level logger reachable via
// Logger(), extended per call-site with With().Str(...).Int(...).
package logctx

import (
	"os"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// Logger returns the shared structured logger. Call sites extend it with
// With() to attach fields relevant to the current operation, e.g.
//
//	log := logctx.Logger().With().Str("curve", curveID.String()).Int("nbConstraints", n).Logger()
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLevel adjusts the minimum level emitted by the shared logger.
func SetLevel(level zerolog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(level)
}

// SetOutput replaces the shared logger with one writing through the given
// console writer, e.g. to change its output stream or formatting. Output
// stays in the human-readable console format.
func SetOutput(w zerolog.ConsoleWriter) {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.New(w).With().Timestamp().Logger()
}

// Package logging owns process-wide structured logging.
//
// Ownership boundary:
// - profile selection (runtime, verbose, tests)
// - environment overrides
// - printf-style helpers used by workflow packages
//
// Logs go to stderr; stdout belongs to operator-facing output.
package logging

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)
	current.Store(&l)
}

func setLogger(l zerolog.Logger) {
	current.Store(&l)
}

// Logger returns the configured process logger.
func Logger() *zerolog.Logger {
	return current.Load()
}

// With returns a child logger carrying one extra string field.
func With(key string, value string) zerolog.Logger {
	return Logger().With().Str(key, value).Logger()
}

func Debugf(format string, args ...any) {
	Logger().Debug().Msgf(format, args...)
}

func Infof(format string, args ...any) {
	Logger().Info().Msgf(format, args...)
}

func Warnf(format string, args ...any) {
	Logger().Warn().Msgf(format, args...)
}

func Errf(format string, args ...any) {
	Logger().Error().Msgf(format, args...)
}

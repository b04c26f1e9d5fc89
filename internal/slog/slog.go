// Package slog provides the single, process-wide logger used by the
// generator. It mirrors github.com/consensys/gnark's logger package: a
// zerolog.Logger writing to a console writer by default, overridable for
// tests.
package slog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

var logger zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	logger = zerolog.New(output).With().Timestamp().Logger().Level(zerolog.InfoLevel)
}

// SetOutput redirects the global logger to w.
func SetOutput(w io.Writer) {
	logger = logger.Output(w)
}

// Set overrides the global logger wholesale.
func Set(l zerolog.Logger) {
	logger = l
}

// Disable silences the global logger.
func Disable() {
	logger = zerolog.Nop()
}

// Logger returns the process-wide logger.
func Logger() zerolog.Logger {
	return logger
}

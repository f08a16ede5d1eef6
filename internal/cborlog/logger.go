// Package cborlog provides the minimal structured-logging seam the codec
// uses for schema-build diagnostics. Encoding and decoding themselves never
// log (errors propagate to the caller instead, per the codec's error
// taxonomy); this is only for one-time events like lazy schema derivation.
package cborlog

import (
	"io"
	"log"
)

// Level classifies a log entry.
type Level string

const (
	Warn  Level = "WARN"
	Debug Level = "DEBUG"
)

// Logger accepts classified, printf-style log entries.
type Logger interface {
	Logf(level Level, format string, v ...interface{})
}

// Noop discards every entry. It is the package default.
type Noop struct{}

func (Noop) Logf(Level, string, ...interface{}) {}

// Standard wraps the standard library logger.
type Standard struct {
	Logger *log.Logger
}

func (s Standard) Logf(level Level, format string, v ...interface{}) {
	if level != "" {
		format = string(level) + " " + format
	}
	s.Logger.Printf(format, v...)
}

// NewStandard returns a Standard logger writing to w.
func NewStandard(w io.Writer) Standard {
	return Standard{Logger: log.New(w, "cbor ", log.LstdFlags)}
}

// Package diag generalizes the teacher's free-text tracer (emul/trace.go,
// which fmt.Fprintf's straight to an io.Writer) into a structured leveled
// sink. Overlay diagnostics (Info/Warn/Error, §4.C/§7) are replayed through
// it as logiface builder calls with structured fields instead of formatted
// strings, backed by the stumpy JSON logger.
package diag

import (
	"io"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

// Sink wraps a *logiface.Logger[*stumpy.Event] and replays ir.Diagnostic
// values (and the CLI's own notices) as leveled, structured log lines.
type Sink struct {
	logger *logiface.Logger[*stumpy.Event]
}

// New builds a Sink writing newline-delimited JSON to w. Every level up to
// Trace is enabled so Info diagnostics are never silently dropped.
func New(w io.Writer) *Sink {
	logger := stumpy.L.New(
		stumpy.L.WithStumpy(stumpy.WithWriter(w)),
		stumpy.L.WithLevel(logiface.LevelTrace),
	)
	return &Sink{logger: logger}
}

// Diagnostic replays one overlay-validator finding (§4.C) as a leveled event
// carrying `line`, `op`, and `key` as structured fields rather than a
// formatted message.
func (s *Sink) Diagnostic(d ir.Diagnostic) {
	if s == nil || s.logger == nil {
		return
	}
	var b *logiface.Builder[*stumpy.Event]
	switch d.Severity {
	case ir.Error:
		b = s.logger.Err()
	case ir.Warn:
		b = s.logger.Warning()
	default:
		b = s.logger.Info()
	}
	b = b.Int(`line`, d.Line).Str(`op`, d.Op)
	if d.Key != "" {
		b = b.Str(`key`, d.Key)
	}
	b.Log(d.Msg)
}

// Notice logs an outer-shell informational line (e.g. "wrote <file>") at
// Info level, structured the same way as a Diagnostic.
func (s *Sink) Notice(msg string) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Info().Log(msg)
}

package diag

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

func TestSinkDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	s.Diagnostic(ir.Diagnostic{Severity: ir.Warn, Line: 7, Op: "ctrl", Key: "phase_step", Msg: "phase_step malformed"})

	out := buf.String()
	assert.True(t, strings.HasSuffix(out, "\n"))
	assert.Contains(t, out, `"line":7`)
	assert.Contains(t, out, `"op":"ctrl"`)
	assert.Contains(t, out, `"key":"phase_step"`)
	assert.Contains(t, out, `phase_step malformed`)
}

func TestSinkDiagnosticOmitsEmptyKey(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	s.Diagnostic(ir.Diagnostic{Severity: ir.Info, Line: 1, Op: "measure", Msg: "ok"})

	assert.NotContains(t, buf.String(), `"key"`)
}

func TestSinkNotice(t *testing.T) {
	var buf bytes.Buffer
	s := New(&buf)

	s.Notice("wrote CalibratedEPR.qua.txt")

	assert.Contains(t, buf.String(), "wrote CalibratedEPR.qua.txt")
}

// A nil *Sink must stay safe to call: Diagnostic and Notice return early on
// a nil receiver, so a caller that never built a sink can still call them.
func TestNilSinkIsSafe(t *testing.T) {
	var s *Sink
	s.Diagnostic(ir.Diagnostic{Severity: ir.Error, Line: 1, Op: "ctrl", Msg: "x"})
	s.Notice("x")
}

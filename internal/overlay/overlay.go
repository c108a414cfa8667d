// Package overlay implements component E: the declarative constraint system
// attached to ctrl operations via `with overlay { ... }`. The parser has
// already format-normalised each value (internal/parser); this package adds
// the semantic checks that need workspace and lattice context — field
// existence, path length against real distance — and decides Info/Warn/Error
// classification, including strict-mode promotion.
package overlay

import (
	"fmt"

	"github.com/Dr-Loo/SQUINT/internal/ir"
	"github.com/Dr-Loo/SQUINT/internal/lattice"
)

// Validate walks every ctrl operation's overlay, appends diagnostics to it,
// and returns the first strict-mode hard error encountered, aborting the
// walk at that point per §7 (no partial control text is ever emitted after
// an OverlayError).
func Validate(ws *ir.Workspace, lat *lattice.Lattice, ops []*ir.Operation, strict bool) error {
	for _, op := range ops {
		if op.Kind != ir.KindQuantum || op.Op != "ctrl" {
			continue
		}
		for _, key := range op.OverlayOrder {
			v := op.Overlay[key]
			diag, hardErr := checkOne(ws, lat, op, v, strict)
			if diag != nil {
				op.Diagnostics = append(op.Diagnostics, *diag)
			}
			if hardErr != nil {
				return hardErr
			}
		}
	}
	return nil
}

// checkOne returns the diagnostic for one overlay value (nil if the value is
// clean) and, in strict mode, a non-nil *ir.OverlayError when that
// diagnostic is a promotable Warn.
func checkOne(ws *ir.Workspace, lat *lattice.Lattice, op *ir.Operation, v ir.OverlayValue, strict bool) (*ir.Diagnostic, error) {
	switch v.Kind {
	case ir.OverlayCoherenceLen:
		if v.Malformed {
			return promote(op, v.Key, "malformed coherence_len %q", strict, v.Raw)
		}
		return nil, nil

	case ir.OverlayPathLen:
		if v.Malformed {
			return promote(op, v.Key, "malformed path_len %q", strict, v.Raw)
		}
		if len(op.Targets) != 2 {
			return promote(op, v.Key, "path_len requires two qubit targets, got %d", strict, len(op.Targets))
		}
		dist, err := lat.Distance(op.Targets[0], op.Targets[1])
		if err != nil {
			return promote(op, v.Key, "path_len: %v", strict, err)
		}
		if int64(dist) > v.Int {
			return promote(op, v.Key, "path_len ≤ %d violated (distance=%d)", strict, v.Int, dist)
		}
		return nil, nil

	case ir.OverlayDamping:
		if v.Malformed {
			return promote(op, v.Key, "malformed damping %q", strict, v.Raw)
		}
		if !ws.HasSemanticField(v.Field) {
			return promote(op, v.Key, "damping references undeclared semantic field %q", strict, v.Field)
		}
		return nil, nil

	case ir.OverlayBraid:
		if v.Malformed {
			return promote(op, v.Key, "malformed braid %q", strict, v.Raw)
		}
		if !ws.HasDefectField(v.Field) {
			return promote(op, v.Key, "braid references undeclared defect field %q", strict, v.Field)
		}
		return nil, nil

	case ir.OverlayFloquetPeriod:
		if v.Malformed {
			return promote(op, v.Key, "malformed floquet_period %q", strict, v.Raw)
		}
		return nil, nil

	case ir.OverlayCycles:
		if v.Malformed {
			return promote(op, v.Key, "malformed cycles %q", strict, v.Raw)
		}
		return nil, nil

	case ir.OverlayDuty:
		if v.Malformed {
			return promote(op, v.Key, "malformed duty %q", strict, v.Raw)
		}
		return nil, nil

	case ir.OverlayPhaseStep:
		// phase_step is informational only (§4.C): a malformed value is
		// always a Warn, even in strict mode, never promoted.
		if v.Malformed {
			return &ir.Diagnostic{Severity: ir.Warn, Line: op.Line, Op: op.Op, Key: v.Key,
				Msg: fmt.Sprintf("malformed phase_step %q", v.Raw)}, nil
		}
		return nil, nil

	case ir.OverlaySpan, ir.OverlayCoherenceBudget:
		return nil, nil

	default: // ir.OverlayUnknown
		return &ir.Diagnostic{Severity: ir.Warn, Line: op.Line, Op: op.Op, Key: v.Key,
			Msg: fmt.Sprintf("unrecognised overlay key %q", v.Key)}, nil
	}
}

// promote builds a Warn diagnostic and, in strict mode, also returns an
// OverlayError for the same condition so the caller aborts immediately.
func promote(op *ir.Operation, key, format string, strict bool, args ...any) (*ir.Diagnostic, error) {
	msg := fmt.Sprintf(format, args...)
	d := &ir.Diagnostic{Severity: ir.Warn, Line: op.Line, Op: op.Op, Key: key, Msg: msg}
	if strict {
		d.Severity = ir.Error
		return d, ir.NewOverlayError(op.Line, msg)
	}
	return d, nil
}

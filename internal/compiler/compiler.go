// Package compiler orchestrates components A through I into the single
// Compile entry point described in §2's data-flow diagram: source flows
// through the lexer/parser into a frozen *ir.Program, the overlay validator
// annotates or rejects it, the joint emitter/scheduler walk produces control
// text and timeline together, and the simulator runs over the same IR in a
// separate linear pass.
package compiler

import (
	"encoding/json"

	"github.com/Dr-Loo/SQUINT/internal/diag"
	"github.com/Dr-Loo/SQUINT/internal/emit"
	"github.com/Dr-Loo/SQUINT/internal/ir"
	"github.com/Dr-Loo/SQUINT/internal/lattice"
	"github.com/Dr-Loo/SQUINT/internal/overlay"
	"github.com/Dr-Loo/SQUINT/internal/parser"
	"github.com/Dr-Loo/SQUINT/internal/sim"
)

// Options configures one Compile call. Sink may be nil, in which case
// diagnostics are computed but never printed.
type Options struct {
	Strict bool
	Sink   *diag.Sink
}

// workspaceDoc and kernelDoc mirror the §6.4 log schema's workspace/kernel
// sub-objects without exposing ir.Workspace's private lookup indices.
type workspaceDoc struct {
	Name           string             `json:"name"`
	Qubits         int                `json:"qubits"`
	Lattice        [2]int             `json:"lattice"`
	SemanticFields []ir.SemanticField `json:"semantic_fields"`
	DefectFields   []string           `json:"defect_fields"`
}

// Log is the full §6.4 JSON document written by `--log`.
type Log struct {
	Workspace workspaceDoc         `json:"workspace"`
	Kernel    string               `json:"kernel"`
	Events    []*ir.Operation      `json:"events"`
	Timeline  []emit.TimelineEntry `json:"timeline"`
}

// Result is everything one successful Compile call produces.
type Result struct {
	Program *ir.Program
	Text    []string // control text, one line per entry, §6.3
	Log     Log
	Sim     *sim.Trace
}

// Compile runs the full pipeline over src. It returns *ir.ParseError for any
// source-level syntax/structure problem (§7.1) and *ir.OverlayError when
// strict mode promotes an overlay violation to fatal (§7.2); no partial
// Result is ever returned alongside a non-nil error.
func Compile(src string, opts Options) (*Result, error) {
	prog, err := parser.Parse(src)
	if err != nil {
		return nil, err
	}

	lat, err := lattice.New(prog.Workspace.Cols, prog.Workspace.Rows)
	if err != nil {
		return nil, ir.NewParseError(0, "%v", err)
	}

	if err := overlay.Validate(prog.Workspace, lat, prog.Kernel.Operations, opts.Strict); err != nil {
		replayDiagnostics(opts.Sink, prog.Kernel.Operations)
		return nil, err
	}

	result, err := emit.Walk(prog.Kernel.Operations)
	if err != nil {
		return nil, err
	}
	replayDiagnostics(opts.Sink, prog.Kernel.Operations)

	trace := sim.Run(prog.Kernel.Operations)

	return &Result{
		Program: prog,
		Text:    result.Text,
		Log: Log{
			Workspace: workspaceDoc{
				Name:           prog.Workspace.Name,
				Qubits:         prog.Workspace.Qubits,
				Lattice:        [2]int{prog.Workspace.Cols, prog.Workspace.Rows},
				SemanticFields: prog.Workspace.SemanticFields,
				DefectFields:   prog.Workspace.DefectFields,
			},
			Kernel:   prog.Kernel.Name,
			Events:   prog.Kernel.Operations,
			Timeline: result.Timeline,
		},
		Sim: trace,
	}, nil
}

// replayDiagnostics feeds every diagnostic collected on ops into sink, in
// kernel order, so Info/Warn lines always reach stderr even when they never
// escalate to a hard error (§7).
func replayDiagnostics(sink *diag.Sink, ops []*ir.Operation) {
	if sink == nil {
		return
	}
	for _, op := range ops {
		for _, d := range op.Diagnostics {
			sink.Diagnostic(d)
		}
	}
}

// MarshalLog renders the log document with stable field ordering (struct tag
// order), matching the determinism requirement of §5.
func (r *Result) MarshalLog() ([]byte, error) {
	return json.MarshalIndent(r.Log, "", "  ")
}

// MarshalSim renders the simulation trace as JSON (§6.5).
func (r *Result) MarshalSim() ([]byte, error) {
	return json.MarshalIndent(r.Sim, "", "  ")
}

// ControlText joins the emitted control-text lines with trailing newlines
// (§6.3), the format `--out` writes to disk.
func (r *Result) ControlText() string {
	out := make([]byte, 0, 64*len(r.Text))
	for _, line := range r.Text {
		out = append(out, line...)
		out = append(out, '\n')
	}
	return string(out)
}

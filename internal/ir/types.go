// Package ir defines the frozen intermediate representation produced by the
// parser: the workspace, the kernel, and the tagged-variant operation list
// that every later stage (overlay validator, Floquet expander, emitter,
// simulator) walks without mutating the workspace.
package ir

// SemanticField is one declared `semantic_field` statement. Kind is one of
// "scalar", "vector", or "tensor"; TensorRank is only meaningful when Kind is
// "tensor".
type SemanticField struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	TensorRank int    `json:"tensor_rank,omitempty"`
}

// Workspace is the frozen topology a kernel runs against: qubit count,
// lattice shape, and the declared semantic/defect fields in source order.
//
// A Workspace is built once by the parser and never mutated afterward; every
// later stage borrows it by pointer.
type Workspace struct {
	Name   string `json:"name"`
	Qubits int    `json:"qubits"`
	Cols   int    `json:"cols"`
	Rows   int    `json:"rows"`

	// SemanticFields preserves declaration order; semanticFieldIndex is a
	// companion lookup built alongside it so existence checks never rely on
	// map iteration order.
	SemanticFields     []SemanticField `json:"semantic_fields"`
	semanticFieldIndex map[string]int

	DefectFields     []string `json:"defect_fields"`
	defectFieldIndex map[string]struct{}
}

// NewWorkspace builds a Workspace and its lookup indices from already
// ordered declarations. Callers (the parser) are responsible for rejecting
// duplicate names before calling this.
func NewWorkspace(name string, qubits, cols, rows int, fields []SemanticField, defects []string) *Workspace {
	w := &Workspace{
		Name:           name,
		Qubits:         qubits,
		Cols:           cols,
		Rows:           rows,
		SemanticFields: fields,
		DefectFields:   defects,
	}
	w.semanticFieldIndex = make(map[string]int, len(fields))
	for i, f := range fields {
		w.semanticFieldIndex[f.Name] = i
	}
	w.defectFieldIndex = make(map[string]struct{}, len(defects))
	for _, d := range defects {
		w.defectFieldIndex[d] = struct{}{}
	}
	return w
}

// HasSemanticField reports whether name was declared as a semantic_field.
func (w *Workspace) HasSemanticField(name string) bool {
	_, ok := w.semanticFieldIndex[name]
	return ok
}

// SemanticFieldKind returns the declared kind of name and true, or ("", false)
// if name was never declared.
func (w *Workspace) SemanticFieldKind(name string) (string, bool) {
	i, ok := w.semanticFieldIndex[name]
	if !ok {
		return "", false
	}
	return w.SemanticFields[i].Kind, true
}

// HasDefectField reports whether name was declared as a defect_field.
func (w *Workspace) HasDefectField(name string) bool {
	_, ok := w.defectFieldIndex[name]
	return ok
}

// InBounds reports whether qubit index i is a valid reference (invariant 2).
func (w *Workspace) InBounds(i int) bool {
	return i >= 0 && i < w.Qubits
}

// Kernel is the ordered sequence of operations over a named workspace.
// Operations preserve source order; nothing in the compiler reorders them.
type Kernel struct {
	Name          string       `json:"name"`
	WorkspaceName string       `json:"workspace"`
	Operations    []*Operation `json:"operations"`
}

// Program is the complete parsed source: one workspace, one kernel.
type Program struct {
	Workspace *Workspace `json:"workspace"`
	Kernel    *Kernel    `json:"kernel"`
}

package ir

import "encoding/json"

// dumpDoc mirrors Program's public shape for JSON (un)marshalling without
// exposing Workspace's private lookup indices.
type dumpDoc struct {
	Workspace struct {
		Name           string          `json:"name"`
		Qubits         int             `json:"qubits"`
		Cols           int             `json:"cols"`
		Rows           int             `json:"rows"`
		SemanticFields []SemanticField `json:"semantic_fields"`
		DefectFields   []string        `json:"defect_fields"`
	} `json:"workspace"`
	Kernel struct {
		Name          string       `json:"name"`
		WorkspaceName string       `json:"workspace"`
		Operations    []*Operation `json:"operations"`
	} `json:"kernel"`
}

// Dump serialises a Program to the structured form used by I6's round-trip
// property and by the `events` section of the log schema (§6.4). Field
// ordering comes from Go struct tag order, so output is deterministic byte
// for byte across runs (§5).
func Dump(p *Program) ([]byte, error) {
	var d dumpDoc
	d.Workspace.Name = p.Workspace.Name
	d.Workspace.Qubits = p.Workspace.Qubits
	d.Workspace.Cols = p.Workspace.Cols
	d.Workspace.Rows = p.Workspace.Rows
	d.Workspace.SemanticFields = p.Workspace.SemanticFields
	d.Workspace.DefectFields = p.Workspace.DefectFields
	d.Kernel.Name = p.Kernel.Name
	d.Kernel.WorkspaceName = p.Kernel.WorkspaceName
	d.Kernel.Operations = p.Kernel.Operations
	return json.Marshal(d)
}

// Load reconstructs a Program from a Dump. It is used by tests to exercise
// the I6 round-trip property; production compilation never re-enters via
// Load, it always starts from source text.
func Load(data []byte) (*Program, error) {
	var d dumpDoc
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	ws := NewWorkspace(d.Workspace.Name, d.Workspace.Qubits, d.Workspace.Cols, d.Workspace.Rows,
		d.Workspace.SemanticFields, d.Workspace.DefectFields)
	return &Program{
		Workspace: ws,
		Kernel: &Kernel{
			Name:          d.Kernel.Name,
			WorkspaceName: d.Kernel.WorkspaceName,
			Operations:    d.Kernel.Operations,
		},
	}, nil
}

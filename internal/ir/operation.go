package ir

// OpKind routes an operation to its emission form: gate text, a
// `# semantic:` comment, or a `# braid:` comment. It carries no other
// meaning — the op name itself is what the simulator and validator key on.
type OpKind int

const (
	KindQuantum OpKind = iota
	KindSemantic
	KindBraid
)

func (k OpKind) String() string {
	switch k {
	case KindQuantum:
		return "quantum"
	case KindSemantic:
		return "semantic"
	case KindBraid:
		return "braid"
	default:
		return "unknown"
	}
}

// Operation is the tagged-variant record every kernel statement compiles to.
// Not every field is meaningful for every Op; e.g. Gate/Targets/Angle are
// quantum-control fields, Outs is measure-only, Raw carries the verbatim
// payload for statements whose inner grammar is out of scope (§4.B).
type Operation struct {
	Kind OpKind `json:"kind"`
	Op   string `json:"op"`
	Line int    `json:"line"`

	// Quantum control (ctrl, measure).
	Gate    string   `json:"gate,omitempty"`
	Targets []int    `json:"targets,omitempty"`
	Angle   string   `json:"angle,omitempty"`
	Outs    []string `json:"outs,omitempty"`

	// Raw is the verbatim balanced-brace/paren payload captured for
	// operations whose inner grammar is out of scope: defect statements,
	// `return { ... }`, `evolve ... with rule ...`.
	Raw string `json:"raw,omitempty"`

	// Guard is the raw text of an `unless <expr>` clause, if present.
	Guard string `json:"guard,omitempty"`

	// Overlay holds the normalised overlay key/value pairs attached via
	// `with overlay { ... }`; OverlayOrder preserves declaration order so
	// emission and diagnostics never depend on map iteration.
	Overlay      map[string]OverlayValue `json:"overlay,omitempty"`
	OverlayOrder []string                `json:"-"`

	// Diagnostics is appended to by the overlay validator, and by the
	// emitter for a Floquet planning warning (internal/floquet.Plan).
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`
}

// OverlayKind tags the recognised overlay keys of §4.C.
type OverlayKind int

const (
	OverlayCoherenceLen OverlayKind = iota
	OverlayPathLen
	OverlayDamping
	OverlayBraid
	OverlayFloquetPeriod
	OverlayCycles
	OverlayDuty
	OverlayPhaseStep
	OverlaySpan
	OverlayCoherenceBudget
	OverlayUnknown
)

// OverlayValue is the normalised form of one overlay key's value, per the
// tagged-variant mapping of spec §9: CoherenceLenNs(i64), PathLenMax(u32),
// Damping(field_id), Braid(defect_id), FloquetPeriodNs(u32), Cycles(u32),
// Duty(f64), PhaseStepDeg(f64), Unknown(key, raw).
type OverlayValue struct {
	Kind OverlayKind `json:"kind"`
	Key  string      `json:"key"`
	Raw  string      `json:"raw"`

	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Field string  `json:"field,omitempty"`

	// Malformed marks a recognised key whose value failed its well-formed
	// check (§4.C); Raw retains the original text for diagnostics.
	Malformed bool `json:"malformed,omitempty"`
}

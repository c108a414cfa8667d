// Package sim implements component I: a deterministic toy state machine over
// a scalar semantic field (Φ) and a defect population (D). It is pure — Run
// takes an immutable operation list and returns a fixed-shape trace, never
// touching a clock or RNG — so the same IR always produces the same JSON.
//
// The operations this compiler treats as raw/opaque at parse time still need
// a handful of values pulled back out here (a constant, a coordinate list, an
// amount), since the simulator is the one place those values are meaningful.
// Extraction is regexp-based and deliberately forgiving of punctuation, since
// it is reading text the parser never committed to a grammar for.
package sim

import (
	"regexp"
	"strconv"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

// Coord is a defect lattice coordinate.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Observation is the most recent `observe` result (§4.I).
type Observation struct {
	TEff        float64 `json:"T_eff"`
	Into        string  `json:"into"`
	Base        float64 `json:"base"`
	DefectsTerm float64 `json:"defects_term"`
	FieldTerm   float64 `json:"field_term"`
}

// Event is one append-only log entry. Only the fields relevant to Op are
// populated; the rest are omitted from JSON.
type Event struct {
	Op         string         `json:"op"`
	Value      float64        `json:"value,omitempty"`
	Coords     []Coord        `json:"coords,omitempty"`
	Density    float64        `json:"density,omitempty"`
	Phase      float64        `json:"phase,omitempty"`
	Amount     float64        `json:"amount,omitempty"`
	NewDensity float64        `json:"new_density,omitempty"`
	Into       string         `json:"into,omitempty"`
	Window     int            `json:"window,omitempty"`
	Trace      []float64      `json:"trace,omitempty"`
	Values     map[string]int `json:"values,omitempty"`
	Spec       string         `json:"spec,omitempty"`
	Args       string         `json:"args,omitempty"`
}

// PhiState is the scalar semantic field Φ's state under the §6.5 key
// fields.Phi.
type PhiState struct {
	Base float64 `json:"base"`
}

// DefectState is the defect population D's state under the §6.5 key
// defects.D.
type DefectState struct {
	Coords  []Coord `json:"coords"`
	Density float64 `json:"density"`
	Phase   float64 `json:"phase"`
}

// Fields and Defects wrap the per-entity states so the JSON nests exactly as
// §6.5 spells it: all semantic fields other than Phi and all defect fields
// other than D are inert to the simulator, so each wrapper has one member.
type Fields struct {
	Phi PhiState `json:"Phi"`
}

type Defects struct {
	D DefectState `json:"D"`
}

// Trace is the full fixed-shape simulation result (§6.5).
type Trace struct {
	Fields       Fields         `json:"fields"`
	Defects      Defects        `json:"defects"`
	Measurements map[string]int `json:"measurements"`
	MeasureOrder []string       `json:"-"`
	LatestObs    *Observation   `json:"latest_obs,omitempty"`
	Events       []Event        `json:"events"`
}

// Run walks ops once, left to right, applying the transition table of §4.I.
func Run(ops []*ir.Operation) *Trace {
	tr := &Trace{Measurements: map[string]int{}}
	tr.Defects.D.Coords = []Coord{}
	measureIndex := 0

	for _, op := range ops {
		switch {
		case op.Kind == ir.KindQuantum && op.Op == "measure":
			for _, out := range op.Outs {
				v := measureIndex % 2
				tr.Measurements[out] = v
				tr.MeasureOrder = append(tr.MeasureOrder, out)
				measureIndex++
			}
			tr.Events = append(tr.Events, Event{Op: "measure", Values: cloneInts(tr.Measurements)})

		case op.Op == "initialize":
			c, _ := extractFloat(op.Raw, reConstant)
			tr.Fields.Phi.Base = c
			tr.Events = append(tr.Events, Event{Op: "init_phi", Value: c})

		case op.Op == "nucleate":
			coords := extractCoords(op.Raw)
			tr.Defects.D.Coords = append(tr.Defects.D.Coords, coords...)
			tr.Defects.D.Density = 0.01
			tr.Events = append(tr.Events, Event{Op: "nucleate", Coords: coords, Density: tr.Defects.D.Density})

		case op.Op == "evolve":
			tr.Defects.D.Density = round4(tr.Defects.D.Density * 1.05)
			tr.Defects.D.Phase = 0.55
			tr.Events = append(tr.Events, Event{Op: "evolve", Density: tr.Defects.D.Density, Phase: tr.Defects.D.Phase})

		case op.Op == "quench":
			a, _ := extractFloat(op.Raw, reAmount)
			tr.Defects.D.Density = round4(max0(tr.Defects.D.Density - a))
			tr.Events = append(tr.Events, Event{Op: "quench", Amount: a, NewDensity: tr.Defects.D.Density})

		case op.Op == "observe":
			into := extractInto(op.Raw)
			defectsTerm := round4(0.001 * float64(len(tr.Defects.D.Coords)))
			fieldTerm := round4(0.01 * tr.Fields.Phi.Base)
			value := round4(tr.Fields.Phi.Base + defectsTerm + fieldTerm)
			obs := &Observation{TEff: value, Into: into, Base: tr.Fields.Phi.Base, DefectsTerm: defectsTerm, FieldTerm: fieldTerm}
			tr.LatestObs = obs
			tr.Events = append(tr.Events, Event{Op: "observe", Into: into, Value: value})

		case op.Op == "hysteresis_trace":
			window := extractInt(op.Raw, reWindow)
			trace := make([]float64, window)
			for k := 0; k < window; k++ {
				trace[k] = round4(0.0009 + 0.0001*float64(k))
			}
			tr.Events = append(tr.Events, Event{Op: "hysteresis", Window: window, Trace: trace})

		case op.Op == "return":
			tr.Events = append(tr.Events, Event{Op: "return", Spec: op.Raw})

		default:
			tr.Events = append(tr.Events, Event{Op: op.Op, Args: op.Raw})
		}
	}
	return tr
}

var (
	reConstant = regexp.MustCompile(`constant\(\s*(-?[0-9]+(?:\.[0-9]+)?)\s*\)`)
	reAmount   = regexp.MustCompile(`amount\s*=\s*(-?[0-9]+(?:\.[0-9]+)?)`)
	reWindow   = regexp.MustCompile(`window\s*=\s*([0-9]+)`)
	reInto     = regexp.MustCompile(`into\s+([A-Za-z_][A-Za-z0-9_]*)`)
	reCoord    = regexp.MustCompile(`\(\s*(-?[0-9]+)\s*,\s*(-?[0-9]+)\s*\)`)
)

func extractFloat(raw string, re *regexp.Regexp) (float64, bool) {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func extractInt(raw string, re *regexp.Regexp) int {
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func extractInto(raw string) string {
	m := reInto.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return m[1]
}

func extractCoords(raw string) []Coord {
	matches := reCoord.FindAllStringSubmatch(raw, -1)
	coords := make([]Coord, 0, len(matches))
	for _, m := range matches {
		x, _ := strconv.Atoi(m[1])
		y, _ := strconv.Atoi(m[2])
		coords = append(coords, Coord{X: x, Y: y})
	}
	return coords
}

func round4(f float64) float64 {
	shifted := f * 10000
	rounded := float64(int64(shifted + sign(shifted)*0.5))
	return rounded / 10000
}

func sign(f float64) float64 {
	if f < 0 {
		return -1
	}
	return 1
}

func max0(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

func cloneInts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

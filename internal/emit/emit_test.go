package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

func TestWalkCalibratedEPRTimeline(t *testing.T) {
	ops := []*ir.Operation{
		{
			Kind: ir.KindQuantum, Op: "ctrl", Gate: "rx", Targets: []int{0}, Angle: "π/2", Line: 1,
			Overlay:      map[string]ir.OverlayValue{"coherence_len": {Kind: ir.OverlayCoherenceLen, Int: 80}},
			OverlayOrder: []string{"coherence_len"},
		},
		{
			Kind: ir.KindQuantum, Op: "ctrl", Gate: "cz", Targets: []int{0, 1}, Line: 2,
			Overlay: map[string]ir.OverlayValue{
				"coherence_len": {Kind: ir.OverlayCoherenceLen, Int: 120},
				"path_len":      {Kind: ir.OverlayPathLen, Int: 2},
			},
			OverlayOrder: []string{"coherence_len", "path_len"},
		},
		{Kind: ir.KindQuantum, Op: "measure", Targets: []int{0}, Outs: []string{"m0"}, Line: 3},
		{Kind: ir.KindQuantum, Op: "measure", Targets: []int{1}, Outs: []string{"m1"}, Line: 4},
	}

	result, err := Walk(ops)
	require.NoError(t, err)

	var waits, rx, cz []TimelineEntry
	for _, e := range result.Timeline {
		switch e.Op {
		case "wait":
			waits = append(waits, e)
		case "rx":
			rx = append(rx, e)
		case "cz":
			cz = append(cz, e)
		}
	}
	require.Len(t, waits, 2)
	assert.EqualValues(t, 0, waits[0].T)
	assert.EqualValues(t, 80, waits[0].Ns)
	assert.EqualValues(t, 80, waits[1].T)
	assert.EqualValues(t, 120, waits[1].Ns)

	require.Len(t, rx, 1)
	assert.EqualValues(t, 80, rx[0].T)
	require.Len(t, cz, 1)
	assert.EqualValues(t, 200, cz[0].T)
}

func TestWalkFloquetExpansionProducesNCycles(t *testing.T) {
	op := &ir.Operation{
		Kind: ir.KindQuantum, Op: "ctrl", Gate: "cz", Targets: []int{0, 1}, Line: 1,
		Overlay: map[string]ir.OverlayValue{
			"coherence_len":  {Kind: ir.OverlayCoherenceLen, Int: 120},
			"floquet_period": {Kind: ir.OverlayFloquetPeriod, Int: 50},
			"cycles":         {Kind: ir.OverlayCycles, Int: 8},
			"duty":           {Kind: ir.OverlayDuty, Float: 0.4},
		},
		OverlayOrder: []string{"coherence_len", "floquet_period", "cycles", "duty"},
	}
	result, err := Walk([]*ir.Operation{op})
	require.NoError(t, err)

	var czCycles int
	for _, e := range result.Timeline {
		if e.Op == "cz@floquet" {
			czCycles++
		}
	}
	assert.Equal(t, 8, czCycles)

	var headerCount int
	for _, line := range result.Text {
		if line == "# floquet: period=50ns, cycles=8, duty=0.4" {
			headerCount++
		}
	}
	assert.Equal(t, 1, headerCount)
}

func TestWalkUnsupportedGatePassesThrough(t *testing.T) {
	op := &ir.Operation{Kind: ir.KindQuantum, Op: "ctrl", Gate: "swap", Targets: []int{0, 1}, Line: 1}
	result, err := Walk([]*ir.Operation{op})
	require.NoError(t, err)
	assert.Contains(t, result.Text, "# unsupported gate: swap")
	require.Len(t, result.Timeline, 1)
	assert.Equal(t, "swap", result.Timeline[0].Op)
}

func TestWalkGuardEmitsTrailingComment(t *testing.T) {
	op := &ir.Operation{Kind: ir.KindQuantum, Op: "ctrl", Gate: "x", Targets: []int{0}, Line: 1, Guard: "m0 == 1"}
	result, err := Walk([]*ir.Operation{op})
	require.NoError(t, err)
	assert.Contains(t, result.Text, "# guarded_by: m0 == 1")
}

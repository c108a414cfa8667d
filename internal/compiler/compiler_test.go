package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

const calibratedEPR = `
workspace Chip {
	qubits q[4];
	lattice L(2,2) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	ctrl rx q[0] angle=π/2 with overlay { coherence_len >= 80ns };
	ctrl cz q[0], q[1] with overlay { coherence_len >= 120ns, path_len <= 2 };
	measure q[0] -> m0;
	measure q[1] -> m1;
	return { m0 ⊕ m1 };
}
`

// TestS1CalibratedEPR checks the timeline ordering spec.md §8 S1 pins.
func TestS1CalibratedEPR(t *testing.T) {
	res, err := Compile(calibratedEPR, Options{})
	require.NoError(t, err)

	var waits, rx, cz []struct {
		t  int64
		ns int64
	}
	for _, e := range res.Log.Timeline {
		switch e.Op {
		case "wait":
			waits = append(waits, struct{ t, ns int64 }{e.T, e.Ns})
		case "rx":
			rx = append(rx, struct{ t, ns int64 }{e.T, 0})
		case "cz":
			cz = append(cz, struct{ t, ns int64 }{e.T, 0})
		}
	}
	require.Len(t, waits, 2)
	assert.EqualValues(t, 0, waits[0].t)
	assert.EqualValues(t, 80, waits[0].ns)
	require.Len(t, rx, 1)
	assert.EqualValues(t, 80, rx[0].t)
	assert.EqualValues(t, 80, waits[1].t)
	assert.EqualValues(t, 120, waits[1].ns)
	require.Len(t, cz, 1)
	assert.EqualValues(t, 200, cz[0].t)
}

// TestS2BadOverlayStrict checks spec.md §8 S2: a path_len violation in
// strict mode is a fatal OverlayError and no control text is produced.
func TestS2BadOverlayStrict(t *testing.T) {
	src := `
workspace Chip {
	qubits q[4];
	lattice L(2,2) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	ctrl cz q[0], q[3] with overlay { path_len <= 0 };
}
`
	res, err := Compile(src, Options{Strict: true})
	require.Nil(t, res)
	require.Error(t, err)
	var operr *ir.OverlayError
	require.ErrorAs(t, err, &operr)
	assert.Contains(t, operr.Msg, "path_len ≤ 0 violated (distance=2)")
}

// TestS3FloquetExpansion checks spec.md §8 S3: exactly 8 cz@floquet cycles
// and a single leading coherence_len wait before the train.
func TestS3FloquetExpansion(t *testing.T) {
	src := `
workspace Chip {
	qubits q[4];
	lattice L(2,2) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	ctrl cz q[0],q[1] with overlay { coherence_len >= 120ns, floquet_period=50ns, cycles=8, duty=0.4 };
}
`
	res, err := Compile(src, Options{})
	require.NoError(t, err)

	var cycles []int64
	var leadingWaits int
	for _, e := range res.Log.Timeline {
		if e.Op == "wait" && e.Ns == 120 {
			leadingWaits++
		}
		if e.Op == "cz@floquet" {
			cycles = append(cycles, e.Cycle)
		}
	}
	assert.Equal(t, 1, leadingWaits)
	require.Len(t, cycles, 8)
	for i, c := range cycles {
		assert.EqualValues(t, i+1, c)
	}

	var headerCount int
	for _, line := range res.Text {
		if line == "# floquet: period=50ns, cycles=8, duty=0.4" {
			headerCount++
		}
	}
	assert.Equal(t, 1, headerCount)
}

// TestS4UnknownGatePassthrough checks spec.md §8 S4.
func TestS4UnknownGatePassthrough(t *testing.T) {
	src := `
workspace Chip {
	qubits q[4];
	lattice L(2,2) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	ctrl swap q[0], q[1];
}
`
	res, err := Compile(src, Options{})
	require.NoError(t, err)
	assert.Contains(t, res.Text, "# unsupported gate: swap")
	require.Len(t, res.Log.Timeline, 1)
	assert.Equal(t, "swap", res.Log.Timeline[0].Op)
	assert.Equal(t, []string{"q[0]", "q[1]"}, res.Log.Timeline[0].Targets)
}

// TestS5SimulatorDeterminism checks spec.md §8 S5: running the same source
// through Compile twice yields byte-identical simulation JSON, and T_eff
// matches the documented closed form.
func TestS5SimulatorDeterminism(t *testing.T) {
	src := `
workspace Chip {
	qubits q[1];
	lattice L(1,1) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	initialize Phi = constant(0.4);
	nucleate D at (0,0) amount=1.0;
	observe T_eff into X with corrections {defects=D, field=Phi};
}
`
	r1, err := Compile(src, Options{})
	require.NoError(t, err)
	r2, err := Compile(src, Options{})
	require.NoError(t, err)

	j1, err := r1.MarshalSim()
	require.NoError(t, err)
	j2, err := r2.MarshalSim()
	require.NoError(t, err)
	assert.Equal(t, j1, j2)

	want := 0.4 + 0.001*1 + 0.01*0.4
	assert.InDelta(t, round4(want), r1.Sim.LatestObs.TEff, 1e-9)
}

func round4(f float64) float64 {
	return float64(int64(f*10000+0.5)) / 10000
}

// TestS6DampingMissingField checks spec.md §8 S6.
func TestS6DampingMissingField(t *testing.T) {
	src := `
workspace Chip {
	qubits q[4];
	lattice L(2,2) attach q;
	semantic_field Phi: scalar on L;
	defect_field D: defects on L {};
}
kernel K on Chip {
	ctrl cx q[0],q[1] with overlay { damping = η(Φ=NoSuch) };
}
`
	res, err := Compile(src, Options{Strict: false})
	require.NoError(t, err)
	require.NotNil(t, res)

	_, err = Compile(src, Options{Strict: true})
	require.Error(t, err)
	var operr *ir.OverlayError
	require.ErrorAs(t, err, &operr)
}

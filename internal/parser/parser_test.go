package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dr-Loo/SQUINT/internal/ir"
)

func TestParseWorkspaceErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantErr bool
	}{
		{
			name: "missing qubits declaration",
			src: `workspace W {
				lattice L(2,2) attach Phi;
			}
			kernel K on W { }`,
			wantErr: true,
		},
		{
			name: "missing lattice declaration",
			src: `workspace W {
				qubits q[4];
			}
			kernel K on W { }`,
			wantErr: true,
		},
		{
			name: "kernel references undeclared workspace",
			src: `workspace W {
				qubits q[4];
				lattice L(2,2) attach Phi;
			}
			kernel K on Other { }`,
			wantErr: true,
		},
		{
			name: "well formed, empty kernel",
			src: `workspace W {
				qubits q[4];
				lattice L(2,2) attach Phi;
			}
			kernel K on W { }`,
			wantErr: false,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.src)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseCtrlTargetsMustBeDistinct(t *testing.T) {
	src := `workspace W {
		qubits q[4];
		lattice L(2,2) attach Phi;
	}
	kernel K on W {
		ctrl cx q[0], q[0];
	}`
	_, err := Parse(src)
	require.Error(t, err)
	var perr *ir.ParseError
	require.ErrorAs(t, err, &perr)
}

func TestParseCtrlWithAngleOverlayAndGuard(t *testing.T) {
	src := `workspace W {
		qubits q[4];
		lattice L(2,2) attach Phi;
	}
	kernel K on W {
		ctrl rx q[0] angle=π/2 with overlay {
			coherence_len ≥ 80ns,
			path_len ≤ 2,
			damping = η(Φ=Phi),
			braid = D
		} unless q[1] == 1;
	}`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Kernel.Operations, 1)

	op := prog.Kernel.Operations[0]
	assert.Equal(t, ir.KindQuantum, op.Kind)
	assert.Equal(t, "ctrl", op.Op)
	assert.Equal(t, "rx", op.Gate)
	assert.Equal(t, []int{0}, op.Targets)
	assert.Equal(t, "π/2", op.Angle)
	assert.Equal(t, "q[1] == 1", op.Guard)

	require.Contains(t, op.Overlay, "coherence_len")
	cl := op.Overlay["coherence_len"]
	assert.False(t, cl.Malformed)
	assert.EqualValues(t, 80, cl.Int)

	require.Contains(t, op.Overlay, "path_len")
	pl := op.Overlay["path_len"]
	assert.False(t, pl.Malformed)
	assert.EqualValues(t, 2, pl.Int)

	require.Contains(t, op.Overlay, "damping")
	damp := op.Overlay["damping"]
	assert.False(t, damp.Malformed)
	assert.Equal(t, "Phi", damp.Field)

	require.Contains(t, op.Overlay, "braid")
	braid := op.Overlay["braid"]
	assert.False(t, braid.Malformed)
	assert.Equal(t, "D", braid.Field)

	assert.Equal(t, []string{"coherence_len", "path_len", "damping", "braid"}, op.OverlayOrder)
}

func TestParseMeasureTwoTargets(t *testing.T) {
	src := `workspace W {
		qubits q[4];
		lattice L(2,2) attach Phi;
	}
	kernel K on W {
		measure q[0], q[1] -> m0, m1;
	}`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Kernel.Operations, 1)
	op := prog.Kernel.Operations[0]
	assert.Equal(t, "measure", op.Op)
	assert.Equal(t, []int{0, 1}, op.Targets)
	assert.Equal(t, []string{"m0", "m1"}, op.Outs)
}

func TestParseGenericOpsCaptureRawBodyVerbatim(t *testing.T) {
	src := `workspace W {
		qubits q[4];
		lattice L(2,2) attach Phi;
		semantic_field Phi: scalar on L;
		defect_field D: defects on L { seed: [0,0] };
	}
	kernel K on W {
		initialize Phi = constant(0.4);
		nucleate D at (0,0) amount=1.0;
		hysteresis_trace D window=4;
		return { m0 ⊕ m1 };
	}`
	prog, err := Parse(src)
	require.NoError(t, err)
	require.Len(t, prog.Kernel.Operations, 4)

	init := prog.Kernel.Operations[0]
	assert.Equal(t, ir.KindSemantic, init.Kind)
	assert.Equal(t, "Phi = constant(0.4)", init.Raw)

	nuc := prog.Kernel.Operations[1]
	assert.Equal(t, ir.KindBraid, nuc.Kind)
	assert.Equal(t, "D at (0,0) amount=1.0", nuc.Raw)

	hyst := prog.Kernel.Operations[2]
	assert.Equal(t, ir.KindBraid, hyst.Kind)
	assert.Equal(t, "D window=4", hyst.Raw)

	ret := prog.Kernel.Operations[3]
	assert.Equal(t, ir.KindSemantic, ret.Kind)
	assert.Equal(t, "{ m0 ⊕ m1 }", ret.Raw)
}

func TestNormalizeOverlayValueMalformedCases(t *testing.T) {
	v := normalizeOverlayValue("cycles", 0, "not-a-number", 1)
	assert.True(t, v.Malformed)

	v = normalizeOverlayValue("duty", 0, "1.5", 1)
	assert.True(t, v.Malformed)

	v = normalizeOverlayValue("span", 0, "anything at all", 1)
	assert.False(t, v.Malformed)

	v = normalizeOverlayValue("glorb", 0, "x", 1)
	assert.Equal(t, ir.OverlayUnknown, v.Kind)
	assert.False(t, v.Malformed)
}

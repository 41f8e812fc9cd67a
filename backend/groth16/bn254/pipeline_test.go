package groth16

import (
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/ingonyama-zk/groth16-hybrid/frontend"
	"github.com/ingonyama-zk/groth16-hybrid/internal/gpu"
)

// fakeParams is a CRS stand-in that fills every query with a scalar
// multiple of the curve generators, sized to whatever inputLen/n the
// batch under test actually uses. zeroDelta swaps DeltaG1/DeltaG2 for the
// identity point to exercise the subversion-CRS rejection path.
type fakeParams struct {
	n, inputLen int
	g1          curve.G1Affine
	g2          curve.G2Affine
	zeroDelta   bool
}

func newFakeParams(n, inputLen int) *fakeParams {
	_, _, g1, g2 := curve.Generators()
	return &fakeParams{n: n, inputLen: inputLen, g1: g1, g2: g2}
}

func (f *fakeParams) repeatG1(n int) []curve.G1Affine {
	out := make([]curve.G1Affine, n)
	for i := range out {
		out[i] = f.g1
	}
	return out
}

func (f *fakeParams) repeatG2(n int) []curve.G2Affine {
	out := make([]curve.G2Affine, n)
	for i := range out {
		out[i] = f.g2
	}
	return out
}

func (f *fakeParams) GetVK(inputLen int) (*VerifyingKey, error) {
	vk := &VerifyingKey{
		AlphaG1: f.g1,
		BetaG1:  f.g1,
		BetaG2:  f.g2,
		DeltaG1: f.g1,
		DeltaG2: f.g2,
		IC:      f.repeatG1(inputLen),
	}
	if f.zeroDelta {
		vk.DeltaG1.X.SetZero()
		vk.DeltaG1.Y.SetZero()
		vk.DeltaG2.X.SetZero()
		vk.DeltaG2.Y.SetZero()
	}
	return vk, nil
}

func (f *fakeParams) GetH(idx int) ([]curve.G1Affine, error) { return f.repeatG1(f.n), nil }
func (f *fakeParams) GetL(idx int) ([]curve.G1Affine, error) { return f.repeatG1(f.n), nil }

func (f *fakeParams) GetA(inputLen, idx int) (inputs, aux []curve.G1Affine, err error) {
	return f.repeatG1(inputLen), f.repeatG1(f.n), nil
}

func (f *fakeParams) GetBG1(inputLen, idx int) (inputs, aux []curve.G1Affine, err error) {
	return f.repeatG1(inputLen), f.repeatG1(f.n), nil
}

func (f *fakeParams) GetBG2(inputLen, idx int) (inputs, aux []curve.G2Affine, err error) {
	return f.repeatG2(inputLen), f.repeatG2(f.n), nil
}

func feltFromUint(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func newTrivialBatch(values ...uint64) ([]frontend.Circuit, []fr.Element, []fr.Element) {
	circuits := make([]frontend.Circuit, len(values))
	rS := make([]fr.Element, len(values))
	sS := make([]fr.Element, len(values))
	for i, v := range values {
		circuits[i] = &trivialCircuit{x: feltFromUint(v)}
		rS[i] = feltFromUint(uint64(i) + 1)
		sS[i] = feltFromUint(uint64(i) + 2)
	}
	return circuits, rS, sS
}

// TestCreateProofBatchPriorityOrderAndValidity runs a small batch through
// the whole pipeline with no GPU devices (falling back entirely to the
// CPU multiexp paths) and checks the batch returns one valid proof per
// circuit, in input order, per the "batch order preserved" scenario:
// proof i must equal the proof a one-circuit batch of circuit i (with the
// same r and s) produces.
func TestCreateProofBatchPriorityOrderAndValidity(t *testing.T) {
	circuits, rS, sS := newTrivialBatch(3, 9, 27)

	params := newFakeParams(4, 2)
	locks := gpu.NewLockRegistry()
	stats := gpu.NewStats()

	proofs, err := CreateProofBatchPriority(circuits, params, rS, sS, false, locks, nil, stats)
	require.NoError(t, err)
	require.Len(t, proofs, len(circuits))
	for i, p := range proofs {
		require.True(t, p.IsValid(), "proof %d not in subgroup", i)
		require.Equal(t, "bn254", p.CurveID())

		single, err := CreateProofBatchPriority(circuits[i:i+1], params, rS[i:i+1], sS[i:i+1], false, locks, nil, stats)
		require.NoError(t, err)
		require.Equal(t, single[0], p, "proof %d does not belong to circuit %d", i, i)
	}
}

// TestCreateProofBatchPriorityRejectsUnequalCircuitSize exercises the
// batch-size mismatch guard: circuits with different constraint counts
// cannot share one batch's polynomial phase.
func TestCreateProofBatchPriorityRejectsUnequalCircuitSize(t *testing.T) {
	small := &trivialCircuit{x: feltFromUint(1)}
	circuits := []frontend.Circuit{small, &biggerCircuit{x: feltFromUint(2)}}
	rS := []fr.Element{feltFromUint(1), feltFromUint(1)}
	sS := []fr.Element{feltFromUint(1), feltFromUint(1)}

	params := newFakeParams(8, 2)
	locks := gpu.NewLockRegistry()
	stats := gpu.NewStats()

	_, err := CreateProofBatchPriority(circuits, params, rS, sS, false, locks, nil, stats)
	require.ErrorIs(t, err, ErrUnequalCircuitSize)
}

// TestCreateProofBatchPriorityRejectsIdentityDelta exercises the
// subversion-CRS check: a VerifyingKey whose delta points are the
// identity must be rejected rather than silently producing a proof.
func TestCreateProofBatchPriorityRejectsIdentityDelta(t *testing.T) {
	circuits, rS, sS := newTrivialBatch(5)

	params := newFakeParams(4, 2)
	params.zeroDelta = true
	locks := gpu.NewLockRegistry()
	stats := gpu.NewStats()

	_, err := CreateProofBatchPriority(circuits, params, rS, sS, false, locks, nil, stats)
	require.ErrorIs(t, err, ErrUnexpectedIdentity)
}

// TestComputeLPhasePreservesHeadOrder pins the CPU-head branch of
// computeLPhase to return both head results in order rather than losing
// the first one, the bug intentionally not replicated from the original's
// shadowed `result` variable in its L-phase CPU loop.
func TestComputeLPhasePreservesHeadOrder(t *testing.T) {
	_, _, g1, _ := curve.Generators()
	lParams := []curve.G1Affine{g1, g1}

	assignments := []repr{
		{aux: []fr.Element{feltFromUint(3)}},
		{aux: []fr.Element{feltFromUint(11)}},
	}

	locks := gpu.NewLockRegistry()
	stats := gpu.NewStats()

	out, err := computeLPhase(assignments, lParams, false, locks, nil, stats)
	require.NoError(t, err)
	require.Len(t, out, 2)

	var want0, want1 curve.G1Jac
	want0.FromAffine(&g1)
	scalarMulG1Jac(&want0, &assignments[0].aux[0])
	want1.FromAffine(&g1)
	scalarMulG1Jac(&want1, &assignments[1].aux[0])

	require.True(t, out[0].Equal(&want0), "first head result lost or overwritten")
	require.True(t, out[1].Equal(&want1), "second head result incorrect")
	require.False(t, out[0].Equal(&out[1]), "both head results collapsed to the same value")
}

// biggerCircuit enforces two constraints instead of trivialCircuit's one,
// giving it a different total constraint count after synthesizeAll's
// per-input degenerate constraints are added.
type biggerCircuit struct {
	x fr.Element
}

func (c *biggerCircuit) Synthesize(cs frontend.ConstraintSystem) error {
	xVar, err := cs.AllocInput(c.x)
	if err != nil {
		return err
	}
	yVar, err := cs.AllocInput(c.x)
	if err != nil {
		return err
	}
	a := frontend.LinearCombination{}.AddVar(xVar)
	b := frontend.LinearCombination{}.AddVar(xVar)
	cOut := frontend.LinearCombination{}.AddVar(xVar)
	cs.Enforce(a, b, cOut)

	a2 := frontend.LinearCombination{}.AddVar(yVar)
	b2 := frontend.LinearCombination{}.AddVar(yVar)
	c2 := frontend.LinearCombination{}.AddVar(yVar)
	cs.Enforce(a2, b2, c2)
	return nil
}

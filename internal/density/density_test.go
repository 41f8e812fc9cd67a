package density

import (
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func TestTrackerIncAndTotalDensity(t *testing.T) {
	tr := NewTracker()
	for i := 0; i < 5; i++ {
		tr.AddElement()
	}
	tr.Inc(1)
	tr.Inc(3)

	require.Equal(t, 5, tr.Len())
	require.Equal(t, 2, tr.TotalDensity())
	require.True(t, tr.Get(1))
	require.True(t, tr.Get(3))
	require.False(t, tr.Get(0))
}

func TestTrackerExtendSkipsFirstInput(t *testing.T) {
	a := NewTracker()
	a.AddElement()
	a.Inc(0)

	b := NewTracker()
	b.AddElement()
	b.AddElement()
	b.Inc(1)

	a.Extend(b, true)

	require.Equal(t, 2, a.Len())
	require.True(t, a.Get(0))
	require.True(t, a.Get(1))
}

func TestTrackerExtendAuxKeepsAllPositions(t *testing.T) {
	a := NewTracker()
	a.AddElement()
	a.Inc(0)

	b := NewTracker()
	b.AddElement()
	b.AddElement()
	b.Inc(0)

	a.Extend(b, false)

	require.Equal(t, 3, a.Len())
	require.True(t, a.Get(0))
	require.True(t, a.Get(1))
	require.False(t, a.Get(2))
}

func TestFilterPreservesOrderAndCompacts(t *testing.T) {
	tr := NewTracker()
	bases := make([]curve.G1Affine, 4)
	exps := make([]fr.Element, 4)
	_, _, g1, _ := curve.Generators()
	for i := range bases {
		tr.AddElement()
		bases[i] = g1
		exps[i].SetUint64(uint64(i + 1))
	}
	tr.Inc(0)
	tr.Inc(2)

	fBases, fExps, skip, n := Filter(bases, tr, exps)
	require.Equal(t, 0, skip)
	require.Equal(t, 2, n)
	require.Len(t, fBases, 2)
	require.Len(t, fExps, 2)
	require.EqualValues(t, 1, fExps[0].Uint64())
	require.EqualValues(t, 3, fExps[1].Uint64())
}

func TestTrackerEqual(t *testing.T) {
	a := NewTracker()
	b := NewTracker()
	for i := 0; i < 3; i++ {
		a.AddElement()
		b.AddElement()
	}
	a.Inc(1)
	b.Inc(1)
	require.True(t, a.Equal(b))

	b.Inc(2)
	require.False(t, a.Equal(b))
}

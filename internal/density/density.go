// Package density implements the DensityTracker and density-filtered MSM
// input preparation described in spec §3 and §4.7: a bit-set over variable
// indices recording which positions carry a non-zero coefficient in a
// given linear-combination query, and the slice-compaction step that lets
// the GPU multiexp path stay free of branchy density checks.
package density

import (
	"github.com/bits-and-blooms/bitset"
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Tracker is a bit-set over variable indices, one bit per allocated
// variable, set whenever that variable's coefficient in the tracked query
// is observed to be non-zero.
type Tracker struct {
	bits *bitset.BitSet
	len  uint
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{bits: bitset.New(0)}
}

// AddElement grows the tracker by one position, initially clear. Called
// once per Alloc/AllocInput on the constraint system that owns this
// tracker.
func (t *Tracker) AddElement() {
	t.len++
}

// Inc marks index i as having a non-zero coefficient.
func (t *Tracker) Inc(i int) {
	t.bits.Set(uint(i))
}

// Get reports whether index i is marked dense.
func (t *Tracker) Get(i int) bool {
	return t.bits.Test(uint(i))
}

// Len returns the number of tracked positions (allocated variables).
func (t *Tracker) Len() int {
	return int(t.len)
}

// TotalDensity returns the number of positions marked dense.
func (t *Tracker) TotalDensity() int {
	return int(t.bits.Count())
}

// Extend appends other's tracked positions after this tracker's own. When
// isInputDensity is true, the input tracker's first position (the
// constant-one wire, re-added once per partial assignment during
// synthesis) is dropped rather than appended, mirroring
// ConstraintSystem::extend in the original prover: partial assignments
// each allocate their own "one" input, but only the first such allocation
// survives in the combined assignment.
func (t *Tracker) Extend(other *Tracker, isInputDensity bool) {
	start := uint(0)
	if isInputDensity {
		start = 1
	}
	for i := start; i < other.len; i++ {
		t.len++
		if other.bits.Test(i) {
			t.bits.Set(t.len - 1)
		} else {
			t.bits.Clear(t.len - 1)
		}
	}
}

// Equal reports whether two trackers have identical length and bit
// pattern; used by ProvingAssignment's equality check in tests.
func (t *Tracker) Equal(other *Tracker) bool {
	if t.len != other.len {
		return false
	}
	return t.bits.Equal(other.bits)
}

// Filter produces the contiguous (bases', exps', skip, n') triple needed
// for density-aware multiexp: bases/exps selected by the tracker's set
// bits, in order,
// ready for a "skip-density" multiexp that assumes a pre-filtered slice.
// skip is always 0 here since the result is a freshly allocated
// contiguous slice rather than a sub-slice of bases; it is kept in the
// return signature to match the multiexp driver's (bases, exps, skip, n)
// calling convention used for unfiltered full-density multiexps.
func Filter(bases []curve.G1Affine, tracker *Tracker, exps []fr.Element) (filteredBases []curve.G1Affine, filteredExps []fr.Element, skip int, n int) {
	total := tracker.TotalDensity()
	filteredBases = make([]curve.G1Affine, 0, total)
	filteredExps = make([]fr.Element, 0, total)
	for i := 0; i < len(exps); i++ {
		if tracker.Get(i) {
			filteredBases = append(filteredBases, bases[i])
			filteredExps = append(filteredExps, exps[i])
		}
	}
	return filteredBases, filteredExps, 0, len(filteredExps)
}

// FilterG2 is Filter specialized to G2 bases, used for the b_g2_aux query.
func FilterG2(bases []curve.G2Affine, tracker *Tracker, exps []fr.Element) (filteredBases []curve.G2Affine, filteredExps []fr.Element, skip int, n int) {
	total := tracker.TotalDensity()
	filteredBases = make([]curve.G2Affine, 0, total)
	filteredExps = make([]fr.Element, 0, total)
	for i := 0; i < len(exps); i++ {
		if tracker.Get(i) {
			filteredBases = append(filteredBases, bases[i])
			filteredExps = append(filteredExps, exps[i])
		}
	}
	return filteredBases, filteredExps, 0, len(filteredExps)
}

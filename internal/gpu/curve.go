package gpu

import (
	"unsafe"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Curve is the capability design notes §9 asks for in place of the
// original's runtime TypeId dispatch: a small tagged-variant interface
// chosen per call site instead of branching on a reflected type at kernel
// launch time.
type Curve int

const (
	// G1 tags the base group, used for the A, H, L and Bs1 queries.
	G1 Curve = iota
	// G2 tags the twisted group, used for the Bs2 query.
	G2
)

func (c Curve) String() string {
	switch c {
	case G1:
		return "G1"
	case G2:
		return "G2"
	default:
		return "unknown"
	}
}

// projectiveSize returns sizeof(G1Jac) / sizeof(G2Jac) the way the original
// source's std::mem::size_of::<Projective>() does, to decide window size.
func projectiveSize(c Curve) uintptr {
	switch c {
	case G1:
		return unsafe.Sizeof(curve.G1Jac{})
	case G2:
		return unsafe.Sizeof(curve.G2Jac{})
	default:
		return 0
	}
}

// WindowSize selects the Pippenger window width: 11 bits for G1-sized
// results, 8 bits once the projective element exceeds 144 bytes
// (i.e. G2). Grounded on original_source/src/gpu/multiexp.rs's
// `jack_windows_size` selection (`size_of::<Projective>() > 144`).
func WindowSize(c Curve) int {
	if projectiveSize(c) > 144 {
		return 8
	}
	return 11
}

// ExpBits is the bit width of the scalar field representation the curve's
// multiexp kernel consumes; both G1 and G2 multiexps share the same Fr
// scalar field.
func ExpBits() int {
	return fr.Bits
}

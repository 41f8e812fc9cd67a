package groth16

import curve "github.com/consensys/gnark-crypto/ecc/bn254"

// Proof is one Groth16 proof: three curve points assembled from the
// witness's polynomial evaluations and the verifying key's CRS elements.
// Field names/roles follow teacher prove.go's Proof struct, trimmed of
// the Pedersen-commitment extension fields that struct carries (this
// module's SPEC_FULL.md scope does not add a commitment scheme on top of
// plain Groth16).
type Proof struct {
	A curve.G1Affine
	B curve.G2Affine
	C curve.G1Affine
}

// CurveID identifies the curve a Proof was produced over, mirroring
// teacher prove.go's Proof.CurveID() used by generic verifier code to
// dispatch on curve without a type switch.
func (p *Proof) CurveID() string {
	return "bn254"
}

// IsValid reports whether the proof's points are on-curve and in the
// correct subgroup, the minimal well-formedness check the original
// performs implicitly by construction (every point here is built from
// verified CRS points via group operations, so subgroup membership holds
// by construction; this validates deserialized proofs instead).
func (p *Proof) IsValid() bool {
	return p.A.IsInSubGroup() && p.B.IsInSubGroup() && p.C.IsInSubGroup()
}

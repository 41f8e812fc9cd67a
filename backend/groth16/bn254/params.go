package groth16

import curve "github.com/consensys/gnark-crypto/ecc/bn254"

// VerifyingKey holds the public parameters a verifier checks a Proof
// against, and which the prover's final assembly step reads alpha/beta/
// delta from. Field names and roles follow the original's VerifyingKey<E>.
type VerifyingKey struct {
	AlphaG1 curve.G1Affine
	BetaG1  curve.G1Affine
	BetaG2  curve.G2Affine
	DeltaG1 curve.G1Affine
	DeltaG2 curve.G2Affine
	IC      []curve.G1Affine
}

// ParameterSource is the proving-key access seam the pipeline fetches
// curve points through. Grounded on the original's ParameterSource<E>
// trait: get_vk/get_h/get_l/get_a/get_b_g1/get_b_g2, each returning
// slices sized by the circuit's constraint/input/aux counts. A real
// implementation would mmap a proving-key file and slice into it; this
// module only depends on the interface, not on any concrete backing
// store, since key-file format is outside its scope.
type ParameterSource interface {
	GetVK(inputLen int) (*VerifyingKey, error)
	GetH(idx int) ([]curve.G1Affine, error)
	GetL(idx int) ([]curve.G1Affine, error)
	GetA(inputLen, idx int) (inputs, aux []curve.G1Affine, err error)
	GetBG1(inputLen, idx int) (inputs, aux []curve.G1Affine, err error)
	GetBG2(inputLen, idx int) (inputs, aux []curve.G2Affine, err error)
}

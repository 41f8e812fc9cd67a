package groth16

import "errors"

// ErrSynthesis wraps any error a Circuit's Synthesize returns, the
// pipeline-layer counterpart to the original's SynthesisError variants
// raised from inside ConstraintSystem calls.
var ErrSynthesis = errors.New("groth16: circuit synthesis failed")

// ErrUnequalCircuitSize is returned when circuits in the same batch
// produce a different number of A/B/C evaluations, violating the
// original's "only equally sized circuits are supported" assertion.
var ErrUnequalCircuitSize = errors.New("groth16: batch circuits must have equally sized constraint systems")

// ErrUnexpectedIdentity is returned when the verifying key's delta_g1 or
// delta_g2 is the identity element, the anti subversion-CRS check at the
// top of the original's proof-assembly closure.
var ErrUnexpectedIdentity = errors.New("groth16: subversion CRS detected, delta is identity")

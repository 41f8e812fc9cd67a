package frontend

import "github.com/consensys/gnark-crypto/ecc/bn254/fr"

// VarKind distinguishes a public input variable from an auxiliary
// (witness) one, mirroring the original's Index::Input/Index::Aux split.
type VarKind int

const (
	// KindInput marks a public input variable.
	KindInput VarKind = iota
	// KindAux marks a private witness variable.
	KindAux
)

// Variable is an opaque handle returned by Alloc/AllocInput, to be used
// only as a key into later LinearCombination terms.
type Variable struct {
	Kind  VarKind
	Index int
}

// Term is one coefficient*variable pair of a LinearCombination.
type Term struct {
	Variable    Variable
	Coefficient fr.Element
}

// LinearCombination is a sum of Terms, built incrementally via Add.
type LinearCombination []Term

// Add appends coeff*v to the combination and returns the extended one, so
// calls can be chained the way the original's `lc + Variable(...)` sugar
// reads.
func (lc LinearCombination) Add(v Variable, coeff fr.Element) LinearCombination {
	return append(lc, Term{Variable: v, Coefficient: coeff})
}

// AddVar appends a coefficient-one term for v.
func (lc LinearCombination) AddVar(v Variable) LinearCombination {
	var one fr.Element
	one.SetOne()
	return lc.Add(v, one)
}

// ConstraintSystem is the narrow interface a Circuit synthesizes against:
// allocate public/private variables and enforce a*b=c constraints over
// them. It is the Go shape of the original's ConstraintSystem<E> trait,
// trimmed to the subset the batch proving pipeline actually drives; the
// original's namespace push/pop and Extend methods have no caller here
// and are not part of this interface.
type ConstraintSystem interface {
	Alloc(value fr.Element) (Variable, error)
	AllocInput(value fr.Element) (Variable, error)
	Enforce(a, b, c LinearCombination)
}

// Circuit is anything that can synthesize itself against a
// ConstraintSystem. Circuit synthesis logic itself — how a concrete
// circuit turns domain semantics into constraints — is outside this
// module's scope; Circuit is the seam a caller's own circuit type
// implements.
type Circuit interface {
	Synthesize(cs ConstraintSystem) error
}

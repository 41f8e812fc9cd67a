package groth16

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/ingonyama-zk/groth16-hybrid/frontend"
	"github.com/ingonyama-zk/groth16-hybrid/internal/density"
)

// eval resolves a LinearCombination against the current input/aux
// assignments, incrementing whichever density trackers are passed (nil
// trackers are skipped), exactly matching original_source/src/groth16/
// prover.rs's eval() helper.
func eval(lc frontend.LinearCombination, inputDensity, auxDensity *density.Tracker, inputAssignment, auxAssignment []fr.Element) fr.Element {
	var acc fr.Element
	for _, term := range lc {
		var tmp fr.Element
		switch term.Variable.Kind {
		case frontend.KindInput:
			tmp = inputAssignment[term.Variable.Index]
			if inputDensity != nil {
				inputDensity.Inc(term.Variable.Index)
			}
		case frontend.KindAux:
			tmp = auxAssignment[term.Variable.Index]
			if auxDensity != nil {
				auxDensity.Inc(term.Variable.Index)
			}
		}

		var one fr.Element
		one.SetOne()
		if term.Coefficient.Equal(&one) {
			acc.Add(&acc, &tmp)
		} else {
			tmp.Mul(&tmp, &term.Coefficient)
			acc.Add(&acc, &tmp)
		}
	}
	return acc
}

// ProvingAssignment accumulates one circuit's constraint-system
// evaluation: the A/B/C polynomial coefficients per constraint, the
// input/aux variable assignments, and the density trackers later
// multiexp calls need to skip zero-contribution terms. Ported from
// original_source/src/groth16/prover.rs's ProvingAssignment<E>.
type ProvingAssignment struct {
	AAuxDensity  *density.Tracker
	BInputDensity *density.Tracker
	BAuxDensity  *density.Tracker

	A []fr.Element
	B []fr.Element
	C []fr.Element

	InputAssignment []fr.Element
	AuxAssignment   []fr.Element
}

// NewProvingAssignment returns an empty assignment ready for synthesis.
func NewProvingAssignment() *ProvingAssignment {
	return &ProvingAssignment{
		AAuxDensity:   density.NewTracker(),
		BInputDensity: density.NewTracker(),
		BAuxDensity:   density.NewTracker(),
	}
}

// Alloc appends a new auxiliary (witness) variable and returns its handle.
func (p *ProvingAssignment) Alloc(value fr.Element) (frontend.Variable, error) {
	p.AuxAssignment = append(p.AuxAssignment, value)
	p.AAuxDensity.AddElement()
	p.BAuxDensity.AddElement()
	return frontend.Variable{Kind: frontend.KindAux, Index: len(p.AuxAssignment) - 1}, nil
}

// AllocInput appends a new public input variable and returns its handle.
func (p *ProvingAssignment) AllocInput(value fr.Element) (frontend.Variable, error) {
	p.InputAssignment = append(p.InputAssignment, value)
	p.BInputDensity.AddElement()
	return frontend.Variable{Kind: frontend.KindInput, Index: len(p.InputAssignment) - 1}, nil
}

// Enforce evaluates and records one a*b=c constraint's three linear
// combinations. The A query has no input density tracking and the C
// query has none at all, matching the original's comments: inputs get
// full density in the A query because of the degenerate x*0=0
// constraints appended per input, and C has no standalone density query.
func (p *ProvingAssignment) Enforce(a, b, c frontend.LinearCombination) {
	p.A = append(p.A, eval(a, nil, p.AAuxDensity, p.InputAssignment, p.AuxAssignment))
	p.B = append(p.B, eval(b, p.BInputDensity, p.BAuxDensity, p.InputAssignment, p.AuxAssignment))
	p.C = append(p.C, eval(c, nil, nil, p.InputAssignment, p.AuxAssignment))
}

// Extend absorbs another assignment's constraints and variables into this
// one, for merging per-circuit partial assignments the way a streaming
// synthesizer might build up one large assignment incrementally. Skips
// other's first input assignment, matching the original's comment: "Skip
// first input, which must have been a temporarily allocated one
// variable" (every ProvingAssignment allocates Fr::one() as input 0).
func (p *ProvingAssignment) Extend(other *ProvingAssignment) {
	p.AAuxDensity.Extend(other.AAuxDensity, false)
	p.BInputDensity.Extend(other.BInputDensity, true)
	p.BAuxDensity.Extend(other.BAuxDensity, false)

	p.A = append(p.A, other.A...)
	p.B = append(p.B, other.B...)
	p.C = append(p.C, other.C...)

	if len(other.InputAssignment) > 1 {
		p.InputAssignment = append(p.InputAssignment, other.InputAssignment[1:]...)
	}
	p.AuxAssignment = append(p.AuxAssignment, other.AuxAssignment...)
}

// Equal reports whether two assignments hold identical state, used by
// the extend-equivalence test ported from the original's
// test_proving_assignment_extend.
func (p *ProvingAssignment) Equal(other *ProvingAssignment) bool {
	if !p.AAuxDensity.Equal(other.AAuxDensity) ||
		!p.BInputDensity.Equal(other.BInputDensity) ||
		!p.BAuxDensity.Equal(other.BAuxDensity) {
		return false
	}
	if len(p.A) != len(other.A) || len(p.B) != len(other.B) || len(p.C) != len(other.C) {
		return false
	}
	for i := range p.A {
		if !p.A[i].Equal(&other.A[i]) || !p.B[i].Equal(&other.B[i]) || !p.C[i].Equal(&other.C[i]) {
			return false
		}
	}
	if len(p.InputAssignment) != len(other.InputAssignment) || len(p.AuxAssignment) != len(other.AuxAssignment) {
		return false
	}
	for i := range p.InputAssignment {
		if !p.InputAssignment[i].Equal(&other.InputAssignment[i]) {
			return false
		}
	}
	for i := range p.AuxAssignment {
		if !p.AuxAssignment[i].Equal(&other.AuxAssignment[i]) {
			return false
		}
	}
	return true
}

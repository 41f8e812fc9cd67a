package groth16

import (
	"math/rand"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/ingonyama-zk/groth16-hybrid/frontend"
)

// TestProvingAssignmentExtend ports original_source's
// test_proving_assignment_extend: build one assignment by allocating
// directly against a single "full" ProvingAssignment, and an equivalent
// set of k partial assignments that are later merged via Extend; the two
// must end up identical. The original seeds an XorShiftRng with a fixed
// byte sequence; this port uses Go's math/rand with a fixed seed for the
// same determinism property rather than reproducing the exact byte
// stream, since no xorshift implementation is available in this stack.
func TestProvingAssignmentExtend(t *testing.T) {
	for _, k := range []int{2, 4, 8} {
		for _, j := range []int{10, 20, 50} {
			k, j := k, j
			t.Run("", func(t *testing.T) {
				rng := rand.New(rand.NewSource(int64(k*1000 + j)))
				count := k * j

				full := NewProvingAssignment()
				var one fr.Element
				one.SetOne()
				_, err := full.AllocInput(one)
				require.NoError(t, err)

				partials := make([]*ProvingAssignment, 0, count/k)
				for i := 0; i < count; i++ {
					if i%k == 0 {
						p := NewProvingAssignment()
						_, err := p.AllocInput(one)
						require.NoError(t, err)
						partials = append(partials, p)
					}
					partial := partials[i/k]

					if rng.Intn(2) == 1 {
						var el fr.Element
						el.SetUint64(rng.Uint64())
						_, err := full.Alloc(el)
						require.NoError(t, err)
						_, err = partial.Alloc(el)
						require.NoError(t, err)
					}

					if rng.Intn(2) == 1 {
						var el fr.Element
						el.SetUint64(rng.Uint64())
						_, err := full.AllocInput(el)
						require.NoError(t, err)
						_, err = partial.AllocInput(el)
						require.NoError(t, err)
					}
				}

				combined := NewProvingAssignment()
				_, err = combined.AllocInput(one)
				require.NoError(t, err)
				for _, p := range partials {
					combined.Extend(p)
				}

				require.True(t, combined.Equal(full))
			})
		}
	}
}

// trivialCircuit enforces x*x=x over a single public input, used by the
// batch-pipeline tests; it exists only to give CreateProofBatchPriority a
// well-shaped constraint system to run arithmetic over; the pipeline
// never checks R1CS satisfiability itself.
type trivialCircuit struct {
	x fr.Element
}

func (c *trivialCircuit) Synthesize(cs frontend.ConstraintSystem) error {
	xVar, err := cs.AllocInput(c.x)
	if err != nil {
		return err
	}
	a := frontend.LinearCombination{}.AddVar(xVar)
	b := frontend.LinearCombination{}.AddVar(xVar)
	cOut := frontend.LinearCombination{}.AddVar(xVar)
	cs.Enforce(a, b, cOut)
	return nil
}

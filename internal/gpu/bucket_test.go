package gpu

import (
	"math/big"
	"math/rand"
	"testing"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
)

func randomG1Bases(n int) []curve.G1Affine {
	_, _, g1, _ := curve.Generators()
	bases := make([]curve.G1Affine, n)
	for i := range bases {
		var s fr.Element
		s.SetUint64(uint64(i) + 7)
		var j curve.G1Jac
		j.FromAffine(&g1)
		scalarMulJacG1(&j, &s)
		bases[i].FromJacobian(&j)
	}
	return bases
}

func scalarMulJacG1(p *curve.G1Jac, s *fr.Element) {
	var b big.Int
	s.BigInt(&b)
	p.ScalarMultiplication(p, &b)
}

func randomExps(n int, seed int64) []fr.Element {
	r := rand.New(rand.NewSource(seed))
	exps := make([]fr.Element, n)
	for i := range exps {
		exps[i].SetUint64(uint64(r.Intn(1 << 20)))
	}
	return exps
}

func TestWindowedMultiexpMatchesNaiveG1(t *testing.T) {
	bases := randomG1Bases(37)
	exps := randomExps(37, 1)

	want := NaiveMultiexpG1(bases, exps)
	for w := 1; w <= 11; w++ {
		got := WindowedMultiexpG1(bases, exps, w, 8)
		require.True(t, got.Equal(&want), "window size %d mismatch", w)
	}
}

func TestWindowedMultiexpEmptyIsIdentity(t *testing.T) {
	got := WindowedMultiexpG1(nil, nil, 4, 4)
	require.True(t, got.Equal(&infinityG1))
}

// TestWindowedMultiexpPropertyMatchesNaive checks the windowed bucket
// method against the naive scalar-sum reference across a spread of
// randomly generated batch sizes and core counts, rather than the fixed
// sizes TestWindowedMultiexpMatchesNaiveG1 exercises.
func TestWindowedMultiexpPropertyMatchesNaive(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	properties := gopter.NewProperties(parameters)

	properties.Property("windowed multiexp matches naive for random batch sizes and core counts", prop.ForAll(
		func(n, coreCount int) bool {
			bases := randomG1Bases(n)
			exps := randomExps(n, int64(n*31+coreCount))
			want := NaiveMultiexpG1(bases, exps)
			got := WindowedMultiexpG1(bases, exps, 5, coreCount)
			return got.Equal(&want)
		},
		gen.IntRange(1, 64),
		gen.IntRange(1, 16),
	))

	properties.TestingRun(t)
}

func TestWindowIndexBitsReconstructsScalar(t *testing.T) {
	windowSize := 8
	expBits := fr.Bits
	nw := numWindows(expBits, windowSize)

	var exp fr.Element
	exp.SetUint64(0xABCDEF)

	var rebuilt big.Int
	for w := 0; w < nw; w++ {
		width := windowBitsAt(w, windowSize, expBits)
		d := windowIndexBits(&exp, w, windowSize, expBits)
		rebuilt.Lsh(&rebuilt, uint(width))
		rebuilt.Or(&rebuilt, new(big.Int).SetUint64(d))
	}

	var want big.Int
	exp.BigInt(&want)
	require.Equal(t, 0, rebuilt.Cmp(&want))
}

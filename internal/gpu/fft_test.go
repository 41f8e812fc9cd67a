package gpu

import (
	"testing"
	"unsafe"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"
)

func randomPoly(n int, seed uint64) []fr.Element {
	out := make([]fr.Element, n)
	for i := range out {
		out[i].SetUint64(seed + uint64(i)*7 + 1)
	}
	return out
}

func TestIFFTThenFFTIsIdentity(t *testing.T) {
	n := 16
	domain := NewEvaluationDomain(n)
	values := randomPoly(domain.Cardinality(), 3)
	want := append([]fr.Element(nil), values...)

	domain.IFFT(values)
	domain.FFT(values)

	for i := range want {
		require.True(t, values[i].Equal(&want[i]), "index %d", i)
	}
}

func TestCosetFFTThenCosetIFFTIsIdentity(t *testing.T) {
	n := 16
	domain := NewEvaluationDomain(n)
	values := randomPoly(domain.Cardinality(), 11)
	want := append([]fr.Element(nil), values...)

	domain.CosetFFT(values)
	domain.CosetIFFT(values)

	for i := range want {
		require.True(t, values[i].Equal(&want[i]), "index %d", i)
	}
}

// TestInttThenNttCallSequence pins inttThenNtt's call order to teacher
// prove.go's computeInttNttOnDevice: reverse the input in place,
// interpolate it out-of-place, evaluate the interpolated value back onto
// the input pointer, then reverse the input pointer again. The
// interpolated intermediate must never itself be reversed.
func TestInttThenNttCallSequence(t *testing.T) {
	var devicePtr, interpolated int
	dp := unsafe.Pointer(&devicePtr)
	ip := unsafe.Pointer(&interpolated)

	var calls []string
	reverse := func(ptr unsafe.Pointer) {
		if ptr == dp {
			calls = append(calls, "reverse(device)")
		} else if ptr == ip {
			calls = append(calls, "reverse(interpolated)")
		} else {
			calls = append(calls, "reverse(?)")
		}
	}
	interpolate := func(ptr unsafe.Pointer) unsafe.Pointer {
		require.Equal(t, dp, ptr, "interpolate must read from the device pointer")
		calls = append(calls, "interpolate")
		return ip
	}
	evaluate := func(out, in unsafe.Pointer) int {
		require.Equal(t, dp, out, "evaluate must write back onto the device pointer")
		require.Equal(t, ip, in, "evaluate must read the interpolated intermediate")
		calls = append(calls, "evaluate")
		return 0
	}

	err := inttThenNtt(dp, reverse, interpolate, evaluate)
	require.NoError(t, err)
	require.Equal(t, []string{"reverse(device)", "interpolate", "evaluate", "reverse(device)"}, calls)
}

func TestInttThenNttPropagatesEvaluateFailure(t *testing.T) {
	var devicePtr int
	dp := unsafe.Pointer(&devicePtr)

	err := inttThenNtt(dp,
		func(unsafe.Pointer) {},
		func(unsafe.Pointer) unsafe.Pointer { return dp },
		func(unsafe.Pointer, unsafe.Pointer) int { return 1 },
	)
	require.ErrorIs(t, err, ErrDeviceExec)
}

// TestInttCosetFinalCallSequence pins inttCosetFinal's order to teacher
// prove.go's final `h, _ := INttOnDevice(a_device, ...)` call (reverse
// then interpolate) followed by its separate `ReverseScalars(h, n)` on
// the result.
func TestInttCosetFinalCallSequence(t *testing.T) {
	var devicePtr, result int
	dp := unsafe.Pointer(&devicePtr)
	hp := unsafe.Pointer(&result)

	var calls []string
	reverse := func(ptr unsafe.Pointer) {
		if ptr == dp {
			calls = append(calls, "reverse(device)")
		} else if ptr == hp {
			calls = append(calls, "reverse(h)")
		} else {
			calls = append(calls, "reverse(?)")
		}
	}
	interpolate := func(ptr unsafe.Pointer) unsafe.Pointer {
		require.Equal(t, dp, ptr)
		calls = append(calls, "interpolate")
		return hp
	}

	got := inttCosetFinal(dp, reverse, interpolate)
	require.Equal(t, hp, got)
	require.Equal(t, []string{"reverse(device)", "interpolate", "reverse(h)"}, calls)
}

func TestComputeHCPUReturnsDomainSizedResult(t *testing.T) {
	n := 8
	domain := NewEvaluationDomain(n)
	a := randomPoly(4, 1)
	b := randomPoly(4, 2)
	c := randomPoly(4, 3)

	h := ComputeHCPU(a, b, c, domain)
	require.Len(t, h, domain.Cardinality())
}

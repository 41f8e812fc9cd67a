package gpu

import (
	"math/big"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// LocalWorkSize mirrors rust-gpu-tools' LOCAL_WORK_SIZE constant: the
// device's launch size is rounded up to a multiple of this.
const LocalWorkSize = 256

// numGroups implements calc_num_groups: empirically, performance peaks
// when num_groups * num_windows ~= 2 * core_count.
func numGroups(coreCount, numWindows int) int {
	if numWindows == 0 {
		return 0
	}
	return 2 * coreCount / numWindows
}

// numWindows returns ceil(expBits / windowSize).
func numWindows(expBits, windowSize int) int {
	return (expBits + windowSize - 1) / windowSize
}

// globalWorkSize rounds numWindows*numGroups up to a multiple of
// LocalWorkSize, matching the original's global_work_size computation.
func globalWorkSize(windows, groups int) int {
	size := windows * groups
	rem := size % LocalWorkSize
	if rem != 0 {
		size += LocalWorkSize - rem
	}
	return size
}

// bucketLen is 2^windowSize.
func bucketLen(windowSize int) int {
	return 1 << uint(windowSize)
}

// windowBitsAt returns the bit width of window i (0 = most significant),
// the last window possibly being shorter than windowSize, matching
// original_source/src/gpu/multiexp.rs lines 233-243's `w` computation.
func windowBitsAt(i, windowSize, expBits int) int {
	consumed := i * windowSize
	remaining := expBits - consumed
	if remaining < windowSize {
		if remaining < 0 {
			return 0
		}
		return remaining
	}
	return windowSize
}

// windowIndexBits extracts the windowSize-bit window w (0 = MSB window)
// out of a little-endian scalar representation exp (as produced by
// fr.Element.Bits() / big-endian byte Repr), returning its integer value
// in [0, bucketLen).
//
// The scalar is treated MSB-window-first to match the host-side
// accumulation order in §4.1: window 0 is the top `windowSize` bits of the
// exponent, window num_windows-1 is the bottom (possibly short) chunk.
func windowIndexBits(exp *fr.Element, windowIdx, windowSize, expBits int) uint64 {
	bits := expBits - windowIdx*windowSize
	w := windowBitsAt(windowIdx, windowSize, expBits)
	if w <= 0 {
		return 0
	}
	start := bits - w // bit offset (from LSB=0) of this window's low bit

	var repr big.Int
	exp.BigInt(&repr)

	var v uint64
	for b := 0; b < w; b++ {
		if repr.Bit(start+b) == 1 {
			v |= uint64(1) << uint(b)
		}
	}
	return v
}

// bucketAccumulateG1 runs one (group, window) thread's worth of the
// windowed bucket method over a bases/exps slice assigned to that thread,
// exactly mirroring the per-thread body of the original's OpenCL kernel:
// scatter each scalar's window-th digit into a bucket, then reduce
// buckets into a single partial sum via the standard running-sum trick.
func bucketAccumulateG1(bases []curve.G1Affine, exps []fr.Element, windowIdx, windowSize, expBits int) curve.G1Jac {
	buckets := make([]curve.G1Jac, bucketLen(windowSize))
	for i := range bases {
		d := windowIndexBits(&exps[i], windowIdx, windowSize, expBits)
		if d == 0 {
			continue
		}
		buckets[d].AddMixed(&bases[i])
	}
	return reduceBucketsG1(buckets)
}

// reduceBucketsG1 collapses buckets[1..] into Σ d·buckets[d] using the
// classic running-sum reduction: accumulate buckets from the top down,
// keeping a running total that is added into acc once per bucket.
func reduceBucketsG1(buckets []curve.G1Jac) curve.G1Jac {
	var runningSum, acc curve.G1Jac
	runningSum.Set(&infinityG1)
	acc.Set(&infinityG1)
	for i := len(buckets) - 1; i >= 1; i-- {
		runningSum.AddAssign(&buckets[i])
		acc.AddAssign(&runningSum)
	}
	return acc
}

func bucketAccumulateG2(bases []curve.G2Affine, exps []fr.Element, windowIdx, windowSize, expBits int) curve.G2Jac {
	buckets := make([]curve.G2Jac, bucketLen(windowSize))
	for i := range bases {
		d := windowIndexBits(&exps[i], windowIdx, windowSize, expBits)
		if d == 0 {
			continue
		}
		buckets[d].AddMixed(&bases[i])
	}
	return reduceBucketsG2(buckets)
}

func reduceBucketsG2(buckets []curve.G2Jac) curve.G2Jac {
	var runningSum, acc curve.G2Jac
	runningSum.Set(&infinityG2)
	acc.Set(&infinityG2)
	for i := len(buckets) - 1; i >= 1; i-- {
		runningSum.AddAssign(&buckets[i])
		acc.AddAssign(&runningSum)
	}
	return acc
}

var (
	infinityG1 curve.G1Jac
	infinityG2 curve.G2Jac
)

func init() {
	infinityG1.Set(new(curve.G1Jac)) // zero value is the identity
	infinityG2.Set(new(curve.G2Jac))
}

// WindowedMultiexpG1 implements the full §4.1 algorithm for G1: for each
// window, split the bases into num_groups contiguous chunks (standing in
// for the kernel's per-group base striping), bucket-accumulate each chunk
// and add the num_groups partial sums into the window's total (the groups
// run one after another here, so their number does not change the
// numerical result), then combine most-significant-window-first: double by
// the window's bit width, add the window's contribution.
func WindowedMultiexpG1(bases []curve.G1Affine, exps []fr.Element, windowSize, coreCount int) curve.G1Jac {
	expBits := fr.Bits
	nw := numWindows(expBits, windowSize)
	ng := numGroups(coreCount, nw)
	if ng < 1 {
		ng = 1
	}

	windowSums := make([]curve.G1Jac, nw)
	chunk := (len(bases) + ng - 1) / ng
	if chunk == 0 {
		chunk = len(bases)
	}
	for w := 0; w < nw; w++ {
		var sum curve.G1Jac
		sum.Set(&infinityG1)
		for g := 0; g < ng; g++ {
			start := g * chunk
			if start >= len(bases) {
				break
			}
			end := start + chunk
			if end > len(bases) {
				end = len(bases)
			}
			part := bucketAccumulateG1(bases[start:end], exps[start:end], w, windowSize, expBits)
			sum.AddAssign(&part)
		}
		windowSums[w] = sum
	}

	var acc curve.G1Jac
	acc.Set(&infinityG1)
	for w := 0; w < nw; w++ {
		wBits := windowBitsAt(w, windowSize, expBits)
		for i := 0; i < wBits; i++ {
			acc.Double(&acc)
		}
		acc.AddAssign(&windowSums[w])
	}
	return acc
}

// WindowedMultiexpG2 is WindowedMultiexpG1's G2 counterpart.
func WindowedMultiexpG2(bases []curve.G2Affine, exps []fr.Element, windowSize, coreCount int) curve.G2Jac {
	expBits := fr.Bits
	nw := numWindows(expBits, windowSize)
	ng := numGroups(coreCount, nw)
	if ng < 1 {
		ng = 1
	}

	windowSums := make([]curve.G2Jac, nw)
	chunk := (len(bases) + ng - 1) / ng
	if chunk == 0 {
		chunk = len(bases)
	}
	for w := 0; w < nw; w++ {
		var sum curve.G2Jac
		sum.Set(&infinityG2)
		for g := 0; g < ng; g++ {
			start := g * chunk
			if start >= len(bases) {
				break
			}
			end := start + chunk
			if end > len(bases) {
				end = len(bases)
			}
			part := bucketAccumulateG2(bases[start:end], exps[start:end], w, windowSize, expBits)
			sum.AddAssign(&part)
		}
		windowSums[w] = sum
	}

	var acc curve.G2Jac
	acc.Set(&infinityG2)
	for w := 0; w < nw; w++ {
		wBits := windowBitsAt(w, windowSize, expBits)
		for i := 0; i < wBits; i++ {
			acc.Double(&acc)
		}
		acc.AddAssign(&windowSums[w])
	}
	return acc
}

// NaiveMultiexpG1 is the Σ eᵢ·Bᵢ reference implementation spec §8 requires
// windowed MSM to agree with on small random inputs.
func NaiveMultiexpG1(bases []curve.G1Affine, exps []fr.Element) curve.G1Jac {
	var acc curve.G1Jac
	acc.Set(&infinityG1)
	for i := range bases {
		var p curve.G1Jac
		p.FromAffine(&bases[i])
		var b big.Int
		exps[i].BigInt(&b)
		p.ScalarMultiplication(&p, &b)
		acc.AddAssign(&p)
	}
	return acc
}

// NaiveMultiexpG2 is NaiveMultiexpG1's G2 counterpart.
func NaiveMultiexpG2(bases []curve.G2Affine, exps []fr.Element) curve.G2Jac {
	var acc curve.G2Jac
	acc.Set(&infinityG2)
	for i := range bases {
		var p curve.G2Jac
		p.FromAffine(&bases[i])
		var b big.Int
		exps[i].BigInt(&b)
		p.ScalarMultiplication(&p, &b)
		acc.AddAssign(&p)
	}
	return acc
}

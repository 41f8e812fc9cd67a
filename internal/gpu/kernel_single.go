package gpu

import (
	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	goicicle "github.com/ingonyama-zk/icicle/goicicle"
	icicle "github.com/ingonyama-zk/icicle/goicicle/curves/bn254"

	"github.com/ingonyama-zk/groth16-hybrid/internal/logctx"
)

// SingleMultiexpKernel owns one device's worth of multiexp capacity:
// which device it's bound to, the window parameters derived from the
// curve and device core count, and the priority this kernel's caller
// runs at. Grounded on original_source/src/gpu/multiexp.rs's
// SingleMultiexpKernel<E> (program/core_count/n/priority fields, lines
// ~20-30) and its calc_num_groups/multiexp method.
type SingleMultiexpKernel struct {
	device     Device
	curve      Curve
	windowSize int
	priority   bool
	locks      *LockRegistry
}

// NewSingleMultiexpKernel builds a kernel bound to one device for one
// curve, choosing the window size from the curve's projective point size
// exactly as the original's `if size_of::<E::G1>() > 144 { ... }` switch
// does (internal/gpu/curve.go's WindowSize).
func NewSingleMultiexpKernel(d Device, c Curve, priority bool, locks *LockRegistry) *SingleMultiexpKernel {
	return &SingleMultiexpKernel{
		device:     d,
		curve:      c,
		windowSize: WindowSize(c),
		priority:   priority,
		locks:      locks,
	}
}

// MultiexpG1 computes Σ exps[i]·bases[i] on this kernel's device. It
// checks ShouldBreak once at entry, matching the original's single
// preemption check at the top of SingleMultiexpKernel::multiexp (the
// original does not re-check mid-kernel either — preemption granularity
// is per multiexp call, not per bucket).
func (k *SingleMultiexpKernel) MultiexpG1(bases []curve.G1Affine, exps []fr.Element) (curve.G1Jac, error) {
	if k.locks.Priority().ShouldBreak(k.priority) {
		return curve.G1Jac{}, ErrGPUTaken
	}
	if len(bases) != len(exps) {
		return curve.G1Jac{}, ErrDeviceExec
	}
	if len(bases) == 0 {
		var id curve.G1Jac
		return id, nil
	}

	estimateDeviceMemory(G1, len(bases), k.device.CoreCount, k.windowSize)

	kernelName, err := KernelName(k.curve, k.device.Vendor)
	if err != nil {
		return curve.G1Jac{}, err
	}
	logctx.Logger().Debug().Str("kernel", kernelName).Int("device", k.device.Index).Msg("dispatching multiexp")

	arena := NewArena(k.device)
	pointsD, err := arena.UploadG1(bases)
	if err != nil {
		return curve.G1Jac{}, err
	}
	scalarsD, err := arena.UploadScalars(exps)
	if err != nil {
		return curve.G1Jac{}, err
	}

	outD, err := goicicle.CudaMalloc(96)
	if err != nil {
		return curve.G1Jac{}, ErrDeviceExec
	}
	if err := icicle.Commit(outD, scalarsD, pointsD, len(bases), k.windowSize); err != nil {
		logctx.Logger().Warn().Err(err).Int("curve", int(k.curve)).Msg("device msm commit failed")
		return curve.G1Jac{}, ErrDeviceExec
	}

	outHost := make([]icicle.PointBN254, 1)
	if err := goicicle.CudaMemCpyDtoH[icicle.PointBN254](outHost, outD, 96); err != nil {
		return curve.G1Jac{}, ErrDeviceExec
	}
	return *outHost[0].ToGnarkJac(), nil
}

// MultiexpG2 is MultiexpG1's G2 counterpart, using the wider 192-byte
// output projective point and icicle.CommitG2.
func (k *SingleMultiexpKernel) MultiexpG2(bases []curve.G2Affine, exps []fr.Element) (curve.G2Jac, error) {
	if k.locks.Priority().ShouldBreak(k.priority) {
		return curve.G2Jac{}, ErrGPUTaken
	}
	if len(bases) != len(exps) {
		return curve.G2Jac{}, ErrDeviceExec
	}
	if len(bases) == 0 {
		var id curve.G2Jac
		return id, nil
	}

	estimateDeviceMemory(G2, len(bases), k.device.CoreCount, k.windowSize)

	kernelName, err := KernelName(k.curve, k.device.Vendor)
	if err != nil {
		return curve.G2Jac{}, err
	}
	logctx.Logger().Debug().Str("kernel", kernelName).Int("device", k.device.Index).Msg("dispatching multiexp")

	parsed := icicle.BatchConvertFromG2Affine(bases)
	pointsBytes := len(parsed) * 128
	pointsD, err := goicicle.CudaMalloc(pointsBytes)
	if err != nil {
		return curve.G2Jac{}, ErrDeviceExec
	}
	if err := goicicle.CudaMemCpyHtoD[icicle.G2PointAffine](pointsD, parsed, pointsBytes); err != nil {
		return curve.G2Jac{}, ErrDeviceExec
	}

	arena := NewArena(k.device)
	scalarsD, err := arena.UploadScalars(exps)
	if err != nil {
		return curve.G2Jac{}, err
	}

	outD, err := goicicle.CudaMalloc(192)
	if err != nil {
		return curve.G2Jac{}, ErrDeviceExec
	}
	if err := icicle.CommitG2(outD, scalarsD, pointsD, len(bases), k.windowSize); err != nil {
		logctx.Logger().Warn().Err(err).Msg("device msm commitG2 failed")
		return curve.G2Jac{}, ErrDeviceExec
	}

	outHost := make([]icicle.G2Point, 1)
	if err := goicicle.CudaMemCpyDtoH[icicle.G2Point](outHost, outD, 192); err != nil {
		return curve.G2Jac{}, ErrDeviceExec
	}
	return *outHost[0].ToGnarkJac(), nil
}

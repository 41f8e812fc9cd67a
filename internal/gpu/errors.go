package gpu

import "errors"

// Sentinel errors for the four GPU-layer kinds of spec §7 (the fifth kind,
// Synthesis/Subversion, belongs to the proving pipeline and lives in
// backend/groth16/bn254/errors.go).
var (
	// ErrNoDevice means device enumeration found no usable accelerator.
	// Fatal; proving cannot start on the GPU path.
	ErrNoDevice = errors.New("gpu: no usable device found")

	// ErrProgramCompile means the device program failed to build. Fatal,
	// same DeviceInit class as ErrNoDevice.
	ErrProgramCompile = errors.New("gpu: program compilation failed")

	// ErrGPUTaken means a higher-priority job preempted this kernel op.
	// Recovered locally by LockedMultiexpKernel: drop, recreate, retry
	// once. LockedFFTKernel.ComputeH returns it to its caller without a
	// retry.
	ErrGPUTaken = errors.New("gpu: preempted by higher priority job")

	// ErrDeviceExec covers kernel launch, buffer transfer or enqueue
	// failure. It is returned to the caller as-is: LockedMultiexpKernel
	// does not recreate the kernel or retry on it.
	ErrDeviceExec = errors.New("gpu: device execution failed")

	// ErrUnsupportedCurve signals an MSM attempted on a curve that is
	// neither G1 nor G2 — a programmer error, fatal.
	ErrUnsupportedCurve = errors.New("gpu: unsupported curve, only G1 and G2 are supported")
)

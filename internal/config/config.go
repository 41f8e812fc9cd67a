// Package config centralizes the small number of environment-variable
// backed knobs the hybrid prover reads. Keeping them in one place means
// the rest of the module never calls os.Getenv directly.
package config

import (
	"os"
	"runtime"
	"strconv"

	"github.com/ingonyama-zk/groth16-hybrid/internal/logctx"
)

// DefaultDeviceTileSize is the per-kernel-launch element tile size that
// MultiexpKernel cuts each device's share into before calling
// SingleMultiexpKernel, when no override is configured. It is the magic
// constant the original source hard-coded (33,554,466); spec §9 flags that
// a real implementation should derive this from device memory instead. We
// keep it as the default and make it overridable rather than inventing a
// memory-probing heuristic with nothing in the pack to ground it on.
const DefaultDeviceTileSize = 33_554_466

// CPUUtilization returns the fraction of a multiexp's work dispatched to
// the CPU, read from CPU_UTILIZATION. Invalid or missing values default to
// 0 and are clamped to [0,1], matching bellperson's
// BELLMAN_CPU_UTILIZATION semantics (original_source/src/gpu/multiexp.rs).
func CPUUtilization() float64 {
	v, ok := os.LookupEnv("CPU_UTILIZATION")
	if !ok {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		logctx.Logger().Warn().Str("value", v).Msg("invalid CPU_UTILIZATION, defaulting to 0")
		return 0
	}
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// CPUMultiexpCores returns how many CPU cores the pure-CPU multiexp
// fallback fans out across. The original source hard-coded cores 1..64;
// spec §9 asks us to parameterize rather than inherit a machine-specific
// leftover. Defaults to runtime.NumCPU().
func CPUMultiexpCores() int {
	v, ok := os.LookupEnv("GROTH16_CPU_MULTIEXP_CORES")
	if !ok {
		return runtime.NumCPU()
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logctx.Logger().Warn().Str("value", v).Msg("invalid GROTH16_CPU_MULTIEXP_CORES, using NumCPU")
		return runtime.NumCPU()
	}
	return n
}

// DeviceTileSize returns the per-device-dispatch element tile size, see
// DefaultDeviceTileSize.
func DeviceTileSize() int {
	v, ok := os.LookupEnv("GROTH16_DEVICE_TILE_SIZE")
	if !ok {
		return DefaultDeviceTileSize
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		logctx.Logger().Warn().Str("value", v).Msg("invalid GROTH16_DEVICE_TILE_SIZE, using default")
		return DefaultDeviceTileSize
	}
	return n
}

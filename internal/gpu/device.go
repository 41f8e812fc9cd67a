package gpu

import (
	"unsafe"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	goicicle "github.com/ingonyama-zk/icicle/goicicle"
	icicle "github.com/ingonyama-zk/icicle/goicicle/curves/bn254"

	"github.com/ingonyama-zk/groth16-hybrid/internal/logctx"
)

// Device describes one enumerated accelerator: an index for CUDA API
// calls and the core count used to size the windowed-bucket launch
// (spec §4.1's calc_num_groups input). Real vendor core counts come from
// an external, vendor-keyed lookup table in the original source
// (rust-gpu-tools' utils::get_core_count); this module exposes the same
// shape as a pluggable resolver rather than hard-coding that table.
type Device struct {
	Index     int
	Vendor    Vendor
	CoreCount int
}

// CoreCountResolver looks up a device's usable core count, standing in for
// the original's external, vendor-keyed lookup table.
type CoreCountResolver func(d Device) int

// DefaultCoreCountResolver returns a conservative fallback when no
// vendor-specific table is wired in. Real numbers require a device
// introspection call no library in this pack provides, so callers needing
// them must supply their own CoreCountResolver.
func DefaultCoreCountResolver(d Device) int {
	if d.CoreCount > 0 {
		return d.CoreCount
	}
	return 2048
}

// StaticDevices builds a device list from already-known indices, used in
// place of a goicicle-side enumeration call (none is exposed by the
// bound icicle package in this stack; device count is operator
// configuration, not something probed at runtime). An empty/nil list
// means "no device": callers fall back to the CPU-only path (§4.3),
// exactly as MultiexpKernel::create does when opencl::Device::all() comes
// back empty in the original.
func StaticDevices(indices []int, vendor Vendor, resolve CoreCountResolver) []Device {
	if resolve == nil {
		resolve = DefaultCoreCountResolver
	}
	devices := make([]Device, 0, len(indices))
	for _, idx := range indices {
		d := Device{Index: idx, Vendor: vendor}
		d.CoreCount = resolve(d)
		devices = append(devices, d)
	}
	return devices
}

// Arena leases device-side buffer handles for the lifetime of one kernel
// invocation, the design notes §9 "arena" requirement. Grounded on the
// CudaMalloc/CudaMemCpyHtoD/CudaMemCpyDtoH call pattern used by icicle's
// Go bindings for device buffer lifecycle. That pattern never frees these
// buffers explicitly either, relying on process lifetime/CUDA context
// teardown; Arena keeps the same shape (track, don't free) rather than
// fabricate an unconfirmed free API.
type Arena struct {
	device    Device
	allocated []unsafe.Pointer
}

// NewArena opens a buffer-leasing scope for the given device.
func NewArena(d Device) *Arena {
	return &Arena{device: d}
}

// Allocated returns the buffers leased so far, for callers that need to
// pass raw pointers on to further icicle calls (e.g. an MSM output
// buffer reused as the next stage's input).
func (a *Arena) Allocated() []unsafe.Pointer {
	return a.allocated
}

// UploadScalars copies scalars to a freshly leased device buffer and
// converts it out of Montgomery form, mirroring CopyToDevice in teacher
// goicicle_wrapper.go.
func (a *Arena) UploadScalars(scalars []fr.Element) (unsafe.Pointer, error) {
	sizeBytes := len(scalars) * fr.Bytes
	ptr, err := goicicle.CudaMalloc(sizeBytes)
	if err != nil {
		return nil, ErrDeviceExec
	}
	a.allocated = append(a.allocated, ptr)
	if err := goicicle.CudaMemCpyHtoD[fr.Element](ptr, scalars, sizeBytes); err != nil {
		return nil, ErrDeviceExec
	}
	icicle.FromMontgomery(ptr, len(scalars))
	return ptr, nil
}

// UploadG1 copies G1 affine bases to device memory, converting to icicle's
// no-infinity point representation the way teacher prove.go does before
// every MsmOnDevice call.
func (a *Arena) UploadG1(bases []curve.G1Affine) (unsafe.Pointer, error) {
	parsed := icicle.BatchConvertFromG1Affine(bases)
	sizeBytes := len(parsed) * int(unsafe.Sizeof(parsed[0]))
	ptr, err := goicicle.CudaMalloc(sizeBytes)
	if err != nil {
		return nil, ErrDeviceExec
	}
	a.allocated = append(a.allocated, ptr)
	if err := goicicle.CudaMemCpyHtoD[icicle.PointAffineNoInfinityBN254](ptr, parsed, sizeBytes); err != nil {
		return nil, ErrDeviceExec
	}
	return ptr, nil
}

// estimateDeviceMemory logs the bytes a SingleMultiexpKernel launch would
// need, at Debug level, reviving the original's commented-out mem1..mem4
// accounting (design notes §9 open question: chunk size should eventually
// derive from this rather than the hard-coded tile constant).
func estimateDeviceMemory(c Curve, n, coreCount, windowSize int) {
	baseSize := 64
	if c == G2 {
		baseSize = 128
	}
	projSize := int(projectiveSize(c))
	bl := bucketLen(windowSize)

	mem1 := baseSize * n
	mem2 := fr.Bytes * n
	mem3 := projSize * 2 * coreCount * bl
	mem4 := projSize * 2 * coreCount

	logctx.Logger().Debug().
		Str("curve", c.String()).
		Int("n", n).
		Int("bytesNeeded", mem1+mem2+mem3+mem4).
		Int("mbNeeded", (mem1+mem2+mem3+mem4)/(1024*1024)).
		Msg("estimated device memory for multiexp launch")
}

package gpu

import "sync"

// GPULock is a process-global, mutually exclusive lock acquired before
// enumerating devices and released when the owning MultiexpKernel drops.
// Spec §4.5 / §3: re-entry by the same owner is not required.
type GPULock struct {
	mu *sync.Mutex
}

// GPULockGuard is the held lock; release it exactly once, typically via
// defer, mirroring the Rust RAII drop of locks::GPULock.
type GPULockGuard struct {
	mu *sync.Mutex
}

// Lock acquires the device-exclusivity lock, blocking until available.
func (l *GPULock) Lock() *GPULockGuard {
	l.mu.Lock()
	return &GPULockGuard{mu: l.mu}
}

// Release drops the lock. Safe to call at most once per guard.
func (g *GPULockGuard) Release() {
	g.mu.Unlock()
}

// PriorityLock is a cooperative advisory lock for high-priority jobs. A
// running low-priority job polls ShouldBreak at kernel entry and,
// observing a pending high-priority waiter, surrenders the device. Lock
// does not exclude other high-priority callers: every call sets the same
// flag, and the first Release clears it.
type PriorityLock struct {
	mu      sync.Mutex
	waiting bool
}

// PriorityGuard represents a held high-priority slot.
type PriorityGuard struct {
	lock *PriorityLock
}

// Lock marks a high-priority job as wanting the device. Low-priority
// kernel entries observing this via ShouldBreak must yield.
func (p *PriorityLock) Lock() *PriorityGuard {
	p.mu.Lock()
	p.waiting = true
	p.mu.Unlock()
	return &PriorityGuard{lock: p}
}

// Release clears the pending high-priority request.
func (g *PriorityGuard) Release() {
	g.lock.mu.Lock()
	g.lock.waiting = false
	g.lock.mu.Unlock()
}

// ShouldBreak reports whether a higher-priority job is waiting and the
// caller (myPriority) is not itself high-priority. Equal priorities never
// preempt, matching spec §5.
func (p *PriorityLock) ShouldBreak(myPriority bool) bool {
	if myPriority {
		return false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.waiting
}

// LockRegistry is the injectable capability design notes §9 ask for in
// place of the original's hidden process-level statics: a small holder of
// the two named locks, passed explicitly into kernel constructors instead
// of reached for as a global.
type LockRegistry struct {
	gpu      *GPULock
	priority *PriorityLock
}

// NewLockRegistry returns a registry with fresh locks. A process normally
// constructs exactly one and threads it through every kernel/driver it
// builds, so that GPU exclusivity and priority preemption are meaningful
// across the whole process rather than per-registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{
		gpu:      &GPULock{mu: &sync.Mutex{}},
		priority: &PriorityLock{},
	}
}

// GPU returns the registry's device-exclusivity lock.
func (r *LockRegistry) GPU() *GPULock { return r.gpu }

// Priority returns the registry's cooperative priority lock.
func (r *LockRegistry) Priority() *PriorityLock { return r.priority }

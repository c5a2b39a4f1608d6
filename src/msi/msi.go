// Package msi hands out interrupt vectors to PCI-capable collaborators
// that request message-signaled interrupts, and to any other device
// driver that needs a dedicated vector outside the CPU-exception range.
// Grounded on the teacher's Msivecs_t (src/msi/msi.go): same map[x]bool
// pool and Lock/delete/Unlock allocation discipline, widened from the
// teacher's fixed eight-slot {56..63} pool to the full device-vector
// range spec.md §4.4 reserves (32..255) now that allocation feeds
// src/intr's vector table instead of a single NIC's MSI-X table.
package msi

import "sync"

// Vec_t is an interrupt vector number in the device range (32..255).
type Vec_t uint

const (
	firstDeviceVec Vec_t = 32
	lastDeviceVec  Vec_t = 255
)

// Pool_t tracks which device vectors are currently unclaimed.
type Pool_t struct {
	sync.Mutex
	avail map[Vec_t]bool
}

var pool = newPool()

func newPool() *Pool_t {
	p := &Pool_t{avail: make(map[Vec_t]bool, int(lastDeviceVec-firstDeviceVec)+1)}
	for v := firstDeviceVec; v <= lastDeviceVec; v++ {
		p.avail[v] = true
	}
	return p
}

// Alloc allocates an available device vector, or false if the pool is
// exhausted. Unlike the teacher's Msi_alloc, exhaustion is reported
// rather than panicked — spec.md §7 treats out-of-resource as an
// ordinary null-returning condition, not a fatal error.
func Alloc() (Vec_t, bool) {
	pool.Lock()
	defer pool.Unlock()
	for v := range pool.avail {
		delete(pool.avail, v)
		return v, true
	}
	return 0, false
}

// Free releases a previously allocated vector back to the pool. Freeing
// a vector that was never allocated, or double-freeing, is a no-op: the
// caller has already violated the protocol and panicking here would turn
// a driver bug into a kernel-wide halt.
func Free(v Vec_t) {
	pool.Lock()
	defer pool.Unlock()
	if v < firstDeviceVec || v > lastDeviceVec {
		return
	}
	pool.avail[v] = true
}

// Available reports how many device vectors remain unclaimed.
func Available() int {
	pool.Lock()
	defer pool.Unlock()
	return len(pool.avail)
}

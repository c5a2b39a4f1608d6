// Package limits holds the system-wide resource ceilings: max tasks, max
// open files, max cached filesystem blocks. Each is an atomically
// decremented/incremented ticket — exhaustion is an ordinary
// out-of-resource condition (spec.md §7), never a panic. Grounded on the
// teacher's Syslimit_t (src/limits/limits.go): same Sysatomic_t
// take/give primitive, trimmed to three ceilings. Only Sysprocs is taken
// from anywhere in this tree (by the scheduler's TaskCreate); Files and
// Blocks are declared defaults that no package takes from. The teacher's network/IPC-specific fields (Arpents, Routes, Tcpsegs,
// Socks, Pipes, Mfspgs) have no collaborator in this tree's scope and are
// dropped rather than kept unused.
package limits

import (
	"sync/atomic"
	"unsafe"
)

// Sysatomic_t is a numeric ceiling that can be taken from and given back
// to atomically.
type Sysatomic_t int64

func (s *Sysatomic_t) aptr() *int64 {
	return (*int64)(unsafe.Pointer(s))
}

// Given raises the ceiling by n, used when a resource is released back
// to the pool.
func (s *Sysatomic_t) Given(n uint) {
	atomic.AddInt64(s.aptr(), int64(n))
}

// Taken tries to claim n units of the resource, returning false (and
// leaving the ceiling unchanged) if that would drive it negative.
func (s *Sysatomic_t) Taken(n uint) bool {
	if atomic.AddInt64(s.aptr(), -int64(n)) >= 0 {
		return true
	}
	atomic.AddInt64(s.aptr(), int64(n))
	return false
}

// Take claims one unit.
func (s *Sysatomic_t) Take() bool { return s.Taken(1) }

// Give releases one unit.
func (s *Sysatomic_t) Give() { s.Given(1) }

// Syslimit_t tracks the system-wide resource ceilings.
type Syslimit_t struct {
	// Sysprocs bounds how many tasks may exist at once; TaskCreate
	// (src/proc) takes one unit per created task.
	Sysprocs Sysatomic_t
	// Files is the ceiling for open file descriptors across all tasks;
	// nothing in this tree takes from it.
	Files Sysatomic_t
	// Blocks is the ceiling for disk blocks resident in the filesystem's
	// block cache; nothing in this tree takes from it (src/fs sizes its
	// cache on its own).
	Blocks Sysatomic_t
}

// Syslimit is the process-wide set of configured ceilings.
var Syslimit = MkSysLimit()

// MkSysLimit returns a fresh set of default ceilings.
func MkSysLimit() *Syslimit_t {
	return &Syslimit_t{
		Sysprocs: 4096,
		Files:    65536,
		Blocks:   100000,
	}
}

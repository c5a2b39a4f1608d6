// Package stats is the kernel's debug-counter facility: atomic tallies
// and tick-deltas that a subsystem embeds in its own struct and that
// src/kstat dumps across the D_STAT device. Grounded on the teacher's
// stats.go (same Counter_t/Cycles_t/Stats2String reflect-based dump);
// Rdtsc's call into the teacher's patched-runtime cycle-counter
// intrinsic is replaced with an injectable TickSource, the same
// no-patched-runtime adaptation used in src/accnt.
package stats

import (
	"reflect"
	"strconv"
	"strings"
	"sync/atomic"
	"unsafe"
)

// Enabled gates whether Counter_t/Cycles_t updates do any atomic work.
// Flip to true in a debug build; left false, Inc/Add are free.
var Enabled = false

// TickSource is the coarse tick counter Cycles_t charges elapsed ticks
// against.
type TickSource func() uint64

var ticks TickSource

// Bind installs the tick source counters are charged against, normally
// apicctl's local-timer tick count.
func Bind(src TickSource) { ticks = src }

func now() uint64 {
	if ticks == nil {
		return 0
	}
	return ticks()
}

// Now returns the current tick count, or 0 if no source is bound.
func Now() uint64 { return now() }

// IrqCounts tallies interrupts per vector, indexed to match the
// interrupt table's 256-entry vector space (src/intr).
var IrqCounts [256]Counter_t

// Counter_t is a statistical counter.
type Counter_t int64

// Cycles_t holds an accumulated tick count.
type Cycles_t int64

// Inc increments the counter by one.
func (c *Counter_t) Inc() {
	if Enabled {
		atomic.AddInt64((*int64)(unsafe.Pointer(c)), 1)
	}
}

// Add charges the ticks elapsed since since to the counter.
func (c *Cycles_t) Add(since uint64) {
	if Enabled {
		atomic.AddInt64((*int64)(unsafe.Pointer(c)), int64(now()-since))
	}
}

// Stats2String renders every Counter_t/Cycles_t field of st as a
// "\n\t#Name: value" line, or "" when counting is disabled.
func Stats2String(st interface{}) string {
	if !Enabled {
		return ""
	}
	v := reflect.ValueOf(st)
	s := ""
	for i := 0; i < v.NumField(); i++ {
		t := v.Field(i).Type().String()
		if strings.HasSuffix(t, "Counter_t") {
			n := v.Field(i).Interface().(Counter_t)
			s += "\n\t#" + v.Type().Field(i).Name + ": " + strconv.FormatInt(int64(n), 10)
		}
		if strings.HasSuffix(t, "Cycles_t") {
			n := v.Field(i).Interface().(Cycles_t)
			s += "\n\t#" + v.Type().Field(i).Name + ": " + strconv.FormatInt(int64(n), 10)
		}
	}
	return s + "\n"
}

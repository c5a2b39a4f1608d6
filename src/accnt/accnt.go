// Package accnt accumulates per-task CPU time. A freestanding kernel has
// no wall clock to call into — time.Now is a hosted-OS syscall this
// module must never use — so elapsed time is derived from the timer
// tick counter apicctl's periodic interrupt drives, converted to
// nanoseconds via the configured tick period. Grounded on the teacher's
// Accnt_t (src/accnt/accnt.go): same Userns/Sysns counter pair, Utadd/
// Systadd/Add/Fetch shape and rusage encoding, with Now() rebased from
// time.Now().UnixNano() onto a tick source and the stray top-level
// "util" import corrected to the module's hierarchical path.
package accnt

import (
	"sync"
	"sync/atomic"

	"strata/src/util"
)

// TickSource reports the number of timer ticks elapsed since bring-up —
// apicctl.Local_t.Ticks, or a fake counter in tests.
type TickSource func() uint64

// nsPerTick is set once at bring-up from the timer's configured
// frequency (apicctl programs ~100 Hz, so ~10e6 ns/tick); tests install
// their own value via SetTickPeriod.
var nsPerTick int64 = 10_000_000

// SetTickPeriod records how many nanoseconds one timer tick represents.
// Called once during bring-up after the periodic timer's frequency is
// known.
func SetTickPeriod(ns int64) {
	atomic.StoreInt64(&nsPerTick, ns)
}

// Accnt_t accumulates one task's user and system time in nanoseconds.
// The embedded mutex lets callers take a consistent snapshot for
// reporting.
type Accnt_t struct {
	Userns int64
	Sysns  int64
	sync.Mutex

	ticks TickSource
}

// Bind attaches the tick source this record converts into nanoseconds.
// Called once when a task is created.
func (a *Accnt_t) Bind(ticks TickSource) {
	a.ticks = ticks
}

// Utadd adds delta nanoseconds to the user-time counter.
func (a *Accnt_t) Utadd(delta int64) {
	atomic.AddInt64(&a.Userns, delta)
}

// Systadd adds delta nanoseconds to the system-time counter.
func (a *Accnt_t) Systadd(delta int64) {
	atomic.AddInt64(&a.Sysns, delta)
}

// nowNanos converts the current tick count to nanoseconds.
func (a *Accnt_t) nowNanos() int64 {
	if a.ticks == nil {
		return 0
	}
	return int64(a.ticks()) * atomic.LoadInt64(&nsPerTick)
}

// IoTime charges the interval since `since` (a nowNanos reading taken
// when an I/O wait began) against system time — waiting is not running.
func (a *Accnt_t) IoTime(since int64) {
	a.Systadd(-(a.nowNanos() - since))
}

// SleepTime charges the interval since a sleep began against system
// time, symmetric with IoTime.
func (a *Accnt_t) SleepTime(since int64) {
	a.Systadd(-(a.nowNanos() - since))
}

// Finish adds the time elapsed since inttime (a nowNanos reading taken
// when this task was last scheduled in) to system time, called by the
// scheduler on every context switch out.
func (a *Accnt_t) Finish(inttime int64) {
	a.Systadd(a.nowNanos() - inttime)
}

// Now returns the current tick-derived nanosecond timestamp, for callers
// that need to record a `since`/`inttime` mark.
func (a *Accnt_t) Now() int64 {
	return a.nowNanos()
}

// Add merges another task's accounting into this one — used when a
// terminated child's usage is folded into its parent, per the rusage
// "children" convention.
func (a *Accnt_t) Add(n *Accnt_t) {
	a.Lock()
	a.Userns += atomic.LoadInt64(&n.Userns)
	a.Sysns += atomic.LoadInt64(&n.Sysns)
	a.Unlock()
}

// Fetch returns a consistent snapshot encoded as an rusage byte buffer.
func (a *Accnt_t) Fetch() []uint8 {
	a.Lock()
	ru := a.toRusage()
	a.Unlock()
	return ru
}

// toRusage packs user/system time into the wire layout fs_stat's
// D_STAT/D_PROF collaborators and the syscall layer expect: two
// {seconds, microseconds} pairs.
func (a *Accnt_t) toRusage() []uint8 {
	const words = 4
	ret := make([]uint8, words*8)
	totv := func(nano int64) (int, int) {
		secs := int(nano / 1e9)
		usecs := int((nano % 1e9) / 1000)
		return secs, usecs
	}
	off := 0
	s, us := totv(a.Userns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	off += 8
	s, us = totv(a.Sysns)
	util.Writen(ret, 8, off, s)
	off += 8
	util.Writen(ret, 8, off, us)
	return ret
}

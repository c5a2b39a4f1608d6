// Package caller recognizes distinct call-stack paths, so a noisy
// diagnostic (a heap corruption check, a repeated page-table walk
// failure) logs the first time it fires from a given code path and
// stays silent on every subsequent hit from that same path, instead of
// flooding the kernel log ring with one line per occurrence. Grounded
// on the teacher's Distinct_caller_t (src/caller/caller.go): unchanged
// pc-hash/whitelist/Enabled shape, renamed to drop the underscore-style
// identifiers and documented as a general call-site deduplicator rather
// than its original ad hoc debug-print use. No other package in this
// tree imports it.
package caller

import (
	"fmt"
	"runtime"
	"sync"
)

// Dump renders the call stack starting at the given depth, for a fatal
// log line that wants to show where a corruption check fired from.
func Dump(start int) string {
	i := start
	s := ""
	for {
		_, f, l, ok := runtime.Caller(i)
		if !ok {
			break
		}
		i++
		if s == "" {
			s = fmt.Sprintf("%s:%d\n", f, l)
		} else {
			s += fmt.Sprintf("\t<-%s:%d\n", f, l)
		}
	}
	return s
}

// SiteTracker_t records which call-stack paths have already been
// reported once, so a collaborator (a corruption check, a
// repeated-fault check) can log only the first occurrence of each
// distinct path.
type SiteTracker_t struct {
	sync.Mutex
	Enabled bool
	seen    map[uintptr]bool
	Whitel  map[string]bool
}

// pchash is a poor-man's hash of a return-address chain, good enough to
// distinguish call paths without storing each one in full.
func pchash(pcs []uintptr) uintptr {
	if len(pcs) == 0 {
		panic("pchash: empty stack")
	}
	var ret uintptr
	for _, pc := range pcs {
		pc = pc*1103515245 + 12345
		ret ^= pc
	}
	return ret
}

// Len returns the number of distinct call paths recorded so far.
func (st *SiteTracker_t) Len() int {
	st.Lock()
	ret := len(st.seen)
	st.Unlock()
	return ret
}

// NewSite reports whether the current call chain has not been seen
// before, returning a formatted stack trace for the caller to log when
// it's new. A whitelisted caller function never counts as new — used to
// silence known, intentionally-repeated paths (a driver polling loop,
// say) without disabling the tracker entirely.
func (st *SiteTracker_t) NewSite() (bool, string) {
	st.Lock()
	defer st.Unlock()
	if !st.Enabled {
		return false, ""
	}
	if st.seen == nil {
		st.seen = make(map[uintptr]bool)
	}

	var pcs []uintptr
	for sz, got := 30, 30; got >= sz; sz *= 2 {
		pcs = make([]uintptr, sz)
		got = runtime.Callers(2, pcs)
		if got == 0 {
			panic("caller.NewSite: no stack")
		}
	}
	h := pchash(pcs)
	if st.seen[h] {
		return false, ""
	}
	st.seen[h] = true

	frames := runtime.CallersFrames(pcs)
	fs := ""
	for {
		fr, more := frames.Next()
		if st.Whitel[fr.Function] {
			return false, ""
		}
		if fs == "" {
			fs = fmt.Sprintf("%v (%v:%v)\n", fr.Function, fr.File, fr.Line)
		} else {
			fs += fmt.Sprintf("\t%v (%v:%v)\n", fr.Function, fr.File, fr.Line)
		}
		if !more || fr.Function == "runtime.goexit" {
			break
		}
	}
	return true, fs
}

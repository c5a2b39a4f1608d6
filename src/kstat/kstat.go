// Package kstat gathers the point-in-time counters spec.md §3's
// "Counter" entry describes — frames free/used, heap bytes live/free,
// ready-queue depth, blocks cached — and surfaces them on the two
// device contracts spec.md §6/§3 name: `/dev/stat` (a text dump) and
// `/dev/prof` (a pprof profile). Grounded on src/stats (reused
// verbatim for the Counter_t type and its reflect-based Stats2String
// dump) plus github.com/google/pprof/profile, wired in per
// SPEC_FULL.md §9 so the D_PROF device collaborator hands back a real
// pprof payload instead of an ad hoc counter dump.
package kstat

import (
	"io"

	"github.com/google/pprof/profile"

	"strata/src/stats"
)

// Snapshot_t is one point-in-time reading of every subsystem's
// counters. Every field is a stats.Counter_t so the type carries
// through to Stats2String's reflect-based dump unchanged.
type Snapshot_t struct {
	FramesFree      stats.Counter_t
	FramesUsed      stats.Counter_t
	HeapBytesLive   stats.Counter_t
	HeapBytesFree   stats.Counter_t
	ReadyQueueDepth stats.Counter_t
	BlocksCached    stats.Counter_t
}

// Sources_t collects the query functions kstat reads from; any may be
// nil if that subsystem has not finished bringup yet, in which case its
// counters read 0.
type Sources_t struct {
	Frames     func() (free, used int64)
	Heap       func() (live, free int64)
	ReadyQueue func() int64
	Fs         func() int64
}

// Snapshot reads every bound source once.
func (s Sources_t) Snapshot() Snapshot_t {
	var sn Snapshot_t
	if s.Frames != nil {
		free, used := s.Frames()
		sn.FramesFree = stats.Counter_t(free)
		sn.FramesUsed = stats.Counter_t(used)
	}
	if s.Heap != nil {
		live, free := s.Heap()
		sn.HeapBytesLive = stats.Counter_t(live)
		sn.HeapBytesFree = stats.Counter_t(free)
	}
	if s.ReadyQueue != nil {
		sn.ReadyQueueDepth = stats.Counter_t(s.ReadyQueue())
	}
	if s.Fs != nil {
		sn.BlocksCached = stats.Counter_t(s.Fs())
	}
	return sn
}

// String renders sn the way the D_STAT device collaborator writes to a
// reader: src/stats's leveled "#Name: value" lines, empty when
// stats.Enabled is false.
func (sn Snapshot_t) String() string {
	return stats.Stats2String(sn)
}

// counterFields names, in order, every Snapshot_t field — kept
// alongside the struct rather than derived via reflection in Profile,
// since pprof's sample/location/function wiring wants a stable name set
// regardless of the stats.Enabled debug gate Stats2String respects.
var counterFields = []struct {
	name string
	get  func(Snapshot_t) int64
}{
	{"FramesFree", func(s Snapshot_t) int64 { return int64(s.FramesFree) }},
	{"FramesUsed", func(s Snapshot_t) int64 { return int64(s.FramesUsed) }},
	{"HeapBytesLive", func(s Snapshot_t) int64 { return int64(s.HeapBytesLive) }},
	{"HeapBytesFree", func(s Snapshot_t) int64 { return int64(s.HeapBytesFree) }},
	{"ReadyQueueDepth", func(s Snapshot_t) int64 { return int64(s.ReadyQueueDepth) }},
	{"BlocksCached", func(s Snapshot_t) int64 { return int64(s.BlocksCached) }},
}

// Profile renders sn as a minimal pprof profile: one synthetic
// function/location per counter, one sample per counter carrying its
// current value. This is the /dev/prof device collaborator's payload,
// spec.md §3's D_PROF.
func (sn Snapshot_t) Profile() *profile.Profile {
	p := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "counter", Unit: "count"}},
		PeriodType: &profile.ValueType{Type: "snapshot", Unit: "count"},
		Period:     1,
	}
	for i, f := range counterFields {
		id := uint64(i + 1)
		fn := &profile.Function{ID: id, Name: f.name, SystemName: f.name, Filename: "kstat"}
		loc := &profile.Location{ID: id, Line: []profile.Line{{Function: fn, Line: 1}}}
		p.Function = append(p.Function, fn)
		p.Location = append(p.Location, loc)
		p.Sample = append(p.Sample, &profile.Sample{
			Location: []*profile.Location{loc},
			Value:    []int64{f.get(sn)},
		})
	}
	return p
}

// WriteProfile encodes sn's pprof profile to w, the /dev/prof device
// collaborator's write path.
func WriteProfile(w io.Writer, sn Snapshot_t) error {
	return sn.Profile().Write(w)
}

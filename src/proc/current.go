package proc

// current is the singleton current-task pointer, spec.md §3's "at most
// one task is in state running at any instant; the singleton current
// task variable points to that task, or to null before scheduling has
// begun". Grounded on the teacher's tinfo.Current()/SetCurrent() pair
// (src/tinfo/tinfo.go), which hooked a per-goroutine slot
// (runtime.Gptr/Setgptr) provided by the teacher's patched Go runtime;
// this freestanding kernel has no such runtime, so the slot is a plain
// package variable instead, guarded the same way the ready queue is —
// by the caller running inside intr.WithIRQDisabled.
var current *Task_t

// Current returns the running task, or nil before scheduling has begun.
func Current() *Task_t { return current }

// SetCurrent installs t as the running task. Callers are expected to
// hold the interrupts-disabled critical section (spec.md §5); this
// matches the teacher's tinfo.SetCurrent, minus its "panic if already
// set" check — the scheduler legitimately overwrites current on every
// tick.
func SetCurrent(t *Task_t) { current = t }

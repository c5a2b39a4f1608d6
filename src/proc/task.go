// Package proc is the task control block, ready queue, round-robin
// scheduler, and context switch (spec.md §4.6). The teacher's own proc
// package survived distillation empty, so the TCB and scheduler are new,
// grounded directly on spec.md §4.6's algorithm; three surviving teacher
// packages are wired onto it instead of invented fresh:
//   - src/accnt (kept, adapted): per-task user/system nanosecond
//     accounting, embedded in Task_t exactly as the teacher embeds
//     Accnt_t in its process struct.
//   - src/tinfo (adapted, folded in here as current.go): the teacher's
//     Current()/SetCurrent() pair hooked into a patched Go runtime
//     (runtime.Gptr/Setgptr) this freestanding kernel does not have;
//     reworked into a plain pointer guarded by the same
//     interrupts-disabled critical section the ready queue uses.
//   - src/limits (kept, adapted): Syslimit.Sysprocs gates TaskCreate the
//     same way the teacher gates process creation.
package proc

import (
	"strata/src/accnt"
	"strata/src/limits"
	"strata/src/mem"
)

// State is a task's position in its lifecycle, spec.md §3's Task state
// set.
type State int

const (
	New State = iota
	Ready
	Running
	Blocked
	Terminated
)

func (s State) String() string {
	switch s {
	case New:
		return "new"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Blocked:
		return "blocked"
	case Terminated:
		return "terminated"
	default:
		return "?"
	}
}

// CPUState is a full register snapshot: general-purpose registers,
// instruction pointer, flags, stack pointer, and segment selectors —
// spec.md §3's saved_cpu_state.
type CPUState struct {
	Rax, Rbx, Rcx, Rdx, Rsi, Rdi, Rbp uint64
	R8, R9, R10, R11, R12, R13, R14, R15 uint64
	Rip, Rflags, Rsp uint64
	Cs, Ss           uint64
}

// QuantumMax is the default number of ticks a task runs before the
// scheduler preempts it, spec.md scenario S3's 10-tick quantum.
const QuantumMax = 10

// Task_t is one schedulable task: its control block, kernel stack, saved
// register snapshot, and per-task accounting.
type Task_t struct {
	ID          uint
	Name        string
	State       State
	Priority    int
	QuantumMax  int
	QuantumUsed int
	Saved       CPUState
	StackTop    uintptr
	StackFrame  mem.Pa_t
	AddressSpace AddressSpace_i
	Accnt       accnt.Accnt_t

	next *Task_t // intrusive link in the global task list
}

// AddressSpace_i is the subset of vm.AddressSpace_t a task needs: enough
// to switch to it on context switch and tear it down on destroy. Kept as
// an interface so proc can be tested without a real page-table tree.
type AddressSpace_i interface {
	SwitchTo()
	Destroy()
}

// FrameAllocator allocates and frees the single frame backing a task's
// kernel stack.
type FrameAllocator interface {
	AllocFrame() (mem.Pa_t, bool)
	FreeFrame(mem.Pa_t)
}

var nextID uint = 1

// taskList is every non-terminated task, for Destroy's "remove from the
// task list" step; a plain intrusive singly-linked list, the same shape
// as fs/blk.go's BlkList_t reduced to what Destroy/enumeration need.
var taskList *Task_t

func addToTaskList(t *Task_t) {
	t.next = taskList
	taskList = t
}

func removeFromTaskList(t *Task_t) {
	if taskList == t {
		taskList = t.next
		t.next = nil
		return
	}
	for p := taskList; p != nil; p = p.next {
		if p.next == t {
			p.next = t.next
			t.next = nil
			return
		}
	}
}

// TaskCreate allocates a task control block and a one-frame kernel stack,
// records in t.Saved a saved-cpu-state snapshot (stack pointer at the top
// of that stack) so that resuming it lands at entry with interrupts
// enabled and ring-0 segments, and inserts the task into the global task
// list. Nothing is written onto the stack itself. Fails if the
// system-wide task ceiling (src/limits) is exhausted or the frame
// allocator is out of memory.
func TaskCreate(frames FrameAllocator, hhdm uintptr, entry uintptr, priority int, name string) (*Task_t, bool) {
	if !limits.Syslimit.Sysprocs.Take() {
		return nil, false
	}
	pa, ok := frames.AllocFrame()
	if !ok {
		limits.Syslimit.Sysprocs.Give()
		return nil, false
	}

	t := &Task_t{
		ID:         nextID,
		Name:       name,
		State:      New,
		Priority:   priority,
		QuantumMax: QuantumMax,
		StackFrame: pa,
	}
	nextID++

	top := hhdm + uintptr(pa) + uintptr(mem.PGSIZE)
	t.StackTop = top
	t.Saved = CPUState{
		Rip:    uint64(entry),
		Rflags: 1 << 9, // IF: interrupts enabled on resume
		Rsp:    uint64(top),
		Cs:     0x08, // kernel code selector
		Ss:     0x10, // kernel data selector
	}

	addToTaskList(t)
	return t, true
}

// TaskDestroy removes t from the ready queue if present, removes it from
// the task list, and frees its kernel stack frame and address space. The
// TCB itself is left for the Go garbage collector, unlike the teacher's
// manually-freed heap block — Task_t is an ordinary Go value, not a
// kheap allocation.
func TaskDestroy(t *Task_t, frames FrameAllocator) {
	ReadyQueue.Remove(t)
	removeFromTaskList(t)
	if t.AddressSpace != nil {
		t.AddressSpace.Destroy()
	}
	frames.FreeFrame(t.StackFrame)
	t.State = Terminated
}

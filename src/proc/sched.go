package proc

// Switcher performs the register-window swap spec.md §4.6 describes:
// push callee-saved registers onto the current task's stack, record the
// new stack pointer in its saved-cpu-state, load the next task's stack
// pointer, pop its callee-saved registers, return. It is pure assembly
// in the real kernel; isolating it behind an interface keeps the tick
// logic testable on the host, the same pattern vm.Arch and seg.HW use
// for their hardware boundary.
type Switcher interface {
	Switch(from, to *Task_t)
}

var switcher Switcher

// SetSwitcher installs the context-switch primitive cmd/kernel wires up
// at bringup. Left nil, Tick still updates scheduler state but performs
// no actual register swap — tests exercise scheduling decisions without
// a real switch.
func SetSwitcher(s Switcher) { switcher = s }

// ScheduleAdd enqueues t onto the ready queue. If no task is currently
// running, it is picked immediately so a freshly-created task on an
// otherwise idle system runs without waiting for the next tick.
func ScheduleAdd(t *Task_t) {
	ReadyQueue.Enqueue(t)
	if Current() == nil {
		run := ReadyQueue.DequeueHead()
		if run != nil {
			run.State = Running
			SetCurrent(run)
		}
	}
}

// Tick is called from the timer handler on every periodic interrupt
// (spec.md §4.5/§4.6). It implements the scheduler's preemption
// decision: charge one tick to the running task's quantum, and once it
// reaches QuantumMax, rotate it to the tail of the ready queue and
// context-switch into the next ready task. With no ready task to switch
// to, the running task simply keeps running past its quantum — spec.md
// §4.6's "no preemption if no work".
func Tick() {
	cur := Current()
	if cur == nil {
		return
	}
	cur.QuantumUsed++
	if cur.QuantumUsed < cur.QuantumMax {
		return
	}

	next := ReadyQueue.DequeueHead()
	if next == nil {
		return
	}

	cur.QuantumUsed = 0
	ReadyQueue.Enqueue(cur)

	next.State = Running
	SetCurrent(next)

	if switcher != nil {
		switcher.Switch(cur, next)
	}
}

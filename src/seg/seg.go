// Package seg builds the flat GDT and the task-state segment: five
// visible segment descriptors (null, kernel code/data, user code/data)
// plus the TSS descriptor carrying rsp0 and the seven interrupt-stack-
// table slots exception handlers run on. No teacher file builds this —
// the teacher's modified Go runtime installs its own GDT before any
// kernel Go code runs — so the descriptor encoding and IST slot
// assignment are new, grounded directly on spec.md §4.4's field layout.
package seg

import "unsafe"

// Selector is a segment selector: an index into the GDT plus an RPL.
type Selector uint16

const (
	NullSel       Selector = 0
	KernelCodeSel Selector = 1 << 3
	KernelDataSel Selector = 2 << 3
	UserCodeSel   Selector = (3 << 3) | 3
	UserDataSel   Selector = (4 << 3) | 3
	TssSel        Selector = 5 << 3
)

// ISTIndex names one of the seven interrupt-stack-table slots. Index 0 is
// reserved (means "use rsp0", not an IST stack) so these start at 1.
type ISTIndex uint8

const (
	ISTDebug ISTIndex = iota + 1
	ISTNMI
	ISTDoubleFault
	ISTMachineCheck
	ISTStackFault
	ISTGeneralProtection
	ISTGeneric
)

// tssLayout mirrors the hardware 64-bit TSS exactly: field offsets and
// widths matter because an Install implementation points the CPU at this
// struct directly.
type tssLayout struct {
	reserved0 uint32
	rsp       [3]uint64
	reserved1 uint64
	ist       [7]uint64
	reserved2 uint64
	reserved3 uint16
	ioMapBase uint16
}

// codeFlat, dataFlat build a flat (base 0, limit max) 64-bit code/data
// segment descriptor for the given ring (0 or 3). Bit layout: present,
// DPL, descriptor type=1 (code/data), type field (execute/read or
// read/write), long-mode bit for code segments.
func codeFlat(ring uint64) uint64 {
	const (
		present    = 1 << 47
		descType   = 1 << 44
		execute    = 1 << 43
		readable   = 1 << 41
		longMode   = 1 << 53
		granularity = 1 << 55
	)
	return present | descType | execute | readable | longMode | granularity | (ring << 45)
}

func dataFlat(ring uint64) uint64 {
	const (
		present    = 1 << 47
		descType   = 1 << 44
		writable   = 1 << 41
		granularity = 1 << 55
	)
	return present | descType | writable | granularity | (ring << 45)
}

// tssDescriptor builds the two 64-bit words of a system-segment
// descriptor pointing at a TSS at the given virtual address.
func tssDescriptor(addr uintptr, limit uint32) (lo, hi uint64) {
	const (
		present = 1 << 47
		typeTSS = 0x9 // 64-bit TSS (available)
	)
	base := uint64(addr)
	lo = uint64(limit&0xffff) |
		((base & 0xffffff) << 16) |
		(typeTSS << 40) |
		present |
		(((base >> 24) & 0xff) << 56)
	hi = (base >> 32) & 0xffffffff
	return lo, hi
}

// Table_t is a single GDT plus its embedded TSS. One per CPU in a
// multiprocessor kernel; this core runs a single instance.
type Table_t struct {
	entries [7]uint64 // null, kcode, kdata, ucode, udata, tss-lo, tss-hi
	tss     tssLayout
}

// HW is the machine hook: loading the GDT register and the task
// register. Isolated behind an interface so Table_t construction and
// IST wiring are host-testable without executing LGDT/LTR.
type HW interface {
	LGDT(base uintptr, limit uint16)
	LTR(sel Selector)
}

// New builds a GDT with rsp0 and all seven IST stack-top addresses
// installed into the TSS, ready for Install.
func New(rsp0 uintptr, istStacks [7]uintptr) *Table_t {
	t := &Table_t{}
	t.entries[0] = 0
	t.entries[1] = codeFlat(0)
	t.entries[2] = dataFlat(0)
	t.entries[3] = codeFlat(3)
	t.entries[4] = dataFlat(3)

	t.tss.rsp[0] = uint64(rsp0)
	for i, top := range istStacks {
		t.tss.ist[i] = uint64(top)
	}
	t.tss.ioMapBase = uint16(unsafe.Sizeof(tssLayout{})) // no I/O bitmap present

	tssAddr := uintptr(unsafe.Pointer(&t.tss))
	lo, hi := tssDescriptor(tssAddr, uint32(unsafe.Sizeof(tssLayout{})-1))
	t.entries[5] = lo
	t.entries[6] = hi
	return t
}

// SetRSP0 updates the kernel stack pointer loaded on a ring-3-to-ring-0
// privilege transition, so traps taken from ring 3 afterwards land on
// that stack. The scheduler in src/proc does not call it.
func (t *Table_t) SetRSP0(stack uintptr) {
	t.tss.rsp[0] = uint64(stack)
}

// SetIST updates one interrupt-stack-table slot.
func (t *Table_t) SetIST(idx ISTIndex, top uintptr) {
	t.tss.ist[idx-1] = uint64(top)
}

// Install loads this table as the active GDT and task register.
func (t *Table_t) Install(hw HW) {
	hw.LGDT(uintptr(unsafe.Pointer(&t.entries[0])), uint16(len(t.entries)*8-1))
	hw.LTR(TssSel)
}

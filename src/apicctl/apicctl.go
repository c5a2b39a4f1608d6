// Package apicctl brings up the interrupt controllers: remaps and masks
// the legacy 8259 pair so their vectors never collide with CPU exceptions,
// then detects and enables the local/IO APIC pair, and programs a
// periodic timer that drives the scheduler's preemption tick. No teacher
// file does this bring-up (the teacher's host-mode build never owns real
// interrupt controllers); grounded on spec.md §4.5's remap-then-mask-then-
// detect-then-enable sequence and on the teacher's msi package's
// allocate-a-resource-then-hand-it-to-a-driver shape, mirrored here by
// handing the timer vector to src/intr the same way src/msi hands out
// device vectors.
package apicctl

import (
	"sync"
	"sync/atomic"

	"strata/src/intr"
	"strata/src/klog"
)

// Legacy PIC I/O ports and the ICW/OCW protocol bytes, architectural
// constants for the 8259A pair.
const (
	picMasterCmd  = 0x20
	picMasterData = 0x21
	picSlaveCmd   = 0xA0
	picSlaveData  = 0xA1

	icw1Init     = 0x11
	icw4_8086    = 0x01
	ocwEOI       = 0x20
	picMaskAll   = 0xFF
)

// PIC is the hook into the legacy controller's I/O ports. Isolated from
// apicctl's logic so the remap/mask sequence is testable on the host.
type PIC interface {
	Out8(port uint16, val uint8)
}

// RemapAndMaskLegacy reprograms the 8259 pair so IRQ line N raises vector
// base+N instead of its BIOS-default collision with CPU exceptions 8..15,
// then masks every line — spec.md §4.5's "remapped ... with all lines
// initially masked".
func RemapAndMaskLegacy(pic PIC, base uint8) {
	pic.Out8(picMasterCmd, icw1Init)
	pic.Out8(picSlaveCmd, icw1Init)
	pic.Out8(picMasterData, base)     // ICW2: vector offset, master
	pic.Out8(picSlaveData, base+8)    // ICW2: vector offset, slave
	pic.Out8(picMasterData, 1<<2)     // ICW3: slave attached at IRQ2
	pic.Out8(picSlaveData, 2)         // ICW3: cascade identity
	pic.Out8(picMasterData, icw4_8086)
	pic.Out8(picSlaveData, icw4_8086)

	pic.Out8(picMasterData, picMaskAll)
	pic.Out8(picSlaveData, picMaskAll)
}

// Local APIC register offsets used here, relative to its HHDM-mapped
// base.
const (
	regSpurious  = 0x0F0
	regLVTTimer  = 0x320
	regTimerInit = 0x380
	regTimerCur  = 0x390
	regTimerDiv  = 0x3E0
	regEOI       = 0x0B0
	regErrStat   = 0x280

	spuriousEnable = 1 << 8
	timerPeriodic  = 1 << 17
	divideBy16     = 0x3
)

// MMIO is the hook into the local APIC's memory-mapped registers, reached
// through the HHDM per spec.md §4.5.
type MMIO interface {
	Read32(offset uintptr) uint32
	Write32(offset uintptr, val uint32)
}

// Local_t owns one CPU's local APIC bring-up and the periodic timer tick
// that drives preemption.
type Local_t struct {
	mmio        MMIO
	spuriousVec uint8
	timerVec    uint8
	ticks       uint64
	onTick      func()
}

// NewLocal enables the local APIC, writing the spurious-interrupt vector
// register and clearing any latched error status, per spec.md §4.5.
func NewLocal(mmio MMIO, spuriousVec uint8) *Local_t {
	l := &Local_t{mmio: mmio, spuriousVec: spuriousVec}
	mmio.Write32(regErrStat, 0)
	mmio.Write32(regSpurious, spuriousEnable|uint32(spuriousVec))
	return l
}

// EOI signals end-of-interrupt to the local APIC. Must be called by every
// local-APIC-routed handler before returning, or the controller never
// delivers another interrupt of that priority class.
func (l *Local_t) EOI() {
	l.mmio.Write32(regEOI, 0)
}

// StartPeriodicTimer programs the local APIC timer to fire vector at
// roughly hz, in periodic mode, and registers a handler on table that
// advances the tick counter and invokes onTick (the scheduler's tick
// entry point). count is the divided-clock count that yields hz on this
// platform's bus frequency; callers calibrate it once at bring-up.
func (l *Local_t) StartPeriodicTimer(table *intr.Table_t, trampoline uintptr, vector uint8, count uint32, onTick func()) {
	l.timerVec = vector
	l.onTick = onTick

	table.InstallHandler(int(vector), trampoline, func(f *intr.Frame_t) {
		atomic.AddUint64(&l.ticks, 1)
		if l.onTick != nil {
			l.onTick()
		}
		l.EOI()
	})

	l.mmio.Write32(regTimerDiv, divideBy16)
	l.mmio.Write32(regLVTTimer, timerPeriodic|uint32(vector))
	l.mmio.Write32(regTimerInit, count)
}

// Ticks returns the number of timer interrupts delivered so far.
func (l *Local_t) Ticks() uint64 {
	return atomic.LoadUint64(&l.ticks)
}

// ioOnce guards detection so repeated bring-up attempts (e.g. a retry
// after a transient MMIO read failure) don't re-log the same discovery.
var (
	ioOnce    sync.Once
	ioBaseVA  uintptr
	ioGSIBase uint32
)

// IO_t is the IO APIC: it routes legacy and PCI interrupt lines to CPU
// vectors via its redirection table.
type IO_t struct {
	mmio MMIO
}

const (
	ioRegSelect    = 0x00
	ioRegData      = 0x10
	ioRedirTblBase = 0x10
)

// NewIO wraps an IO APIC whose registers are reached through mmio (the
// indirect index/data register pair at offsets 0x00/0x10, per the
// architectural IOAPIC definition).
func NewIO(mmio MMIO) *IO_t {
	return &IO_t{mmio: mmio}
}

func (io *IO_t) read(reg uint8) uint32 {
	io.mmio.Write32(ioRegSelect, uint32(reg))
	return io.mmio.Read32(ioRegData)
}

func (io *IO_t) write(reg uint8, val uint32) {
	io.mmio.Write32(ioRegSelect, uint32(reg))
	io.mmio.Write32(ioRegData, val)
}

// RouteLine maps global system interrupt line gsi to vector, targeting
// the given local APIC ID, masked or unmasked as requested.
func (io *IO_t) RouteLine(gsi uint8, vector uint8, apicID uint8, masked bool) {
	low := uint32(vector)
	if masked {
		low |= 1 << 16
	}
	high := uint32(apicID) << 24
	reg := ioRedirTblBase + gsi*2
	io.write(reg, low)
	io.write(reg+1, high)
}

// LogDiscovery records the IO APIC's base address and GSI base at
// bring-up, for the boot log line spec.md §4.5 implies ("detected via
// the firmware table enumeration").
func LogDiscovery(baseVA uintptr, gsiBase uint32) {
	ioOnce.Do(func() {
		ioBaseVA, ioGSIBase = baseVA, gsiBase
		klog.Infof("ioapic: base=%#x gsi_base=%d", baseVA, gsiBase)
	})
}

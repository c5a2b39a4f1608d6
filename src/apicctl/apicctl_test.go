package apicctl

import (
	"testing"

	"strata/src/intr"
	"strata/src/seg"
)

type fakePIC struct {
	writes []struct {
		port uint16
		val  uint8
	}
}

func (f *fakePIC) Out8(port uint16, val uint8) {
	f.writes = append(f.writes, struct {
		port uint16
		val  uint8
	}{port, val})
}

func (f *fakePIC) valueAt(port uint16, occurrence int) (uint8, bool) {
	seen := 0
	for _, w := range f.writes {
		if w.port == port {
			if seen == occurrence {
				return w.val, true
			}
			seen++
		}
	}
	return 0, false
}

func TestRemapAndMaskLegacy(t *testing.T) {
	pic := &fakePIC{}
	RemapAndMaskLegacy(pic, 32)

	masterOffset, ok := pic.valueAt(picMasterData, 0)
	if !ok || masterOffset != 32 {
		t.Fatalf("master vector offset = %v, want 32", masterOffset)
	}
	slaveOffset, ok := pic.valueAt(picSlaveData, 0)
	if !ok || slaveOffset != 40 {
		t.Fatalf("slave vector offset = %v, want 40", slaveOffset)
	}

	lastMaster, _ := pic.valueAt(picMasterData, 3)
	lastSlave, _ := pic.valueAt(picSlaveData, 3)
	if lastMaster != picMaskAll || lastSlave != picMaskAll {
		t.Fatalf("expected all lines masked, got master=%#x slave=%#x", lastMaster, lastSlave)
	}
}

type fakeMMIO struct {
	regs map[uintptr]uint32
}

func newFakeMMIO() *fakeMMIO { return &fakeMMIO{regs: map[uintptr]uint32{}} }

func (m *fakeMMIO) Read32(off uintptr) uint32  { return m.regs[off] }
func (m *fakeMMIO) Write32(off uintptr, v uint32) { m.regs[off] = v }

func TestNewLocalEnablesSpuriousVector(t *testing.T) {
	mmio := newFakeMMIO()
	NewLocal(mmio, 0xFF)
	got := mmio.Read32(regSpurious)
	if got&spuriousEnable == 0 {
		t.Fatal("spurious interrupt register missing enable bit")
	}
	if uint8(got) != 0xFF {
		t.Fatalf("spurious vector = %#x, want 0xff", uint8(got))
	}
}

func TestStartPeriodicTimerRegistersHandlerAndTicks(t *testing.T) {
	mmio := newFakeMMIO()
	local := NewLocal(mmio, 0xFF)
	table := intr.New(seg.KernelCodeSel)

	var scheduled int
	local.StartPeriodicTimer(table, 0x1000, 0x20, 1193, func() { scheduled++ })

	if mmio.Read32(regLVTTimer)&timerPeriodic == 0 {
		t.Fatal("LVT timer not programmed for periodic mode")
	}
	if mmio.Read32(regTimerInit) != 1193 {
		t.Fatalf("initial count = %d, want 1193", mmio.Read32(regTimerInit))
	}

	table.Dispatch(&intr.Frame_t{Vector: 0x20})
	table.Dispatch(&intr.Frame_t{Vector: 0x20})

	if local.Ticks() != 2 {
		t.Fatalf("ticks = %d, want 2", local.Ticks())
	}
	if scheduled != 2 {
		t.Fatalf("onTick called %d times, want 2", scheduled)
	}
	if _, wrote := mmio.regs[regEOI]; !wrote {
		t.Fatal("timer handler never signaled EOI")
	}
}

// indexedFakeMMIO models the real IO APIC's indirect index/data register
// pair: writing ioRegSelect latches an internal register number, and
// subsequent reads/writes at ioRegData act on that latched register —
// unlike the local APIC's direct-offset registers, a single-map fake
// would let every redirection table entry collide on the same ioRegData
// key.
type indexedFakeMMIO struct {
	selected uint32
	internal map[uint32]uint32
}

func newIndexedFakeMMIO() *indexedFakeMMIO {
	return &indexedFakeMMIO{internal: map[uint32]uint32{}}
}

func (m *indexedFakeMMIO) Read32(off uintptr) uint32 {
	if off == ioRegData {
		return m.internal[m.selected]
	}
	return 0
}

func (m *indexedFakeMMIO) Write32(off uintptr, v uint32) {
	switch off {
	case ioRegSelect:
		m.selected = v
	case ioRegData:
		m.internal[m.selected] = v
	}
}

func TestIORouteLineEncodesVectorAndMask(t *testing.T) {
	mmio := newIndexedFakeMMIO()
	io := NewIO(mmio)
	io.RouteLine(1, 33, 0, false)

	low := io.read(ioRedirTblBase + 1*2)
	if uint8(low) != 33 {
		t.Fatalf("vector = %d, want 33", uint8(low))
	}
	if low&(1<<16) != 0 {
		t.Fatal("expected line to be unmasked")
	}

	io.RouteLine(2, 34, 0, true)
	low2 := io.read(ioRedirTblBase + 2*2)
	if low2&(1<<16) == 0 {
		t.Fatal("expected line to be masked")
	}
	// the first line's entry must still read back unchanged
	low1Again := io.read(ioRedirTblBase + 1*2)
	if uint8(low1Again) != 33 {
		t.Fatalf("line 1 entry clobbered by routing line 2: got vector %d", uint8(low1Again))
	}
}

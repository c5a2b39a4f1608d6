package vm

import (
	"testing"
	"unsafe"

	"strata/src/mem"
)

// fakeArch backs physical memory with a plain Go byte slice addressed as
// if HHDM offset were the slice's own base address, and records the last
// CR3 load / invlpg instead of touching real hardware.
type fakeArch struct {
	ram      []byte
	hhdm     uintptr
	nextPa   mem.Pa_t
	lastCR3  mem.Pa_t
	lastInvl uintptr
	freed    map[mem.Pa_t]bool
}

func newFakeArch(nframes int) *fakeArch {
	ram := make([]byte, nframes*mem.PGSIZE)
	return &fakeArch{
		ram:   ram,
		hhdm:  uintptr(unsafe.Pointer(&ram[0])),
		freed: map[mem.Pa_t]bool{},
	}
}

func (f *fakeArch) Dmap(pa mem.Pa_t) *mem.Bytepg_t {
	va := f.hhdm + uintptr(pa)
	return (*mem.Bytepg_t)(unsafe.Pointer(va))
}

func (f *fakeArch) AllocFrame() (mem.Pa_t, bool) {
	pa := f.nextPa
	f.nextPa += mem.Pa_t(mem.PGSIZE)
	if int(f.nextPa) > len(f.ram) {
		return 0, false
	}
	bp := f.Dmap(pa)
	for i := range bp {
		bp[i] = 0
	}
	return pa, true
}

func (f *fakeArch) FreeFrame(pa mem.Pa_t) { f.freed[pa] = true }
func (f *fakeArch) LoadCR3(root mem.Pa_t)  { f.lastCR3 = root }
func (f *fakeArch) Invlpg(v uintptr)       { f.lastInvl = v }

func TestS4MapWriteReadUnmap(t *testing.T) {
	arch := newFakeArch(64)
	as, ok := New(arch, 0)
	if !ok {
		t.Fatal("New failed")
	}

	phys, ok := arch.AllocFrame()
	if !ok {
		t.Fatal("alloc failed")
	}
	const virt = uintptr(0xFFFF_8000_0000_0000)
	if !as.Map(virt, phys, mem.PTE_W) {
		t.Fatal("map failed")
	}

	got, ok := as.Translate(virt)
	if !ok || got != phys {
		t.Fatalf("translate = %#x,%v want %#x", got, ok, phys)
	}

	*(*uint32)(unsafe.Pointer(arch.hhdm + uintptr(phys))) = 0xDEADBEEF
	viaVirt := *(*uint32)(unsafe.Pointer(arch.hhdm + uintptr(got)))
	if viaVirt != 0xDEADBEEF {
		t.Fatalf("got %#x", viaVirt)
	}

	if !as.Unmap(virt) {
		t.Fatal("unmap failed")
	}
	if _, ok := as.Translate(virt); ok {
		t.Fatal("translate succeeded after unmap")
	}
}

func TestMapUnmapInverse(t *testing.T) {
	arch := newFakeArch(64)
	as, _ := New(arch, 0)
	phys, _ := arch.AllocFrame()
	const virt = uintptr(0x1000_0000)
	as.Map(virt, phys, mem.PTE_W)
	as.Unmap(virt)
	if _, ok := as.Translate(virt); ok {
		t.Fatal("expected unmapped")
	}
}

func TestKernelHalfSharedAcrossAddressSpaces(t *testing.T) {
	arch := newFakeArch(64)
	// burn frame 0 so the kernel root is not at physical 0, which New
	// reads as "no kernel root"
	arch.AllocFrame()
	kernel, _ := New(arch, 0)
	// install a kernel mapping in the top half
	const kvirt = uintptr(256) << 39
	phys, _ := arch.AllocFrame()
	if !kernel.Map(kvirt, phys, mem.PTE_W) {
		t.Fatal("kernel map failed")
	}

	child, ok := New(arch, kernel.Root)
	if !ok {
		t.Fatal("child New failed")
	}
	got, ok := child.Translate(kvirt)
	if !ok || got != phys {
		t.Fatalf("child did not inherit kernel mapping: %#x %v", got, ok)
	}
}

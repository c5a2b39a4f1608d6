package kheap

import (
	"testing"
	"unsafe"

	"strata/src/mem"
)

// fakeFrames hands out frames from a plain Go byte slice acting as
// physical RAM, identity-mapped at virtual == physical for test
// simplicity (the heap never inspects the virtual/physical relationship
// itself; it only asks Mapper to install one).
type fakeFrames struct {
	ram  []byte
	next mem.Pa_t
}

func newFakeFrames(npages int) *fakeFrames {
	return &fakeFrames{ram: make([]byte, npages*mem.PGSIZE)}
}

func (f *fakeFrames) AllocFrame() (mem.Pa_t, bool) {
	pa := f.next
	f.next += mem.Pa_t(mem.PGSIZE)
	if int(pa)+mem.PGSIZE > len(f.ram) {
		return 0, false
	}
	return pa, true
}

func (f *fakeFrames) FreeFrame(mem.Pa_t) {}

// fakeMapper installs virt == phys directly into the same backing slice,
// so the heap's own pointer arithmetic operates on real addressable
// memory exactly as it would through the real HHDM.
type fakeMapper struct{ base uintptr }

func (m *fakeMapper) Map(virt uintptr, phys mem.Pa_t, flags mem.Pa_t) bool {
	return true
}

func newHeap(t *testing.T, npages int) (*Heap_t, *fakeFrames) {
	t.Helper()
	frames := newFakeFrames(npages)
	h := &Heap_t{}
	base := uintptr(unsafe.Pointer(&frames.ram[0]))
	mapper := &fakeMapper{base: base}
	if !h.Init(frames, mapper, base) {
		t.Fatal("init failed")
	}
	return h, frames
}

func TestS2FirstFitSplit(t *testing.T) {
	h, _ := newHeap(t, 4)

	p1, ok := h.Kalloc(100)
	if !ok {
		t.Fatal("alloc p1 failed")
	}
	p2, ok := h.Kalloc(200)
	if !ok {
		t.Fatal("alloc p2 failed")
	}
	h.Kfree(p1)
	p3, ok := h.Kalloc(50)
	if !ok {
		t.Fatal("alloc p3 failed")
	}
	if p3 != p1 {
		t.Fatalf("expected first-fit reuse of p1 (%p), got %p", p1, p3)
	}
	_ = p2
	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after split reuse")
	}
}

func TestKallocZeroesNothingButIsWritable(t *testing.T) {
	h, _ := newHeap(t, 4)
	p, ok := h.Kalloc(64)
	if !ok {
		t.Fatal("alloc failed")
	}
	buf := unsafe.Slice((*byte)(p), 64)
	for i := range buf {
		buf[i] = byte(i)
	}
	for i := range buf {
		if buf[i] != byte(i) {
			t.Fatalf("byte %d corrupted", i)
		}
	}
}

func TestKfreeCoalescesForwardAndBackward(t *testing.T) {
	h, _ := newHeap(t, 4)
	a, _ := h.Kalloc(64)
	b, _ := h.Kalloc(64)
	c, _ := h.Kalloc(64)

	h.Kfree(a)
	h.Kfree(c)
	h.Kfree(b) // should merge a+b+c into one free run

	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after triple coalesce")
	}

	big, ok := h.Kalloc(64*3 + 32)
	if !ok {
		t.Fatal("expected coalesced block large enough for combined request")
	}
	if big != a {
		t.Fatalf("expected reuse at %p, got %p", a, big)
	}
}

func TestKfreeDoubleFreeIsNoop(t *testing.T) {
	h, _ := newHeap(t, 4)
	p, _ := h.Kalloc(32)
	h.Kfree(p)
	before := h.FreeBytes()
	h.Kfree(p) // flagFree already set; must be a no-op, not a double-coalesce
	if h.FreeBytes() != before {
		t.Fatal("double free changed free byte count")
	}
	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after double free")
	}
}

func TestKreallocGrowsAndShrinks(t *testing.T) {
	h, _ := newHeap(t, 4)
	p, _ := h.Kalloc(32)
	buf := unsafe.Slice((*byte)(p), 32)
	for i := range buf {
		buf[i] = 0xAB
	}

	grown, ok := h.Krealloc(p, 512)
	if !ok {
		t.Fatal("realloc grow failed")
	}
	gbuf := unsafe.Slice((*byte)(grown), 32)
	for i := range gbuf {
		if gbuf[i] != 0xAB {
			t.Fatalf("byte %d lost across realloc grow", i)
		}
	}
	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after realloc grow")
	}

	shrunk, ok := h.Krealloc(grown, 8)
	if !ok {
		t.Fatal("realloc shrink failed")
	}
	if shrunk != grown {
		t.Fatal("in-place shrink should not move the block")
	}
	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after realloc shrink")
	}
}

func TestGrowExtendsArenaAcrossPages(t *testing.T) {
	h, _ := newHeap(t, 8)
	// request bigger than a single page's payload capacity, forcing grow
	// to map more than one frame
	p, ok := h.Kalloc(mem.PGSIZE * 2)
	if !ok {
		t.Fatal("large alloc failed")
	}
	buf := unsafe.Slice((*byte)(p), mem.PGSIZE*2)
	buf[0] = 1
	buf[len(buf)-1] = 2
	if !h.CheckConsistency() {
		t.Fatal("heap inconsistent after multi-page growth")
	}
}

func TestOutOfMemoryReturnsFalse(t *testing.T) {
	h, _ := newHeap(t, 1) // tiny arena, no frames left to grow into
	// consume the whole first page, then demand far more than remains
	if _, ok := h.Kalloc(mem.PGSIZE * 100); ok {
		t.Fatal("expected allocation to fail when frames are exhausted")
	}
}

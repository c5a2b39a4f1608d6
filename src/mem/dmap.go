package mem

import "unsafe"

// Dmap returns the HHDM virtual pointer for physical address pa. It is
// not the only such conversion in this tree: Pfa_t.Init and
// proc.TaskCreate add the HHDM offset themselves. Grounded on the teacher's Physmem_t.Dmap (src/mem/mem.go), which
// applies the same offset-and-cast, replacing its fixed 512 GiB window
// check with the loader-supplied HHDM offset recorded at Init time.
func (p *Pfa_t) Dmap(pa Pa_t) *Bytepg_t {
	va := p.hhdm + uintptr(pa)
	return (*Bytepg_t)(unsafe.Pointer(va))
}

// DmapV2p is the inverse of Dmap: it recovers the physical address behind
// an HHDM virtual pointer.
func (p *Pfa_t) DmapV2p(v unsafe.Pointer) Pa_t {
	va := uintptr(v)
	if va < p.hhdm {
		panic("address isn't in the direct map")
	}
	return Pa_t(va - p.hhdm)
}

// HHDM returns the direct-map offset this allocator was initialized with.
func (p *Pfa_t) HHDM() uintptr {
	return p.hhdm
}

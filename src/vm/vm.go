// Package vm is the virtual memory mapper: a 4-level x86-64 page table
// tree per address space, map/unmap/translate of single pages, and TLB
// invalidation. Grounded on the teacher's vm.Vm_t (src/vm/as.go) for the
// mutex-guarded Pmap/P_pmap pair and the Lock_pmap/Unlock_pmap discipline
// spec.md §5 requires ("page tables ... modified only by the task that
// owns that address space"), and on mem/dmap.go's index-decomposition
// helpers (pgbits, mkpg), generalized here into a full pmap_walk: the
// teacher's distilled sources call pmap_walk but never define it, since
// the teacher's modified Go runtime builds the table before any kernel
// code runs. Map/Unmap/Translate/SwitchTo are new, grounded directly on
// spec.md §4.2's algorithm.
package vm

import (
	"sync"

	"strata/src/mem"
)

// Arch is the single process-wide hook into the machine: reading/writing
// physical memory through the direct map, allocating/freeing the frames
// that back page-table nodes, and switching CR3. Isolating these behind
// an interface keeps AddressSpace_t testable on the host, matching the
// teacher's own practice of depending on mem.Page_i/Blockmem_i rather
// than concrete hardware.
type Arch interface {
	Dmap(mem.Pa_t) *mem.Bytepg_t
	AllocFrame() (mem.Pa_t, bool)
	FreeFrame(mem.Pa_t)
	// LoadCR3 installs root as the active page-table root. In the real
	// kernel this is one MOV CR3 instruction; tests substitute a no-op or
	// a recorder.
	LoadCR3(root mem.Pa_t)
	// Invlpg invalidates the TLB entry for one virtual address.
	Invlpg(virt uintptr)
}

// AddressSpace_t owns one L4 page-table tree. The upper half (HHDM plus
// kernel image) is identical across every address space, copied in at
// creation time — spec.md §3's "Address space" invariant.
type AddressSpace_t struct {
	sync.Mutex
	arch  Arch
	Root  mem.Pa_t
	nodes int // page-table nodes owned by this address space, for Destroy
}

// pageIndices decomposes a canonical virtual address into its four
// 9-bit page-table indices (L4, L3, L2, L1), the generalization of the
// teacher's pgbits() (src/mem/dmap.go), which existed only to navigate
// the recursive-mapping trick; here the mapper walks tables it owns
// directly rather than through a recursive slot.
func pageIndices(virt uintptr) (l4, l3, l2, l1 int) {
	idx := func(shift uint) int { return int(virt>>shift) & 0x1ff }
	return idx(39), idx(30), idx(21), idx(12)
}

// New creates an address space whose L4 root is a fresh zeroed frame with
// the kernel half (upper 256 entries — indices 256..511) copied from
// kernelRoot, matching spec.md §3's address-space invariant and the
// teacher's convention that every Vm_t shares kernel PML4 entries. A
// kernelRoot of 0 means there is no kernel half to copy, and the new root
// stays all zero.
func New(arch Arch, kernelRoot mem.Pa_t) (*AddressSpace_t, bool) {
	pa, ok := arch.AllocFrame()
	if !ok {
		return nil, false
	}
	root := pmapAt(arch, pa)
	for i := range root {
		root[i] = 0
	}
	if kernelRoot != 0 {
		kroot := pmapAt(arch, kernelRoot)
		for i := 256; i < 512; i++ {
			root[i] = kroot[i]
		}
	}
	return &AddressSpace_t{arch: arch, Root: pa, nodes: 1}, true
}

// pmapAt reinterprets the direct-mapped page at pa as a page-table node.
func pmapAt(arch Arch, pa mem.Pa_t) *mem.Pmap_t {
	return mem.Bytes2Pmap(arch.Dmap(pa))
}

// walk descends L4->L1, allocating and zeroing intermediate nodes on
// demand when alloc is true. It returns the L1 entry's address (a
// pointer into the direct map, so callers can read or write it) and
// whether the walk succeeded. Grounded on spec.md §4.2's mapping
// algorithm.
func (as *AddressSpace_t) walk(virt uintptr, alloc bool) (*mem.Pa_t, bool) {
	l4, l3, l2, l1 := pageIndices(virt)
	idxs := [3]int{l4, l3, l2}
	cur := pmapAt(as.arch, as.Root)
	for _, idx := range idxs {
		ent := &cur[idx]
		if *ent&mem.PTE_P == 0 {
			if !alloc {
				return nil, false
			}
			pa, ok := as.arch.AllocFrame()
			if !ok {
				return nil, false
			}
			next := pmapAt(as.arch, pa)
			for i := range next {
				next[i] = 0
			}
			*ent = pa | mem.PTE_P | mem.PTE_W | mem.PTE_U
			as.nodes++
			cur = next
		} else {
			cur = pmapAt(as.arch, *ent&mem.PTE_ADDR)
		}
	}
	return &cur[l1], true
}

// Map installs virt -> phys with the given flags, allocating any
// intermediate page-table nodes required. It returns false only on
// allocation failure; per spec.md §4.2 intermediate nodes created along
// the way are left in place on failure (cheap, unreferenced, reusable by
// a later Map).
func (as *AddressSpace_t) Map(virt uintptr, phys mem.Pa_t, flags mem.Pa_t) bool {
	as.Lock()
	defer as.Unlock()
	pte, ok := as.walk(virt, true)
	if !ok {
		return false
	}
	*pte = (phys &^ mem.PGOFFSET) | flags | mem.PTE_P
	as.arch.Invlpg(virt)
	return true
}

// Unmap clears the L1 entry for virt. It returns false if virt was not
// mapped. Intermediate nodes are never freed, even if they become empty
// — spec.md §4.2's documented policy choice.
func (as *AddressSpace_t) Unmap(virt uintptr) bool {
	as.Lock()
	defer as.Unlock()
	pte, ok := as.walk(virt, false)
	if !ok || *pte&mem.PTE_P == 0 {
		return false
	}
	*pte = 0
	as.arch.Invlpg(virt)
	return true
}

// Translate returns the physical address backing virt, or false if it is
// unmapped.
func (as *AddressSpace_t) Translate(virt uintptr) (mem.Pa_t, bool) {
	as.Lock()
	defer as.Unlock()
	pte, ok := as.walk(virt, false)
	if !ok || *pte&mem.PTE_P == 0 {
		return 0, false
	}
	return (*pte & mem.PTE_ADDR) | mem.Pa_t(virt&uintptr(mem.PGOFFSET)), true
}

// SwitchTo installs this address space's L4 root as the active page
// table.
func (as *AddressSpace_t) SwitchTo() {
	as.arch.LoadCR3(as.Root)
}

// Destroy returns every page-table node owned by this address space to
// the frame allocator, including the root. Called only when the address
// space is torn down entirely (spec.md §3's page-table-node lifecycle).
func (as *AddressSpace_t) Destroy() {
	as.Lock()
	defer as.Unlock()
	as.freeLevel(as.Root, 4)
}

func (as *AddressSpace_t) freeLevel(pa mem.Pa_t, level int) {
	node := pmapAt(as.arch, pa)
	hi := 512
	if level == 4 {
		hi = 256 // never free the shared kernel half
	}
	if level > 1 {
		for i := 0; i < hi; i++ {
			ent := node[i]
			if ent&mem.PTE_P != 0 && ent&mem.PTE_U != 0 {
				as.freeLevel(ent&mem.PTE_ADDR, level-1)
			}
		}
	}
	as.arch.FreeFrame(pa)
}

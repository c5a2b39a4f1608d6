// Package mem implements the physical frame allocator: a bitmap over the
// usable frames named by the loader's memory map, plus the HHDM
// (high-half direct map) translation every other subsystem uses to reach
// physical memory by pointer. Grounded on the teacher's mem.Physmem_t
// (src/mem/mem.go) for the page/flag type vocabulary, replacing the
// teacher's per-CPU refcounted free-list (an SMP optimization this core's
// single-CPU scope does not need) with the bitmap-scan allocator spec.md
// §4.1 specifies.
package mem

import "unsafe"

// PGSHIFT is the base-2 exponent of the page size.
const PGSHIFT uint = 12

// PGSIZE is the size of a single page in bytes.
const PGSIZE int = 1 << PGSHIFT

// PGOFFSET masks the in-page offset of an address.
const PGOFFSET Pa_t = 0xfff

// PGMASK masks the frame number of an address.
const PGMASK Pa_t = ^PGOFFSET

// Page table entry flag bits, x86-64 layout.
const (
	PTE_P  Pa_t = 1 << 0 /// present
	PTE_W  Pa_t = 1 << 1 /// writable
	PTE_U  Pa_t = 1 << 2 /// user-accessible
	PTE_PWT Pa_t = 1 << 3 /// write-through
	PTE_PCD Pa_t = 1 << 4 /// cache disabled
	PTE_A  Pa_t = 1 << 5 /// accessed
	PTE_D  Pa_t = 1 << 6 /// dirty
	PTE_PS Pa_t = 1 << 7 /// huge page (2MiB/1GiB)
	PTE_G  Pa_t = 1 << 8 /// global
	PTE_NX Pa_t = 1 << 63 /// no-execute
)

// PTE_ADDR extracts the physical frame address carried by a PTE.
const PTE_ADDR Pa_t = PGMASK

// Pa_t is a physical address.
type Pa_t uintptr

// Bytepg_t is a page viewed as bytes.
type Bytepg_t [PGSIZE]uint8

// Pmap_t is one page-table node: 512 64-bit entries.
type Pmap_t [512]Pa_t

// Pg2bytes reinterprets a page-table node's backing page as bytes.
func Pg2bytes(pg *Pmap_t) *Bytepg_t {
	return (*Bytepg_t)(unsafe.Pointer(pg))
}

// Bytes2Pmap reinterprets a physical page's byte view as a page-table
// node, the inverse of Pg2bytes.
func Bytes2Pmap(pg *Bytepg_t) *Pmap_t {
	return (*Pmap_t)(unsafe.Pointer(pg))
}

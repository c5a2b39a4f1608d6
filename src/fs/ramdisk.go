package fs

import "strata/src/mem"

// RamDisk_t is an in-memory Disk_i: every block lives in a Go map keyed
// by block number. cmd/kernel's bringup driver uses it as the Disk_i
// collaborator until a real block device driver (AHCI/virtio) exists —
// spec.md names the block-device interface src/fs consumes but, like the
// teacher's own distilled sources, no concrete controller driver survives
// this pack, so this is the same in-memory stand-in the test harness
// uses, exported for non-test callers.
type RamDisk_t struct {
	blocks map[int]*mem.Bytepg_t
}

// NewRamDisk returns an empty RamDisk_t.
func NewRamDisk() *RamDisk_t {
	return &RamDisk_t{blocks: make(map[int]*mem.Bytepg_t)}
}

func (d *RamDisk_t) Start(req *Bdev_req_t) bool {
	switch req.Cmd {
	case BDEV_READ:
		if stored, ok := d.blocks[req.Blk.Block]; ok {
			*req.Blk.Data = *stored
		} else {
			for i := range req.Blk.Data {
				req.Blk.Data[i] = 0
			}
		}
	case BDEV_WRITE:
		cp := *req.Blk.Data
		d.blocks[req.Blk.Block] = &cp
	}
	req.AckCh <- true
	return true
}

func (d *RamDisk_t) Stats() string { return "ramdisk" }

// RamBlockmem_t hands out independent backing pages for block cache
// entries; Pa_t here is just an incrementing counter, not a real
// physical address, matching the test harness's memBlockmem.
type RamBlockmem_t struct {
	next mem.Pa_t
}

// NewRamBlockmem returns a fresh RamBlockmem_t.
func NewRamBlockmem() *RamBlockmem_t {
	return &RamBlockmem_t{}
}

func (m *RamBlockmem_t) Alloc() (mem.Pa_t, *mem.Bytepg_t, bool) {
	m.next += mem.Pa_t(mem.PGSIZE)
	return m.next, &mem.Bytepg_t{}, true
}

func (m *RamBlockmem_t) Free(mem.Pa_t) {}

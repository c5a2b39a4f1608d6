package fs

import (
	"encoding/binary"

	"strata/src/mem"
)

// groupDescSize is the on-disk size of one GroupDesc_t record.
const groupDescSize = 20

// GroupDesc_t locates one block group's bitmaps and inode table and
// tracks its free counts, spec.md §3's block-group descriptor.
type GroupDesc_t struct {
	BlockBitmapBlock int
	InodeBitmapBlock int
	InodeTableStart  int
	FreeBlocks       int
	FreeInodes       int
}

func decodeGroupDesc(b []byte) GroupDesc_t {
	return GroupDesc_t{
		BlockBitmapBlock: int(binary.LittleEndian.Uint32(b[0:4])),
		InodeBitmapBlock: int(binary.LittleEndian.Uint32(b[4:8])),
		InodeTableStart:  int(binary.LittleEndian.Uint32(b[8:12])),
		FreeBlocks:       int(binary.LittleEndian.Uint32(b[12:16])),
		FreeInodes:       int(binary.LittleEndian.Uint32(b[16:20])),
	}
}

func (g GroupDesc_t) encode(b []byte) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(g.BlockBitmapBlock))
	binary.LittleEndian.PutUint32(b[4:8], uint32(g.InodeBitmapBlock))
	binary.LittleEndian.PutUint32(b[8:12], uint32(g.InodeTableStart))
	binary.LittleEndian.PutUint32(b[12:16], uint32(g.FreeBlocks))
	binary.LittleEndian.PutUint32(b[16:20], uint32(g.FreeInodes))
}

// groupsPerBlock is how many group descriptors fit in one block.
func groupsPerBlock() int { return BSIZE / groupDescSize }

// groupDescLocation returns the block holding group g's descriptor and
// its byte offset within that block. The descriptor table starts at
// block 2, spec.md §4.7.
func groupDescLocation(g int) (block, off int) {
	perBlock := groupsPerBlock()
	return 2 + g/perBlock, (g % perBlock) * groupDescSize
}

// groupDescTableBlocks returns how many blocks the descriptor table for
// ngroups groups occupies.
func groupDescTableBlocks(ngroups int) int {
	perBlock := groupsPerBlock()
	return (ngroups + perBlock - 1) / perBlock
}

func readGroupDesc(data *mem.Bytepg_t, off int) GroupDesc_t {
	return decodeGroupDesc(data[off : off+groupDescSize])
}

func writeGroupDesc(data *mem.Bytepg_t, off int, g GroupDesc_t) {
	g.encode(data[off : off+groupDescSize])
}

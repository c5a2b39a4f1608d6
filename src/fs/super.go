// Superblock, block-group descriptor, and inode layout: ext2-like, one
// level simpler than the real format, per spec.md §3/§4.7/§6. Field
// naming (magic, blocksPerGroup, inodesPerGroup, firstDataBlock) follows
// hellin-go-ext4's superblock.go (other_examples) for realistic
// ext-family conventions, laid out little-endian in block 1 as spec.md
// §6 mandates. The teacher's own super.go implemented a different,
// log-structured superblock (Loglen/Iorphanblock/Freeblock fields with
// no block-group concept at all); none of its fields survive, since the
// on-disk format itself is what spec.md §4.7 changes.
package fs

import (
	"encoding/binary"

	"strata/src/mem"
)

// SbMagic identifies this on-disk format, analogous to ext2's 0xEF53.
const SbMagic uint16 = 0x5342 // "SB" — this core's own format, not ext2

// Superblock layout offsets within block 1.
const (
	sbOffInodesCount     = 0
	sbOffBlocksCount     = 4
	sbOffFreeInodesCount = 8
	sbOffFreeBlocksCount = 12
	sbOffInodesPerGroup  = 16
	sbOffBlocksPerGroup  = 20
	sbOffFirstDataBlock  = 24
	sbOffLogBlockSize    = 28
	sbOffMagic           = 32
	sbOffMountCount      = 34
	sbOffMountTime       = 36
)

// Superblock_t is the filesystem's counts and metadata, persisted
// verbatim in block 1.
type Superblock_t struct {
	Data *mem.Bytepg_t
}

func (sb *Superblock_t) u32(off int) uint32 {
	return binary.LittleEndian.Uint32(sb.Data[off : off+4])
}
func (sb *Superblock_t) setU32(off int, v uint32) {
	binary.LittleEndian.PutUint32(sb.Data[off:off+4], v)
}
func (sb *Superblock_t) u16(off int) uint16 {
	return binary.LittleEndian.Uint16(sb.Data[off : off+2])
}
func (sb *Superblock_t) setU16(off int, v uint16) {
	binary.LittleEndian.PutUint16(sb.Data[off:off+2], v)
}

func (sb *Superblock_t) InodesCount() int         { return int(sb.u32(sbOffInodesCount)) }
func (sb *Superblock_t) SetInodesCount(n int)     { sb.setU32(sbOffInodesCount, uint32(n)) }
func (sb *Superblock_t) BlocksCount() int         { return int(sb.u32(sbOffBlocksCount)) }
func (sb *Superblock_t) SetBlocksCount(n int)     { sb.setU32(sbOffBlocksCount, uint32(n)) }
func (sb *Superblock_t) FreeInodesCount() int     { return int(sb.u32(sbOffFreeInodesCount)) }
func (sb *Superblock_t) SetFreeInodesCount(n int) { sb.setU32(sbOffFreeInodesCount, uint32(n)) }
func (sb *Superblock_t) FreeBlocksCount() int     { return int(sb.u32(sbOffFreeBlocksCount)) }
func (sb *Superblock_t) SetFreeBlocksCount(n int) { sb.setU32(sbOffFreeBlocksCount, uint32(n)) }
func (sb *Superblock_t) InodesPerGroup() int      { return int(sb.u32(sbOffInodesPerGroup)) }
func (sb *Superblock_t) SetInodesPerGroup(n int)  { sb.setU32(sbOffInodesPerGroup, uint32(n)) }
func (sb *Superblock_t) BlocksPerGroup() int       { return int(sb.u32(sbOffBlocksPerGroup)) }
func (sb *Superblock_t) SetBlocksPerGroup(n int)  { sb.setU32(sbOffBlocksPerGroup, uint32(n)) }
func (sb *Superblock_t) FirstDataBlock() int      { return int(sb.u32(sbOffFirstDataBlock)) }
func (sb *Superblock_t) SetFirstDataBlock(n int)  { sb.setU32(sbOffFirstDataBlock, uint32(n)) }
func (sb *Superblock_t) LogBlockSize() int        { return int(sb.u32(sbOffLogBlockSize)) }
func (sb *Superblock_t) SetLogBlockSize(n int)    { sb.setU32(sbOffLogBlockSize, uint32(n)) }
func (sb *Superblock_t) Magic() uint16            { return sb.u16(sbOffMagic) }
func (sb *Superblock_t) SetMagic(m uint16)        { sb.setU16(sbOffMagic, m) }
func (sb *Superblock_t) MountCount() int          { return int(sb.u16(sbOffMountCount)) }
func (sb *Superblock_t) SetMountCount(n int)      { sb.setU16(sbOffMountCount, uint16(n)) }
func (sb *Superblock_t) MountTime() int           { return int(sb.u32(sbOffMountTime)) }
func (sb *Superblock_t) SetMountTime(t int)       { sb.setU32(sbOffMountTime, uint32(t)) }

// Valid reports whether the superblock carries the recognized magic,
// spec.md §7's "corruption detected: superblock magic mismatch".
func (sb *Superblock_t) Valid() bool { return sb.Magic() == SbMagic }

// Groups returns the number of block groups this filesystem is divided
// into, spec.md §3's ceil(total_blocks / blocks_per_group).
func (sb *Superblock_t) Groups() int {
	bpg := sb.BlocksPerGroup()
	if bpg == 0 {
		return 0
	}
	return (sb.BlocksCount() + bpg - 1) / bpg
}

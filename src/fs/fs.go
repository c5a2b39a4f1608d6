// Fs_t ties together the superblock, block-group descriptors, block
// cache, and bitmap allocators into the operations spec.md §4.7/§6
// names: Read, Write, Find, Create, Delete, ReadDir. Grounded on the
// teacher's fs/blk.go collaborator shape (Disk_i/Blockmem_i) and on
// src/ustr (adapted) for directory-entry name comparison/validation;
// the block-addressing and bitmap-allocation algorithms are new,
// implementing spec.md §4.7's described algorithm directly since the
// teacher's own fs package used a different, log-structured scheme.
package fs

import (
	"strata/src/mem"
	"strata/src/ustr"
)

// RootInode is the filesystem's root directory's inode number, spec.md
// §6.
const RootInode = 2

// TickSource supplies the coarse "current time" spec.md §4.7's
// timestamp rule needs, the same no-wall-clock adaptation used in
// src/accnt and src/stats — a freestanding kernel has no RTC reading
// available by default, so time is ticks since boot.
type TickSource func() uint32

// Fs_t is one mounted filesystem instance.
type Fs_t struct {
	disk  Disk_i
	mem   Blockmem_i
	cache *Bcache_t
	clock TickSource

	sbBlock        *Bdev_block_t
	sb             Superblock_t
	inodesPerGroup int
	blocksPerGroup int
}

// CacheLen reports how many blocks are currently resident in f's block
// cache, the kstat.Sources_t.Fs counter's source.
func (f *Fs_t) CacheLen() int {
	return f.cache.Len()
}

// Mount reads the superblock from disk and validates its magic.
func Mount(disk Disk_i, bmem Blockmem_i, clock TickSource) (*Fs_t, bool) {
	f := &Fs_t{disk: disk, mem: bmem, cache: MkBcache(512), clock: clock}
	b, ok := f.readBlock(1)
	if !ok {
		return nil, false
	}
	f.sbBlock = b
	f.sb = Superblock_t{Data: b.Data}
	if !f.sb.Valid() {
		return nil, false
	}
	f.inodesPerGroup = f.sb.InodesPerGroup()
	f.blocksPerGroup = f.sb.BlocksPerGroup()
	return f, true
}

// Format lays out a fresh filesystem image on disk: superblock, group
// descriptor table, per-group bitmaps and inode table, and the root
// directory (inode 2), per spec.md §4.7/§6's "Persisted state layout".
// totalBlocks, inodesPerGroup, and blocksPerGroup are caller-chosen
// geometry; a group's own metadata blocks (its bitmaps and inode table)
// are pre-marked used in its block bitmap so allocation never hands
// them out as data blocks.
func Format(disk Disk_i, bmem Blockmem_i, clock TickSource, totalBlocks, inodesPerGroup, blocksPerGroup int) (*Fs_t, bool) {
	f := &Fs_t{disk: disk, mem: bmem, cache: MkBcache(512), clock: clock,
		inodesPerGroup: inodesPerGroup, blocksPerGroup: blocksPerGroup}

	ngroups := (totalBlocks + blocksPerGroup - 1) / blocksPerGroup
	descBlocks := groupDescTableBlocks(ngroups)
	firstDataBlock := 2 + descBlocks
	inodeTableBlocks := (inodesPerGroup*inodeSize + BSIZE - 1) / BSIZE

	sbBlock, ok := MkBlock(1, bmem, disk)
	if !ok {
		return nil, false
	}
	for i := range sbBlock.Data {
		sbBlock.Data[i] = 0
	}
	f.sbBlock = sbBlock
	f.sb = Superblock_t{Data: sbBlock.Data}
	f.sb.SetMagic(SbMagic)
	f.sb.SetInodesCount(ngroups * inodesPerGroup)
	f.sb.SetBlocksCount(totalBlocks)
	f.sb.SetInodesPerGroup(inodesPerGroup)
	f.sb.SetBlocksPerGroup(blocksPerGroup)
	f.sb.SetFirstDataBlock(firstDataBlock)
	logSize := 0
	for (1024 << uint(logSize)) < BSIZE {
		logSize++
	}
	f.sb.SetLogBlockSize(logSize)
	f.cache.Put(sbBlock)

	totalFreeInodes := 0
	totalFreeBlocks := 0
	for g := 0; g < ngroups; g++ {
		groupFirstBlock := firstDataBlock + g*blocksPerGroup
		blockBitmapBlock := groupFirstBlock
		inodeBitmapBlock := groupFirstBlock + 1
		inodeTableStart := groupFirstBlock + 2
		metaBlocks := 2 + inodeTableBlocks

		bm, ok := f.readBlock(blockBitmapBlock)
		if !ok {
			return nil, false
		}
		for i := range bm.Data {
			bm.Data[i] = 0
		}
		for i := 0; i < metaBlocks; i++ {
			bitSet(bm.Data, i, true)
		}
		groupBlocks := blocksPerGroup
		if groupFirstBlock+groupBlocks > totalBlocks {
			groupBlocks = totalBlocks - groupFirstBlock
		}
		for i := groupBlocks; i < blocksPerGroup; i++ {
			bitSet(bm.Data, i, true)
		}
		f.writeBlock(bm)

		im, ok := f.readBlock(inodeBitmapBlock)
		if !ok {
			return nil, false
		}
		for i := range im.Data {
			im.Data[i] = 0
		}
		f.writeBlock(im)

		freeBlocks := groupBlocks - metaBlocks
		desc := GroupDesc_t{
			BlockBitmapBlock: blockBitmapBlock,
			InodeBitmapBlock: inodeBitmapBlock,
			InodeTableStart:  inodeTableStart,
			FreeBlocks:       freeBlocks,
			FreeInodes:       inodesPerGroup,
		}
		if !f.setGroupDesc(g, desc) {
			return nil, false
		}
		totalFreeInodes += inodesPerGroup
		totalFreeBlocks += freeBlocks
	}
	// Reserve inode 1 (conventionally unused) so the root can claim 2.
	f.sb.SetFreeInodesCount(totalFreeInodes)
	f.sb.SetFreeBlocksCount(totalFreeBlocks)
	f.writeBlock(f.sbBlock)
	if _, ok := f.allocInode(); !ok {
		return nil, false
	}

	root, ok := f.allocInode()
	if !ok || root != RootInode {
		return nil, false
	}
	now := f.now()
	rootIn := Inode_t{Mode: ModeDirectory | 0755, Links: 2, Ctime: now, Mtime: now, Atime: now}
	dbn, ok := f.allocBlock()
	if !ok {
		return nil, false
	}
	db, ok := f.readBlock(dbn)
	if !ok {
		return nil, false
	}
	for i := range db.Data {
		db.Data[i] = 0
	}
	dotSize := alignedDirentSize(1)
	encodeDirent(db.Data[0:], dirent_t{Ino: RootInode, RecLen: dotSize, NameLen: 1, Ftype: FtDir, Name: "."})
	encodeDirent(db.Data[dotSize:], dirent_t{Ino: RootInode, RecLen: BSIZE - dotSize, NameLen: 2, Ftype: FtDir, Name: ".."})
	f.writeBlock(db)
	rootIn.Direct[0] = uint32(dbn)
	rootIn.Size = uint64(BSIZE)
	rootIn.Blocks512 = uint32(BSIZE / 512)
	if !f.writeInode(RootInode, rootIn) {
		return nil, false
	}
	return f, true
}

func (f *Fs_t) now() uint32 {
	if f.clock == nil {
		return 0
	}
	return f.clock()
}

// readBlock fetches a block through the cache, issuing a disk read on a
// miss.
func (f *Fs_t) readBlock(blockno int) (*Bdev_block_t, bool) {
	if b, ok := f.cache.Get(blockno); ok {
		return b, true
	}
	b, ok := MkBlock(blockno, f.mem, f.disk)
	if !ok {
		return nil, false
	}
	if !b.Read() {
		b.Free()
		return nil, false
	}
	f.cache.Put(b)
	return b, true
}

// writeBlock flushes b to disk synchronously — spec.md §5's "filesystem
// metadata is ... written back before the operation returns" rule.
func (f *Fs_t) writeBlock(b *Bdev_block_t) bool {
	b.Dirty()
	return b.Write()
}

func (f *Fs_t) groupDesc(g int) (GroupDesc_t, bool) {
	block, off := groupDescLocation(g)
	b, ok := f.readBlock(block)
	if !ok {
		return GroupDesc_t{}, false
	}
	return readGroupDesc(b.Data, off), true
}

func (f *Fs_t) setGroupDesc(g int, desc GroupDesc_t) bool {
	block, off := groupDescLocation(g)
	b, ok := f.readBlock(block)
	if !ok {
		return false
	}
	writeGroupDesc(b.Data, off, desc)
	return f.writeBlock(b)
}

// bitScan finds the first clear bit in a bitmap block's first nbits
// bits, returning (-1, false) if none is clear.
func bitScan(data *mem.Bytepg_t, nbits int) (int, bool) {
	for i := 0; i < nbits; i++ {
		byteOff := i / 8
		bit := uint(i % 8)
		if data[byteOff]&(1<<bit) == 0 {
			return i, true
		}
	}
	return -1, false
}

func bitSet(data *mem.Bytepg_t, i int, v bool) {
	byteOff := i / 8
	bit := uint(i % 8)
	if v {
		data[byteOff] |= 1 << bit
	} else {
		data[byteOff] &^= 1 << bit
	}
}

// allocInode implements spec.md §4.7's bitmap allocation algorithm for
// inodes: walk groups in order, skip exhausted ones, claim the first
// clear bit, persist the bitmap and both free counters.
func (f *Fs_t) allocInode() (int, bool) {
	ngroups := f.sb.Groups()
	for g := 0; g < ngroups; g++ {
		desc, ok := f.groupDesc(g)
		if !ok || desc.FreeInodes == 0 {
			continue
		}
		bm, ok := f.readBlock(desc.InodeBitmapBlock)
		if !ok {
			continue
		}
		slot, found := bitScan(bm.Data, f.inodesPerGroup)
		if !found {
			continue
		}
		bitSet(bm.Data, slot, true)
		if !f.writeBlock(bm) {
			return 0, false
		}
		desc.FreeInodes--
		if !f.setGroupDesc(g, desc) {
			return 0, false
		}
		f.sb.SetFreeInodesCount(f.sb.FreeInodesCount() - 1)
		f.writeBlock(f.sbBlock)
		return g*f.inodesPerGroup + slot + 1, true
	}
	return 0, false
}

func (f *Fs_t) freeInode(ino int) bool {
	idx := ino - 1
	g := idx / f.inodesPerGroup
	slot := idx % f.inodesPerGroup
	desc, ok := f.groupDesc(g)
	if !ok {
		return false
	}
	bm, ok := f.readBlock(desc.InodeBitmapBlock)
	if !ok {
		return false
	}
	bitSet(bm.Data, slot, false)
	if !f.writeBlock(bm) {
		return false
	}
	desc.FreeInodes++
	f.setGroupDesc(g, desc)
	f.sb.SetFreeInodesCount(f.sb.FreeInodesCount() + 1)
	f.writeBlock(f.sbBlock)
	return true
}

// allocBlock is allocInode's twin for data blocks, returning an absolute
// disk block number: the filesystem's first data block plus the group's
// offset and the slot within it.
func (f *Fs_t) allocBlock() (int, bool) {
	ngroups := f.sb.Groups()
	for g := 0; g < ngroups; g++ {
		desc, ok := f.groupDesc(g)
		if !ok || desc.FreeBlocks == 0 {
			continue
		}
		bm, ok := f.readBlock(desc.BlockBitmapBlock)
		if !ok {
			continue
		}
		slot, found := bitScan(bm.Data, f.blocksPerGroup)
		if !found {
			continue
		}
		bitSet(bm.Data, slot, true)
		if !f.writeBlock(bm) {
			return 0, false
		}
		desc.FreeBlocks--
		if !f.setGroupDesc(g, desc) {
			return 0, false
		}
		f.sb.SetFreeBlocksCount(f.sb.FreeBlocksCount() - 1)
		f.writeBlock(f.sbBlock)
		return f.sb.FirstDataBlock() + g*f.blocksPerGroup + slot, true
	}
	return 0, false
}

func (f *Fs_t) freeBlock(blockno int) bool {
	rel := blockno - f.sb.FirstDataBlock()
	g := rel / f.blocksPerGroup
	slot := rel % f.blocksPerGroup
	desc, ok := f.groupDesc(g)
	if !ok {
		return false
	}
	bm, ok := f.readBlock(desc.BlockBitmapBlock)
	if !ok {
		return false
	}
	bitSet(bm.Data, slot, false)
	if !f.writeBlock(bm) {
		return false
	}
	// data-block frees additionally zero the block on disk, spec.md §4.7.
	if b, ok := f.readBlock(blockno); ok {
		for i := range b.Data {
			b.Data[i] = 0
		}
		f.writeBlock(b)
	}
	desc.FreeBlocks++
	f.setGroupDesc(g, desc)
	f.sb.SetFreeBlocksCount(f.sb.FreeBlocksCount() + 1)
	f.writeBlock(f.sbBlock)
	return true
}

func (f *Fs_t) readInode(ino int) (Inode_t, bool) {
	block, off := inodeLocation(ino, f.inodesPerGroup, func(g int) GroupDesc_t {
		d, _ := f.groupDesc(g)
		return d
	})
	b, ok := f.readBlock(block)
	if !ok {
		return Inode_t{}, false
	}
	return decodeInode(b.Data[off : off+inodeSize]), true
}

func (f *Fs_t) writeInode(ino int, in Inode_t) bool {
	block, off := inodeLocation(ino, f.inodesPerGroup, func(g int) GroupDesc_t {
		d, _ := f.groupDesc(g)
		return d
	})
	b, ok := f.readBlock(block)
	if !ok {
		return false
	}
	in.encode(b.Data[off : off+inodeSize])
	return f.writeBlock(b)
}

// blockForIndex resolves logical block k of inode in to a physical
// block number, walking direct/single/double/triple indirect addressing
// per spec.md §4.7. ok is false when that logical block has never been
// allocated.
func (f *Fs_t) blockForIndex(in *Inode_t, k int) (int, bool) {
	P := blocksPerIndirect()
	if k < NDirect {
		bn := int(in.Direct[k])
		return bn, bn != 0
	}
	k -= NDirect
	if k < P {
		return f.indirectLookup(int(in.Indirect1), k)
	}
	k -= P
	if k < P*P {
		mid, ok := f.indirectLookup(int(in.Indirect2), k/P)
		if !ok {
			return 0, false
		}
		return f.indirectLookup(mid, k%P)
	}
	k -= P * P
	if k < P*P*P {
		hi, ok := f.indirectLookup(int(in.Indirect3), k/(P*P))
		if !ok {
			return 0, false
		}
		mid, ok := f.indirectLookup(hi, (k/P)%P)
		if !ok {
			return 0, false
		}
		return f.indirectLookup(mid, k%P)
	}
	return 0, false
}

func (f *Fs_t) indirectLookup(indirectBlock, idx int) (int, bool) {
	if indirectBlock == 0 {
		return 0, false
	}
	b, ok := f.readBlock(indirectBlock)
	if !ok {
		return 0, false
	}
	off := idx * 4
	bn := int(uint32(b.Data[off]) | uint32(b.Data[off+1])<<8 | uint32(b.Data[off+2])<<16 | uint32(b.Data[off+3])<<24)
	return bn, bn != 0
}

// Extend ensures logical blocks [0, blocks) of inode are allocated,
// allocating any indirect-addressing blocks needed along the way. This
// resolves spec.md §9's "write-past-untouched-region" open question:
// Write never allocates on its own, so a caller growing a file (the ELF
// loader, a higher-level write path) calls Extend first.
func (f *Fs_t) Extend(inode int, blocks int) bool {
	in, ok := f.readInode(inode)
	if !ok {
		return false
	}
	for k := 0; k < blocks; k++ {
		if _, ok := f.blockForIndex(&in, k); ok {
			continue
		}
		if !f.ensureBlockAllocated(&in, k) {
			return false
		}
	}
	want := uint32(blocks * (BSIZE / 512))
	if in.Blocks512 < want {
		in.Blocks512 = want
	}
	return f.writeInode(inode, in)
}

// ensureBlockAllocated allocates logical block k of in if it is not
// already allocated, walking/growing the direct or indirect addressing
// chain as needed.
func (f *Fs_t) ensureBlockAllocated(in *Inode_t, k int) bool {
	P := blocksPerIndirect()
	if k < NDirect {
		if in.Direct[k] == 0 {
			bn, ok := f.allocBlock()
			if !ok {
				return false
			}
			in.Direct[k] = uint32(bn)
		}
		return true
	}
	k -= NDirect
	if k < P {
		c, ok := f.ensureContainer(&in.Indirect1)
		if !ok {
			return false
		}
		_, ok = f.ensureEntry(c, k, false)
		return ok
	}
	k -= P
	if k < P*P {
		c, ok := f.ensureContainer(&in.Indirect2)
		if !ok {
			return false
		}
		mid, ok := f.ensureEntry(c, k/P, true)
		if !ok {
			return false
		}
		_, ok = f.ensureEntry(mid, k%P, false)
		return ok
	}
	k -= P * P
	c, ok := f.ensureContainer(&in.Indirect3)
	if !ok {
		return false
	}
	mid1, ok := f.ensureEntry(c, k/(P*P), true)
	if !ok {
		return false
	}
	mid2, ok := f.ensureEntry(mid1, (k/P)%P, true)
	if !ok {
		return false
	}
	_, ok = f.ensureEntry(mid2, k%P, false)
	return ok
}

// ensureContainer allocates and zeroes the indirect block ptr points at
// if it does not exist yet, returning its block number.
func (f *Fs_t) ensureContainer(ptr *uint32) (int, bool) {
	if *ptr != 0 {
		return int(*ptr), true
	}
	bn, ok := f.allocBlock()
	if !ok {
		return 0, false
	}
	b, ok := f.readBlock(bn)
	if !ok {
		return 0, false
	}
	for i := range b.Data {
		b.Data[i] = 0
	}
	f.writeBlock(b)
	*ptr = uint32(bn)
	return bn, true
}

// ensureEntry allocates slot idx of containerBlock if it is unset.
// zeroed controls whether the newly allocated block is itself an
// indirect block (must start zeroed) or a leaf data block.
func (f *Fs_t) ensureEntry(containerBlock, idx int, zeroed bool) (int, bool) {
	b, ok := f.readBlock(containerBlock)
	if !ok {
		return 0, false
	}
	off := idx * 4
	cur := int(uint32(b.Data[off]) | uint32(b.Data[off+1])<<8 | uint32(b.Data[off+2])<<16 | uint32(b.Data[off+3])<<24)
	if cur != 0 {
		return cur, true
	}
	bn, ok := f.allocBlock()
	if !ok {
		return 0, false
	}
	if zeroed {
		db, ok := f.readBlock(bn)
		if !ok {
			return 0, false
		}
		for i := range db.Data {
			db.Data[i] = 0
		}
		f.writeBlock(db)
	}
	b.Data[off] = byte(bn)
	b.Data[off+1] = byte(bn >> 8)
	b.Data[off+2] = byte(bn >> 16)
	b.Data[off+3] = byte(bn >> 24)
	f.writeBlock(b)
	return bn, true
}

// Read implements spec.md §4.7's "File read": clamps size to the
// inode's recorded length, walks the block range, and copies each
// block's relevant byte span into dst. A logical block with no
// allocation reads as zero, matching scenario S6's "otherwise-zero
// file" expectation.
func (f *Fs_t) Read(inode int, dst []byte, offset, size int) (int, bool) {
	in, ok := f.readInode(inode)
	if !ok || offset >= int(in.Size) {
		return 0, false
	}
	if offset+size > int(in.Size) {
		size = int(in.Size) - offset
	}
	startBlock := offset / BSIZE
	endBlock := (offset + size - 1) / BSIZE
	n := 0
	for k := startBlock; k <= endBlock; k++ {
		blockStart := k * BSIZE
		lo := 0
		if offset > blockStart {
			lo = offset - blockStart
		}
		hi := BSIZE
		if offset+size < blockStart+BSIZE {
			hi = offset + size - blockStart
		}
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			for i := lo; i < hi; i++ {
				dst[n] = 0
				n++
			}
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			return n, false
		}
		n += copy(dst[n:], b.Data[lo:hi])
	}
	in.Atime = f.now()
	f.writeInode(inode, in)
	return n, true
}

// Write implements spec.md §4.7's "File write": read-modify-write for
// partial edge blocks, straight-through for fully covered ones. It does
// not allocate new blocks — a logical block with no existing allocation
// fails the whole call, per spec.md §4.7's "writing does not itself
// allocate new file blocks" contract. A successful write past the
// recorded size grows inode.Size.
func (f *Fs_t) Write(inode int, src []byte, offset, size int) (int, bool) {
	in, ok := f.readInode(inode)
	if !ok {
		return 0, false
	}
	startBlock := offset / BSIZE
	endBlock := (offset + size - 1) / BSIZE
	n := 0
	for k := startBlock; k <= endBlock; k++ {
		blockStart := k * BSIZE
		lo := 0
		if offset > blockStart {
			lo = offset - blockStart
		}
		hi := BSIZE
		if offset+size < blockStart+BSIZE {
			hi = offset + size - blockStart
		}
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			return n, false
		}
		b, ok := f.readBlock(bn)
		if !ok {
			return n, false
		}
		copy(b.Data[lo:hi], src[n:])
		if !f.writeBlock(b) {
			return n, false
		}
		n += hi - lo
	}
	if uint64(offset+size) > in.Size {
		in.Size = uint64(offset + size)
	}
	in.Mtime = f.now()
	in.Ctime = f.now()
	f.writeInode(inode, in)
	return n, true
}

// Find implements spec.md §4.7's directory lookup: walk every data
// block of dirInode's record chain, comparing names byte-for-byte.
func (f *Fs_t) Find(dirInode int, name string) int {
	in, ok := f.readInode(dirInode)
	if !ok || !in.IsDir() {
		return 0
	}
	nblocks := int((in.Size + uint64(BSIZE) - 1) / uint64(BSIZE))
	for k := 0; k < nblocks; k++ {
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			continue
		}
		off := 0
		for off < BSIZE {
			d := decodeDirent(b.Data[off:])
			if d.RecLen == 0 {
				break
			}
			if d.Ino != 0 && d.Name == name {
				return d.Ino
			}
			off += d.RecLen
		}
	}
	return 0
}

// createEntry implements spec.md §4.7's "create_entry": split the first
// record with enough slack into two, the new one naming target.
func (f *Fs_t) createEntry(dirInode int, name string, target int, ftype byte) bool {
	in, ok := f.readInode(dirInode)
	if !ok {
		return false
	}
	want := alignedDirentSize(len(name))
	nblocks := int((in.Size + uint64(BSIZE) - 1) / uint64(BSIZE))
	for k := 0; k < nblocks; k++ {
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			continue
		}
		off := 0
		for off < BSIZE {
			d := decodeDirent(b.Data[off:])
			if d.RecLen == 0 {
				break
			}
			used := 0
			if d.Ino != 0 {
				used = alignedDirentSize(d.NameLen)
			}
			slack := d.RecLen - used
			if slack >= want {
				if d.Ino != 0 {
					d.RecLen = used
					encodeDirent(b.Data[off:], d)
					off += used
					slack -= used
				}
				newEnt := dirent_t{Ino: target, RecLen: slack, NameLen: len(name), Ftype: ftype, Name: name}
				encodeDirent(b.Data[off:], newEnt)
				return f.writeBlock(b)
			}
			off += d.RecLen
		}
	}
	return false
}

// Create implements spec.md §4.7's "create_file": allocates and
// initializes an inode, then links it into parent's directory entries.
// For a directory, it additionally allocates a data block populated with
// "." and "..".
func (f *Fs_t) Create(parent int, name string, mode uint16) int {
	if f.Find(parent, name) != 0 {
		return 0
	}
	if !ustr.ValidName(ustr.Ustr(name)) {
		return 0
	}
	ino, ok := f.allocInode()
	if !ok {
		return 0
	}
	now := f.now()
	in := Inode_t{Mode: mode, Links: 1, Ctime: now, Mtime: now, Atime: now}

	ftype := FtRegular
	isDir := mode&ModeTypeMask == ModeDirectory
	if isDir {
		ftype = FtDir
		dbn, ok := f.allocBlock()
		if !ok {
			f.freeInode(ino)
			return 0
		}
		db, ok := f.readBlock(dbn)
		if !ok {
			f.freeInode(ino)
			return 0
		}
		for i := range db.Data {
			db.Data[i] = 0
		}
		dotSize := alignedDirentSize(1)
		encodeDirent(db.Data[0:], dirent_t{Ino: ino, RecLen: dotSize, NameLen: 1, Ftype: FtDir, Name: "."})
		encodeDirent(db.Data[dotSize:], dirent_t{Ino: parent, RecLen: BSIZE - dotSize, NameLen: 2, Ftype: FtDir, Name: ".."})
		f.writeBlock(db)
		in.Direct[0] = uint32(dbn)
		in.Size = uint64(BSIZE)
		in.Blocks512 = uint32(BSIZE / 512)
		in.Links = 2
	}

	if !f.writeInode(ino, in) {
		f.freeInode(ino)
		return 0
	}
	if !f.createEntry(parent, name, ino, ftype) {
		f.freeInode(ino)
		return 0
	}
	return ino
}

// Delete implements spec.md §4.7's "delete_file": refuses a non-empty
// directory, frees every block reachable from the inode (direct then
// each indirect level, including the indirect blocks themselves), frees
// the inode, and merges the target's directory record into the
// preceding one (or zeros its inode field if it is the block's first
// record).
func (f *Fs_t) Delete(parent int, name string) bool {
	ino := f.Find(parent, name)
	if ino == 0 {
		return false
	}
	in, ok := f.readInode(ino)
	if !ok {
		return false
	}
	if in.IsDir() && !f.dirEmpty(&in) {
		return false
	}
	f.freeInodeBlocks(&in)
	f.freeInode(ino)
	f.removeEntry(parent, name)
	return true
}

// dirEmpty reports whether a directory inode contains only "." and "..".
func (f *Fs_t) dirEmpty(in *Inode_t) bool {
	nblocks := int((in.Size + uint64(BSIZE) - 1) / uint64(BSIZE))
	for k := 0; k < nblocks; k++ {
		bn, ok := f.blockForIndex(in, k)
		if !ok {
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			continue
		}
		off := 0
		for off < BSIZE {
			d := decodeDirent(b.Data[off:])
			if d.RecLen == 0 {
				break
			}
			if d.Ino != 0 && d.Name != "." && d.Name != ".." {
				return false
			}
			off += d.RecLen
		}
	}
	return true
}

// freeInodeBlocks frees every data block reachable from in, direct then
// each indirect level recursively, freeing the indirect blocks too.
func (f *Fs_t) freeInodeBlocks(in *Inode_t) {
	for _, bn := range in.Direct {
		if bn != 0 {
			f.freeBlock(int(bn))
		}
	}
	P := blocksPerIndirect()
	if in.Indirect1 != 0 {
		f.freeIndirectLevel(int(in.Indirect1), 0, P)
	}
	if in.Indirect2 != 0 {
		f.freeIndirectLevel(int(in.Indirect2), 1, P)
	}
	if in.Indirect3 != 0 {
		f.freeIndirectLevel(int(in.Indirect3), 2, P)
	}
}

// freeIndirectLevel frees an indirect block at the given depth (0 =
// points at data blocks, 1 = points at single-indirect blocks, 2 =
// points at double-indirect blocks), recursing before freeing itself.
func (f *Fs_t) freeIndirectLevel(blockno, depth, P int) {
	b, ok := f.readBlock(blockno)
	if ok {
		for i := 0; i < P; i++ {
			off := i * 4
			child := int(uint32(b.Data[off]) | uint32(b.Data[off+1])<<8 | uint32(b.Data[off+2])<<16 | uint32(b.Data[off+3])<<24)
			if child == 0 {
				continue
			}
			if depth == 0 {
				f.freeBlock(child)
			} else {
				f.freeIndirectLevel(child, depth-1, P)
			}
		}
	}
	f.freeBlock(blockno)
}

// removeEntry deletes name's record from dirInode: merges it into the
// predecessor's rec_len, or zeros its inode field if it is the block's
// first record, per spec.md §4.7.
func (f *Fs_t) removeEntry(dirInode int, name string) {
	in, ok := f.readInode(dirInode)
	if !ok {
		return
	}
	nblocks := int((in.Size + uint64(BSIZE) - 1) / uint64(BSIZE))
	for k := 0; k < nblocks; k++ {
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			continue
		}
		off := 0
		prevOff := -1
		for off < BSIZE {
			d := decodeDirent(b.Data[off:])
			if d.RecLen == 0 {
				break
			}
			if d.Ino != 0 && d.Name == name {
				if prevOff < 0 {
					d.Ino = 0
					encodeDirent(b.Data[off:], d)
				} else {
					prev := decodeDirent(b.Data[prevOff:])
					prev.RecLen += d.RecLen
					encodeDirent(b.Data[prevOff:], prev)
				}
				f.writeBlock(b)
				return
			}
			prevOff = off
			off += d.RecLen
		}
	}
}

// ReadDir implements spec.md §4.7's implicit fs_read_dir contract,
// invoking cb for every live entry until it returns false, mirroring the
// teacher's own callback-based iteration style (BlkList_t.Apply).
func (f *Fs_t) ReadDir(dirInode int, cb func(name string, ino int, ftype byte) bool) bool {
	in, ok := f.readInode(dirInode)
	if !ok || !in.IsDir() {
		return false
	}
	nblocks := int((in.Size + uint64(BSIZE) - 1) / uint64(BSIZE))
	for k := 0; k < nblocks; k++ {
		bn, ok := f.blockForIndex(&in, k)
		if !ok {
			continue
		}
		b, ok := f.readBlock(bn)
		if !ok {
			continue
		}
		off := 0
		for off < BSIZE {
			d := decodeDirent(b.Data[off:])
			if d.RecLen == 0 {
				break
			}
			if d.Ino != 0 {
				if !cb(d.Name, d.Ino, d.Ftype) {
					return true
				}
			}
			off += d.RecLen
		}
	}
	return true
}

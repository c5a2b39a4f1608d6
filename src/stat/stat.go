// Package stat is the wire shape of a single inode's metadata as handed
// back across the stat contract: the fixed-size record a caller of the
// D_STAT device or the filesystem's stat operation receives. Grounded on
// the teacher's Stat_t (src/stat/stat.go), same packed-struct-plus-Bytes
// idiom, carrying dev, ino, mode, uid, gid, size, rdev, 512-byte block
// count, link count and mtime. The inode's atime, ctime, dtime and flags
// are not part of it.
package stat

import "unsafe"

// Stat_t is a fixed-size snapshot of an inode's metadata, laid out so
// Bytes can hand it to a caller without a serialization pass.
type Stat_t struct {
	dev      uint
	ino      uint
	mode     uint
	uid      uint
	gid      uint
	size     uint
	rdev     uint
	blocks   uint
	links    uint
	mtimeSec uint
	mtimeNs  uint
}

// Wdev records the block device the inode lives on.
func (st *Stat_t) Wdev(v uint) { st.dev = v }

// Wino records the inode number.
func (st *Stat_t) Wino(v uint) { st.ino = v }

// Wmode records the packed file-type-and-permission mode.
func (st *Stat_t) Wmode(v uint) { st.mode = v }

// Wuid records the owning user id.
func (st *Stat_t) Wuid(v uint) { st.uid = v }

// Wgid records the owning group id.
func (st *Stat_t) Wgid(v uint) { st.gid = v }

// Wsize records the file size in bytes.
func (st *Stat_t) Wsize(v uint) { st.size = v }

// Wrdev records the device number for char/block special inodes.
func (st *Stat_t) Wrdev(v uint) { st.rdev = v }

// Wblocks records the number of 512-byte blocks the inode occupies.
func (st *Stat_t) Wblocks(v uint) { st.blocks = v }

// Wlinks records the hard-link count.
func (st *Stat_t) Wlinks(v uint) { st.links = v }

// Wmtime records the last-modified time as seconds and nanoseconds.
func (st *Stat_t) Wmtime(sec, nsec uint) {
	st.mtimeSec = sec
	st.mtimeNs = nsec
}

// Dev returns the recorded device id.
func (st *Stat_t) Dev() uint { return st.dev }

// Ino returns the recorded inode number.
func (st *Stat_t) Ino() uint { return st.ino }

// Mode returns the recorded mode.
func (st *Stat_t) Mode() uint { return st.mode }

// Uid returns the recorded owning user id.
func (st *Stat_t) Uid() uint { return st.uid }

// Gid returns the recorded owning group id.
func (st *Stat_t) Gid() uint { return st.gid }

// Size returns the recorded size in bytes.
func (st *Stat_t) Size() uint { return st.size }

// Rdev returns the recorded rdev.
func (st *Stat_t) Rdev() uint { return st.rdev }

// Blocks returns the recorded 512-byte block count.
func (st *Stat_t) Blocks() uint { return st.blocks }

// Links returns the recorded hard-link count.
func (st *Stat_t) Links() uint { return st.links }

// Mtime returns the recorded modification time as seconds and
// nanoseconds.
func (st *Stat_t) Mtime() (sec, nsec uint) { return st.mtimeSec, st.mtimeNs }

// Bytes exposes the raw bytes of the structure, the form written across
// the D_STAT device.
func (st *Stat_t) Bytes() []uint8 {
	const sz = unsafe.Sizeof(Stat_t{})
	sl := (*[sz]uint8)(unsafe.Pointer(st))
	return sl[:]
}

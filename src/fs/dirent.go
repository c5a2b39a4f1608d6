package fs

import "encoding/binary"

// Directory entry file-type tags, spec.md §3.
const (
	FtUnknown  byte = 0
	FtRegular  byte = 1
	FtDir      byte = 2
	FtCharDev  byte = 3
	FtBlockDev byte = 4
)

// direntHeader is the fixed portion of a directory entry: inode, rec_len,
// name_len, file_type. The name follows immediately, and rec_len is
// 4-byte aligned, spec.md §3/§4.7.
const direntHeader = 8

// dirent_t is one decoded directory entry.
type dirent_t struct {
	Ino     int
	RecLen  int
	NameLen int
	Ftype   byte
	Name    string
}

func alignedDirentSize(nameLen int) int {
	n := direntHeader + nameLen
	return (n + 3) &^ 3
}

// decodeDirent reads one entry starting at b[0].
func decodeDirent(b []byte) dirent_t {
	ino := int(binary.LittleEndian.Uint32(b[0:4]))
	recLen := int(binary.LittleEndian.Uint16(b[4:6]))
	nameLen := int(b[6])
	ftype := b[7]
	name := ""
	if nameLen > 0 {
		name = string(b[direntHeader : direntHeader+nameLen])
	}
	return dirent_t{Ino: ino, RecLen: recLen, NameLen: nameLen, Ftype: ftype, Name: name}
}

// encodeDirent writes d into b, which must be at least d.RecLen bytes.
func encodeDirent(b []byte, d dirent_t) {
	binary.LittleEndian.PutUint32(b[0:4], uint32(d.Ino))
	binary.LittleEndian.PutUint16(b[4:6], uint16(d.RecLen))
	b[6] = byte(d.NameLen)
	b[7] = d.Ftype
	copy(b[direntHeader:direntHeader+d.NameLen], d.Name)
}

package fs

import "testing"

func TestInodeRoundTrip(t *testing.T) {
	buf := make([]byte, inodeSize)
	in := Inode_t{Mode: ModeRegular | 0644, Links: 1, Uid: 1000, Gid: 1000, Size: 4096,
		Atime: 10, Ctime: 11, Mtime: 12, Dtime: 0, Blocks512: 8}
	in.Direct[0] = 42
	in.Indirect1 = 99
	in.encode(buf)
	got := decodeInode(buf)
	if got != in {
		t.Fatalf("round trip = %+v, want %+v", got, in)
	}
}

func TestInodeIsDirAndIsRegular(t *testing.T) {
	dir := Inode_t{Mode: ModeDirectory | 0755}
	if !dir.IsDir() || dir.IsRegular() {
		t.Fatal("directory mode misclassified")
	}
	reg := Inode_t{Mode: ModeRegular | 0644}
	if reg.IsDir() || !reg.IsRegular() {
		t.Fatal("regular-file mode misclassified")
	}
}

func TestInodeLocationMatchesSpecAlgorithm(t *testing.T) {
	table := map[int]GroupDesc_t{
		0: {InodeTableStart: 100},
		1: {InodeTableStart: 2148},
	}
	lookup := func(g int) GroupDesc_t { return table[g] }

	block, off := inodeLocation(1, 64, lookup)
	if block != 100 || off != 0 {
		t.Fatalf("inode 1 at (%d,%d), want (100,0)", block, off)
	}

	block, off = inodeLocation(65, 64, lookup)
	if block != 2148 || off != 0 {
		t.Fatalf("inode 65 (first of group 1) at (%d,%d), want (2148,0)", block, off)
	}
}

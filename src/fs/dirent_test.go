package fs

import "testing"

func TestAlignedDirentSizeRoundsUpTo4(t *testing.T) {
	cases := map[int]int{0: 8, 1: 12, 4: 12, 5: 16}
	for nameLen, want := range cases {
		if got := alignedDirentSize(nameLen); got != want {
			t.Errorf("alignedDirentSize(%d) = %d, want %d", nameLen, got, want)
		}
	}
}

func TestDirentRoundTrip(t *testing.T) {
	buf := make([]byte, 32)
	d := dirent_t{Ino: 7, RecLen: 16, NameLen: 5, Ftype: FtRegular, Name: "hello"}
	encodeDirent(buf, d)
	got := decodeDirent(buf)
	if got != d {
		t.Fatalf("round trip = %+v, want %+v", got, d)
	}
}

func TestDirentUnusedEntryHasNoName(t *testing.T) {
	buf := make([]byte, 16)
	encodeDirent(buf, dirent_t{Ino: 0, RecLen: 16, NameLen: 0, Ftype: FtUnknown})
	got := decodeDirent(buf)
	if got.Ino != 0 || got.Name != "" {
		t.Fatalf("unused entry decoded as %+v", got)
	}
}

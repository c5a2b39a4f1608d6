package boot

import (
	"strata/src/mem"
	"testing"
)

func TestRsdpValid(t *testing.T) {
	var i Info_t
	copy(i.RsdpSig[:], "RSD PTR ")
	if !i.RsdpValid() {
		t.Fatal("correct signature reported invalid")
	}
	copy(i.RsdpSig[:], "GARBAGE!")
	if i.RsdpValid() {
		t.Fatal("garbage signature reported valid")
	}
}

func TestUsableBytesSumsOnlyUsableEntries(t *testing.T) {
	i := Info_t{MMap: []mem.MMapEntry{
		{Base: 0, Length: 0x1000, Type: mem.Reserved},
		{Base: 0x1000, Length: 0x2000, Type: mem.Usable},
		{Base: 0x3000, Length: 0x5000, Type: mem.Usable},
		{Base: 0x8000, Length: 0x1000, Type: mem.Bad},
	}}
	if got := i.UsableBytes(); got != 0x7000 {
		t.Fatalf("UsableBytes() = %#x, want 0x7000", got)
	}
}

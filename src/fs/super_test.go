package fs

import (
	"strata/src/mem"
	"testing"
)

func mkTestSuper() *Superblock_t {
	return &Superblock_t{Data: &mem.Bytepg_t{}}
}

func TestSuperblockFieldsRoundTrip(t *testing.T) {
	sb := mkTestSuper()
	sb.SetInodesCount(1024)
	sb.SetBlocksCount(65536)
	sb.SetFreeInodesCount(1000)
	sb.SetFreeBlocksCount(60000)
	sb.SetInodesPerGroup(128)
	sb.SetBlocksPerGroup(8192)
	sb.SetFirstDataBlock(4)
	sb.SetLogBlockSize(2)
	sb.SetMagic(SbMagic)
	sb.SetMountCount(3)
	sb.SetMountTime(99)

	if sb.InodesCount() != 1024 || sb.BlocksCount() != 65536 {
		t.Fatal("counts did not round trip")
	}
	if sb.FreeInodesCount() != 1000 || sb.FreeBlocksCount() != 60000 {
		t.Fatal("free counts did not round trip")
	}
	if sb.InodesPerGroup() != 128 || sb.BlocksPerGroup() != 8192 {
		t.Fatal("group geometry did not round trip")
	}
	if sb.FirstDataBlock() != 4 || sb.LogBlockSize() != 2 {
		t.Fatal("layout fields did not round trip")
	}
	if sb.MountCount() != 3 || sb.MountTime() != 99 {
		t.Fatal("mount bookkeeping did not round trip")
	}
	if !sb.Valid() {
		t.Fatal("superblock with correct magic reports invalid")
	}
}

func TestSuperblockInvalidMagicRejected(t *testing.T) {
	sb := mkTestSuper()
	sb.SetMagic(0xdead)
	if sb.Valid() {
		t.Fatal("wrong magic should not validate")
	}
}

func TestSuperblockGroupsRoundsUp(t *testing.T) {
	sb := mkTestSuper()
	sb.SetBlocksCount(10000)
	sb.SetBlocksPerGroup(4096)
	if got := sb.Groups(); got != 3 {
		t.Fatalf("Groups() = %d, want 3", got)
	}
}

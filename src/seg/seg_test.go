package seg

import "testing"

type recordingHW struct {
	base  uintptr
	limit uint16
	tr    Selector
}

func (h *recordingHW) LGDT(base uintptr, limit uint16) { h.base, h.limit = base, limit }
func (h *recordingHW) LTR(sel Selector)                { h.tr = sel }

func TestInstallLoadsGDTAndTR(t *testing.T) {
	var istStacks [7]uintptr
	for i := range istStacks {
		istStacks[i] = uintptr(0x1000 * (i + 1))
	}
	tbl := New(0xFF00, istStacks)

	hw := &recordingHW{}
	tbl.Install(hw)

	if hw.tr != TssSel {
		t.Fatalf("LTR selector = %#x, want %#x", hw.tr, TssSel)
	}
	wantLimit := uint16(len(tbl.entries)*8 - 1)
	if hw.limit != wantLimit {
		t.Fatalf("GDT limit = %d, want %d", hw.limit, wantLimit)
	}
	if hw.base == 0 {
		t.Fatal("GDT base not set")
	}
}

func TestISTSlotsRoundTrip(t *testing.T) {
	var istStacks [7]uintptr
	tbl := New(0, istStacks)

	tbl.SetIST(ISTDoubleFault, 0xDEAD000)
	if tbl.tss.ist[ISTDoubleFault-1] != 0xDEAD000 {
		t.Fatal("SetIST did not update the expected slot")
	}
	// every other slot should be untouched
	for i := range tbl.tss.ist {
		if ISTIndex(i+1) == ISTDoubleFault {
			continue
		}
		if tbl.tss.ist[i] != 0 {
			t.Fatalf("unexpected write to IST slot %d", i+1)
		}
	}
}

func TestSetRSP0UpdatesTSS(t *testing.T) {
	var istStacks [7]uintptr
	tbl := New(0x1000, istStacks)
	tbl.SetRSP0(0x2000)
	if tbl.tss.rsp[0] != 0x2000 {
		t.Fatal("SetRSP0 did not update rsp0")
	}
}

func TestDescriptorsCarryPresentBit(t *testing.T) {
	const present = 1 << 47
	var istStacks [7]uintptr
	tbl := New(0, istStacks)
	names := []string{"null", "kcode", "kdata", "ucode", "udata"}
	for i := 1; i < len(names); i++ {
		if tbl.entries[i]&present == 0 {
			t.Fatalf("%s (entry %d) missing present bit", names[i], i)
		}
	}
}

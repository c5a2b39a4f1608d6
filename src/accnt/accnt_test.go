package accnt

import "testing"

func TestUtaddSystaddAccumulate(t *testing.T) {
	a := &Accnt_t{}
	a.Utadd(100)
	a.Utadd(50)
	a.Systadd(30)
	if a.Userns != 150 {
		t.Fatalf("Userns = %d, want 150", a.Userns)
	}
	if a.Sysns != 30 {
		t.Fatalf("Sysns = %d, want 30", a.Sysns)
	}
}

func TestNowTracksBoundTickSource(t *testing.T) {
	SetTickPeriod(1000)
	defer SetTickPeriod(10_000_000)

	var ticks uint64
	a := &Accnt_t{}
	a.Bind(func() uint64 { return ticks })

	if a.Now() != 0 {
		t.Fatalf("Now() = %d, want 0 before any ticks", a.Now())
	}
	ticks = 5
	if a.Now() != 5000 {
		t.Fatalf("Now() = %d, want 5000", a.Now())
	}
}

func TestFinishChargesElapsedToSystem(t *testing.T) {
	SetTickPeriod(1000)
	defer SetTickPeriod(10_000_000)

	var ticks uint64
	a := &Accnt_t{}
	a.Bind(func() uint64 { return ticks })

	start := a.Now()
	ticks = 10
	a.Finish(start)
	if a.Sysns != 10000 {
		t.Fatalf("Sysns = %d, want 10000", a.Sysns)
	}
}

func TestAddMergesChildUsage(t *testing.T) {
	parent := &Accnt_t{Userns: 100, Sysns: 50}
	child := &Accnt_t{Userns: 20, Sysns: 5}
	parent.Add(child)
	if parent.Userns != 120 || parent.Sysns != 55 {
		t.Fatalf("merged = %d/%d, want 120/55", parent.Userns, parent.Sysns)
	}
}

func TestFetchEncodesRusageLayout(t *testing.T) {
	a := &Accnt_t{Userns: 2_000_000_000, Sysns: 1_500_000}
	buf := a.Fetch()
	if len(buf) != 32 {
		t.Fatalf("rusage buffer len = %d, want 32", len(buf))
	}
}

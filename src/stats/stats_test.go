package stats

import "testing"

type sample struct {
	Hits  Counter_t
	Spent Cycles_t
}

func TestCounterDisabledIsNoop(t *testing.T) {
	Enabled = false
	var c Counter_t
	c.Inc()
	c.Inc()
	if c != 0 {
		t.Fatalf("Inc with Enabled=false should be a no-op, got %d", c)
	}
}

func TestCounterAndCyclesAccumulate(t *testing.T) {
	Enabled = true
	defer func() { Enabled = false }()

	tick := uint64(0)
	Bind(func() uint64 { return tick })
	defer Bind(nil)

	var s sample
	s.Hits.Inc()
	s.Hits.Inc()
	if s.Hits != 2 {
		t.Fatalf("Hits = %d, want 2", s.Hits)
	}

	start := Now()
	tick = 50
	s.Spent.Add(start)
	if s.Spent != 50 {
		t.Fatalf("Spent = %d, want 50", s.Spent)
	}
}

func TestStats2StringDumpsFields(t *testing.T) {
	Enabled = true
	defer func() { Enabled = false }()

	var s sample
	s.Hits = 3
	s.Spent = 7
	out := Stats2String(s)
	if out == "" {
		t.Fatal("expected non-empty dump when Enabled")
	}
}

func TestStats2StringDisabledIsEmpty(t *testing.T) {
	Enabled = false
	if Stats2String(sample{}) != "" {
		t.Fatal("expected empty dump when disabled")
	}
}

func TestNowWithoutBoundSourceReturnsZero(t *testing.T) {
	Bind(nil)
	if Now() != 0 {
		t.Fatalf("Now() = %d, want 0 with no bound source", Now())
	}
}

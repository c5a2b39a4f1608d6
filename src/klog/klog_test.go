package klog

import (
	"strings"
	"testing"
)

func TestRingOverwritesOldest(t *testing.T) {
	r := newRing(8)
	r.write("abcdefgh")
	if !r.full() {
		t.Fatal("expected full")
	}
	r.write("IJ")
	got := string(r.Snapshot())
	if got != "cdefghIJ" {
		t.Fatalf("got %q", got)
	}
}

func TestEmitAppearsInSnapshot(t *testing.T) {
	buf = newRing(defaultCapacity)
	Infof("hello %d", 42)
	s := string(Snapshot())
	if !strings.Contains(s, "hello 42") {
		t.Fatalf("snapshot missing record: %q", s)
	}
}

func TestSinkReceivesLine(t *testing.T) {
	var got string
	SetSink(func(s string) { got = s })
	defer SetSink(nil)
	Warnf("disk slow")
	if !strings.Contains(got, "disk slow") {
		t.Fatalf("sink missed line: %q", got)
	}
}

package fs

import "testing"

func TestBcachePutGetEvict(t *testing.T) {
	c := MkBcache(16)
	disk := newMemDisk()
	bmem := &memBlockmem{}
	b, ok := MkBlock(5, bmem, disk)
	if !ok {
		t.Fatal("MkBlock failed")
	}

	if !c.Put(b) {
		t.Fatal("first Put should succeed")
	}
	if c.Put(b) {
		t.Fatal("second Put of the same block number should fail")
	}

	got, ok := c.Get(5)
	if !ok || got != b {
		t.Fatalf("Get(5) = (%v,%v), want (%v,true)", got, ok, b)
	}

	c.Evict(5)
	if _, ok := c.Get(5); ok {
		t.Fatal("evicted block still present")
	}
	c.Evict(5) // must not panic on a missing key
}

func TestBcacheLen(t *testing.T) {
	c := MkBcache(16)
	disk := newMemDisk()
	bmem := &memBlockmem{}
	for _, bn := range []int{1, 2, 3} {
		b, _ := MkBlock(bn, bmem, disk)
		c.Put(b)
	}
	if c.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", c.Len())
	}
}

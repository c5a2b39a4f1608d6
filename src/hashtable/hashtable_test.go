package hashtable

import "testing"

func TestSetGetDel(t *testing.T) {
	ht := MkHash(8)
	if _, ok := ht.Get(1); ok {
		t.Fatal("expected miss on empty table")
	}
	ht.Set(1, "one")
	ht.Set(2, "two")
	if v, ok := ht.Get(1); !ok || v != "one" {
		t.Fatalf("Get(1) = %v, %v", v, ok)
	}
	if ht.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", ht.Size())
	}
	ht.Del(1)
	if _, ok := ht.Get(1); ok {
		t.Fatal("expected miss after delete")
	}
	if ht.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", ht.Size())
	}
}

func TestSetExistingKeyReturnsFalse(t *testing.T) {
	ht := MkHash(4)
	ht.Set(5, "a")
	_, inserted := ht.Set(5, "b")
	if inserted {
		t.Fatal("expected Set on an existing key to report not-inserted")
	}
	if v, _ := ht.Get(5); v != "a" {
		t.Fatalf("existing value should be unchanged, got %v", v)
	}
}

func TestIterVisitsEveryElement(t *testing.T) {
	ht := MkHash(4)
	want := map[interface{}]bool{1: true, 2: true, 3: true}
	for k := range want {
		ht.Set(k, k)
	}
	got := map[interface{}]bool{}
	ht.Iter(func(k, v interface{}) bool {
		got[k] = true
		return false
	})
	if len(got) != len(want) {
		t.Fatalf("visited %d elements, want %d", len(got), len(want))
	}
}

func TestDelOfMissingKeyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic deleting a missing key")
		}
	}()
	ht := MkHash(4)
	ht.Del(99)
}

package util

import "testing"

func TestRoundupRounddown(t *testing.T) {
	cases := []struct{ v, b, up, down int }{
		{0, 8, 0, 0},
		{1, 8, 8, 0},
		{8, 8, 8, 8},
		{9, 8, 16, 8},
		{4096, 4096, 4096, 4096},
		{4097, 4096, 8192, 4096},
	}
	for _, c := range cases {
		if got := Roundup(c.v, c.b); got != c.up {
			t.Errorf("Roundup(%v,%v) = %v, want %v", c.v, c.b, got, c.up)
		}
		if got := Rounddown(c.v, c.b); got != c.down {
			t.Errorf("Rounddown(%v,%v) = %v, want %v", c.v, c.b, got, c.down)
		}
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 5) != 3 || Min(5, 3) != 3 {
		t.Fatal("Min wrong")
	}
	if Max(3, 5) != 5 || Max(5, 3) != 5 {
		t.Fatal("Max wrong")
	}
}

func TestReadnWriten(t *testing.T) {
	buf := make([]uint8, 16)
	Writen(buf, 4, 0, 0x11223344)
	if v := Readn(buf, 4, 0); v != 0x11223344 {
		t.Fatalf("got %#x", v)
	}
	Writen(buf, 8, 8, 0x0102030405060708)
	if v := Readn(buf, 8, 8); v != 0x0102030405060708 {
		t.Fatalf("got %#x", v)
	}
}

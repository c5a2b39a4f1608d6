package ustr

import "testing"

func TestEqAndDotHelpers(t *testing.T) {
	if !MkUstrDot().Isdot() {
		t.Fatal("expected '.' to be recognized")
	}
	if !DotDot.Isdotdot() {
		t.Fatal("expected '..' to be recognized")
	}
	if !Ustr("abc").Eq(Ustr("abc")) {
		t.Fatal("expected equal strings to compare equal")
	}
	if Ustr("abc").Eq(Ustr("abd")) {
		t.Fatal("expected differing strings to compare unequal")
	}
}

func TestExtendJoinsWithSlash(t *testing.T) {
	got := MkUstrRoot().ExtendStr("etc").ExtendStr("passwd")
	if got.String() != "/etc/passwd" {
		t.Fatalf("got %q, want /etc/passwd", got.String())
	}
}

func TestMkUstrSliceTruncatesAtNUL(t *testing.T) {
	buf := make([]uint8, 16)
	copy(buf, "README.md")
	got := MkUstrSlice(buf)
	if got.String() != "README.md" {
		t.Fatalf("got %q, want README.md", got.String())
	}
}

func TestValidNameRejectsSlashAndNUL(t *testing.T) {
	if ValidName(Ustr("a/b")) {
		t.Fatal("expected name containing '/' to be rejected")
	}
	if ValidName(Ustr([]byte{'a', 0, 'b'})) {
		t.Fatal("expected name containing NUL to be rejected")
	}
	if ValidName(Ustr("")) {
		t.Fatal("expected empty name to be rejected")
	}
}

func TestValidNameRejectsFullwidthForms(t *testing.T) {
	// U+FF21 FULLWIDTH LATIN CAPITAL LETTER A
	if ValidName(Ustr("Ａ.txt")) {
		t.Fatal("expected fullwidth code point to be rejected")
	}
}

func TestValidNameAcceptsOrdinaryNames(t *testing.T) {
	if !ValidName(Ustr("notes.txt")) {
		t.Fatal("expected an ordinary ASCII name to be accepted")
	}
}

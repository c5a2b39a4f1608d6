// Package ustr is the kernel's path/filename string type: an immutable
// byte slice with path-joining and comparison helpers, plus filename
// validation for directory entries (spec.md §4.7's directory-entry
// names). Grounded on the teacher's Ustr (src/ustr/ustr.go), unchanged
// in shape; ValidName is new, wired to golang.org/x/text/width so a
// filename containing East-Asian fullwidth or halfwidth forms — which
// render at a different cell width than the console device
// collaborator's fixed-width assumption — is rejected at create time
// rather than silently desynchronizing later directory listings.
package ustr

import "golang.org/x/text/width"

// Ustr is an immutable path or filename.
type Ustr []uint8

// Isdot reports whether the string equals ".".
func (us Ustr) Isdot() bool {
	return len(us) == 1 && us[0] == '.'
}

// Isdotdot reports whether the string equals "..".
func (us Ustr) Isdotdot() bool {
	return len(us) == 2 && us[0] == '.' && us[1] == '.'
}

// Eq compares two Ustr values byte-for-byte.
func (us Ustr) Eq(s Ustr) bool {
	if len(us) != len(s) {
		return false
	}
	for i, v := range us {
		if v != s[i] {
			return false
		}
	}
	return true
}

// MkUstr returns an empty Ustr.
func MkUstr() Ustr {
	return Ustr{}
}

// MkUstrDot returns a Ustr for ".".
func MkUstrDot() Ustr {
	return Ustr(".")
}

// MkUstrRoot returns a Ustr for "/".
func MkUstrRoot() Ustr {
	return Ustr("/")
}

// DotDot is a reusable Ustr containing "..".
var DotDot = Ustr{'.', '.'}

// MkUstrSlice truncates buf at its first NUL byte, for decoding a
// fixed-width directory entry name field.
func MkUstrSlice(buf []uint8) Ustr {
	for i := 0; i < len(buf); i++ {
		if buf[i] == 0 {
			return buf[:i]
		}
	}
	return buf
}

// Extend appends '/' and p to this path.
func (us Ustr) Extend(p Ustr) Ustr {
	tmp := make(Ustr, len(us))
	copy(tmp, us)
	r := append(tmp, '/')
	return append(r, p...)
}

// ExtendStr is Extend taking a Go string.
func (us Ustr) ExtendStr(p string) Ustr {
	return us.Extend(Ustr(p))
}

// IsAbsolute reports whether the path begins with '/'.
func (us Ustr) IsAbsolute() bool {
	return len(us) > 0 && us[0] == '/'
}

// IndexByte returns the index of b in the string, or -1.
func (us Ustr) IndexByte(b uint8) int {
	for i, v := range us {
		if v == b {
			return i
		}
	}
	return -1
}

// String converts the Ustr to a Go string.
func (us Ustr) String() string {
	return string(us)
}

// ValidName reports whether name is acceptable as a single directory
// entry component: non-empty, free of '/' and NUL (the on-disk
// directory-entry format has no escaping for either), and free of
// East-Asian fullwidth or halfwidth code points, which the console
// device collaborator cannot render at its assumed one-byte-per-cell
// width.
func ValidName(name Ustr) bool {
	if len(name) == 0 || len(name) > 255 {
		return false
	}
	for _, b := range name {
		if b == '/' || b == 0 {
			return false
		}
	}
	for _, r := range string(name) {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianFullwidth, width.EastAsianHalfwidth:
			return false
		}
	}
	return true
}

package caller

import "testing"

func call1(st *SiteTracker_t) (bool, string) { return st.NewSite() }
func call2(st *SiteTracker_t) (bool, string) { return st.NewSite() }

func TestNewSiteFiresOncePerPath(t *testing.T) {
	st := &SiteTracker_t{Enabled: true}

	// both calls come from the same call site, so they share one path
	var first, second bool
	var s string
	for i := 0; i < 2; i++ {
		ok, trace := call1(st)
		if i == 0 {
			first, s = ok, trace
		} else {
			second = ok
		}
	}
	if !first || s == "" {
		t.Fatal("expected first call from this path to be new")
	}
	if second {
		t.Fatal("expected repeated call from the same path to be suppressed")
	}
	if st.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", st.Len())
	}
}

func TestNewSiteDistinguishesPaths(t *testing.T) {
	st := &SiteTracker_t{Enabled: true}
	call1(st)
	third, _ := call2(st)
	if !third {
		t.Fatal("expected a different call path to count as new")
	}
	if st.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", st.Len())
	}
}

func TestDisabledTrackerNeverReportsNew(t *testing.T) {
	st := &SiteTracker_t{}
	ok, _ := st.NewSite()
	if ok {
		t.Fatal("disabled tracker reported a new site")
	}
}

func TestWhitelistedCallerSuppressed(t *testing.T) {
	st := &SiteTracker_t{Enabled: true, Whitel: map[string]bool{
		"strata/src/caller.call1": true,
	}}
	ok, _ := call1(st)
	if ok {
		t.Fatal("whitelisted caller should not be reported as new")
	}
}

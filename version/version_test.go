package version

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetFullVersion(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v1.2.3", "0123456789abcdef", "2026-01-01"
	if got, want := GetFullVersion(), "v1.2.3 (0123456, built 2026-01-01)"; got != want {
		t.Errorf("GetFullVersion() = %q, want %q", got, want)
	}

	Date = "unknown"
	if got, want := GetFullVersion(), "v1.2.3 (0123456)"; got != want {
		t.Errorf("GetFullVersion() = %q, want %q", got, want)
	}
}

func TestPrintVersion(t *testing.T) {
	var buf bytes.Buffer
	PrintVersion(&buf, "fusecompat")

	out := buf.String()
	for _, want := range []string{"fusecompat version ", "Package: fusecompat", "Commit: ", "Build Date: "} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestGetInfoPrefersLinkedValues(t *testing.T) {
	oldV, oldC, oldD := Version, Commit, Date
	t.Cleanup(func() { Version, Commit, Date = oldV, oldC, oldD })

	Version, Commit, Date = "v0.9.0", "abc", "2026-02-02"
	info := GetInfo()
	if info != (Info{Version: "v0.9.0", Commit: "abc", Date: "2026-02-02", Package: Package}) {
		t.Errorf("GetInfo() = %+v", info)
	}
	// too short to abbreviate
	if got := GetFullVersion(); got != "v0.9.0" {
		t.Errorf("GetFullVersion() = %q, want %q", got, "v0.9.0")
	}
}

package version

import (
	"fmt"
	"io"
	"runtime/debug"
)

// Set with -ldflags -X; left at their zero markers in development builds.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Package is the name reported alongside the version.
const Package = "fusecompat"

// Info is the resolved build metadata.
type Info struct {
	Version string
	Commit  string
	Date    string
	Package string
}

// buildSetting looks key up in the binary's embedded VCS settings.
func buildSetting(key string) (string, bool) {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return "", false
	}
	for _, s := range bi.Settings {
		if s.Key == key && s.Value != "" {
			return s.Value, true
		}
	}
	return "", false
}

// GetVersion returns the linked-in version, then the module version, then
// "development".
func GetVersion() string {
	if Version != "dev" && Version != "" {
		return Version
	}
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		return bi.Main.Version
	}
	return "development"
}

func commit() string {
	if Commit != "unknown" && Commit != "" {
		return Commit
	}
	if v, ok := buildSetting("vcs.revision"); ok {
		return v
	}
	return "unknown"
}

func buildDate() string {
	if Date != "unknown" && Date != "" {
		return Date
	}
	if v, ok := buildSetting("vcs.time"); ok {
		return v
	}
	return "unknown"
}

// GetInfo resolves every field of Info.
func GetInfo() Info {
	return Info{
		Version: GetVersion(),
		Commit:  commit(),
		Date:    buildDate(),
		Package: Package,
	}
}

// GetFullVersion is the version followed by the short commit and build date
// when they are known, e.g. "v1.2.0 (0123456, built 2026-01-01)".
func GetFullVersion() string {
	info := GetInfo()
	if info.Commit == "unknown" || len(info.Commit) <= 7 {
		return info.Version
	}
	short := info.Commit[:7]
	if info.Date == "unknown" {
		return fmt.Sprintf("%s (%s)", info.Version, short)
	}
	return fmt.Sprintf("%s (%s, built %s)", info.Version, short, info.Date)
}

// PrintVersion writes the version block shown by "appName version".
func PrintVersion(w io.Writer, appName string) {
	info := GetInfo()
	fmt.Fprintf(w, "%s version %s\n", appName, GetFullVersion())
	fmt.Fprintf(w, "Package: %s\n", info.Package)
	fmt.Fprintf(w, "Commit: %s\n", info.Commit)
	fmt.Fprintf(w, "Build Date: %s\n", info.Date)
}

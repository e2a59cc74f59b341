// Package version provides version information and build metadata for fusecompat.
//
// Version data comes from compile-time variables (Version, Commit, Date) set
// via -ldflags, falling back to debug.ReadBuildInfo() and then to development
// defaults:
//
//	-ldflags "-X github.com/dendrascience/fusecompat/version.Version=v1.0.0 -X github.com/dendrascience/fusecompat/version.Commit=abc123"
//
// GetFullVersion feeds the root command's --version flag and PrintVersion the
// version subcommand.
package version

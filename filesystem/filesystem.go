package filesystem

import (
	"context"
	"os"
	"time"
)

// Filesystem1 is the first generation contract: a stateless, path-based API.
type Filesystem1 interface {
	Getattr(ctx context.Context, path string) (Attr, error)
	Readlink(ctx context.Context, path string) (string, error)
	Readdir(ctx context.Context, path string) ([]DirEntry, error)
	Mkdir(ctx context.Context, path string, mode os.FileMode) error
	Unlink(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Symlink(ctx context.Context, target, link string) error
	Rename(ctx context.Context, from, to string) error
	Link(ctx context.Context, from, to string) error
	Chmod(ctx context.Context, path string, mode os.FileMode) error
	Chown(ctx context.Context, path string, uid, gid uint32) error
	Truncate(ctx context.Context, path string, size uint64) error
	Utime(ctx context.Context, path string, atime, mtime time.Time) error
	Statfs(ctx context.Context) (StatFS, error)
	Read(ctx context.Context, path string, buf []byte, offset int64) (int, error)
	Write(ctx context.Context, path string, data []byte, offset int64) (int, error)
}

// Filesystem2 adds open-file lifecycle hooks to Filesystem1. The hooks are
// still keyed by path; the filesystem keeps whatever per-open state it needs.
type Filesystem2 interface {
	Filesystem1

	Open(ctx context.Context, path string, flags int) error
	Flush(ctx context.Context, path string) error
	Release(ctx context.Context, path string, flags int) error
	Fsync(ctx context.Context, path string, datasync bool) error
}

// Filesystem3 is the newest contract. It reports structured Stat values,
// hands out explicit FileHandle objects from Open and Create and supports
// extended attributes.
type Filesystem3 interface {
	Getattr(ctx context.Context, path string) (Stat, error)
	Readlink(ctx context.Context, path string) (string, error)
	Readdir(ctx context.Context, path string) ([]DirEntry, error)
	Mkdir(ctx context.Context, path string, mode os.FileMode) error
	Unlink(ctx context.Context, path string) error
	Rmdir(ctx context.Context, path string) error
	Symlink(ctx context.Context, target, link string) error
	Rename(ctx context.Context, from, to string) error
	Link(ctx context.Context, from, to string) error
	Chmod(ctx context.Context, path string, mode os.FileMode) error
	Chown(ctx context.Context, path string, uid, gid uint32) error
	Truncate(ctx context.Context, path string, size uint64) error
	Utime(ctx context.Context, path string, atime, mtime time.Time) error
	Statfs(ctx context.Context) (StatFS, error)

	Open(ctx context.Context, path string, flags int) (FileHandle, error)
	Create(ctx context.Context, path string, mode os.FileMode, flags int) (FileHandle, error)
	Read(ctx context.Context, path string, fh FileHandle, buf []byte, offset int64) (int, error)
	Write(ctx context.Context, path string, fh FileHandle, data []byte, offset int64) (int, error)
	Flush(ctx context.Context, path string, fh FileHandle) error
	Release(ctx context.Context, path string, fh FileHandle, flags int) error
	Fsync(ctx context.Context, path string, fh FileHandle, datasync bool) error

	Getxattr(ctx context.Context, path, name string) ([]byte, error)
	Setxattr(ctx context.Context, path, name string, value []byte, flags uint32) error
	Listxattr(ctx context.Context, path string) ([]string, error)
	Removexattr(ctx context.Context, path, name string) error
}

// Generation identifies which contract a filesystem value satisfies.
type Generation int

const (
	// GenUnknown means the value satisfies none of the contracts.
	GenUnknown Generation = iota
	Gen1
	Gen2
	Gen3
)

// String returns a string representation of the Generation.
func (g Generation) String() string {
	switch g {
	case Gen1:
		return "gen1"
	case Gen2:
		return "gen2"
	case Gen3:
		return "gen3"
	default:
		return "unknown"
	}
}

// Detect returns the highest generation v satisfies. Because every
// Filesystem2 is also a Filesystem1 the checks run from the newest contract
// down.
func Detect(v any) Generation {
	switch v.(type) {
	case Filesystem3:
		return Gen3
	case Filesystem2:
		return Gen2
	case Filesystem1:
		return Gen1
	default:
		return GenUnknown
	}
}

package filesystem

import (
	"os"
	"time"
)

// Attr is the attribute set reported by Gen1 and Gen2 filesystems.
type Attr struct {
	Mode  os.FileMode
	Nlink uint32
	Uid   uint32
	Gid   uint32
	Size  uint64
	Mtime time.Time
}

// Stat is the structured attribute set reported by Gen3 filesystems.
// Inode is informational; the kernel bridge numbers nodes by path.
type Stat struct {
	Inode   uint64
	Mode    os.FileMode
	Nlink   uint32
	Uid     uint32
	Gid     uint32
	Rdev    uint32
	Size    uint64
	Blocks  uint64 // 512-byte blocks
	Blksize uint32
	Atime   time.Time
	Mtime   time.Time
	Ctime   time.Time
}

// IsDir reports whether the stat describes a directory.
func (s Stat) IsDir() bool {
	return s.Mode.IsDir()
}

// DirEntry is a single directory listing entry. Only the type bits of Mode
// are significant.
type DirEntry struct {
	Name string
	Mode os.FileMode
}

// StatFS describes filesystem-wide capacity.
type StatFS struct {
	Blocks  uint64
	Bfree   uint64
	Bavail  uint64
	Files   uint64
	Ffree   uint64
	Bsize   uint32
	Namelen uint32
	Frsize  uint32
}

// FileHandle is whatever a Gen3 filesystem wants back on calls made against
// an open file: an *os.File, a cursor, a key into its own table. The native
// layer never inspects it.
type FileHandle any

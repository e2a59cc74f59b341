package native

import (
	"context"
	"os"
	"syscall"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
)

// Handle is the opaque file handle shared with the kernel bridge. Zero is
// never issued.
type Handle uint64

// FS is the native callback surface driven by the kernel bridge. Every
// callback returns 0 on success or the errno to report to the kernel.
// Implementations must be safe for concurrent use.
type FS interface {
	Getattr(ctx context.Context, path string) (filesystem.Stat, syscall.Errno)
	Readlink(ctx context.Context, path string) (string, syscall.Errno)
	Readdir(ctx context.Context, path string) ([]filesystem.DirEntry, syscall.Errno)
	Mkdir(ctx context.Context, path string, mode os.FileMode) syscall.Errno
	Unlink(ctx context.Context, path string) syscall.Errno
	Rmdir(ctx context.Context, path string) syscall.Errno
	Symlink(ctx context.Context, target, link string) syscall.Errno
	Rename(ctx context.Context, from, to string) syscall.Errno
	Link(ctx context.Context, from, to string) syscall.Errno
	Chmod(ctx context.Context, path string, mode os.FileMode) syscall.Errno
	Chown(ctx context.Context, path string, uid, gid uint32) syscall.Errno
	Truncate(ctx context.Context, path string, size uint64) syscall.Errno
	Utime(ctx context.Context, path string, atime, mtime time.Time) syscall.Errno
	Statfs(ctx context.Context, path string) (filesystem.StatFS, syscall.Errno)

	Open(ctx context.Context, path string, flags int) (Handle, syscall.Errno)
	Create(ctx context.Context, path string, mode os.FileMode, flags int) (Handle, syscall.Errno)
	Read(ctx context.Context, path string, fh Handle, buf []byte, offset int64) (int, syscall.Errno)
	Write(ctx context.Context, path string, fh Handle, data []byte, offset int64) (int, syscall.Errno)
	Flush(ctx context.Context, path string, fh Handle) syscall.Errno
	Release(ctx context.Context, path string, fh Handle, flags int) syscall.Errno
	Fsync(ctx context.Context, path string, fh Handle, datasync bool) syscall.Errno

	Getxattr(ctx context.Context, path, name string) ([]byte, syscall.Errno)
	Setxattr(ctx context.Context, path, name string, value []byte, flags uint32) syscall.Errno
	Listxattr(ctx context.Context, path string) ([]string, syscall.Errno)
	Removexattr(ctx context.Context, path, name string) syscall.Errno
}

// Unmounter is implemented by surfaces that hold per-mount state which must
// be drained when the kernel bridge goes away.
type Unmounter interface {
	Unmount(ctx context.Context) error
}

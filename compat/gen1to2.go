package compat

import (
	"context"
	"os"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
)

// Gen1ToGen2 exposes a Filesystem1 as a Filesystem2. The lifecycle hooks
// Filesystem1 lacks answer filesystem.ErrNotSupported.
type Gen1ToGen2 struct {
	fs filesystem.Filesystem1
}

var _ filesystem.Filesystem2 = (*Gen1ToGen2)(nil)

// NewGen1ToGen2 wraps fs.
func NewGen1ToGen2(fs filesystem.Filesystem1) *Gen1ToGen2 {
	return &Gen1ToGen2{fs: fs}
}

// Unwrap returns the wrapped filesystem.
func (a *Gen1ToGen2) Unwrap() filesystem.Filesystem1 {
	return a.fs
}

func (a *Gen1ToGen2) Getattr(ctx context.Context, path string) (filesystem.Attr, error) {
	return a.fs.Getattr(ctx, path)
}

func (a *Gen1ToGen2) Readlink(ctx context.Context, path string) (string, error) {
	return a.fs.Readlink(ctx, path)
}

func (a *Gen1ToGen2) Readdir(ctx context.Context, path string) ([]filesystem.DirEntry, error) {
	return a.fs.Readdir(ctx, path)
}

func (a *Gen1ToGen2) Mkdir(ctx context.Context, path string, mode os.FileMode) error {
	return a.fs.Mkdir(ctx, path, mode)
}

func (a *Gen1ToGen2) Unlink(ctx context.Context, path string) error {
	return a.fs.Unlink(ctx, path)
}

func (a *Gen1ToGen2) Rmdir(ctx context.Context, path string) error {
	return a.fs.Rmdir(ctx, path)
}

func (a *Gen1ToGen2) Symlink(ctx context.Context, target, link string) error {
	return a.fs.Symlink(ctx, target, link)
}

func (a *Gen1ToGen2) Rename(ctx context.Context, from, to string) error {
	return a.fs.Rename(ctx, from, to)
}

func (a *Gen1ToGen2) Link(ctx context.Context, from, to string) error {
	return a.fs.Link(ctx, from, to)
}

func (a *Gen1ToGen2) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	return a.fs.Chmod(ctx, path, mode)
}

func (a *Gen1ToGen2) Chown(ctx context.Context, path string, uid, gid uint32) error {
	return a.fs.Chown(ctx, path, uid, gid)
}

func (a *Gen1ToGen2) Truncate(ctx context.Context, path string, size uint64) error {
	return a.fs.Truncate(ctx, path, size)
}

func (a *Gen1ToGen2) Utime(ctx context.Context, path string, atime, mtime time.Time) error {
	return a.fs.Utime(ctx, path, atime, mtime)
}

func (a *Gen1ToGen2) Statfs(ctx context.Context) (filesystem.StatFS, error) {
	return a.fs.Statfs(ctx)
}

func (a *Gen1ToGen2) Read(ctx context.Context, path string, buf []byte, offset int64) (int, error) {
	return a.fs.Read(ctx, path, buf, offset)
}

func (a *Gen1ToGen2) Write(ctx context.Context, path string, data []byte, offset int64) (int, error) {
	return a.fs.Write(ctx, path, data, offset)
}

// Gen2-only operations.

func (a *Gen1ToGen2) Open(context.Context, string, int) error {
	return filesystem.ErrNotSupported
}

func (a *Gen1ToGen2) Flush(context.Context, string) error {
	return filesystem.ErrNotSupported
}

func (a *Gen1ToGen2) Release(context.Context, string, int) error {
	return filesystem.ErrNotSupported
}

func (a *Gen1ToGen2) Fsync(context.Context, string, bool) error {
	return filesystem.ErrNotSupported
}

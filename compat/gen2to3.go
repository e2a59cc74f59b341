package compat

import (
	"context"
	"os"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
)

const (
	statBlockSize = 512
	statBlksize   = 4096
)

// PathHandle is the FileHandle Gen2ToGen3 hands out for a successful Open.
// Gen2 filesystems key their open state by path, so that is all it carries.
type PathHandle struct {
	Path  string
	Flags int
}

// Gen2ToGen3 exposes a Filesystem2 as a Filesystem3. It does not care whether
// the Filesystem2 is a real implementation or a Gen1ToGen2.
type Gen2ToGen3 struct {
	fs filesystem.Filesystem2
}

var _ filesystem.Filesystem3 = (*Gen2ToGen3)(nil)

// NewGen2ToGen3 wraps fs.
func NewGen2ToGen3(fs filesystem.Filesystem2) *Gen2ToGen3 {
	return &Gen2ToGen3{fs: fs}
}

// Unwrap returns the wrapped filesystem.
func (a *Gen2ToGen3) Unwrap() filesystem.Filesystem2 {
	return a.fs
}

// StatFromAttr widens a Gen1/Gen2 Attr into a Gen3 Stat. Block counts are
// derived from the size and missing times fall back to Mtime.
func StatFromAttr(attr filesystem.Attr) filesystem.Stat {
	st := filesystem.Stat{
		Mode:    attr.Mode,
		Nlink:   attr.Nlink,
		Uid:     attr.Uid,
		Gid:     attr.Gid,
		Size:    attr.Size,
		Blocks:  (attr.Size + statBlockSize - 1) / statBlockSize,
		Blksize: statBlksize,
		Atime:   attr.Mtime,
		Mtime:   attr.Mtime,
		Ctime:   attr.Mtime,
	}
	if st.Nlink == 0 {
		st.Nlink = 1
		if attr.Mode.IsDir() {
			st.Nlink = 2
		}
	}
	return st
}

func (a *Gen2ToGen3) Getattr(ctx context.Context, path string) (filesystem.Stat, error) {
	attr, err := a.fs.Getattr(ctx, path)
	if err != nil {
		return filesystem.Stat{}, err
	}
	return StatFromAttr(attr), nil
}

func (a *Gen2ToGen3) Readlink(ctx context.Context, path string) (string, error) {
	return a.fs.Readlink(ctx, path)
}

func (a *Gen2ToGen3) Readdir(ctx context.Context, path string) ([]filesystem.DirEntry, error) {
	return a.fs.Readdir(ctx, path)
}

func (a *Gen2ToGen3) Mkdir(ctx context.Context, path string, mode os.FileMode) error {
	return a.fs.Mkdir(ctx, path, mode)
}

func (a *Gen2ToGen3) Unlink(ctx context.Context, path string) error {
	return a.fs.Unlink(ctx, path)
}

func (a *Gen2ToGen3) Rmdir(ctx context.Context, path string) error {
	return a.fs.Rmdir(ctx, path)
}

func (a *Gen2ToGen3) Symlink(ctx context.Context, target, link string) error {
	return a.fs.Symlink(ctx, target, link)
}

func (a *Gen2ToGen3) Rename(ctx context.Context, from, to string) error {
	return a.fs.Rename(ctx, from, to)
}

func (a *Gen2ToGen3) Link(ctx context.Context, from, to string) error {
	return a.fs.Link(ctx, from, to)
}

func (a *Gen2ToGen3) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	return a.fs.Chmod(ctx, path, mode)
}

func (a *Gen2ToGen3) Chown(ctx context.Context, path string, uid, gid uint32) error {
	return a.fs.Chown(ctx, path, uid, gid)
}

func (a *Gen2ToGen3) Truncate(ctx context.Context, path string, size uint64) error {
	return a.fs.Truncate(ctx, path, size)
}

func (a *Gen2ToGen3) Utime(ctx context.Context, path string, atime, mtime time.Time) error {
	return a.fs.Utime(ctx, path, atime, mtime)
}

func (a *Gen2ToGen3) Statfs(ctx context.Context) (filesystem.StatFS, error) {
	return a.fs.Statfs(ctx)
}

func (a *Gen2ToGen3) Open(ctx context.Context, path string, flags int) (filesystem.FileHandle, error) {
	if err := a.fs.Open(ctx, path, flags); err != nil {
		return nil, err
	}
	return &PathHandle{Path: path, Flags: flags}, nil
}

func (a *Gen2ToGen3) Read(ctx context.Context, path string, _ filesystem.FileHandle, buf []byte, offset int64) (int, error) {
	return a.fs.Read(ctx, path, buf, offset)
}

func (a *Gen2ToGen3) Write(ctx context.Context, path string, _ filesystem.FileHandle, data []byte, offset int64) (int, error) {
	return a.fs.Write(ctx, path, data, offset)
}

func (a *Gen2ToGen3) Flush(ctx context.Context, path string, _ filesystem.FileHandle) error {
	return a.fs.Flush(ctx, path)
}

func (a *Gen2ToGen3) Release(ctx context.Context, path string, _ filesystem.FileHandle, flags int) error {
	return a.fs.Release(ctx, path, flags)
}

func (a *Gen2ToGen3) Fsync(ctx context.Context, path string, _ filesystem.FileHandle, datasync bool) error {
	return a.fs.Fsync(ctx, path, datasync)
}

// Gen3-only operations.

func (a *Gen2ToGen3) Create(context.Context, string, os.FileMode, int) (filesystem.FileHandle, error) {
	return nil, filesystem.ErrNotSupported
}

func (a *Gen2ToGen3) Getxattr(context.Context, string, string) ([]byte, error) {
	return nil, filesystem.ErrNotSupported
}

func (a *Gen2ToGen3) Setxattr(context.Context, string, string, []byte, uint32) error {
	return filesystem.ErrNotSupported
}

func (a *Gen2ToGen3) Listxattr(context.Context, string) ([]string, error) {
	return nil, filesystem.ErrNotSupported
}

func (a *Gen2ToGen3) Removexattr(context.Context, string, string) error {
	return filesystem.ErrNotSupported
}

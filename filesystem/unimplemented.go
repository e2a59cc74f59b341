package filesystem

import (
	"context"
	"os"
	"time"
)

// Unimplemented1 answers ErrNotSupported for every Filesystem1 operation.
// Embed it and override the operations you provide.
type Unimplemented1 struct{}

func (Unimplemented1) Getattr(context.Context, string) (Attr, error) {
	return Attr{}, ErrNotSupported
}
func (Unimplemented1) Readlink(context.Context, string) (string, error) {
	return "", ErrNotSupported
}
func (Unimplemented1) Readdir(context.Context, string) ([]DirEntry, error) {
	return nil, ErrNotSupported
}
func (Unimplemented1) Mkdir(context.Context, string, os.FileMode) error { return ErrNotSupported }
func (Unimplemented1) Unlink(context.Context, string) error { return ErrNotSupported }
func (Unimplemented1) Rmdir(context.Context, string) error { return ErrNotSupported }
func (Unimplemented1) Symlink(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented1) Rename(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented1) Link(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented1) Chmod(context.Context, string, os.FileMode) error { return ErrNotSupported }
func (Unimplemented1) Chown(context.Context, string, uint32, uint32) error { return ErrNotSupported }
func (Unimplemented1) Truncate(context.Context, string, uint64) error { return ErrNotSupported }
func (Unimplemented1) Utime(context.Context, string, time.Time, time.Time) error {
	return ErrNotSupported
}
func (Unimplemented1) Statfs(context.Context) (StatFS, error) { return StatFS{}, ErrNotSupported }
func (Unimplemented1) Read(context.Context, string, []byte, int64) (int, error) {
	return 0, ErrNotSupported
}
func (Unimplemented1) Write(context.Context, string, []byte, int64) (int, error) {
	return 0, ErrNotSupported
}

// Unimplemented2 answers ErrNotSupported for every Filesystem2 operation.
type Unimplemented2 struct {
	Unimplemented1
}

func (Unimplemented2) Open(context.Context, string, int) error { return ErrNotSupported }
func (Unimplemented2) Flush(context.Context, string) error { return ErrNotSupported }
func (Unimplemented2) Release(context.Context, string, int) error { return ErrNotSupported }
func (Unimplemented2) Fsync(context.Context, string, bool) error { return ErrNotSupported }

// Unimplemented3 answers ErrNotSupported for every Filesystem3 operation.
type Unimplemented3 struct{}

func (Unimplemented3) Getattr(context.Context, string) (Stat, error) {
	return Stat{}, ErrNotSupported
}
func (Unimplemented3) Readlink(context.Context, string) (string, error) {
	return "", ErrNotSupported
}
func (Unimplemented3) Readdir(context.Context, string) ([]DirEntry, error) {
	return nil, ErrNotSupported
}
func (Unimplemented3) Mkdir(context.Context, string, os.FileMode) error { return ErrNotSupported }
func (Unimplemented3) Unlink(context.Context, string) error { return ErrNotSupported }
func (Unimplemented3) Rmdir(context.Context, string) error { return ErrNotSupported }
func (Unimplemented3) Symlink(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented3) Rename(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented3) Link(context.Context, string, string) error { return ErrNotSupported }
func (Unimplemented3) Chmod(context.Context, string, os.FileMode) error { return ErrNotSupported }
func (Unimplemented3) Chown(context.Context, string, uint32, uint32) error { return ErrNotSupported }
func (Unimplemented3) Truncate(context.Context, string, uint64) error { return ErrNotSupported }
func (Unimplemented3) Utime(context.Context, string, time.Time, time.Time) error {
	return ErrNotSupported
}
func (Unimplemented3) Statfs(context.Context) (StatFS, error) { return StatFS{}, ErrNotSupported }
func (Unimplemented3) Open(context.Context, string, int) (FileHandle, error) {
	return nil, ErrNotSupported
}
func (Unimplemented3) Create(context.Context, string, os.FileMode, int) (FileHandle, error) {
	return nil, ErrNotSupported
}
func (Unimplemented3) Read(context.Context, string, FileHandle, []byte, int64) (int, error) {
	return 0, ErrNotSupported
}
func (Unimplemented3) Write(context.Context, string, FileHandle, []byte, int64) (int, error) {
	return 0, ErrNotSupported
}
func (Unimplemented3) Flush(context.Context, string, FileHandle) error { return ErrNotSupported }
func (Unimplemented3) Release(context.Context, string, FileHandle, int) error {
	return ErrNotSupported
}
func (Unimplemented3) Fsync(context.Context, string, FileHandle, bool) error {
	return ErrNotSupported
}
func (Unimplemented3) Getxattr(context.Context, string, string) ([]byte, error) {
	return nil, ErrNotSupported
}
func (Unimplemented3) Setxattr(context.Context, string, string, []byte, uint32) error {
	return ErrNotSupported
}
func (Unimplemented3) Listxattr(context.Context, string) ([]string, error) {
	return nil, ErrNotSupported
}
func (Unimplemented3) Removexattr(context.Context, string, string) error { return ErrNotSupported }

var (
	_ Filesystem1 = Unimplemented1{}
	_ Filesystem2 = Unimplemented2{}
	_ Filesystem3 = Unimplemented3{}
)

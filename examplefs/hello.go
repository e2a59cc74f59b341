package examplefs

import (
	"context"
	"os"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
)

// HelloName is the single file Hello serves.
const HelloName = "hello"

// Hello is a read-only Gen1 filesystem whose root holds a single file.
// Gen1 has no open lifecycle, so mounted readers can list and stat the file
// but opening it reports not-supported.
type Hello struct {
	filesystem.Unimplemented1

	Content []byte
	Mtime   time.Time
}

var _ filesystem.Filesystem1 = (*Hello)(nil)

// NewHello returns a Hello serving "hello world".
func NewHello() *Hello {
	return &Hello{Content: []byte("hello world\n"), Mtime: time.Now()}
}

func (h *Hello) Getattr(ctx context.Context, path string) (filesystem.Attr, error) {
	switch path {
	case "/":
		return filesystem.Attr{Mode: os.ModeDir | 0o555, Nlink: 2, Size: 4096, Mtime: h.Mtime}, nil
	case "/" + HelloName:
		return filesystem.Attr{Mode: 0o444, Nlink: 1, Size: uint64(len(h.Content)), Mtime: h.Mtime}, nil
	}
	return filesystem.Attr{}, filesystem.NotFound("getattr", path)
}

func (h *Hello) Readdir(ctx context.Context, path string) ([]filesystem.DirEntry, error) {
	switch path {
	case "/":
		return []filesystem.DirEntry{{Name: HelloName, Mode: 0o444}}, nil
	case "/" + HelloName:
		return nil, filesystem.NotDir("readdir", path)
	}
	return nil, filesystem.NotFound("readdir", path)
}

func (h *Hello) Read(ctx context.Context, path string, buf []byte, offset int64) (int, error) {
	switch path {
	case "/":
		return 0, filesystem.IsDir("read", path)
	case "/" + HelloName:
	default:
		return 0, filesystem.NotFound("read", path)
	}
	if offset < 0 {
		return 0, filesystem.Invalid("read", path)
	}
	if offset >= int64(len(h.Content)) {
		return 0, nil
	}
	return copy(buf, h.Content[offset:]), nil
}

func (h *Hello) Statfs(ctx context.Context) (filesystem.StatFS, error) {
	return filesystem.StatFS{Bsize: 4096, Namelen: 255, Files: 2}, nil
}

package native

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/dendrascience/fusecompat/filesystem"
)

// fakeFile is the FileHandle handed out by fakeGen3.
type fakeFile struct {
	path   string
	closed atomic.Bool
}

// fakeGen3 is a small Gen3 filesystem holding flat files in memory. Hooks let
// a test inject failures, panics or blocking into individual operations.
type fakeGen3 struct {
	filesystem.Unimplemented3

	mu    sync.Mutex
	files map[string][]byte
	calls atomic.Int64

	releaseErr error
	releases   []string
	panicOn    string
	block      chan struct{}
	entered    chan struct{}
	countSkew  int // added to the byte counts Read and Write report
}

func newFakeGen3(files map[string]string) *fakeGen3 {
	f := &fakeGen3{files: make(map[string][]byte)}
	for p, data := range files {
		f.files[p] = []byte(data)
	}
	return f
}

func (f *fakeGen3) hit(op string) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	if op == f.panicOn {
		panic("boom in " + op)
	}
}

func (f *fakeGen3) Getattr(_ context.Context, path string) (filesystem.Stat, error) {
	f.hit("getattr")
	if path == "/" {
		return filesystem.Stat{Mode: os.ModeDir | 0o755, Nlink: 2}, nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[path]
	if !ok {
		return filesystem.Stat{}, filesystem.NotFound("getattr", path)
	}
	return filesystem.Stat{Mode: 0o644, Nlink: 1, Size: uint64(len(data))}, nil
}

func (f *fakeGen3) Open(_ context.Context, path string, _ int) (filesystem.FileHandle, error) {
	f.hit("open")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		return nil, filesystem.NotFound("open", path)
	}
	return &fakeFile{path: path}, nil
}

func (f *fakeGen3) Create(_ context.Context, path string, _ os.FileMode, _ int) (filesystem.FileHandle, error) {
	f.hit("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; ok {
		return nil, filesystem.Exists("create", path)
	}
	f.files[path] = nil
	return &fakeFile{path: path}, nil
}

func (f *fakeGen3) Read(_ context.Context, path string, fh filesystem.FileHandle, buf []byte, offset int64) (int, error) {
	f.hit("read")
	ff := fh.(*fakeFile)
	if ff.closed.Load() {
		return 0, os.ErrClosed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data := f.files[ff.path]
	if offset >= int64(len(data)) {
		return f.countSkew, nil
	}
	return copy(buf, data[offset:]) + f.countSkew, nil
}

func (f *fakeGen3) Write(_ context.Context, path string, fh filesystem.FileHandle, data []byte, offset int64) (int, error) {
	f.hit("write")
	ff := fh.(*fakeFile)
	f.mu.Lock()
	defer f.mu.Unlock()
	cur := f.files[ff.path]
	if end := int(offset) + len(data); end > len(cur) {
		cur = append(cur, make([]byte, end-len(cur))...)
	}
	copy(cur[offset:], data)
	f.files[ff.path] = cur
	return len(data) + f.countSkew, nil
}

func (f *fakeGen3) Flush(context.Context, string, filesystem.FileHandle) error {
	f.hit("flush")
	return nil
}

func (f *fakeGen3) Fsync(context.Context, string, filesystem.FileHandle, bool) error {
	f.hit("fsync")
	return nil
}

func (f *fakeGen3) Release(_ context.Context, path string, fh filesystem.FileHandle, _ int) error {
	f.hit("release")
	fh.(*fakeFile).closed.Store(true)
	f.mu.Lock()
	f.releases = append(f.releases, path)
	f.mu.Unlock()
	return f.releaseErr
}

// gen1Tree is the Gen1 filesystem from the capability scenario: only the
// root's attributes and listing are implemented.
type gen1Tree struct {
	filesystem.Unimplemented1
}

func (gen1Tree) Getattr(_ context.Context, path string) (filesystem.Attr, error) {
	if path != "/" {
		return filesystem.Attr{}, filesystem.NotFound("getattr", path)
	}
	return filesystem.Attr{Mode: os.ModeDir | 0o755}, nil
}

func (gen1Tree) Readdir(_ context.Context, path string) ([]filesystem.DirEntry, error) {
	return []filesystem.DirEntry{{Name: "a.txt"}}, nil
}

// gen2Tree only relies on defaults.
type gen2Tree struct {
	filesystem.Unimplemented2
}

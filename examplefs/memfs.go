package examplefs

import (
	"context"
	"os"
	"path"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
)

// memNode is shared between hard links.
type memNode struct {
	mode   os.FileMode
	uid    uint32
	gid    uint32
	nlink  uint32
	mtime  time.Time
	data   []byte
	target string // symlinks only
	opens  int
	dirty  bool
}

// MemFS is an in-memory Gen2 filesystem. Open files are tracked per path:
// Flush clears the dirty flag set by writes and Release drops the open
// count. It is safe for concurrent use.
type MemFS struct {
	mu    sync.RWMutex
	nodes map[string]*memNode
	uid   uint32
	gid   uint32
	now   func() time.Time
}

var _ filesystem.Filesystem2 = (*MemFS)(nil)

// NewMemFS returns an empty MemFS owned by the current user.
func NewMemFS() *MemFS {
	m := &MemFS{
		nodes: make(map[string]*memNode),
		uid:   uint32(os.Getuid()),
		gid:   uint32(os.Getgid()),
		now:   time.Now,
	}
	m.nodes["/"] = &memNode{mode: os.ModeDir | 0o755, uid: m.uid, gid: m.gid, nlink: 2, mtime: m.now()}
	return m
}

// lookupLocked returns the node at p. Callers hold mu.
func (m *MemFS) lookupLocked(op, p string) (*memNode, error) {
	n, ok := m.nodes[p]
	if !ok {
		return nil, filesystem.NotFound(op, p)
	}
	return n, nil
}

// parentLocked checks that the parent of p exists and is a directory.
func (m *MemFS) parentLocked(op, p string) (*memNode, error) {
	if p == "/" {
		return nil, filesystem.Exists(op, p)
	}
	dir, ok := m.nodes[path.Dir(p)]
	if !ok {
		return nil, filesystem.NotFound(op, p)
	}
	if !dir.mode.IsDir() {
		return nil, filesystem.NotDir(op, p)
	}
	return dir, nil
}

// insertLocked adds n at p after checking the parent and that p is free.
func (m *MemFS) insertLocked(op, p string, n *memNode) error {
	dir, err := m.parentLocked(op, p)
	if err != nil {
		return err
	}
	if _, ok := m.nodes[p]; ok {
		return filesystem.Exists(op, p)
	}
	m.nodes[p] = n
	dir.mtime = m.now()
	return nil
}

func (m *MemFS) hasChildrenLocked(p string) bool {
	prefix := strings.TrimSuffix(p, "/") + "/"
	for k := range m.nodes {
		if k != p && strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

func (m *MemFS) Getattr(ctx context.Context, p string) (filesystem.Attr, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookupLocked("getattr", p)
	if err != nil {
		return filesystem.Attr{}, err
	}
	size := uint64(len(n.data))
	if n.mode&os.ModeSymlink != 0 {
		size = uint64(len(n.target))
	}
	return filesystem.Attr{
		Mode:  n.mode,
		Nlink: n.nlink,
		Uid:   n.uid,
		Gid:   n.gid,
		Size:  size,
		Mtime: n.mtime,
	}, nil
}

func (m *MemFS) Readlink(ctx context.Context, p string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookupLocked("readlink", p)
	if err != nil {
		return "", err
	}
	if n.mode&os.ModeSymlink == 0 {
		return "", filesystem.Invalid("readlink", p)
	}
	return n.target, nil
}

func (m *MemFS) Readdir(ctx context.Context, p string) ([]filesystem.DirEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookupLocked("readdir", p)
	if err != nil {
		return nil, err
	}
	if !n.mode.IsDir() {
		return nil, filesystem.NotDir("readdir", p)
	}

	var entries []filesystem.DirEntry
	for k, child := range m.nodes {
		if k == "/" || path.Dir(k) != p {
			continue
		}
		entries = append(entries, filesystem.DirEntry{Name: path.Base(k), Mode: child.mode.Type()})
	}
	slices.SortFunc(entries, func(a, b filesystem.DirEntry) int {
		return strings.Compare(a.Name, b.Name)
	})
	return entries, nil
}

func (m *MemFS) Mkdir(ctx context.Context, p string, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked("mkdir", p, &memNode{
		mode:  os.ModeDir | mode.Perm(),
		uid:   m.uid,
		gid:   m.gid,
		nlink: 2,
		mtime: m.now(),
	})
}

// createLocked adds an empty regular file. Gen2 has no Create, so Open with
// O_CREATE, Write and Truncate create missing files instead.
func (m *MemFS) createLocked(op, p string, mode os.FileMode) (*memNode, error) {
	n := &memNode{mode: mode.Perm(), uid: m.uid, gid: m.gid, nlink: 1, mtime: m.now()}
	if err := m.insertLocked(op, p, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (m *MemFS) Unlink(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("unlink", p)
	if err != nil {
		return err
	}
	if n.mode.IsDir() {
		return filesystem.IsDir("unlink", p)
	}
	delete(m.nodes, p)
	n.nlink--
	if dir, ok := m.nodes[path.Dir(p)]; ok {
		dir.mtime = m.now()
	}
	return nil
}

func (m *MemFS) Rmdir(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p == "/" {
		return filesystem.NewError(filesystem.KindBusy, "rmdir", p)
	}
	n, err := m.lookupLocked("rmdir", p)
	if err != nil {
		return err
	}
	if !n.mode.IsDir() {
		return filesystem.NotDir("rmdir", p)
	}
	if m.hasChildrenLocked(p) {
		return filesystem.NotEmpty("rmdir", p)
	}
	delete(m.nodes, p)
	if dir, ok := m.nodes[path.Dir(p)]; ok {
		dir.mtime = m.now()
	}
	return nil
}

func (m *MemFS) Symlink(ctx context.Context, target, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.insertLocked("symlink", link, &memNode{
		mode:   os.ModeSymlink | 0o777,
		uid:    m.uid,
		gid:    m.gid,
		nlink:  1,
		mtime:  m.now(),
		target: target,
	})
}

// Rename moves from and, for directories, everything below it. An existing
// target is replaced when the kinds agree and, for directories, it is empty.
func (m *MemFS) Rename(ctx context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if from == "/" || to == "/" {
		return filesystem.NewError(filesystem.KindBusy, "rename", from)
	}
	src, err := m.lookupLocked("rename", from)
	if err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if strings.HasPrefix(to, from+"/") {
		return filesystem.Invalid("rename", to)
	}
	if _, err := m.parentLocked("rename", to); err != nil {
		return err
	}
	if dst, ok := m.nodes[to]; ok {
		switch {
		case src.mode.IsDir() && !dst.mode.IsDir():
			return filesystem.NotDir("rename", to)
		case !src.mode.IsDir() && dst.mode.IsDir():
			return filesystem.IsDir("rename", to)
		case dst.mode.IsDir() && m.hasChildrenLocked(to):
			return filesystem.NotEmpty("rename", to)
		}
		delete(m.nodes, to)
		dst.nlink--
	}

	prefix := from + "/"
	for k, n := range m.nodes {
		switch {
		case k == from:
			delete(m.nodes, k)
			m.nodes[to] = n
		case strings.HasPrefix(k, prefix):
			delete(m.nodes, k)
			m.nodes[to+"/"+strings.TrimPrefix(k, prefix)] = n
		}
	}
	now := m.now()
	for _, d := range []string{path.Dir(from), path.Dir(to)} {
		if dir, ok := m.nodes[d]; ok {
			dir.mtime = now
		}
	}
	return nil
}

func (m *MemFS) Link(ctx context.Context, from, to string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("link", from)
	if err != nil {
		return err
	}
	if n.mode.IsDir() {
		return filesystem.Permission("link", from)
	}
	if err := m.insertLocked("link", to, n); err != nil {
		return err
	}
	n.nlink++
	return nil
}

func (m *MemFS) Chmod(ctx context.Context, p string, mode os.FileMode) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("chmod", p)
	if err != nil {
		return err
	}
	n.mode = n.mode.Type() | mode.Perm()
	return nil
}

func (m *MemFS) Chown(ctx context.Context, p string, uid, gid uint32) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("chown", p)
	if err != nil {
		return err
	}
	n.uid, n.gid = uid, gid
	return nil
}

// Truncate resizes a file, creating it when missing.
func (m *MemFS) Truncate(ctx context.Context, p string, size uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[p]
	if !ok {
		var err error
		if n, err = m.createLocked("truncate", p, 0o644); err != nil {
			return err
		}
	}
	if n.mode.IsDir() {
		return filesystem.IsDir("truncate", p)
	}
	switch {
	case size < uint64(len(n.data)):
		n.data = n.data[:size]
	case size > uint64(len(n.data)):
		n.data = append(n.data, make([]byte, size-uint64(len(n.data)))...)
	}
	n.mtime = m.now()
	n.dirty = true
	return nil
}

func (m *MemFS) Utime(ctx context.Context, p string, atime, mtime time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("utime", p)
	if err != nil {
		return err
	}
	n.mtime = mtime
	return nil
}

func (m *MemFS) Statfs(ctx context.Context) (filesystem.StatFS, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var used uint64
	for _, n := range m.nodes {
		used += uint64(len(n.data))
	}
	const bsize = 4096
	return filesystem.StatFS{
		Blocks:  (used + bsize - 1) / bsize,
		Files:   uint64(len(m.nodes)),
		Bsize:   bsize,
		Frsize:  bsize,
		Namelen: 255,
	}, nil
}

func (m *MemFS) Read(ctx context.Context, p string, buf []byte, offset int64) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n, err := m.lookupLocked("read", p)
	if err != nil {
		return 0, err
	}
	if n.mode.IsDir() {
		return 0, filesystem.IsDir("read", p)
	}
	if offset < 0 {
		return 0, filesystem.Invalid("read", p)
	}
	if offset >= int64(len(n.data)) {
		return 0, nil
	}
	return copy(buf, n.data[offset:]), nil
}

// Write stores data at offset, growing the file as needed. Writing to a
// missing path creates it.
func (m *MemFS) Write(ctx context.Context, p string, data []byte, offset int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if offset < 0 {
		return 0, filesystem.Invalid("write", p)
	}
	n, ok := m.nodes[p]
	if !ok {
		var err error
		if n, err = m.createLocked("write", p, 0o644); err != nil {
			return 0, err
		}
	}
	if n.mode.IsDir() {
		return 0, filesystem.IsDir("write", p)
	}
	if end := offset + int64(len(data)); end > int64(len(n.data)) {
		n.data = append(n.data, make([]byte, end-int64(len(n.data)))...)
	}
	copy(n.data[offset:], data)
	n.mtime = m.now()
	n.dirty = true
	return len(data), nil
}

// Open creates missing files when flags ask for it, mirroring O_CREAT, and
// honours O_TRUNC.
func (m *MemFS) Open(ctx context.Context, p string, flags int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[p]
	switch {
	case !ok && flags&os.O_CREATE != 0:
		var err error
		if n, err = m.createLocked("open", p, 0o644); err != nil {
			return err
		}
	case !ok:
		return filesystem.NotFound("open", p)
	case flags&os.O_CREATE != 0 && flags&os.O_EXCL != 0:
		return filesystem.Exists("open", p)
	}
	if n.mode.IsDir() && flags&(os.O_WRONLY|os.O_RDWR) != 0 {
		return filesystem.IsDir("open", p)
	}
	if flags&os.O_TRUNC != 0 && !n.mode.IsDir() {
		n.data = n.data[:0]
		n.mtime = m.now()
	}
	n.opens++
	return nil
}

func (m *MemFS) Flush(ctx context.Context, p string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, err := m.lookupLocked("flush", p)
	if err != nil {
		return err
	}
	n.dirty = false
	return nil
}

func (m *MemFS) Release(ctx context.Context, p string, flags int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.nodes[p]
	if !ok {
		// unlinked while open; nothing left to account for
		return nil
	}
	if n.opens == 0 {
		return filesystem.NewError(filesystem.KindBadHandle, "release", p)
	}
	n.opens--
	return nil
}

func (m *MemFS) Fsync(ctx context.Context, p string, datasync bool) error {
	return m.Flush(ctx, p)
}

// OpenCount returns how many opens of p are outstanding.
func (m *MemFS) OpenCount(p string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if n, ok := m.nodes[p]; ok {
		return n.opens
	}
	return 0
}

package util

import (
	"strings"
	"sync"
)

// RootInode is the inode number of "/".
const RootInode uint64 = 1

// InodeRegistry assigns stable inode numbers to paths. A path keeps its
// inode until it is forgotten; renames carry the inodes of the whole subtree
// along to the new location. Inode numbers are never reused.
type InodeRegistry struct {
	mu      sync.RWMutex
	highest uint64
	byPath  map[string]uint64
	byInode map[uint64]string
}

// NewInodeRegistry returns a registry holding only the root.
func NewInodeRegistry() *InodeRegistry {
	r := &InodeRegistry{
		highest: RootInode,
		byPath:  map[string]uint64{"/": RootInode},
		byInode: map[uint64]string{RootInode: "/"},
	}
	return r
}

// Inode returns the inode for path, assigning a new one on first sight.
func (r *InodeRegistry) Inode(path string) uint64 {
	r.mu.RLock()
	ino, ok := r.byPath[path]
	r.mu.RUnlock()
	if ok {
		return ino
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// lost the race to another caller
	if ino, ok := r.byPath[path]; ok {
		return ino
	}
	r.highest++
	r.byPath[path] = r.highest
	r.byInode[r.highest] = path
	return r.highest
}

// Path returns the path currently bound to ino.
func (r *InodeRegistry) Path(ino uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	path, ok := r.byInode[ino]
	if !ok {
		return "", ErrInodeNotFound
	}
	return path, nil
}

// Rename moves from, and everything below it, to to. Whatever was bound at
// to is forgotten first, matching rename(2) replacing its target.
func (r *InodeRegistry) Rename(from, to string) error {
	if from == "/" || to == "/" {
		return ErrRootRename
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.forgetLocked(to)

	prefix := from + "/"
	for path, ino := range r.byPath {
		var moved string
		switch {
		case path == from:
			moved = to
		case strings.HasPrefix(path, prefix):
			moved = to + "/" + strings.TrimPrefix(path, prefix)
		default:
			continue
		}
		delete(r.byPath, path)
		r.byPath[moved] = ino
		r.byInode[ino] = moved
	}
	return nil
}

// Forget drops path and everything below it.
func (r *InodeRegistry) Forget(path string) {
	if path == "/" {
		return
	}
	r.mu.Lock()
	r.forgetLocked(path)
	r.mu.Unlock()
}

func (r *InodeRegistry) forgetLocked(path string) {
	prefix := path + "/"
	for p, ino := range r.byPath {
		if p == path || strings.HasPrefix(p, prefix) {
			delete(r.byPath, p)
			delete(r.byInode, ino)
		}
	}
}

// Len returns the number of registered paths, root included.
func (r *InodeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byPath)
}

package native

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/dendrascience/fusecompat/filesystem"
)

// handleEntry stores what a Gen3 Open or Create returned for one native handle.
type handleEntry struct {
	path  string
	fh    filesystem.FileHandle
	flags int
}

// handleTable maps native handles to open-file state. Lookups share the lock;
// insert and remove take it exclusively. The lock is never held while user
// filesystem code runs.
type handleTable struct {
	mu      sync.RWMutex
	entries map[Handle]*handleEntry
	next    atomic.Uint64
}

func newHandleTable() *handleTable {
	return &handleTable{
		entries: make(map[Handle]*handleEntry),
	}
}

// insert stores e under a freshly minted handle.
func (t *handleTable) insert(e *handleEntry) Handle {
	h := Handle(t.next.Add(1))

	t.mu.Lock()
	t.entries[h] = e
	t.mu.Unlock()

	return h
}

func (t *handleTable) lookup(h Handle) (*handleEntry, bool) {
	t.mu.RLock()
	e, ok := t.entries[h]
	t.mu.RUnlock()
	return e, ok
}

// remove retires h and returns what it was bound to. A second remove of the
// same handle reports false.
func (t *handleTable) remove(h Handle) (*handleEntry, bool) {
	t.mu.Lock()
	e, ok := t.entries[h]
	if ok {
		delete(t.entries, h)
	}
	t.mu.Unlock()
	return e, ok
}

type drainedHandle struct {
	handle Handle
	entry  *handleEntry
}

// drain empties the table and returns its former contents in ascending
// handle order.
func (t *handleTable) drain() []drainedHandle {
	t.mu.Lock()
	out := make([]drainedHandle, 0, len(t.entries))
	for h, e := range t.entries {
		out = append(out, drainedHandle{handle: h, entry: e})
	}
	t.entries = make(map[Handle]*handleEntry)
	t.mu.Unlock()

	slices.SortFunc(out, func(a, b drainedHandle) int {
		return cmp.Compare(a.handle, b.handle)
	})
	return out
}

func (t *handleTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

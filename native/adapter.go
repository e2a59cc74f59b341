package native

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/sirupsen/logrus"
)

// State is the mount lifecycle state of an Adapter.
type State int

const (
	// StateMounted serves every callback.
	StateMounted State = iota
	// StateUnmounting refuses new handles and waits for in-flight callbacks.
	StateUnmounting
	// StateUnmounted refuses every callback.
	StateUnmounted
)

// String returns a string representation of the State.
func (s State) String() string {
	switch s {
	case StateMounted:
		return "mounted"
	case StateUnmounting:
		return "unmounting"
	case StateUnmounted:
		return "unmounted"
	default:
		return "unknown"
	}
}

// Adapter is the terminal adapter: it implements the native callback surface
// on top of a Filesystem3 and owns the native handle table.
type Adapter struct {
	fs      filesystem.Filesystem3
	gen     filesystem.Generation
	chain   []string
	log     logrus.FieldLogger
	handles *handleTable

	mu       sync.Mutex
	drained  *sync.Cond
	state    State
	inflight int
	done     chan struct{} // closed once the unmount drain has finished
}

var (
	_ FS        = (*Adapter)(nil)
	_ Unmounter = (*Adapter)(nil)
)

// newAdapter returns a mounted Adapter serving fs. gen and chain describe
// what fs was built from and are only used for diagnostics.
func newAdapter(fs filesystem.Filesystem3, gen filesystem.Generation, chain []string, log logrus.FieldLogger) *Adapter {
	a := &Adapter{
		fs:      fs,
		gen:     gen,
		chain:   chain,
		log:     log,
		handles: newHandleTable(),
		state:   StateMounted,
		done:    make(chan struct{}),
	}
	a.drained = sync.NewCond(&a.mu)
	return a
}

// Unwrap returns the wrapped Filesystem3.
func (a *Adapter) Unwrap() filesystem.Filesystem3 {
	return a.fs
}

// Generation returns the generation of the filesystem at the bottom of the
// chain.
func (a *Adapter) Generation() filesystem.Generation {
	return a.gen
}

// Chain returns the adaptation stages between the native surface and the
// user filesystem, outermost first.
func (a *Adapter) Chain() []string {
	return slices.Clone(a.chain)
}

// State returns the current mount state.
func (a *Adapter) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// OpenHandles returns the number of live native handles.
func (a *Adapter) OpenHandles() int {
	return a.handles.len()
}

// enter admits a callback. Handle-minting callbacks are refused once
// unmounting has started; everything is refused after unmount.
func (a *Adapter) enter(minting bool) syscall.Errno {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.state {
	case StateUnmounted:
		return syscall.ENOTCONN
	case StateUnmounting:
		if minting {
			return syscall.ENOTCONN
		}
	}
	a.inflight++
	return 0
}

func (a *Adapter) exit() {
	a.mu.Lock()
	a.inflight--
	if a.inflight == 0 {
		a.drained.Broadcast()
	}
	a.mu.Unlock()
}

// call runs fn, converting its error, or a panic, into an errno.
func (a *Adapter) call(op, path string, fn func() error) (errno syscall.Errno) {
	defer func() {
		if r := recover(); r != nil {
			a.log.WithFields(logrus.Fields{
				"op":    op,
				"path":  path,
				"panic": fmt.Sprint(r),
			}).Error("filesystem panicked")
			errno = syscall.EIO
		}
	}()
	return a.errno(op, path, fn())
}

func (a *Adapter) errno(op, path string, err error) syscall.Errno {
	errno, known := toErrno(err)
	if !known {
		a.log.WithFields(logrus.Fields{
			"op":   op,
			"path": path,
		}).WithError(err).Error("unrecognized filesystem error")
	}
	return errno
}

func (a *Adapter) Getattr(ctx context.Context, path string) (st filesystem.Stat, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return st, errno
	}
	defer a.exit()

	errno = a.call("getattr", path, func() (err error) {
		st, err = a.fs.Getattr(ctx, path)
		return err
	})
	if errno != 0 {
		return filesystem.Stat{}, errno
	}
	return st, 0
}

func (a *Adapter) Readlink(ctx context.Context, path string) (target string, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return "", errno
	}
	defer a.exit()

	errno = a.call("readlink", path, func() (err error) {
		target, err = a.fs.Readlink(ctx, path)
		return err
	})
	if errno != 0 {
		return "", errno
	}
	return target, 0
}

func (a *Adapter) Readdir(ctx context.Context, path string) (entries []filesystem.DirEntry, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return nil, errno
	}
	defer a.exit()

	errno = a.call("readdir", path, func() (err error) {
		entries, err = a.fs.Readdir(ctx, path)
		return err
	})
	if errno != 0 {
		return nil, errno
	}
	return entries, 0
}

// simple runs a callback that has no out values.
func (a *Adapter) simple(op, path string, fn func() error) syscall.Errno {
	if errno := a.enter(false); errno != 0 {
		return errno
	}
	defer a.exit()
	return a.call(op, path, fn)
}

func (a *Adapter) Mkdir(ctx context.Context, path string, mode os.FileMode) syscall.Errno {
	return a.simple("mkdir", path, func() error { return a.fs.Mkdir(ctx, path, mode) })
}

func (a *Adapter) Unlink(ctx context.Context, path string) syscall.Errno {
	return a.simple("unlink", path, func() error { return a.fs.Unlink(ctx, path) })
}

func (a *Adapter) Rmdir(ctx context.Context, path string) syscall.Errno {
	return a.simple("rmdir", path, func() error { return a.fs.Rmdir(ctx, path) })
}

func (a *Adapter) Symlink(ctx context.Context, target, link string) syscall.Errno {
	return a.simple("symlink", link, func() error { return a.fs.Symlink(ctx, target, link) })
}

func (a *Adapter) Rename(ctx context.Context, from, to string) syscall.Errno {
	return a.simple("rename", from, func() error { return a.fs.Rename(ctx, from, to) })
}

func (a *Adapter) Link(ctx context.Context, from, to string) syscall.Errno {
	return a.simple("link", to, func() error { return a.fs.Link(ctx, from, to) })
}

func (a *Adapter) Chmod(ctx context.Context, path string, mode os.FileMode) syscall.Errno {
	return a.simple("chmod", path, func() error { return a.fs.Chmod(ctx, path, mode) })
}

func (a *Adapter) Chown(ctx context.Context, path string, uid, gid uint32) syscall.Errno {
	return a.simple("chown", path, func() error { return a.fs.Chown(ctx, path, uid, gid) })
}

func (a *Adapter) Truncate(ctx context.Context, path string, size uint64) syscall.Errno {
	return a.simple("truncate", path, func() error { return a.fs.Truncate(ctx, path, size) })
}

func (a *Adapter) Utime(ctx context.Context, path string, atime, mtime time.Time) syscall.Errno {
	return a.simple("utime", path, func() error { return a.fs.Utime(ctx, path, atime, mtime) })
}

func (a *Adapter) Statfs(ctx context.Context, path string) (st filesystem.StatFS, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return st, errno
	}
	defer a.exit()

	errno = a.call("statfs", path, func() (err error) {
		st, err = a.fs.Statfs(ctx)
		return err
	})
	if errno != 0 {
		return filesystem.StatFS{}, errno
	}
	return st, 0
}

func (a *Adapter) Open(ctx context.Context, path string, flags int) (Handle, syscall.Errno) {
	if errno := a.enter(true); errno != 0 {
		return 0, errno
	}
	defer a.exit()

	var fh filesystem.FileHandle
	errno := a.call("open", path, func() (err error) {
		fh, err = a.fs.Open(ctx, path, flags)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	return a.handles.insert(&handleEntry{path: path, fh: fh, flags: flags}), 0
}

func (a *Adapter) Create(ctx context.Context, path string, mode os.FileMode, flags int) (Handle, syscall.Errno) {
	if errno := a.enter(true); errno != 0 {
		return 0, errno
	}
	defer a.exit()

	var fh filesystem.FileHandle
	errno := a.call("create", path, func() (err error) {
		fh, err = a.fs.Create(ctx, path, mode, flags)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	return a.handles.insert(&handleEntry{path: path, fh: fh, flags: flags}), 0
}

// badHandle logs and reports a callback naming a handle that is not live.
func (a *Adapter) badHandle(op, path string, h Handle) syscall.Errno {
	a.log.WithFields(logrus.Fields{
		"op":     op,
		"path":   path,
		"handle": uint64(h),
	}).Warn("unknown file handle")
	return syscall.EBADF
}

// badCount reports a byte count outside [0, size] from the filesystem.
func (a *Adapter) badCount(op, path string, n, size int) syscall.Errno {
	a.log.WithFields(logrus.Fields{
		"op":   op,
		"path": path,
		"n":    n,
		"size": size,
	}).Error("filesystem returned an impossible byte count")
	return syscall.EIO
}

func (a *Adapter) Read(ctx context.Context, path string, h Handle, buf []byte, offset int64) (n int, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return 0, errno
	}
	defer a.exit()

	e, ok := a.handles.lookup(h)
	if !ok {
		return 0, a.badHandle("read", path, h)
	}
	errno = a.call("read", path, func() (err error) {
		n, err = a.fs.Read(ctx, path, e.fh, buf, offset)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	if n < 0 || n > len(buf) {
		return 0, a.badCount("read", path, n, len(buf))
	}
	return n, 0
}

func (a *Adapter) Write(ctx context.Context, path string, h Handle, data []byte, offset int64) (n int, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return 0, errno
	}
	defer a.exit()

	e, ok := a.handles.lookup(h)
	if !ok {
		return 0, a.badHandle("write", path, h)
	}
	errno = a.call("write", path, func() (err error) {
		n, err = a.fs.Write(ctx, path, e.fh, data, offset)
		return err
	})
	if errno != 0 {
		return 0, errno
	}
	if n < 0 || n > len(data) {
		return 0, a.badCount("write", path, n, len(data))
	}
	return n, 0
}

func (a *Adapter) Flush(ctx context.Context, path string, h Handle) syscall.Errno {
	if errno := a.enter(false); errno != 0 {
		return errno
	}
	defer a.exit()

	e, ok := a.handles.lookup(h)
	if !ok {
		return a.badHandle("flush", path, h)
	}
	return a.call("flush", path, func() error { return a.fs.Flush(ctx, path, e.fh) })
}

func (a *Adapter) Fsync(ctx context.Context, path string, h Handle, datasync bool) syscall.Errno {
	if errno := a.enter(false); errno != 0 {
		return errno
	}
	defer a.exit()

	e, ok := a.handles.lookup(h)
	if !ok {
		return a.badHandle("fsync", path, h)
	}
	return a.call("fsync", path, func() error { return a.fs.Fsync(ctx, path, e.fh, datasync) })
}

// Release retires h before calling into the filesystem, so the handle is gone
// even when the filesystem's release fails. The failure is still reported.
func (a *Adapter) Release(ctx context.Context, path string, h Handle, flags int) syscall.Errno {
	if errno := a.enter(false); errno != 0 {
		return errno
	}
	defer a.exit()

	e, ok := a.handles.remove(h)
	if !ok {
		return a.badHandle("release", path, h)
	}
	return a.call("release", path, func() error { return a.fs.Release(ctx, path, e.fh, flags) })
}

func (a *Adapter) Getxattr(ctx context.Context, path, name string) (value []byte, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return nil, errno
	}
	defer a.exit()

	errno = a.call("getxattr", path, func() (err error) {
		value, err = a.fs.Getxattr(ctx, path, name)
		return err
	})
	if errno != 0 {
		return nil, errno
	}
	return value, 0
}

func (a *Adapter) Setxattr(ctx context.Context, path, name string, value []byte, flags uint32) syscall.Errno {
	return a.simple("setxattr", path, func() error { return a.fs.Setxattr(ctx, path, name, value, flags) })
}

func (a *Adapter) Listxattr(ctx context.Context, path string) (names []string, errno syscall.Errno) {
	if errno = a.enter(false); errno != 0 {
		return nil, errno
	}
	defer a.exit()

	errno = a.call("listxattr", path, func() (err error) {
		names, err = a.fs.Listxattr(ctx, path)
		return err
	})
	if errno != 0 {
		return nil, errno
	}
	return names, 0
}

func (a *Adapter) Removexattr(ctx context.Context, path, name string) syscall.Errno {
	return a.simple("removexattr", path, func() error { return a.fs.Removexattr(ctx, path, name) })
}

// Unmount stops accepting new handles, waits for in-flight callbacks to
// finish and then releases every handle still open, in ascending handle
// order. The handle table is empty when Unmount returns, whatever the
// filesystem's release calls reported; their failures are joined into the
// returned error. A concurrent or later call waits for the first one to
// finish draining and returns nil, or ctx's error if ctx ends first.
func (a *Adapter) Unmount(ctx context.Context) error {
	a.mu.Lock()
	if a.state != StateMounted {
		a.mu.Unlock()
		select {
		case <-a.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.state = StateUnmounting
	for a.inflight > 0 {
		a.drained.Wait()
	}
	a.state = StateUnmounted
	a.mu.Unlock()
	defer close(a.done)

	var errs []error
	for _, d := range a.handles.drain() {
		path := d.entry.path
		errno := a.call("release", path, func() error {
			return a.fs.Release(ctx, path, d.entry.fh, d.entry.flags)
		})
		if errno != 0 {
			a.log.WithFields(logrus.Fields{
				"path":   path,
				"handle": uint64(d.handle),
				"errno":  errno.Error(),
			}).Warn("forced release at unmount failed")
			errs = append(errs, fmt.Errorf("%w: handle %d (%s): %w", ErrForcedRelease, d.handle, path, errno))
		}
	}

	a.log.WithField("generation", a.gen.String()).Debug("unmounted")
	return errors.Join(errs...)
}

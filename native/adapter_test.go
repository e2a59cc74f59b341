package native

import (
	"context"
	"errors"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter(t *testing.T, fs *fakeGen3) (*Adapter, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	return Adapt3(fs, logger), hook
}

func TestAdapterOpenReadRelease(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t, newFakeGen3(map[string]string{"/a.txt": "hello world"}))

	h, errno := a.Open(ctx, "/a.txt", os.O_RDONLY)
	require.Zero(t, errno)
	require.NotZero(t, h)
	assert.Equal(t, 1, a.OpenHandles())

	buf := make([]byte, 5)
	for _, tc := range []struct {
		offset int64
		want   string
	}{
		{0, "hello"},
		{6, "world"},
	} {
		n, errno := a.Read(ctx, "/a.txt", h, buf, tc.offset)
		require.Zero(t, errno)
		assert.Equal(t, tc.want, string(buf[:n]))
	}

	require.Zero(t, a.Flush(ctx, "/a.txt", h))
	require.Zero(t, a.Fsync(ctx, "/a.txt", h, false))
	require.Zero(t, a.Release(ctx, "/a.txt", h, 0))
	assert.Zero(t, a.OpenHandles())

	_, errno = a.Read(ctx, "/a.txt", h, buf, 0)
	assert.Equal(t, syscall.EBADF, errno)
}

func TestAdapterHandlesAreUnique(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t, newFakeGen3(map[string]string{"/a": "x"}))

	seen := make(map[Handle]bool)
	for range 10 {
		h, errno := a.Open(ctx, "/a", 0)
		require.Zero(t, errno)
		require.False(t, seen[h], "handle %d issued twice", h)
		seen[h] = true
		require.Zero(t, a.Release(ctx, "/a", h, 0))
	}
}

func TestAdapterOpenMissing(t *testing.T) {
	fs := newFakeGen3(nil)
	a, _ := newTestAdapter(t, fs)

	h, errno := a.Open(context.Background(), "/missing", 0)
	assert.Equal(t, syscall.ENOENT, errno)
	assert.Zero(t, h)
	assert.Zero(t, a.OpenHandles())
	assert.EqualValues(t, 1, fs.calls.Load())
}

func TestAdapterCreateWrite(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(nil)
	a, _ := newTestAdapter(t, fs)

	h, errno := a.Create(ctx, "/new", 0o644, os.O_RDWR)
	require.Zero(t, errno)

	n, errno := a.Write(ctx, "/new", h, []byte("abc"), 2)
	require.Zero(t, errno)
	assert.Equal(t, 3, n)

	st, errno := a.Getattr(ctx, "/new")
	require.Zero(t, errno)
	assert.EqualValues(t, 5, st.Size)

	_, errno = a.Create(ctx, "/new", 0o644, os.O_RDWR)
	assert.Equal(t, syscall.EEXIST, errno)
	assert.Equal(t, 1, a.OpenHandles())
}

func TestAdapterUnknownHandle(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	a, hook := newTestAdapter(t, fs)

	buf := make([]byte, 1)
	tests := []struct {
		name string
		call func() syscall.Errno
	}{
		{"read", func() syscall.Errno { _, e := a.Read(ctx, "/a", 42, buf, 0); return e }},
		{"write", func() syscall.Errno { _, e := a.Write(ctx, "/a", 42, buf, 0); return e }},
		{"flush", func() syscall.Errno { return a.Flush(ctx, "/a", 42) }},
		{"fsync", func() syscall.Errno { return a.Fsync(ctx, "/a", 42, true) }},
		{"release", func() syscall.Errno { return a.Release(ctx, "/a", 42, 0) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, syscall.EBADF, tt.call())
		})
	}

	assert.Zero(t, fs.calls.Load(), "user code must not run for unknown handles")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestAdapterDoubleRelease(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	a, _ := newTestAdapter(t, fs)

	h, errno := a.Open(ctx, "/a", 0)
	require.Zero(t, errno)

	assert.Zero(t, a.Release(ctx, "/a", h, 0))
	assert.Equal(t, syscall.EBADF, a.Release(ctx, "/a", h, 0))
	assert.Equal(t, []string{"/a"}, fs.releases)
}

func TestAdapterReleaseFailureRetiresHandle(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	fs.releaseErr = syscall.EIO
	a, _ := newTestAdapter(t, fs)

	h, errno := a.Open(ctx, "/a", 0)
	require.Zero(t, errno)

	assert.Equal(t, syscall.EIO, a.Release(ctx, "/a", h, 0))
	assert.Zero(t, a.OpenHandles())

	_, errno = a.Read(ctx, "/a", h, make([]byte, 1), 0)
	assert.Equal(t, syscall.EBADF, errno)
}

func TestAdapterNotSupported(t *testing.T) {
	ctx := context.Background()
	a, _ := newTestAdapter(t, newFakeGen3(nil))

	assert.Equal(t, ENOTSUP, a.Mkdir(ctx, "/d", 0o755))
	assert.Equal(t, ENOTSUP, a.Setxattr(ctx, "/", "user.a", []byte("v"), 0))
	_, errno := a.Listxattr(ctx, "/")
	assert.Equal(t, ENOTSUP, errno)
	_, errno = a.Statfs(ctx, "/")
	assert.Equal(t, ENOTSUP, errno)
}

func TestAdapterPanicBecomesEIO(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	fs.panicOn = "getattr"
	a, hook := newTestAdapter(t, fs)

	_, errno := a.Getattr(ctx, "/a")
	assert.Equal(t, syscall.EIO, errno)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.ErrorLevel, entry.Level)
	assert.Equal(t, "getattr", entry.Data["op"])
	assert.Equal(t, "/a", entry.Data["path"])

	// Serving continues after the fault.
	fs.panicOn = ""
	_, errno = a.Getattr(ctx, "/a")
	assert.Zero(t, errno)
}

func TestAdapterPanicInOpenLeavesTableUnchanged(t *testing.T) {
	fs := newFakeGen3(map[string]string{"/a": "x"})
	fs.panicOn = "open"
	a, _ := newTestAdapter(t, fs)

	_, errno := a.Open(context.Background(), "/a", 0)
	assert.Equal(t, syscall.EIO, errno)
	assert.Zero(t, a.OpenHandles())
}

func TestAdapterUnmountDrainsHandles(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "1", "/b": "2", "/c": "3"})
	a, _ := newTestAdapter(t, fs)

	for _, p := range []string{"/c", "/a", "/b"} {
		_, errno := a.Open(ctx, p, 0)
		require.Zero(t, errno)
	}
	require.Equal(t, 3, a.OpenHandles())

	require.NoError(t, a.Unmount(ctx))
	assert.Zero(t, a.OpenHandles())
	assert.Equal(t, StateUnmounted, a.State())
	// Ascending handle order is open order here.
	assert.Equal(t, []string{"/c", "/a", "/b"}, fs.releases)

	_, errno := a.Getattr(ctx, "/a")
	assert.Equal(t, syscall.ENOTCONN, errno)
	_, errno = a.Open(ctx, "/a", 0)
	assert.Equal(t, syscall.ENOTCONN, errno)

	require.NoError(t, a.Unmount(ctx), "second unmount is a no-op")
	assert.Len(t, fs.releases, 3)
}

func TestAdapterUnmountReportsReleaseFailures(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "1", "/b": "2"})
	fs.releaseErr = errors.New("disk on fire")
	a, hook := newTestAdapter(t, fs)

	for _, p := range []string{"/a", "/b"} {
		_, errno := a.Open(ctx, p, 0)
		require.Zero(t, errno)
	}

	err := a.Unmount(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForcedRelease)
	assert.ErrorIs(t, err, syscall.EIO)
	assert.Zero(t, a.OpenHandles())
	assert.NotEmpty(t, hook.AllEntries())
}

func TestAdapterUnmountWaitsForInflight(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	fs.block = make(chan struct{})
	fs.entered = make(chan struct{}, 1)
	a, _ := newTestAdapter(t, fs)

	getattrDone := make(chan syscall.Errno, 1)
	go func() {
		_, errno := a.Getattr(ctx, "/a")
		getattrDone <- errno
	}()

	select {
	case <-fs.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("getattr never reached the filesystem")
	}

	unmounted := make(chan error, 1)
	go func() {
		unmounted <- a.Unmount(ctx)
	}()

	require.Eventually(t, func() bool {
		return a.State() == StateUnmounting
	}, 5*time.Second, time.Millisecond)

	// New handles are refused while draining.
	_, errno := a.Open(ctx, "/a", 0)
	assert.Equal(t, syscall.ENOTCONN, errno)

	select {
	case <-unmounted:
		t.Fatal("unmount returned before in-flight callback finished")
	case <-time.After(50 * time.Millisecond):
	}

	close(fs.block)

	select {
	case errno := <-getattrDone:
		assert.Zero(t, errno)
	case <-time.After(5 * time.Second):
		t.Fatal("getattr never returned")
	}
	select {
	case err := <-unmounted:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock detected: unmount never returned")
	}
	assert.Equal(t, StateUnmounted, a.State())
}

func TestAdapterConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	files := map[string]string{}
	paths := []string{"/a", "/b", "/c", "/d"}
	for _, p := range paths {
		files[p] = "contents of " + p
	}
	a, _ := newTestAdapter(t, newFakeGen3(files))

	done := make(chan bool)
	go func() {
		var wg sync.WaitGroup
		for i := range 50 {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				p := paths[i%len(paths)]
				h, errno := a.Open(ctx, p, 0)
				if !assert.Zero(t, errno) {
					return
				}
				buf := make([]byte, 64)
				n, errno := a.Read(ctx, p, h, buf, 0)
				assert.Zero(t, errno)
				assert.Equal(t, "contents of "+p, string(buf[:n]))
				assert.Zero(t, a.Release(ctx, p, h, 0))
			}(i)
		}
		wg.Wait()
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("deadlock detected: concurrent callbacks did not complete")
	}
	assert.Zero(t, a.OpenHandles())
}

// reentrantGen3 calls back into the adapter from inside a callback, which
// would deadlock if the table lock were held across user code.
type reentrantGen3 struct {
	*fakeGen3
	adapter *Adapter
}

func (r *reentrantGen3) Flush(ctx context.Context, path string, _ filesystem.FileHandle) error {
	h, errno := r.adapter.Open(ctx, path, 0)
	if errno != 0 {
		return errno
	}
	if errno := r.adapter.Release(ctx, path, h, 0); errno != 0 {
		return errno
	}
	return nil
}

func TestAdapterReentrantCallback(t *testing.T) {
	ctx := context.Background()
	inner := newFakeGen3(map[string]string{"/a": "x"})
	fs := &reentrantGen3{fakeGen3: inner}
	logger, _ := test.NewNullLogger()
	a := Adapt3(fs, logger)
	fs.adapter = a

	h, errno := a.Open(ctx, "/a", 0)
	require.Zero(t, errno)

	done := make(chan syscall.Errno, 1)
	go func() { done <- a.Flush(ctx, "/a", h) }()

	select {
	case errno := <-done:
		assert.Zero(t, errno)
	case <-time.After(5 * time.Second):
		t.Fatal("deadlock detected: re-entrant callback blocked")
	}
	assert.Equal(t, 1, a.OpenHandles())
}

func TestAdapterImpossibleByteCounts(t *testing.T) {
	ctx := context.Background()

	for _, skew := range []int{100, -1000} {
		fs := newFakeGen3(map[string]string{"/a": "0123456789"})
		fs.countSkew = skew
		a, hook := newTestAdapter(t, fs)

		h, errno := a.Open(ctx, "/a", os.O_RDWR)
		require.Zero(t, errno)

		buf := make([]byte, 10)
		n, errno := a.Read(ctx, "/a", h, buf, 0)
		assert.Equal(t, syscall.EIO, errno, "read skew %d", skew)
		assert.Zero(t, n)

		n, errno = a.Write(ctx, "/a", h, []byte("xy"), 0)
		assert.Equal(t, syscall.EIO, errno, "write skew %d", skew)
		assert.Zero(t, n)

		var logged []string
		for _, e := range hook.AllEntries() {
			if e.Level == logrus.ErrorLevel {
				logged = append(logged, e.Data["op"].(string))
			}
		}
		assert.Equal(t, []string{"read", "write"}, logged)

		// The handle is still usable and releases normally.
		assert.Equal(t, 1, a.OpenHandles())
		assert.Zero(t, a.Release(ctx, "/a", h, 0))
	}
}

func TestAdapterConcurrentUnmountsWaitForDrain(t *testing.T) {
	ctx := context.Background()
	fs := newFakeGen3(map[string]string{"/a": "x"})
	a, _ := newTestAdapter(t, fs)

	_, errno := a.Open(ctx, "/a", 0)
	require.Zero(t, errno)

	fs.block = make(chan struct{})
	fs.entered = make(chan struct{}, 1)

	go a.Getattr(ctx, "/a")
	select {
	case <-fs.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("getattr never reached the filesystem")
	}

	first := make(chan error, 1)
	go func() { first <- a.Unmount(ctx) }()
	require.Eventually(t, func() bool {
		return a.State() == StateUnmounting
	}, 5*time.Second, time.Millisecond)

	second := make(chan error, 1)
	go func() { second <- a.Unmount(ctx) }()

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, a.Unmount(cancelled), context.Canceled)

	select {
	case <-first:
		t.Fatal("first unmount returned before the callback drained")
	case <-second:
		t.Fatal("second unmount returned before the callback drained")
	case <-time.After(50 * time.Millisecond):
	}

	close(fs.block)

	for _, ch := range []chan error{first, second} {
		select {
		case err := <-ch:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("deadlock detected: unmount never returned")
		}
		assert.Equal(t, StateUnmounted, a.State())
		assert.Zero(t, a.OpenHandles())
	}
	assert.Equal(t, []string{"/a"}, fs.releases)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "mounted", StateMounted.String())
	assert.Equal(t, "unmounting", StateUnmounting.String())
	assert.Equal(t, "unmounted", StateUnmounted.String())
	assert.Equal(t, "unknown", State(9).String())
}

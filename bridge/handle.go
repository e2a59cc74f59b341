package bridge

import (
	"context"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/fusecompat/native"
)

// Handle is an open file. It forwards to the surface using the native
// handle the surface minted.
type Handle struct {
	node   Node
	fh     native.Handle
	opened string // path at open time, used once the node is gone
}

var (
	_ fs.HandleReader   = (*Handle)(nil)
	_ fs.HandleWriter   = (*Handle)(nil)
	_ fs.HandleFlusher  = (*Handle)(nil)
	_ fs.HandleReleaser = (*Handle)(nil)
)

func (f *FS) newHandle(n Node, p string, fh native.Handle) *Handle {
	h := &Handle{node: n, fh: fh, opened: p}
	f.track(h)
	return h
}

// path follows renames of the node. Files unlinked while open keep
// answering under the path they were opened with.
func (h *Handle) path() string {
	if p, err := h.node.path(); err == nil {
		return p
	}
	return h.opened
}

func (h *Handle) Read(ctx context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	p := h.path()
	buf := make([]byte, req.Size)
	n, errno := h.node.fs.surface.Read(ctx, p, h.fh, buf, req.Offset)
	if errno != 0 {
		return toError(errno)
	}
	resp.Data = buf[:n]
	return nil
}

func (h *Handle) Write(ctx context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	p := h.path()
	n, errno := h.node.fs.surface.Write(ctx, p, h.fh, req.Data, req.Offset)
	if errno != 0 {
		return toError(errno)
	}
	resp.Size = n
	return nil
}

func (h *Handle) Flush(ctx context.Context, req *fuse.FlushRequest) error {
	p := h.path()
	return toError(h.node.fs.surface.Flush(ctx, p, h.fh))
}

// Release closes the handle. It is untracked even when the surface reports
// an error, mirroring the surface retiring the native handle.
func (h *Handle) Release(ctx context.Context, req *fuse.ReleaseRequest) error {
	h.node.fs.untrack(h)
	return toError(h.node.fs.surface.Release(ctx, h.path(), h.fh, int(req.Flags)))
}

package bridge

import (
	"context"
	"os"
	"path"
	"sync"
	"syscall"
	"time"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/dendrascience/fusecompat/native"
	"github.com/dendrascience/fusecompat/util"
	"github.com/sirupsen/logrus"
)

// FS implements the bazil filesystem on top of a native callback surface.
type FS struct {
	surface native.FS
	log     logrus.FieldLogger
	inodes  *util.InodeRegistry

	mu   sync.Mutex
	open map[uint64]map[*Handle]struct{} // open file handles per inode, for fsync
}

var (
	_ fs.FS          = (*FS)(nil)
	_ fs.FSStatfser  = (*FS)(nil)
	_ fs.FSDestroyer = (*FS)(nil)
)

// New creates a bridge serving surface.
func New(surface native.FS, log logrus.FieldLogger) *FS {
	if log == nil {
		log = native.DefaultLogger(surface)
	}
	return &FS{
		surface: surface,
		log:     log,
		inodes:  util.NewInodeRegistry(),
		open:    make(map[uint64]map[*Handle]struct{}),
	}
}

// Root returns the root directory node
func (f *FS) Root() (fs.Node, error) {
	return Node{fs: f, ino: util.RootInode}, nil
}

// Statfs reports capacity from the surface. Surfaces without statfs answer
// zeroes rather than failing df(1).
func (f *FS) Statfs(ctx context.Context, req *fuse.StatfsRequest, resp *fuse.StatfsResponse) error {
	st, errno := f.surface.Statfs(ctx, "/")
	switch errno {
	case 0:
	case native.ENOTSUP:
		return nil
	default:
		return toError(errno)
	}
	resp.Blocks = st.Blocks
	resp.Bfree = st.Bfree
	resp.Bavail = st.Bavail
	resp.Files = st.Files
	resp.Ffree = st.Ffree
	resp.Bsize = st.Bsize
	resp.Namelen = st.Namelen
	resp.Frsize = st.Frsize
	return nil
}

// Destroy drains the surface when the kernel tears the mount down.
func (f *FS) Destroy() {
	if u, ok := f.surface.(native.Unmounter); ok {
		if err := u.Unmount(context.Background()); err != nil {
			f.log.WithError(err).Warn("unmount left errors behind")
		}
	}
}

func (f *FS) node(p string) Node {
	return Node{fs: f, ino: f.inodes.Inode(p)}
}

func (f *FS) track(h *Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set, ok := f.open[h.node.ino]
	if !ok {
		set = make(map[*Handle]struct{})
		f.open[h.node.ino] = set
	}
	set[h] = struct{}{}
}

func (f *FS) untrack(h *Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	set := f.open[h.node.ino]
	delete(set, h)
	if len(set) == 0 {
		delete(f.open, h.node.ino)
	}
}

func (f *FS) handlesFor(ino uint64) []*Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Handle, 0, len(f.open[ino]))
	for h := range f.open[ino] {
		out = append(out, h)
	}
	return out
}

// toError converts a surface errno into what bazil expects back.
func toError(errno syscall.Errno) error {
	if errno == 0 {
		return nil
	}
	return fuse.Errno(errno)
}

// Node is a file, directory or symlink, identified by its registry inode.
// Node values compare equal for the same path, which lets bazil reuse node
// ids across lookups.
type Node struct {
	fs  *FS
	ino uint64
}

var (
	_ fs.Node               = Node{}
	_ fs.NodeStringLookuper = Node{}
	_ fs.HandleReadDirAller = Node{}
	_ fs.NodeOpener         = Node{}
	_ fs.NodeCreater        = Node{}
	_ fs.NodeMkdirer        = Node{}
	_ fs.NodeRemover        = Node{}
	_ fs.NodeRenamer        = Node{}
	_ fs.NodeSetattrer      = Node{}
	_ fs.NodeReadlinker     = Node{}
	_ fs.NodeSymlinker      = Node{}
	_ fs.NodeLinker         = Node{}
	_ fs.NodeFsyncer        = Node{}
	_ fs.NodeGetxattrer     = Node{}
	_ fs.NodeSetxattrer     = Node{}
	_ fs.NodeListxattrer    = Node{}
	_ fs.NodeRemovexattrer  = Node{}
)

// path resolves the node. A node whose path was removed underneath it is
// stale.
func (n Node) path() (string, error) {
	p, err := n.fs.inodes.Path(n.ino)
	if err != nil {
		return "", syscall.ESTALE
	}
	return p, nil
}

func (n Node) child(name string) (string, error) {
	p, err := n.path()
	if err != nil {
		return "", err
	}
	return path.Join(p, name), nil
}

// Attr fills a from the surface's Getattr.
func (n Node) Attr(ctx context.Context, a *fuse.Attr) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	st, errno := n.fs.surface.Getattr(ctx, p)
	if errno != 0 {
		return toError(errno)
	}
	fillAttr(a, n.ino, st)
	return nil
}

func fillAttr(a *fuse.Attr, ino uint64, st filesystem.Stat) {
	a.Inode = ino
	a.Mode = st.Mode
	a.Nlink = st.Nlink
	a.Uid = st.Uid
	a.Gid = st.Gid
	a.Rdev = st.Rdev
	a.Size = st.Size
	a.Blocks = st.Blocks
	a.BlockSize = st.Blksize
	a.Atime = st.Atime
	a.Mtime = st.Mtime
	a.Ctime = st.Ctime
}

// Lookup resolves name in this directory. The surface is asked for the
// child's attributes so that missing names fail here.
func (n Node) Lookup(ctx context.Context, name string) (fs.Node, error) {
	p, err := n.child(name)
	if err != nil {
		return nil, err
	}
	if _, errno := n.fs.surface.Getattr(ctx, p); errno != 0 {
		return nil, toError(errno)
	}
	return n.fs.node(p), nil
}

// ReadDirAll lists directory contents
func (n Node) ReadDirAll(ctx context.Context) ([]fuse.Dirent, error) {
	p, err := n.path()
	if err != nil {
		return nil, err
	}
	entries, errno := n.fs.surface.Readdir(ctx, p)
	if errno != 0 {
		return nil, toError(errno)
	}

	dirents := make([]fuse.Dirent, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		dirents = append(dirents, fuse.Dirent{
			Inode: n.fs.inodes.Inode(path.Join(p, e.Name)),
			Name:  e.Name,
			Type:  direntType(e.Mode),
		})
	}
	return dirents, nil
}

func direntType(mode os.FileMode) fuse.DirentType {
	switch {
	case mode.IsDir():
		return fuse.DT_Dir
	case mode&os.ModeSymlink != 0:
		return fuse.DT_Link
	case mode&os.ModeNamedPipe != 0:
		return fuse.DT_FIFO
	case mode&os.ModeSocket != 0:
		return fuse.DT_Socket
	case mode&os.ModeCharDevice != 0:
		return fuse.DT_Char
	case mode&os.ModeDevice != 0:
		return fuse.DT_Block
	case mode.IsRegular():
		return fuse.DT_File
	default:
		return fuse.DT_Unknown
	}
}

// Open opens a file through the surface. Directories are their own handle.
func (n Node) Open(ctx context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fs.Handle, error) {
	if req.Dir {
		return n, nil
	}
	p, err := n.path()
	if err != nil {
		return nil, err
	}
	fh, errno := n.fs.surface.Open(ctx, p, int(req.Flags))
	if errno != 0 {
		return nil, toError(errno)
	}
	return n.fs.newHandle(n, p, fh), nil
}

// Create creates and opens a new file
func (n Node) Create(ctx context.Context, req *fuse.CreateRequest, resp *fuse.CreateResponse) (fs.Node, fs.Handle, error) {
	p, err := n.child(req.Name)
	if err != nil {
		return nil, nil, err
	}
	fh, errno := n.fs.surface.Create(ctx, p, req.Mode, int(req.Flags))
	if errno == native.ENOTSUP {
		fh, errno = n.createByOpen(ctx, p, req)
	}
	if errno != 0 {
		return nil, nil, toError(errno)
	}

	child := n.fs.node(p)
	h := n.fs.newHandle(child, p, fh)
	if err := child.Attr(ctx, &resp.Attr); err != nil {
		n.fs.log.WithField("path", p).WithError(err).Debug("getattr after create failed")
	}
	return child, h, nil
}

// createByOpen serves create on surfaces that only know open, such as
// adapted Gen2 filesystems, by opening with O_CREAT and applying the mode
// afterwards.
func (n Node) createByOpen(ctx context.Context, p string, req *fuse.CreateRequest) (native.Handle, syscall.Errno) {
	fh, errno := n.fs.surface.Open(ctx, p, int(req.Flags)|os.O_CREATE)
	if errno != 0 {
		return 0, errno
	}
	if errno := n.fs.surface.Chmod(ctx, p, req.Mode.Perm()); errno != 0 {
		n.fs.log.WithFields(logrus.Fields{"path": p, "errno": errno.Error()}).Debug("chmod after create failed")
	}
	return fh, 0
}

// Mkdir creates a new directory
func (n Node) Mkdir(ctx context.Context, req *fuse.MkdirRequest) (fs.Node, error) {
	p, err := n.child(req.Name)
	if err != nil {
		return nil, err
	}
	if errno := n.fs.surface.Mkdir(ctx, p, req.Mode); errno != 0 {
		return nil, toError(errno)
	}
	return n.fs.node(p), nil
}

// Remove unlinks a file or removes an empty directory.
func (n Node) Remove(ctx context.Context, req *fuse.RemoveRequest) error {
	p, err := n.child(req.Name)
	if err != nil {
		return err
	}
	var errno syscall.Errno
	if req.Dir {
		errno = n.fs.surface.Rmdir(ctx, p)
	} else {
		errno = n.fs.surface.Unlink(ctx, p)
	}
	if errno != 0 {
		return toError(errno)
	}
	n.fs.inodes.Forget(p)
	return nil
}

// Rename moves an entry of this directory into newDir.
func (n Node) Rename(ctx context.Context, req *fuse.RenameRequest, newDir fs.Node) error {
	target, ok := newDir.(Node)
	if !ok {
		return syscall.EXDEV
	}
	from, err := n.child(req.OldName)
	if err != nil {
		return err
	}
	to, err := target.child(req.NewName)
	if err != nil {
		return err
	}
	if errno := n.fs.surface.Rename(ctx, from, to); errno != 0 {
		return toError(errno)
	}
	if err := n.fs.inodes.Rename(from, to); err != nil {
		n.fs.log.WithFields(logrus.Fields{"from": from, "to": to}).WithError(err).Warn("inode registry out of sync")
	}
	return nil
}

// Setattr applies each valid attribute through the matching surface call,
// then reports the resulting attributes.
func (n Node) Setattr(ctx context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	s := n.fs.surface

	if req.Valid.Mode() {
		if errno := s.Chmod(ctx, p, req.Mode); errno != 0 {
			return toError(errno)
		}
	}

	if req.Valid.Uid() || req.Valid.Gid() {
		uid, gid := req.Uid, req.Gid
		if !req.Valid.Uid() || !req.Valid.Gid() {
			cur, errno := s.Getattr(ctx, p)
			if errno != 0 {
				return toError(errno)
			}
			if !req.Valid.Uid() {
				uid = cur.Uid
			}
			if !req.Valid.Gid() {
				gid = cur.Gid
			}
		}
		if errno := s.Chown(ctx, p, uid, gid); errno != 0 {
			return toError(errno)
		}
	}

	if req.Valid.Size() {
		if errno := s.Truncate(ctx, p, req.Size); errno != 0 {
			return toError(errno)
		}
	}

	if req.Valid.Atime() || req.Valid.Mtime() || req.Valid.AtimeNow() || req.Valid.MtimeNow() {
		cur, errno := s.Getattr(ctx, p)
		if errno != 0 {
			return toError(errno)
		}
		now := time.Now()
		atime, mtime := cur.Atime, cur.Mtime
		switch {
		case req.Valid.AtimeNow():
			atime = now
		case req.Valid.Atime():
			atime = req.Atime
		}
		switch {
		case req.Valid.MtimeNow():
			mtime = now
		case req.Valid.Mtime():
			mtime = req.Mtime
		}
		if errno := s.Utime(ctx, p, atime, mtime); errno != 0 {
			return toError(errno)
		}
	}

	return n.Attr(ctx, &resp.Attr)
}

func (n Node) Readlink(ctx context.Context, req *fuse.ReadlinkRequest) (string, error) {
	p, err := n.path()
	if err != nil {
		return "", err
	}
	target, errno := n.fs.surface.Readlink(ctx, p)
	return target, toError(errno)
}

func (n Node) Symlink(ctx context.Context, req *fuse.SymlinkRequest) (fs.Node, error) {
	p, err := n.child(req.NewName)
	if err != nil {
		return nil, err
	}
	if errno := n.fs.surface.Symlink(ctx, req.Target, p); errno != 0 {
		return nil, toError(errno)
	}
	return n.fs.node(p), nil
}

func (n Node) Link(ctx context.Context, req *fuse.LinkRequest, old fs.Node) (fs.Node, error) {
	src, ok := old.(Node)
	if !ok {
		return nil, syscall.EXDEV
	}
	from, err := src.path()
	if err != nil {
		return nil, err
	}
	to, err := n.child(req.NewName)
	if err != nil {
		return nil, err
	}
	if errno := n.fs.surface.Link(ctx, from, to); errno != 0 {
		return nil, toError(errno)
	}
	return n.fs.node(to), nil
}

// Fsync syncs every handle this mount holds open on the node. bazil
// delivers fsync to the node, not the handle.
func (n Node) Fsync(ctx context.Context, req *fuse.FsyncRequest) error {
	if req.Dir {
		return nil
	}
	p, err := n.path()
	if err != nil {
		return err
	}
	datasync := req.Flags&1 != 0
	for _, h := range n.fs.handlesFor(n.ino) {
		if errno := n.fs.surface.Fsync(ctx, p, h.fh, datasync); errno != 0 {
			return toError(errno)
		}
	}
	return nil
}

func (n Node) Getxattr(ctx context.Context, req *fuse.GetxattrRequest, resp *fuse.GetxattrResponse) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	value, errno := n.fs.surface.Getxattr(ctx, p, req.Name)
	if errno != 0 {
		return toError(errno)
	}
	resp.Xattr = value
	return nil
}

func (n Node) Setxattr(ctx context.Context, req *fuse.SetxattrRequest) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	return toError(n.fs.surface.Setxattr(ctx, p, req.Name, req.Xattr, req.Flags))
}

func (n Node) Listxattr(ctx context.Context, req *fuse.ListxattrRequest, resp *fuse.ListxattrResponse) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	names, errno := n.fs.surface.Listxattr(ctx, p)
	if errno != 0 {
		return toError(errno)
	}
	resp.Append(names...)
	return nil
}

func (n Node) Removexattr(ctx context.Context, req *fuse.RemovexattrRequest) error {
	p, err := n.path()
	if err != nil {
		return err
	}
	return toError(n.fs.surface.Removexattr(ctx, p, req.Name))
}

package examplefs

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/pkg/xattr"
	"golang.org/x/sys/unix"
)

// Passthrough is a Gen3 filesystem mirroring a host directory. Its file
// handles are *os.File values opened on the host.
type Passthrough struct {
	root     string
	readOnly bool
}

var _ filesystem.Filesystem3 = (*Passthrough)(nil)

// NewPassthrough mirrors root, which must be an existing directory.
func NewPassthrough(root string, readOnly bool) (*Passthrough, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return nil, ErrSourceNotDirectory
	}
	return &Passthrough{root: abs, readOnly: readOnly}, nil
}

// Root returns the mirrored host directory.
func (p *Passthrough) Root() string {
	return p.root
}

// real maps a filesystem path onto the host. Paths are always rooted and
// cleaned, so they cannot climb out of root.
func (p *Passthrough) real(path string) string {
	return filepath.Join(p.root, filepath.FromSlash(filepath.Clean("/"+path)))
}

func (p *Passthrough) writable(op, path string) error {
	if p.readOnly {
		return filesystem.ReadOnly(op, path)
	}
	return nil
}

func (p *Passthrough) Getattr(ctx context.Context, path string) (filesystem.Stat, error) {
	var st unix.Stat_t
	if err := unix.Lstat(p.real(path), &st); err != nil {
		return filesystem.Stat{}, err
	}
	return statFromUnix(&st), nil
}

func statFromUnix(st *unix.Stat_t) filesystem.Stat {
	return filesystem.Stat{
		Inode:   st.Ino,
		Mode:    fileMode(uint32(st.Mode)),
		Nlink:   uint32(st.Nlink),
		Uid:     st.Uid,
		Gid:     st.Gid,
		Rdev:    uint32(st.Rdev),
		Size:    uint64(st.Size),
		Blocks:  uint64(st.Blocks),
		Blksize: uint32(st.Blksize),
		Atime:   time.Unix(st.Atim.Unix()),
		Mtime:   time.Unix(st.Mtim.Unix()),
		Ctime:   time.Unix(st.Ctim.Unix()),
	}
}

// fileMode converts a raw st_mode into an os.FileMode.
func fileMode(m uint32) os.FileMode {
	mode := os.FileMode(m & 0o777)
	switch m & unix.S_IFMT {
	case unix.S_IFDIR:
		mode |= os.ModeDir
	case unix.S_IFLNK:
		mode |= os.ModeSymlink
	case unix.S_IFIFO:
		mode |= os.ModeNamedPipe
	case unix.S_IFSOCK:
		mode |= os.ModeSocket
	case unix.S_IFCHR:
		mode |= os.ModeDevice | os.ModeCharDevice
	case unix.S_IFBLK:
		mode |= os.ModeDevice
	}
	if m&unix.S_ISUID != 0 {
		mode |= os.ModeSetuid
	}
	if m&unix.S_ISGID != 0 {
		mode |= os.ModeSetgid
	}
	if m&unix.S_ISVTX != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

func (p *Passthrough) Readlink(ctx context.Context, path string) (string, error) {
	return os.Readlink(p.real(path))
}

func (p *Passthrough) Readdir(ctx context.Context, path string) ([]filesystem.DirEntry, error) {
	des, err := os.ReadDir(p.real(path))
	if err != nil {
		return nil, err
	}
	entries := make([]filesystem.DirEntry, 0, len(des))
	for _, de := range des {
		entries = append(entries, filesystem.DirEntry{Name: de.Name(), Mode: de.Type()})
	}
	return entries, nil
}

func (p *Passthrough) Mkdir(ctx context.Context, path string, mode os.FileMode) error {
	if err := p.writable("mkdir", path); err != nil {
		return err
	}
	return os.Mkdir(p.real(path), mode.Perm())
}

func (p *Passthrough) Unlink(ctx context.Context, path string) error {
	if err := p.writable("unlink", path); err != nil {
		return err
	}
	return unix.Unlink(p.real(path))
}

func (p *Passthrough) Rmdir(ctx context.Context, path string) error {
	if err := p.writable("rmdir", path); err != nil {
		return err
	}
	return unix.Rmdir(p.real(path))
}

// Symlink stores target verbatim; it is resolved by whoever follows the
// link, not here.
func (p *Passthrough) Symlink(ctx context.Context, target, link string) error {
	if err := p.writable("symlink", link); err != nil {
		return err
	}
	return os.Symlink(target, p.real(link))
}

func (p *Passthrough) Rename(ctx context.Context, from, to string) error {
	if err := p.writable("rename", from); err != nil {
		return err
	}
	return os.Rename(p.real(from), p.real(to))
}

func (p *Passthrough) Link(ctx context.Context, from, to string) error {
	if err := p.writable("link", to); err != nil {
		return err
	}
	return os.Link(p.real(from), p.real(to))
}

func (p *Passthrough) Chmod(ctx context.Context, path string, mode os.FileMode) error {
	if err := p.writable("chmod", path); err != nil {
		return err
	}
	return os.Chmod(p.real(path), mode)
}

func (p *Passthrough) Chown(ctx context.Context, path string, uid, gid uint32) error {
	if err := p.writable("chown", path); err != nil {
		return err
	}
	return os.Lchown(p.real(path), int(uid), int(gid))
}

func (p *Passthrough) Truncate(ctx context.Context, path string, size uint64) error {
	if err := p.writable("truncate", path); err != nil {
		return err
	}
	return os.Truncate(p.real(path), int64(size))
}

func (p *Passthrough) Utime(ctx context.Context, path string, atime, mtime time.Time) error {
	if err := p.writable("utime", path); err != nil {
		return err
	}
	return os.Chtimes(p.real(path), atime, mtime)
}

func (p *Passthrough) Statfs(ctx context.Context) (filesystem.StatFS, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(p.root, &st); err != nil {
		return filesystem.StatFS{}, err
	}
	return filesystem.StatFS{
		Blocks:  st.Blocks,
		Bfree:   st.Bfree,
		Bavail:  st.Bavail,
		Files:   st.Files,
		Ffree:   st.Ffree,
		Bsize:   uint32(st.Bsize),
		Namelen: uint32(st.Namelen),
		Frsize:  uint32(st.Frsize),
	}, nil
}

// openFlags strips what would break positional I/O on the host file. The
// kernel already turns appends into writes at the end of the file.
func openFlags(flags int) int {
	return flags &^ os.O_APPEND
}

func (p *Passthrough) Open(ctx context.Context, path string, flags int) (filesystem.FileHandle, error) {
	if flags&(os.O_WRONLY|os.O_RDWR|os.O_TRUNC) != 0 {
		if err := p.writable("open", path); err != nil {
			return nil, err
		}
	}
	f, err := os.OpenFile(p.real(path), openFlags(flags), 0)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (p *Passthrough) Create(ctx context.Context, path string, mode os.FileMode, flags int) (filesystem.FileHandle, error) {
	if err := p.writable("create", path); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(p.real(path), openFlags(flags)|os.O_CREATE, mode.Perm())
	if err != nil {
		return nil, err
	}
	return f, nil
}

// file unpacks a handle this filesystem minted.
func file(op, path string, fh filesystem.FileHandle) (*os.File, error) {
	f, ok := fh.(*os.File)
	if !ok || f == nil {
		return nil, filesystem.NewError(filesystem.KindBadHandle, op, path)
	}
	return f, nil
}

func (p *Passthrough) Read(ctx context.Context, path string, fh filesystem.FileHandle, buf []byte, offset int64) (int, error) {
	f, err := file("read", path, fh)
	if err != nil {
		return 0, err
	}
	n, err := f.ReadAt(buf, offset)
	if errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

func (p *Passthrough) Write(ctx context.Context, path string, fh filesystem.FileHandle, data []byte, offset int64) (int, error) {
	f, err := file("write", path, fh)
	if err != nil {
		return 0, err
	}
	return f.WriteAt(data, offset)
}

func (p *Passthrough) Flush(ctx context.Context, path string, fh filesystem.FileHandle) error {
	_, err := file("flush", path, fh)
	return err
}

func (p *Passthrough) Release(ctx context.Context, path string, fh filesystem.FileHandle, flags int) error {
	f, err := file("release", path, fh)
	if err != nil {
		return err
	}
	return f.Close()
}

func (p *Passthrough) Fsync(ctx context.Context, path string, fh filesystem.FileHandle, datasync bool) error {
	f, err := file("fsync", path, fh)
	if err != nil {
		return err
	}
	if datasync {
		return unix.Fdatasync(int(f.Fd()))
	}
	return f.Sync()
}

func (p *Passthrough) Getxattr(ctx context.Context, path, name string) ([]byte, error) {
	return xattr.LGet(p.real(path), name)
}

func (p *Passthrough) Setxattr(ctx context.Context, path, name string, value []byte, flags uint32) error {
	if err := p.writable("setxattr", path); err != nil {
		return err
	}
	return xattr.LSetWithFlags(p.real(path), name, value, int(flags))
}

func (p *Passthrough) Listxattr(ctx context.Context, path string) ([]string, error) {
	return xattr.LList(p.real(path))
}

func (p *Passthrough) Removexattr(ctx context.Context, path, name string) error {
	if err := p.writable("removexattr", path); err != nil {
		return err
	}
	return xattr.LRemove(p.real(path), name)
}

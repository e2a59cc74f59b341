package native

import (
	"errors"
	"io/fs"
	"syscall"

	"bazil.org/fuse"
	"github.com/dendrascience/fusecompat/filesystem"
)

// ENOTSUP is reported for operations the filesystem's generation lacks.
const ENOTSUP = syscall.ENOTSUP

var kindErrno = map[filesystem.Kind]syscall.Errno{
	filesystem.KindNotFound:     syscall.ENOENT,
	filesystem.KindPermission:   syscall.EPERM,
	filesystem.KindAccess:       syscall.EACCES,
	filesystem.KindExists:       syscall.EEXIST,
	filesystem.KindNotEmpty:     syscall.ENOTEMPTY,
	filesystem.KindNotDir:       syscall.ENOTDIR,
	filesystem.KindIsDir:        syscall.EISDIR,
	filesystem.KindInvalid:      syscall.EINVAL,
	filesystem.KindNoSpace:      syscall.ENOSPC,
	filesystem.KindReadOnly:     syscall.EROFS,
	filesystem.KindNameTooLong:  syscall.ENAMETOOLONG,
	filesystem.KindCrossDevice:  syscall.EXDEV,
	filesystem.KindNoAttr:       syscall.Errno(fuse.ErrNoXattr),
	filesystem.KindRange:        syscall.ERANGE,
	filesystem.KindBadHandle:    syscall.EBADF,
	filesystem.KindNotSupported: ENOTSUP,
	filesystem.KindBusy:         syscall.EBUSY,
}

// Errno maps err to the errno reported to the kernel. The mapping is total:
// errors that carry no filesystem meaning become EIO.
func Errno(err error) syscall.Errno {
	errno, _ := toErrno(err)
	return errno
}

// toErrno reports whether err was recognized as a filesystem error. Callers
// log the unrecognized ones. A known Kind takes precedence over any errno the
// *filesystem.Error wraps.
func toErrno(err error) (syscall.Errno, bool) {
	if err == nil {
		return 0, true
	}

	var fe *filesystem.Error
	if errors.As(err, &fe) {
		if errno, ok := kindErrno[fe.Kind]; ok {
			return errno, true
		}
	}

	var errno syscall.Errno
	if errors.As(err, &errno) && errno != 0 {
		return errno, true
	}

	var en fuse.ErrorNumber
	if errors.As(err, &en) {
		if errno := syscall.Errno(en.Errno()); errno != 0 {
			return errno, true
		}
	}

	switch {
	case errors.Is(err, filesystem.ErrNotSupported):
		return ENOTSUP, true
	case errors.Is(err, fs.ErrNotExist):
		return syscall.ENOENT, true
	case errors.Is(err, fs.ErrExist):
		return syscall.EEXIST, true
	case errors.Is(err, fs.ErrPermission):
		return syscall.EACCES, true
	case errors.Is(err, fs.ErrInvalid):
		return syscall.EINVAL, true
	case errors.Is(err, fs.ErrClosed):
		return syscall.EBADF, true
	}

	return syscall.EIO, false
}

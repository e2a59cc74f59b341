package filesystem

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned for operations a filesystem does not provide,
// including every operation that did not exist yet in its generation.
var ErrNotSupported = errors.New("operation not supported")

// Kind classifies a filesystem failure. Each kind has exactly one native errno.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindPermission // operation not permitted (EPERM)
	KindAccess     // permission bits deny access (EACCES)
	KindExists
	KindNotEmpty
	KindNotDir
	KindIsDir
	KindInvalid
	KindNoSpace
	KindReadOnly
	KindNameTooLong
	KindCrossDevice
	KindNoAttr
	KindRange
	KindBadHandle
	KindNotSupported
	KindBusy
)

var kindNames = map[Kind]string{
	KindUnknown:      "unknown",
	KindNotFound:     "no such file or directory",
	KindPermission:   "operation not permitted",
	KindAccess:       "permission denied",
	KindExists:       "file exists",
	KindNotEmpty:     "directory not empty",
	KindNotDir:       "not a directory",
	KindIsDir:        "is a directory",
	KindInvalid:      "invalid argument",
	KindNoSpace:      "no space left on device",
	KindReadOnly:     "read-only file system",
	KindNameTooLong:  "file name too long",
	KindCrossDevice:  "cross-device link",
	KindNoAttr:       "no such attribute",
	KindRange:        "result too large",
	KindBadHandle:    "bad file handle",
	KindNotSupported: "operation not supported",
	KindBusy:         "resource busy",
}

// String returns a string representation of the Kind.
func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return kindNames[KindUnknown]
}

// Error is a filesystem failure tagged with its Kind.
type Error struct {
	Kind Kind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Op != "":
		return e.Op + ": " + msg
	case e.Path != "":
		return e.Path + ": " + msg
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrNotSupported) hold for KindNotSupported errors.
func (e *Error) Is(target error) bool {
	return target == ErrNotSupported && e.Kind == KindNotSupported
}

// NewError builds an *Error.
func NewError(kind Kind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

// Wrap tags err with kind. It returns nil when err is nil.
func Wrap(kind Kind, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// NotFound reports a missing path.
func NotFound(op, path string) error { return NewError(KindNotFound, op, path) }

// Exists reports an existing path where none was expected.
func Exists(op, path string) error { return NewError(KindExists, op, path) }

// NotDir reports a path component that is not a directory.
func NotDir(op, path string) error { return NewError(KindNotDir, op, path) }

// IsDir reports a directory where a file was expected.
func IsDir(op, path string) error { return NewError(KindIsDir, op, path) }

// NotEmpty reports a directory that still has entries.
func NotEmpty(op, path string) error { return NewError(KindNotEmpty, op, path) }

// Access reports permission bits denying access.
func Access(op, path string) error { return NewError(KindAccess, op, path) }

// Invalid reports an invalid argument.
func Invalid(op, path string) error { return NewError(KindInvalid, op, path) }

// NoAttr reports a missing extended attribute.
func NoAttr(op, path string) error { return NewError(KindNoAttr, op, path) }

// ReadOnly reports a write to a read-only filesystem.
func ReadOnly(op, path string) error { return NewError(KindReadOnly, op, path) }

// Permission reports an operation not permitted.
func Permission(op, path string) error { return NewError(KindPermission, op, path) }

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}

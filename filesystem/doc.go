// Package filesystem defines the three generations of filesystem contract that
// user code implements and that the rest of fusecompat adapts onto the native
// FUSE callback surface.
//
// Each generation is a strict superset of the operations of the one before it:
//
//   - Filesystem1: a stateless, path-based API. Reads and writes address a path
//     and an offset; there is no open/close lifecycle.
//   - Filesystem2: Filesystem1 plus open/flush/release/fsync lifecycle hooks,
//     still path-based.
//   - Filesystem3: structured Stat results, explicit FileHandle objects
//     returned from Open and Create, and extended attributes.
//
// Operations report failures through ordinary Go errors. Errors that carry
// filesystem meaning should be built with the helpers in this package (or be a
// syscall.Errno, or wrap one of the io/fs sentinel errors) so that the native
// layer can translate them into a precise errno. Anything else is reported to
// the kernel as EIO.
//
// Authors who only need a handful of operations can embed Unimplemented1,
// Unimplemented2 or Unimplemented3, which answer ErrNotSupported for every
// method.
package filesystem

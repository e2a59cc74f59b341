// Package native bridges the newest filesystem contract to the native FUSE
// callback surface.
//
// FS is the callback surface: one method per kernel operation, each taking
// primitive path/offset/buffer/flag arguments and returning a syscall.Errno
// (zero on success) plus any out values. Adapter is the terminal adapter that
// implements FS on top of a filesystem.Filesystem3. It owns the table mapping
// native file handles to the FileHandle values the filesystem returned, turns
// every error into exactly one errno and never lets a failure in user code
// escape as a crash.
//
// Adapt inspects a filesystem value of unknown generation once, picks the
// highest contract it satisfies and builds the adapter chain:
//
//	Gen3: Adapter{fs}
//	Gen2: Adapter{Gen2ToGen3{fs}}
//	Gen1: Adapter{Gen2ToGen3{Gen1ToGen2{fs}}}
//
// Values that satisfy none of the contracts yield ErrUnrecognizedFilesystem.
package native

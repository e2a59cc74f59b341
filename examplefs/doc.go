// Package examplefs holds small filesystems, one per contract generation,
// that the fusecompat command can mount.
//
//   - Hello implements Filesystem1: a read-only root holding one file.
//   - MemFS implements Filesystem2: an in-memory tree with open-file hooks.
//   - Passthrough implements Filesystem3: a mirror of a host directory with
//     real file handles and extended attributes.
//
// They double as fixtures for the adapter chain tests.
package examplefs

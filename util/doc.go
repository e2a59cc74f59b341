// Package util provides shared building blocks for the fusecompat bridge.
//
// InodeRegistry hands out stable inode numbers per path. The kernel bridge
// keys its nodes on these numbers and resolves them back to paths on every
// callback, so a node stays valid across renames of itself or any of its
// parents.
//
// The registry is safe for concurrent use.
package util

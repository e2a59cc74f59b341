// Package bridge serves a native.FS through bazil.org/fuse.
//
// Nodes carry nothing but an inode number from util.InodeRegistry and
// resolve it to the current path on every request, so the surface below
// always sees plain absolute paths. Directories act as their own handles.
// File handles wrap the native.Handle minted by the surface's Open or Create.
//
// Mount ties a bazil connection, the bridge and the surface together and
// makes sure the surface is drained once the kernel lets go of the mount.
package bridge

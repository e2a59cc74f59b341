// Package compat upgrades older filesystem generations to newer ones.
//
// Gen1ToGen2 exposes a Filesystem1 as a Filesystem2 and Gen2ToGen3 exposes a
// Filesystem2 as a Filesystem3. They compose: a Gen1 filesystem becomes a Gen3
// one through Gen2ToGen3{Gen1ToGen2{fs}}. Operations introduced by the newer
// generation answer filesystem.ErrNotSupported instead of failing the mount.
package compat

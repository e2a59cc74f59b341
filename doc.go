// Package main provides the fusecompat command-line interface.
//
// fusecompat serves filesystems written against any of three contract
// generations through FUSE. Older generations are upgraded by a chain of
// adapters until they meet the native callback surface the kernel bridge
// consumes.
//
// The main binary supports multiple subcommands:
//   - mount: Mount an example filesystem at a specified mountpoint
//   - probe: Show the generation and adapter chain of each example filesystem
//   - version: Print build information
package main

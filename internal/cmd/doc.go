// Package cmd provides the command-line interface implementation for fusecompat.
//
// It uses the Cobra library for command structure and Fang for styling.
//
// The package is organized into the following commands:
//   - root: Main command coordinator and entry point
//   - mount: Mount an example filesystem through the adapter chain
//   - probe: Report the generation and adapter chain per filesystem
//   - version: Build information
//
// Each command is implemented as a separate file with its own constructor function
// that returns a *cobra.Command. Configuration for mount is resolved by the
// internal/config package and logging by internal/logging.
package cmd

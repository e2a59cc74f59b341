package native

import "errors"

// Sentinel errors for package native.
var (
	// ErrUnrecognizedFilesystem is returned by Adapt for values that satisfy
	// none of the filesystem contracts.
	ErrUnrecognizedFilesystem = errors.New("unrecognized filesystem type")

	// ErrForcedRelease wraps release failures hit while draining handles at
	// unmount.
	ErrForcedRelease = errors.New("forced release failed")
)

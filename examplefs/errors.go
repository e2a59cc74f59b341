package examplefs

import "errors"

// Sentinel errors for package examplefs.
var (
	ErrSourceNotDirectory = errors.New("passthrough source is not a directory")
	ErrUnknownFilesystem  = errors.New("unknown example filesystem")
)

package util

import "errors"

// Sentinel errors for package util.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Inode errors
	ErrInodeNotFound = errors.New("inode not found in registry")
	ErrRootRename    = errors.New("cannot rename the root directory")
)

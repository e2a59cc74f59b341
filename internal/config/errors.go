package config

import "errors"

// Sentinel errors for package config.
var (
	ErrInvalidConfig          = errors.New("invalid configuration")
	ErrOverlappingPaths       = errors.New("source and mountpoint overlap")
	ErrMountpointNotDirectory = errors.New("mountpoint is not a directory")
)

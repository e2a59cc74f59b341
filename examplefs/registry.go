package examplefs

import (
	"fmt"
	"slices"
)

// Names of the filesystems New can build.
const (
	NameHello       = "hello"
	NameMemFS       = "memfs"
	NamePassthrough = "passthrough"
)

// Names returns every name New accepts, sorted.
func Names() []string {
	names := []string{NameHello, NameMemFS, NamePassthrough}
	slices.Sort(names)
	return names
}

// New builds the named filesystem. source is only used by passthrough.
// The result is meant for native.Adapt, which works out its generation.
func New(name, source string, readOnly bool) (any, error) {
	switch name {
	case NameHello:
		return NewHello(), nil
	case NameMemFS:
		return NewMemFS(), nil
	case NamePassthrough:
		p, err := NewPassthrough(source, readOnly)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFilesystem, name)
	}
}

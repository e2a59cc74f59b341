package native

import (
	"fmt"

	"github.com/dendrascience/fusecompat/compat"
	"github.com/dendrascience/fusecompat/filesystem"
	"github.com/sirupsen/logrus"
	"github.com/taigrr/colorhash"
)

// Stage names reported by Adapter.Chain.
const (
	StageNative     = "native"
	StageGen2ToGen3 = "gen2to3"
	StageGen1ToGen2 = "gen1to2"
)

// Adapt detects the generation of v and builds the adapter chain that
// exposes it through the native surface. A nil log is replaced with
// DefaultLogger(v). Values satisfying no generation are rejected with an
// error wrapping ErrUnrecognizedFilesystem.
func Adapt(v any, log logrus.FieldLogger) (*Adapter, error) {
	if log == nil {
		log = DefaultLogger(v)
	}

	switch fs := v.(type) {
	case filesystem.Filesystem3:
		return Adapt3(fs, log), nil
	case filesystem.Filesystem2:
		return Adapt2(fs, log), nil
	case filesystem.Filesystem1:
		return Adapt1(fs, log), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnrecognizedFilesystem, v)
	}
}

// AdaptDefault is Adapt with the default diagnostic sink.
func AdaptDefault(v any) (*Adapter, error) {
	return Adapt(v, nil)
}

// Adapt3 serves a Gen3 filesystem directly.
func Adapt3(fs filesystem.Filesystem3, log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = DefaultLogger(fs)
	}
	return newAdapter(fs, filesystem.Gen3, []string{StageNative}, log)
}

// Adapt2 upgrades a Gen2 filesystem to Gen3 and serves it.
func Adapt2(fs filesystem.Filesystem2, log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = DefaultLogger(fs)
	}
	return newAdapter(compat.NewGen2ToGen3(fs), filesystem.Gen2,
		[]string{StageNative, StageGen2ToGen3}, log)
}

// Adapt1 upgrades a Gen1 filesystem through Gen2 and Gen3 and serves it.
func Adapt1(fs filesystem.Filesystem1, log logrus.FieldLogger) *Adapter {
	if log == nil {
		log = DefaultLogger(fs)
	}
	return newAdapter(compat.NewGen2ToGen3(compat.NewGen1ToGen2(fs)), filesystem.Gen1,
		[]string{StageNative, StageGen2ToGen3, StageGen1ToGen2}, log)
}

// LoggerFields returns the fields that identify v in diagnostics: its
// concrete type and a short tag derived from it, so that concurrent mounts
// are easy to tell apart in a shared log.
func LoggerFields(v any) logrus.Fields {
	name := fmt.Sprintf("%T", v)
	tag := colorhash.HashString(name) % 1000
	if tag < 0 {
		tag = -tag
	}
	return logrus.Fields{
		"fs":     name,
		"fs_tag": fmt.Sprintf("%03d", tag),
	}
}

// DefaultLogger returns the diagnostic sink used when none is supplied.
func DefaultLogger(v any) logrus.FieldLogger {
	return logrus.StandardLogger().WithFields(LoggerFields(v))
}

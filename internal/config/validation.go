package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate = validator.New()

// Validate checks struct tags and the rules tags cannot express.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	mnt, err := filepath.Abs(cfg.Mountpoint)
	if err != nil {
		return fmt.Errorf("mountpoint: %w", err)
	}
	if cfg.Source != "" {
		src, err := filepath.Abs(cfg.Source)
		if err != nil {
			return fmt.Errorf("source: %w", err)
		}
		if PathsOverlap(src, mnt) {
			return fmt.Errorf("%w: source %s, mountpoint %s", ErrOverlappingPaths, src, mnt)
		}
	}

	fi, err := os.Stat(mnt)
	if err != nil {
		return fmt.Errorf("mountpoint: %w", err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("%w: %s", ErrMountpointNotDirectory, mnt)
	}
	return nil
}

// formatValidationError reports the first failed tag with its field.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%w: %s failed on '%s' (value: %v)",
			ErrInvalidConfig, e.Namespace(), e.Tag(), e.Value())
	}
	return err
}

// PathsOverlap reports whether one path contains the other. Mounting over
// the directory being mirrored would make the filesystem read itself.
func PathsOverlap(path1, path2 string) bool {
	abs1, err1 := filepath.Abs(path1)
	abs2, err2 := filepath.Abs(path2)
	if err1 != nil || err2 != nil {
		return false
	}
	return within(abs1, abs2) || within(abs2, abs1)
}

// within reports whether child is parent or lies below it.
func within(parent, child string) bool {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}

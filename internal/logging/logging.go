// Package logging builds the logrus logger the CLI hands to every layer.
package logging

import (
	"fmt"
	"io"
	"os"

	"github.com/dendrascience/fusecompat/internal/config"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a logger configured from cfg. With no file configured the
// logger writes to stderr; otherwise to a lumberjack-rotated file. The
// returned closer releases the file and must be called on exit.
func New(cfg config.LoggingConfig) (*logrus.Logger, io.Closer, error) {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("logging level: %w", err)
	}

	log := logrus.New()
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, nil, fmt.Errorf("logging format %q: %w", cfg.Format, config.ErrInvalidConfig)
	}

	var closer io.Closer = nopCloser{}
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB, // megabytes
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays, // days
			Compress:   true,
		}
		log.SetOutput(lj)
		closer = lj
	} else {
		log.SetOutput(os.Stderr)
	}
	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

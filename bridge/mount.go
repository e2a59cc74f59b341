package bridge

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bazil.org/fuse"
	"bazil.org/fuse/fs"
	"github.com/dendrascience/fusecompat/native"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Options controls how a surface is mounted.
type Options struct {
	FSName     string
	Subtype    string
	AllowOther bool
	ReadOnly   bool
	// Debug logs every FUSE request and response at debug level.
	Debug bool
}

func (o Options) mountOptions() []fuse.MountOption {
	opts := []fuse.MountOption{
		fuse.FSName(o.FSName),
		fuse.Subtype(o.Subtype),
	}
	if o.AllowOther {
		opts = append(opts, fuse.AllowOther())
	}
	if o.ReadOnly {
		opts = append(opts, fuse.ReadOnly())
	}
	return opts
}

// Server is a live mount.
type Server struct {
	ID         uuid.UUID
	Mountpoint string

	conn    *fuse.Conn
	fs      *FS
	surface native.FS
	log     logrus.FieldLogger

	done    chan struct{}
	serveMu sync.Mutex
	err     error

	unmountMu sync.Mutex
	unmounted bool
}

// Mount mounts surface at mountpoint and starts serving it in the
// background.
func Mount(mountpoint string, surface native.FS, opts Options, log logrus.FieldLogger) (*Server, error) {
	if log == nil {
		log = native.DefaultLogger(surface)
	}
	id := uuid.New()
	log = log.WithFields(logrus.Fields{
		"session":    id.String(),
		"mountpoint": mountpoint,
	})

	if opts.FSName == "" {
		opts.FSName = "fusecompat"
	}
	if opts.Subtype == "" {
		opts.Subtype = "fusecompat"
	}

	c, err := fuse.Mount(mountpoint, opts.mountOptions()...)
	if err != nil {
		return nil, fmt.Errorf("mount %s: %w", mountpoint, err)
	}

	s := &Server{
		ID:         id,
		Mountpoint: mountpoint,
		conn:       c,
		fs:         New(surface, log),
		surface:    surface,
		log:        log,
		done:       make(chan struct{}),
	}

	var config fs.Config
	if opts.Debug {
		config.Debug = func(msg interface{}) {
			log.Debug(msg)
		}
	}
	srv := fs.New(c, &config)

	go func() {
		defer close(s.done)
		err := srv.Serve(s.fs)
		s.serveMu.Lock()
		s.err = err
		s.serveMu.Unlock()
	}()

	log.Info("mounted")
	return s, nil
}

// Done is closed once the kernel connection stops being served.
func (s *Server) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until serving stops and returns the serve error, if any.
func (s *Server) Wait() error {
	<-s.done
	s.serveMu.Lock()
	defer s.serveMu.Unlock()
	return s.err
}

// Unmount detaches the mount, waits for serving to stop and drains the
// surface. If the kernel refuses to detach (the mount is busy) nothing is
// torn down and Unmount may be retried. Once it succeeds further calls are
// no-ops.
func (s *Server) Unmount(ctx context.Context) error {
	s.unmountMu.Lock()
	defer s.unmountMu.Unlock()
	if s.unmounted {
		return nil
	}

	if err := fuse.Unmount(s.Mountpoint); err != nil {
		select {
		case <-s.done:
			// already detached from outside, e.g. fusermount -u
		default:
			return fmt.Errorf("unmount %s: %w", s.Mountpoint, err)
		}
	}

	var errs []error
	select {
	case <-s.done:
	case <-ctx.Done():
		errs = append(errs, ctx.Err())
	}

	if err := s.conn.Close(); err != nil {
		errs = append(errs, err)
	}

	if u, ok := s.surface.(native.Unmounter); ok {
		if err := u.Unmount(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	s.unmounted = true

	err := errors.Join(errs...)
	if err != nil {
		s.log.WithError(err).Warn("unmount finished with errors")
	} else {
		s.log.Info("unmounted")
	}
	return err
}

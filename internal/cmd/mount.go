package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "bazil.org/fuse/fs/fstestutil"
	"github.com/dendrascience/fusecompat/bridge"
	"github.com/dendrascience/fusecompat/examplefs"
	"github.com/dendrascience/fusecompat/internal/config"
	"github.com/dendrascience/fusecompat/internal/logging"
	"github.com/dendrascience/fusecompat/native"
	"github.com/dendrascience/fusecompat/version"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewMountCmd creates and returns the mount subcommand for the fusecompat CLI.
func NewMountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount [flags] MOUNTPOINT",
		Short: "Mount an example filesystem",
		Long: `Mount an example filesystem at the specified mountpoint.

MOUNTPOINT may also come from the config file or FUSECOMPAT_MOUNTPOINT.
Every flag has a config file key (dashes become underscores, logging-*
flags live under logging:) and a FUSECOMPAT_* environment variable.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runMount,
	}

	f := cmd.Flags()
	f.String("config", "", "path to a YAML config file")
	f.StringP("filesystem", "f", "memfs", "filesystem to serve: "+strings.Join(examplefs.Names(), ", "))
	f.StringP("source", "s", "", "host directory mirrored by passthrough")
	f.String("fsname", "fusecompat", "filesystem name shown in the mount table")
	f.Bool("allow-other", false, "allow other users to access the mount")
	f.Bool("read-only", false, "mount read-only")
	f.Bool("debug", false, "log every FUSE request at debug level")
	f.String("logging-level", "info", "log level: debug, info, warn, error")
	f.String("logging-format", "text", "log format: text, json")
	f.String("logging-file", "", "log to this file, rotated, instead of stderr")

	return cmd
}

// loadMountConfig merges flags, positional args, env and the config file.
func loadMountConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	l := config.NewLoader()
	if err := l.BindFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if len(args) == 1 {
		l.Set("mountpoint", args[0])
	}
	path, _ := cmd.Flags().GetString("config")
	return l.Load(path)
}

// adapt builds the configured filesystem and its adapter chain.
func adapt(cfg *config.Config, log logrus.FieldLogger) (*native.Adapter, logrus.FieldLogger, error) {
	fsys, err := examplefs.New(cfg.Filesystem, cfg.Source, cfg.ReadOnly)
	if err != nil {
		return nil, nil, err
	}
	log = log.WithFields(native.LoggerFields(fsys))

	adapter, err := native.Adapt(fsys, log)
	if err != nil {
		return nil, nil, err
	}
	log.WithFields(logrus.Fields{
		"generation": adapter.Generation().String(),
		"chain":      strings.Join(adapter.Chain(), " -> "),
	}).Info("filesystem adapted")
	return adapter, log, nil
}

func runMount(cmd *cobra.Command, args []string) error {
	cfg, err := loadMountConfig(cmd, args)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer closer.Close()

	// Print version info on startup
	fmt.Fprintf(cmd.OutOrStdout(), "fusecompat %s starting...\n", version.GetFullVersion())

	adapter, fsLog, err := adapt(cfg, log)
	if err != nil {
		return err
	}

	srv, err := bridge.Mount(cfg.Mountpoint, adapter, bridge.Options{
		FSName:     cfg.FSName,
		Subtype:    cfg.Filesystem,
		AllowOther: cfg.AllowOther,
		ReadOnly:   cfg.ReadOnly,
		Debug:      cfg.Debug,
	}, fsLog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fsLog.Infof("fusecompat %s mounted at %s (session %s)", version.GetVersion(), cfg.Mountpoint, srv.ID)

	select {
	case <-ctx.Done():
		fsLog.Info("Received interrupt signal, shutting down...")
	case <-srv.Done():
		fsLog.Info("Mount detached from outside, shutting down...")
	}

	if err := srv.Unmount(context.Background()); err != nil {
		return err
	}
	if err := srv.Wait(); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	fsLog.Info("Shutdown complete")
	return nil
}

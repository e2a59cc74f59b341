package cmd

import (
	"github.com/dendrascience/fusecompat/version"
	"github.com/spf13/cobra"
)

// NewRootCmd creates and returns the root cobra command for the fusecompat CLI.
// It sets up all subcommands, command groups, and basic configuration.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fusecompat",
		Short: "fusecompat - serve any generation of filesystem through FUSE",
		Long: `fusecompat mounts filesystems written against any of the three filesystem
contract generations. Older generations are upgraded through a chain of
adapters; operations a generation lacks answer "operation not supported"
instead of failing the mount.

Use subcommands to perform different operations:
  - mount: Mount an example filesystem at a specified mountpoint
  - probe: Show the generation and adapter chain of each example filesystem
  - version: Print build information`,
		Version:       version.GetFullVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	groupUtilities := "utilities"
	groupFilesystem := "filesystem"

	// Add command groups for better organization
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupFilesystem,
		Title: "Filesystem Operations",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    groupUtilities,
		Title: "Utility Commands",
	})

	mountCmd := NewMountCmd()
	probeCmd := NewProbeCmd()
	versionCmd := NewVersionCmd()

	mountCmd.GroupID = groupFilesystem
	probeCmd.GroupID = groupUtilities
	versionCmd.GroupID = groupUtilities

	rootCmd.AddCommand(mountCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

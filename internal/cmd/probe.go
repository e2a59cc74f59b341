package cmd

import (
	"fmt"
	"strings"

	"github.com/dendrascience/fusecompat/examplefs"
	"github.com/dendrascience/fusecompat/native"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewProbeCmd creates the probe subcommand, which reports the detected
// generation and adapter chain for each named example filesystem.
func NewProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe [FILESYSTEM...]",
		Short: "Show how each example filesystem is adapted",
		Long: `Probe builds each named example filesystem (all of them by default) and
prints the contract generation it satisfies together with the adapter chain
that serves it, outermost first.`,
		RunE: runProbe,
	}
	cmd.Flags().StringP("source", "s", ".", "host directory used to build passthrough")
	return cmd
}

func runProbe(cmd *cobra.Command, args []string) error {
	names := args
	if len(names) == 0 {
		names = examplefs.Names()
	}
	source, _ := cmd.Flags().GetString("source")

	log := logrus.New()
	log.SetOutput(cmd.ErrOrStderr())

	out := cmd.OutOrStdout()
	for _, name := range names {
		fsys, err := examplefs.New(name, source, true)
		if err != nil {
			return err
		}
		adapter, err := native.Adapt(fsys, log.WithFields(native.LoggerFields(fsys)))
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		fmt.Fprintf(out, "%-12s %-5s %s\n", name, adapter.Generation(), strings.Join(adapter.Chain(), " -> "))
	}
	return nil
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/internal/log"
)

var debug bool

func Root() *cobra.Command {
	cmd := cobra.Command{
		Use:           "mirrordoc",
		Short:         "Keep a structured text document and its node model in sync",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			log.Set(debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			log.Flush()
		},
	}

	pflags := cmd.PersistentFlags()
	pflags.BoolVar(&debug, "debug", false, "Print debug logs to stderr.")

	cmd.AddCommand(fmtCmd())
	cmd.AddCommand(snapshotCmd())
	cmd.AddCommand(diffCmd())
	cmd.AddCommand(syncCmd())
	cmd.AddCommand(archiveCmd())
	cmd.AddCommand(restoreCmd())

	return &cmd
}

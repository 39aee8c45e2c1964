package cmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/pkg/document/sync"
)

func diffCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "diff",
		Short: "Print the structural change-set between two documents",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldData, err := readInput(args[0])
			if err != nil {
				return err
			}
			newData, err := readInput(args[1])
			if err != nil {
				return err
			}

			cs, err := sync.ReconcileTexts(oldData, newData)
			if err != nil {
				return err
			}

			printChangeSet(cmd.OutOrStdout(), cs)
			return nil
		},
	}
	return &cmd
}

func printChangeSet(w io.Writer, cs *sync.ChangeSet) {
	if cs.Empty() {
		_, _ = fmt.Fprintln(w, "no changes")
		return
	}
	for _, c := range cs.Changes {
		_, _ = fmt.Fprintln(w, changeColor(c.Op).Sprint(c.String()))
	}
}

func changeColor(op sync.Op) *color.Color {
	switch op {
	case sync.OpCreate:
		return color.New(color.FgGreen)
	case sync.OpDelete:
		return color.New(color.FgRed)
	case sync.OpLinkAdd, sync.OpLinkRemove:
		return color.New(color.FgYellow)
	case sync.OpFieldChange:
		return color.New(color.FgCyan)
	}
	return color.New(color.Reset)
}

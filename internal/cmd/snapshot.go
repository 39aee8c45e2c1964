package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
	"github.com/mirrordoc/mirrordoc/pkg/document/sync"
)

func snapshotCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "snapshot",
		Short: "Print the canonical snapshot of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			doc, err := document.Build(data, identity.NewResolver())
			if err != nil {
				return errors.Wrap(err, "failed to build document")
			}
			snap, err := sync.Encode(doc)
			if err != nil {
				return errors.Wrap(err, "failed to encode snapshot")
			}

			_, err = cmd.OutOrStdout().Write(snap.Text())
			return errors.Wrap(err, "failed to write result")
		},
	}
	return &cmd
}

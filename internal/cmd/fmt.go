package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

func fmtCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "fmt",
		Short: "Parse a document into the node model and regenerate it byte-faithfully",
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

			_, err = cmd.OutOrStdout().Write(document.Render(doc))
			return errors.Wrap(err, "failed to write result")
		},
	}
	return &cmd
}

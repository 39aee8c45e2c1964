package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
)

func archiveCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "archive",
		Short: "Persist a document's node model, identities included, as YAML",
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
			out, err := document.SaveArchive(doc)
			if err != nil {
				return errors.Wrap(err, "failed to save archive")
			}

			_, err = cmd.OutOrStdout().Write(out)
			return errors.Wrap(err, "failed to write result")
		},
	}
	return &cmd
}

func restoreCmd() *cobra.Command {
	cmd := cobra.Command{
		Use:   "restore",
		Short: "Rebuild a node model from a YAML archive and regenerate its text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(args[0])
			if err != nil {
				return err
			}

			doc, err := document.LoadArchive(data, identity.NewResolver())
			if err != nil {
				return errors.Wrap(err, "failed to load archive")
			}

			_, err = cmd.OutOrStdout().Write(document.Render(doc))
			return errors.Wrap(err, "failed to write result")
		},
	}
	return &cmd
}

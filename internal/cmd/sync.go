package cmd

import (
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/mirrordoc/mirrordoc/internal/log"
	"github.com/mirrordoc/mirrordoc/pkg/document"
	"github.com/mirrordoc/mirrordoc/pkg/document/identity"
	"github.com/mirrordoc/mirrordoc/pkg/document/sync"
)

func syncCmd() *cobra.Command {
	var printChanges bool

	cmd := cobra.Command{
		Use:   "sync",
		Short: "Reconcile an edited document against its previous version through a live model",
		Long: `Builds a live node model from the first document, reconciles the second
document against it, and prints the model's regenerated text. The regenerated
text is byte-identical to the edited document; untouched nodes keep their
identities across the pass.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldData, err := readInput(args[0])
			if err != nil {
				return err
			}
			newData, err := readInput(args[1])
			if err != nil {
				return err
			}

			sess, err := sync.NewSession(oldData, identity.NewResolver(), log.Get())
			if err != nil {
				return errors.Wrap(err, "failed to open session")
			}
			cs, err := sess.SyncText(newData)
			if err != nil {
				return errors.Wrap(err, "failed to reconcile")
			}

			if printChanges {
				printChangeSet(cmd.ErrOrStderr(), cs)
			}
			_, err = cmd.OutOrStdout().Write(document.Render(sess.Document()))
			return errors.Wrap(err, "failed to write result")
		},
	}

	cmd.Flags().BoolVar(&printChanges, "changes", false, "Print the replayed change-set to stderr.")

	return &cmd
}

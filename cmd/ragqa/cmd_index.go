package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Encode the corpus questions and save an index snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			ix, err := a.loadIndex(cmd.Context(), force, true)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d entries indexed with %s (dimension %d)\n", ix.Len(), a.encoder.Name(), ix.Dimension())
			if a.store != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "snapshot %s in %s\n", a.fingerprint[:12], a.store.Path())
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "rebuild even when a matching snapshot exists")
	return cmd
}

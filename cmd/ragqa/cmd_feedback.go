package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ragqa/internal/logging"
)

func newFeedbackCmd(opts *rootOptions) *cobra.Command {
	var recent int
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Show helpful / not helpful answer counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := loadConfig(opts)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if err := logging.Init(cfg.Log.File, cfg.Log.Verbose || opts.verbose, cmd.ErrOrStderr()); err != nil {
				return err
			}
			defer logging.Close()

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			if st == nil {
				return errors.New("feedback needs index_store.type: sqlite")
			}
			defer st.Close()

			helpful, unhelpful, err := st.FeedbackStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "helpful: %d\nnot helpful: %d\n", helpful, unhelpful)

			if recent > 0 {
				votes, err := st.RecentFeedback(cmd.Context(), recent)
				if err != nil {
					return err
				}
				for _, v := range votes {
					mark := "-"
					if v.Helpful {
						mark = "+"
					}
					fmt.Fprintf(out, "%s %s  #%d  %.2f  %s\n", mark, v.CreatedAt.Local().Format("2006-01-02 15:04"), v.Position, v.Similarity, v.Query)
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&recent, "recent", "n", 0, "also list the most recent votes")
	return cmd
}

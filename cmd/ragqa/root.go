package main

import (
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ragqa",
		Short:         "Tamil agriculture question answering over a question/answer corpus",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to YAML config (default ./config.yaml, then ~/.config/ragqa/config.yaml)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newIndexCmd(opts),
		newAskCmd(opts),
		newTUICmd(opts),
		newFeedbackCmd(opts),
	)
	return root
}

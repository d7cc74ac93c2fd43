package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"ragqa/internal/domain"
	"ragqa/internal/service"
	"ragqa/internal/tui"
)

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the interactive question screen (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd, opts)
		},
	}
}

func runTUI(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()
	a, err := setup(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	ix, err := a.loadIndex(ctx, false, true)
	if err != nil {
		return err
	}
	svc, err := service.NewQAService(a.encoder, ix)
	if err != nil {
		return err
	}

	var fb domain.FeedbackRecorder
	if a.store != nil {
		fb = a.store
	}
	info := fmt.Sprintf("%d கேள்விகள் · %s", ix.Len(), a.encoder.Name())

	// Keep log lines off the alternate screen.
	if err := a.quietLogs(); err != nil {
		return err
	}
	m := tui.New(ctx, svc, fb, info)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

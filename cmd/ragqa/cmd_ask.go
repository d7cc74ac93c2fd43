package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"ragqa/internal/domain"
	"ragqa/internal/service"
)

var (
	answerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a single question and print the match confidence",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd.Context(), opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			// JSON output is for scripts; skip the bar.
			ix, err := a.loadIndex(cmd.Context(), false, !asJSON)
			if err != nil {
				return err
			}
			svc, err := service.NewQAService(a.encoder, ix)
			if err != nil {
				return err
			}
			res, err := svc.Answer(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func printResult(w io.Writer, res domain.QueryResult) {
	fmt.Fprintln(w, answerStyle.Render(res.Entry.Answer))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("matched #%d: %s", res.Position, res.Entry.Question)))
	fmt.Fprintln(w, mutedStyle.Render(fmt.Sprintf("confidence: %.2f", res.Similarity)))
}

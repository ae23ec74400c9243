package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docsum/internal/service"
)

func (a *app) newAskCommand() *cobra.Command {
	var (
		topK        int
		showSources bool
		compare     bool
	)
	cmd := &cobra.Command{
		Use:   "ask <file> <question...>",
		Short: "Answer a question from the document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			question := strings.Join(args[1:], " ")
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			if compare && !svc.CanCompare() {
				return service.ErrNoCompare
			}
			sess, err := svc.LoadIndex(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if compare {
				outcomes, err := sess.CompareAnswers(ctx, question, topK)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderOutcomes(outcomes))
				return nil
			}

			res, err := sess.AskTopK(ctx, question, topK)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, res.Answer)
			if showSources {
				fmt.Fprintln(out, renderSources(res.Sources))
			}
			fmt.Fprintln(out, renderUsage(res.Response))
			return nil
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "chunks to retrieve (default from config)")
	cmd.Flags().BoolVar(&showSources, "show-sources", false, "print the retrieved chunks")
	cmd.Flags().BoolVar(&compare, "compare", false, "answer with both the primary and the compare provider")
	return cmd
}

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"docsum/internal/service"
)

func (a *app) newSummarizeCommand() *cobra.Command {
	var compare bool
	cmd := &cobra.Command{
		Use:   "summarize <file>",
		Short: "Print a summary paragraph and key points",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			if compare && !svc.CanCompare() {
				return service.ErrNoCompare
			}
			text, err := svc.ExtractText(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if compare {
				outcomes, err := svc.CompareSummaries(ctx, text)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderOutcomes(outcomes))
				return nil
			}

			resp, err := svc.Summarizer().Complete(ctx, text)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, renderSummary(svc.Summarizer().ParseReply(resp.Content)))
			fmt.Fprintln(out, renderUsage(resp))
			return nil
		},
	}
	cmd.Flags().BoolVar(&compare, "compare", false, "summarize with both the primary and the compare provider")
	return cmd
}

package cli

import (
	"context"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"docsum/internal/logging"
	"docsum/internal/tui"
)

func (a *app) newChatCommand() *cobra.Command {
	var topK int
	cmd := &cobra.Command{
		Use:   "chat <file>",
		Short: "Show the summary, then ask questions interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			// The terminal UI owns the screen; logs go to the configured file or nowhere.
			if a.cfg.Log.File == "" {
				logging.Discard()
			}
			svc, err := a.service(ctx)
			if err != nil {
				return err
			}
			path := args[0]
			title := filepath.Base(path)
			load := func(ctx context.Context) (tui.Document, error) {
				sess, err := svc.Load(ctx, path)
				if err != nil {
					return tui.Document{}, err
				}
				return tui.Document{Title: title, Summary: sess.Summary, Asker: sess}, nil
			}
			p := tea.NewProgram(
				tui.New(ctx, title, load, topK),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "chunks to retrieve per question (default from config)")
	return cmd
}

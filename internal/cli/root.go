// Package cli wires the docsum commands.
package cli

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/phuslu/log"
	"github.com/spf13/cobra"

	"docsum/internal/config"
	"docsum/internal/logging"
	"docsum/internal/service"
)

type app struct {
	cfgFile string
	verbose bool

	cfg     *config.AppConfig
	cfgPath string

	// newService is replaced in tests.
	newService func(ctx context.Context, cfg *config.AppConfig) (*service.Service, error)
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	return newRootCommand(version, &app{newService: service.NewFromConfig})
}

func newRootCommand(version string, a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "docsum",
		Short: "Summarize documents and answer questions about them",
		Long: `docsum reads a PDF (or plain text) document, summarizes it with a
language model and answers questions using retrieval over the document's chunks.

Examples:
  docsum summarize report.pdf
  docsum ask report.pdf "What changed in 2023?"
  docsum chat report.pdf`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.loadConfig(); err != nil {
				return err
			}
			logging.Setup(a.cfg.Log)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&a.cfgFile, "config", "c", "", "config file path (default ./docsum.yaml or ~/.config/docsum/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	rootCmd.AddCommand(a.newSummarizeCommand())
	rootCmd.AddCommand(a.newAskCommand())
	rootCmd.AddCommand(a.newChatCommand())
	rootCmd.AddCommand(a.newConfigCommand())

	return rootCmd
}

func (a *app) loadConfig() error {
	// .env is optional; it only feeds the api_key_env variables.
	_ = godotenv.Load()

	var err error
	if a.cfgFile != "" {
		a.cfg, err = config.Load(a.cfgFile)
		a.cfgPath = a.cfgFile
	} else {
		a.cfg, a.cfgPath, err = config.LoadDefault()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.verbose {
		a.cfg.Log.Level = "debug"
	}
	return nil
}

func (a *app) service(ctx context.Context) (*service.Service, error) {
	svc, err := a.newService(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("completion", a.cfg.Completion.Provider).
		Str("embedding", a.cfg.Embedding.Provider).
		Str("config", a.cfgPath).
		Msg("service ready")
	return svc, nil
}

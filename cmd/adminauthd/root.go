package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/MrEthical07/adminAuth/internal/bootstrap"
	"github.com/spf13/cobra"
)

type app struct {
	configPath string
	cfg        bootstrap.Config
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "adminauthd",
		Short: "Admin authentication service",
		Long: `adminauthd authenticates administrators against a SQLite account store,
issues short-lived session tokens and resolves per-request permissions.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := bootstrap.LoadConfig(a.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger, err := bootstrap.NewLogger(cfg.Logging, os.Stderr)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "adminauth.yaml", "path to YAML config file")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSeedCmd(a))
	root.AddCommand(newHashPasswordCmd(a))
	return root
}

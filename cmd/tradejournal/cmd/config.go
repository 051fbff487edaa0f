package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/tradejournal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Generate or validate configuration files",
		Long: `Manage tradejournal configuration files.

Subcommands:
  init     - Generate a default configuration file with a fresh JWT secret
  validate - Validate an existing configuration file

Examples:
  tradejournal config init -o tradejournal.yaml
  tradejournal config validate -f tradejournal.yaml`,
	}

	var output string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if a.flags.dbPath != "" {
				cfg.Database.Path = a.flags.dbPath
			}
			secret, err := config.NewSecret()
			if err != nil {
				return fmt.Errorf("generate secret: %w", err)
			}
			cfg.Server.JWTSecret = secret

			if err := cfg.SaveToFile(output); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Created default configuration: %s\n", output)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&output, "output", "o", defaultConfigFile, "output config file path")

	var file string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(file)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", file)
			fmt.Fprintf(out, "  Database: %s (busy timeout %s)\n", cfg.Database.Path, cfg.Database.BusyTimeout)
			fmt.Fprintf(out, "  Server: %s (token ttl %s)\n", cfg.Server.Addr, cfg.Server.TokenTTL)
			fmt.Fprintf(out, "  Currency: %s\n", cfg.Journal.DefaultCurrency)
			if cfg.Server.JWTSecret == "" {
				fmt.Fprintln(out, "  ! server.jwt_secret is empty; serve will refuse to start")
			}
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&file, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	configCmd.AddCommand(initCmd, validateCmd)
	return configCmd
}

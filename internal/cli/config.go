package cli

import (
	"fmt"
	"io"

	"github.com/rustyeddy/riskdesk/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(rc *RootConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate, validate or show configuration",
		Long: `Manage riskdesk configuration files.

Subcommands:
  init     - Generate a default configuration file
  validate - Validate an existing configuration file
  show     - Print the effective configuration (file + .env + environment)

Examples:
  riskdesk config init -f riskdesk.yaml
  riskdesk config validate -f riskdesk.yaml
  riskdesk --config riskdesk.yaml config show`,
	}

	var initPath string
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Default().SaveToFile(initPath); err != nil {
				return fmt.Errorf("save config: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Created default configuration: %s\n", initPath)
			fmt.Fprintf(out, "\nEdit the file and run with:\n  riskdesk --config %s plan ...\n", initPath)
			return nil
		},
	}
	initCmd.Flags().StringVarP(&initPath, "file", "f", "riskdesk.yaml", "output config file path")

	var validatePath string
	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromFile(validatePath)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "✓ Configuration valid: %s\n", validatePath)
			fmt.Fprintf(out, "  Account: %s (%.2f %s)\n", cfg.Account.ID, cfg.Account.Balance, cfg.Account.Currency)
			fmt.Fprintf(out, "  Risk: %.2f%% per trade, %.2f%% daily loss, %.2f%% drawdown\n",
				100*cfg.Risk.RiskPerTrade, 100*cfg.Risk.MaxDailyLoss, 100*cfg.Risk.MaxDrawdown)
			fmt.Fprintf(out, "  Symbol: %s %s\n", cfg.Trading.DefaultSymbol, cfg.Trading.DefaultTimeframe)
			fmt.Fprintf(out, "  Journal: %s\n", cfg.Journal.DBPath)
			return nil
		},
	}
	validateCmd.Flags().StringVarP(&validatePath, "file", "f", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rc.emit(cmd.OutOrStdout(), rc.Cfg, func(w io.Writer) {
				data, err := yaml.Marshal(rc.Cfg)
				if err != nil {
					fmt.Fprintln(w, err)
					return
				}
				_, _ = w.Write(data)
			})
		},
	}

	cmd.AddCommand(initCmd, validateCmd, showCmd)
	return cmd
}

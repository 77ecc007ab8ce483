package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/rustyeddy/riskdesk/config"
	"github.com/rustyeddy/riskdesk/internal/logging"
	"github.com/rustyeddy/riskdesk/journal"
	"github.com/rustyeddy/riskdesk/risk"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

// RootConfig carries global flags and the state PersistentPreRunE
// builds from them.
type RootConfig struct {
	ConfigPath string
	EnvFile    string
	DBPath     string
	LogLevel   string
	LogFile    string
	Output     string // table or json

	Cfg  *config.Config
	Log  *slog.Logger
	sync func() error
}

func (rc *RootConfig) calculator() (*risk.Calculator, error) {
	return risk.NewCalculator(rc.Cfg.Risk.Limits)
}

func (rc *RootConfig) openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(rc.Cfg.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal %s: %w", rc.Cfg.Journal.DBPath, err)
	}
	return j, nil
}

func (rc *RootConfig) load(cmd *cobra.Command) error {
	envFile := rc.EnvFile
	if envFile == "" {
		if _, err := os.Stat(".env"); err == nil {
			envFile = ".env"
		} else if !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}

	cfg, err := config.Load(rc.ConfigPath, envFile)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Journal.DBPath = rc.DBPath
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = rc.LogLevel
	}
	if flags.Changed("log-file") {
		cfg.Log.File = rc.LogFile
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, sync, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	rc.Cfg, rc.Log, rc.sync = cfg, log, sync
	return nil
}

func NewRootCmd() *cobra.Command {
	rc := &RootConfig{}

	cmd := &cobra.Command{
		Use:   "riskdesk",
		Short: "Position sizing and loss limits for discretionary and bot trading",
		Long: `Riskdesk sizes positions from a fixed risk fraction and enforces
daily loss and drawdown limits.

It provides tools for:
  - Lot sizing from balance, entry, stop and symbol volume constraints
  - ATR based stop placement and multi-level take-profit ladders
  - Daily loss and max drawdown circuit breakers
  - A SQLite ledger of plans, closed trades and daily balances`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global / persistent flags
	pf := cmd.PersistentFlags()
	pf.StringVar(&rc.ConfigPath, "config", "", "path to config file, YAML or JSON (optional)")
	pf.StringVar(&rc.EnvFile, "env-file", "", "dotenv file with overrides (default ./.env when present)")
	pf.StringVar(&rc.DBPath, "db", "", "SQLite ledger (overrides journal.db_path)")
	pf.StringVar(&rc.LogLevel, "log-level", "", "log level: debug|info|warn|error")
	pf.StringVar(&rc.LogFile, "log-file", "", "log file, empty for stderr only (overrides log.file)")
	pf.StringVarP(&rc.Output, "output", "o", "table", "output format: table|json")

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if rc.Output != "table" && rc.Output != "json" {
			return fmt.Errorf("output must be table or json, got %q", rc.Output)
		}
		return rc.load(cmd)
	}
	cmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		if rc.sync != nil {
			_ = rc.sync() // fails on terminals, nothing to do about it
		}
		return nil
	}

	cmd.AddCommand(
		newConfigCmd(rc),
		newSizeCmd(rc),
		newStopCmd(rc),
		newTargetsCmd(rc),
		newCheckCmd(rc),
		newPlanCmd(rc),
		newSymbolsCmd(rc),
		newJournalCmd(rc),
	)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "riskdesk version %s\n", version)
		},
	})

	return cmd
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"despesas/internal/cli"
	"despesas/internal/config"
	"despesas/internal/log"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RootFlags are shared by every subcommand.
type RootFlags struct {
	LogLevel string
	EnvFiles []string

	logger *log.Logger
	cfg    *config.Config
}

func NewRootFlags() *RootFlags {
	return &RootFlags{LogLevel: os.Getenv("LOG_LEVEL")}
}

func (f *RootFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&f.LogLevel, "log-level", f.LogLevel, "Log level (debug,info,warn,error) (default info)")
	fs.StringArrayVar(&f.EnvFiles, "env-file", nil, "Environment file to load before reading configuration (repeatable; default .env if present)")
}

// setup loads the environment, configures logging and validates the
// configuration. It runs before every subcommand.
func (f *RootFlags) setup(cmd *cobra.Command) error {
	if err := cli.LoadEnvFile(f.EnvFiles...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	if !cmd.Flags().Changed("log-level") {
		if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
			f.LogLevel = lvl
		}
	}
	logger, err := cli.SetupLogger(f.LogLevel)
	if err != nil {
		return err
	}
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		return err
	}
	f.logger, f.cfg = logger, cfg
	return nil
}

func NewRootCommand() *cobra.Command {
	f := NewRootFlags()

	cmd := &cobra.Command{
		Use:   "despesas",
		Short: "Monthly expense ledger",
		Long: `despesas keeps one row per expense with a value for each month of the
year, an audited change history and a derived annual total. It can check
stored totals, report anomalies and export the ledger to Google Sheets.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return f.setup(cmd)
		},
	}
	f.BindFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		NewMigrateCommand(f),
		NewAddCommand(f),
		NewSetCommand(f),
		NewDeleteCommand(f),
		NewListCommand(f),
		NewFormulaCommand(f),
		NewRevertCommand(f),
		NewHistoryCommand(f),
		NewReportCommand(f),
		NewCheckCommand(f),
		NewAnomaliesCommand(f),
		NewExportSheetsCommand(f),
		NewSyncSheetsCommand(f),
	)
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

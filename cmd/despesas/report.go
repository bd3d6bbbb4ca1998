package main

import (
	"context"
	"errors"
	"fmt"

	"despesas/internal/amqp"
	"despesas/internal/cli"
	"despesas/internal/core"
	"despesas/internal/services"
	"despesas/internal/sheets/google"
	"despesas/internal/sheets/memory"
	"despesas/internal/worker"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// errDrift is returned by check when stored totals disagree with their months.
var errDrift = errors.New("inconsistent totals found")

type report struct {
	Sum           decimal.Decimal            `json:"sum"`
	Average       decimal.Decimal            `json:"average"`
	MonthlyTotals map[string]decimal.Decimal `json:"monthly_totals"`
	Trends        core.Trend                 `json:"trends"`
	Top           []core.RecordView          `json:"top"`
}

func NewReportCommand(f *RootFlags) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print ledger aggregates: totals, monthly breakdown, trend and top expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				var (
					r   report
					err error
				)
				if r.Sum, err = l.Service.ColumnSum(ctx, core.ColumnTotal); err != nil {
					return err
				}
				if r.Average, err = l.Service.ColumnAverage(ctx, core.ColumnTotal); err != nil {
					return err
				}
				monthly, err := l.Service.MonthlyTotals(ctx)
				if err != nil {
					return err
				}
				r.MonthlyTotals = monthly.Map()
				if r.Trends, err = l.Service.Trends(ctx); err != nil {
					return err
				}
				records, err := l.Service.TopExpenses(ctx, top)
				if err != nil {
					return err
				}
				r.Top = core.Views(records)
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 10, "Number of top expenses to include")
	return cmd
}

func NewCheckCommand(f *RootFlags) *cobra.Command {
	var metricsFile string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify that every stored total matches the sum of its months",
		Long: `check recomputes the total of every record and reports the ones whose
stored total differs by a cent or more. It exits non-zero when any
drift is found. With --metrics-file the ledger metrics are written in the
Prometheus text format for a node exporter textfile collector.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				drift, err := l.Service.ConsistencySweep(ctx)
				if err != nil {
					return err
				}
				if metricsFile != "" {
					if err := prometheus.WriteToTextfile(metricsFile, l.Registry); err != nil {
						return fmt.Errorf("write metrics: %w", err)
					}
				}
				if len(drift) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "all totals consistent")
					return nil
				}
				if err := printJSON(cmd.OutOrStdout(), drift); err != nil {
					return err
				}
				return fmt.Errorf("%w: %d records", errDrift, len(drift))
			})
		},
	}
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write metrics to this file after the check")
	return cmd
}

func NewAnomaliesCommand(f *RootFlags) *cobra.Command {
	var threshold float64
	cmd := &cobra.Command{
		Use:   "anomalies <id>",
		Short: "List months of a record far above its average",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("threshold") {
				threshold = f.cfg.AnomalyThreshold
			}
			if threshold <= 0 {
				return fmt.Errorf("threshold must be positive, got %v", threshold)
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				anomalies, err := l.Service.DetectAnomalies(ctx, id, threshold)
				if err != nil {
					return err
				}
				if anomalies == nil {
					anomalies = []core.Anomaly{}
				}
				return printJSON(cmd.OutOrStdout(), anomalies)
			})
		},
	}
	cmd.Flags().Float64Var(&threshold, "threshold", core.DefaultAnomalyThreshold, "Percentage of the record average above which a month is reported (default ANOMALY_THRESHOLD)")
	return cmd
}

func NewExportSheetsCommand(f *RootFlags) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "export-sheets",
		Short: "Replace the configured Google Sheets tab with the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				if dryRun {
					store := memory.New()
					if _, err := l.Service.ExportTo(ctx, store); err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), store.Rows())
				}

				client, err := newSheetsClient(ctx, f)
				if err != nil {
					return err
				}
				ref, err := l.Service.ExportTo(ctx, client)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ref)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the rows instead of writing to Google Sheets")
	return cmd
}

func newSheetsClient(ctx context.Context, f *RootFlags) (*google.Client, error) {
	if err := f.cfg.ValidateSheets(); err != nil {
		return nil, err
	}
	return google.New(ctx, google.Config{
		SpreadsheetID:   f.cfg.GoogleSpreadsheetID,
		SheetName:       f.cfg.GoogleSheetName,
		CredentialsJSON: f.cfg.GoogleServiceAccountJSON,
		CredentialsFile: f.cfg.GoogleServiceAccountFile,
	}, f.logger)
}

func NewSyncSheetsCommand(f *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync-sheets",
		Short: "Keep the Google Sheets tab current by consuming record change notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !f.cfg.AMQPEnabled() {
				return errors.New("sync-sheets requires AMQP_URL")
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				client, err := newSheetsClient(ctx, f)
				if err != nil {
					return err
				}
				consumer, err := amqp.NewClient(f.cfg.AMQPURL, f.cfg.AMQPExchange, f.cfg.AMQPQueue, f.logger)
				if err != nil {
					return err
				}
				defer consumer.Close()

				w := worker.NewSyncWorker(l.Service, client, f.logger)
				if err := w.StartupSync(ctx); err != nil {
					return err
				}
				err = consumer.ConsumeRecordChanges(ctx, func(msg *amqp.RecordChangeMessage) error {
					return w.HandleRecordChange(ctx, msg)
				})
				if errors.Is(err, context.Canceled) {
					f.logger.Info("Sync stopped", "exports", w.Exports())
					return nil
				}
				return err
			})
		},
	}
}

var (
	_ services.Exporter = (*google.Client)(nil)
	_ services.Exporter = (*memory.Store)(nil)
)

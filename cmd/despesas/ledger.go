package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"despesas/internal/cli"
	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// withLedger opens the ledger for the duration of fn.
func withLedger(cmd *cobra.Command, f *RootFlags, fn func(ctx context.Context, l *cli.Ledger) error) error {
	ctx := cmd.Context()
	l, err := cli.OpenLedger(ctx, f.cfg, f.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Close(); err != nil {
			f.logger.Warn("Close ledger", log.FieldError, err)
		}
	}()
	return fn(ctx, l)
}

// MutationFlags carry the optional author of a change.
type MutationFlags struct {
	UserID int64
}

func (m *MutationFlags) BindFlags(fs *pflag.FlagSet) {
	fs.Int64Var(&m.UserID, "user", 0, "ID of the user making the change (0 for none)")
}

func (m *MutationFlags) User() *int64 {
	if m.UserID == 0 {
		return nil
	}
	id := m.UserID
	return &id
}

// parseMonths turns month=value arguments into a loosely typed field set.
// Values keep their original text so locale formatted amounts normalize.
func parseMonths(pairs []string) (map[string]any, error) {
	values := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid month %q: want name=value", pair)
		}
		p, known := core.ParsePeriod(name)
		if !known {
			return nil, fmt.Errorf("unknown month %q", name)
		}
		values[p.String()] = value
	}
	return values, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

func parseAmountFlag(name, s string) (*decimal.Decimal, error) {
	if s == "" {
		return nil, nil
	}
	d, ok := core.ParseAmount(s)
	if !ok {
		return nil, fmt.Errorf("invalid --%s %q", name, s)
	}
	return &d, nil
}

func NewMigrateCommand(f *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := storage.Open(cmd.Context(), cli.StorageConfig(f.cfg))
			if err != nil {
				return err
			}
			f.logger.Info("Migrations applied", "driver", string(db.Driver()))
			return db.Close()
		},
	}
}

func NewAddCommand(f *RootFlags) *cobra.Command {
	var (
		label  string
		months []string
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseMonths(months)
			if err != nil {
				return err
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				rec, err := l.Service.Create(ctx, core.DraftFromValues(label, values))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec.View())
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "Expense label")
	cmd.Flags().StringArrayVar(&months, "month", nil, "Month value as name=value, e.g. janeiro=1.234,56 (repeatable)")
	return cmd
}

func NewSetCommand(f *RootFlags) *cobra.Command {
	var (
		label  string
		months []string
		mf     MutationFlags
	)
	cmd := &cobra.Command{
		Use:   "set <id>",
		Short: "Update the label or month values of a record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			values, err := parseMonths(months)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("label") {
				values[string(core.ColumnLabel)] = label
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				rec, found, err := l.Service.Update(ctx, id, core.PatchFromValues(values), mf.User())
				if err != nil {
					return err
				}
				if !found {
					return core.NotFound("despesa", id)
				}
				return printJSON(cmd.OutOrStdout(), rec.View())
			})
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "New label")
	cmd.Flags().StringArrayVar(&months, "month", nil, "Month value as name=value (repeatable)")
	mf.BindFlags(cmd.Flags())
	return cmd
}

func NewDeleteCommand(f *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more records in a single unit",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, a := range args {
				id, err := parseID(a)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				n, err := l.Service.BatchDelete(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d of %d\n", n, len(ids))
				return nil
			})
		},
	}
}

// ListFlags select the order or filter of a listing.
type ListFlags struct {
	Sort          string
	Order         string
	MinTotal      string
	MaxTotal      string
	Month         string
	MinMonthValue string
	MaxMonthValue string
	Label         string
}

func (lf *ListFlags) BindFlags(fs *pflag.FlagSet) {
	fs.StringVar(&lf.Sort, "sort", "id", "Column to sort by (id, despesa, total or a month)")
	fs.StringVar(&lf.Order, "order", "desc", "Sort direction (asc or desc)")
	fs.StringVar(&lf.MinTotal, "min-total", "", "Only records with a total of at least this amount")
	fs.StringVar(&lf.MaxTotal, "max-total", "", "Only records with a total of at most this amount")
	fs.StringVar(&lf.Month, "filter-month", "", "Month the value bounds apply to")
	fs.StringVar(&lf.MinMonthValue, "min-value", "", "Minimum value for --filter-month")
	fs.StringVar(&lf.MaxMonthValue, "max-value", "", "Maximum value for --filter-month")
	fs.StringVar(&lf.Label, "label", "", "Only records whose label contains this text (case-insensitive)")
}

// Filter returns the requested filter, or nil when no filter flag is set.
func (lf *ListFlags) Filter() (*core.Filter, error) {
	var (
		flt core.Filter
		err error
	)
	if flt.MinTotal, err = parseAmountFlag("min-total", lf.MinTotal); err != nil {
		return nil, err
	}
	if flt.MaxTotal, err = parseAmountFlag("max-total", lf.MaxTotal); err != nil {
		return nil, err
	}
	if flt.MinMonthValue, err = parseAmountFlag("min-value", lf.MinMonthValue); err != nil {
		return nil, err
	}
	if flt.MaxMonthValue, err = parseAmountFlag("max-value", lf.MaxMonthValue); err != nil {
		return nil, err
	}
	if lf.Month != "" {
		p, ok := core.ParsePeriod(lf.Month)
		if !ok {
			return nil, fmt.Errorf("unknown month %q", lf.Month)
		}
		flt.Month = &p
	} else if flt.MinMonthValue != nil || flt.MaxMonthValue != nil {
		return nil, fmt.Errorf("--min-value and --max-value require --filter-month")
	}
	flt.LabelContains = lf.Label
	if flt.MinTotal == nil && flt.MaxTotal == nil && flt.Month == nil && flt.LabelContains == "" {
		return nil, nil
	}
	return &flt, nil
}

func NewListCommand(f *RootFlags) *cobra.Command {
	lf := &ListFlags{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List records, sorted or filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flt, err := lf.Filter()
			if err != nil {
				return err
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				var records []core.Record
				if flt != nil {
					records, err = l.Service.Filter(ctx, *flt)
				} else {
					records, err = l.Service.List(ctx, core.ParseOrder(lf.Sort, lf.Order))
				}
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), core.Views(records))
			})
		},
	}
	lf.BindFlags(cmd.Flags())
	return cmd
}

func NewFormulaCommand(f *RootFlags) *cobra.Command {
	var mf MutationFlags
	cmd := &cobra.Command{
		Use:   "formula <id> <month> <multiply|divide|add|subtract|percentage> <operand>",
		Short: "Apply an arithmetic operation to one month of a record",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			period, ok := core.ParsePeriod(args[1])
			if !ok {
				return fmt.Errorf("unknown month %q", args[1])
			}
			op, err := core.ParseFormulaOp(args[2])
			if err != nil {
				return err
			}
			operand, ok := core.ParseAmount(args[3])
			if !ok {
				return fmt.Errorf("invalid operand %q", args[3])
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				rec, err := l.Service.ApplyFormula(ctx, id, period, op, operand, mf.User())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec.View())
			})
		},
	}
	mf.BindFlags(cmd.Flags())
	return cmd
}

func NewRevertCommand(f *RootFlags) *cobra.Command {
	var mf MutationFlags
	cmd := &cobra.Command{
		Use:   "revert <id> <month> <version>",
		Short: "Restore a month to the value held before a recorded change",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			version, err := parseID(args[2])
			if err != nil {
				return err
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				rec, err := l.Service.Revert(ctx, id, args[1], version, mf.User())
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), rec.View())
			})
		},
	}
	mf.BindFlags(cmd.Flags())
	return cmd
}

func NewHistoryCommand(f *RootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the change history of a record, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withLedger(cmd, f, func(ctx context.Context, l *cli.Ledger) error {
				events, err := l.Service.History(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), events)
			})
		},
	}
}

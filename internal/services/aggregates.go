package services

import (
	"context"
	"slices"
	"strconv"

	"despesas/internal/cache"
	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

// Memoized aggregate operations.
const (
	aggColumnSum     = "column_sum"
	aggColumnAverage = "column_average"
	aggMonthlyTotals = "monthly_totals"
	aggTop           = "top_expenses"
)

func numericColumn(c core.Column) error {
	if !c.Numeric() {
		return &core.ValidationError{Field: "column", Msg: "column " + string(c) + " is not numeric"}
	}
	return nil
}

// ColumnSum adds up a numeric column across every record.
func (s *LedgerService) ColumnSum(ctx context.Context, column core.Column) (decimal.Decimal, error) {
	if err := numericColumn(column); err != nil {
		return decimal.Zero, err
	}
	return cache.Memoize(s.cache, cache.Key{Op: aggColumnSum, Arg: string(column)}, func() (decimal.Decimal, error) {
		return s.db.Records().Sum(ctx, column)
	})
}

// ColumnAverage averages a numeric column over the records holding a value.
func (s *LedgerService) ColumnAverage(ctx context.Context, column core.Column) (decimal.Decimal, error) {
	if err := numericColumn(column); err != nil {
		return decimal.Zero, err
	}
	return cache.Memoize(s.cache, cache.Key{Op: aggColumnAverage, Arg: string(column)}, func() (decimal.Decimal, error) {
		return s.db.Records().Average(ctx, column)
	})
}

// MonthlyTotals sums each period across every record.
func (s *LedgerService) MonthlyTotals(ctx context.Context) (core.MonthlyTotals, error) {
	return cache.Memoize(s.cache, cache.Key{Op: aggMonthlyTotals}, func() (core.MonthlyTotals, error) {
		return s.db.Records().MonthlyTotals(ctx)
	})
}

// TopExpenses returns the limit records with the highest totals.
func (s *LedgerService) TopExpenses(ctx context.Context, limit int) ([]core.Record, error) {
	if limit <= 0 {
		return nil, &core.ValidationError{Field: "limit", Msg: "must be greater than zero"}
	}
	top, err := cache.Memoize(s.cache, cache.Key{Op: aggTop, Arg: strconv.Itoa(limit)}, func() ([]core.Record, error) {
		return s.db.Records().Top(ctx, limit)
	})
	if err != nil {
		return nil, err
	}
	// callers must not mutate the memoized slice
	return slices.Clone(top), nil
}

// Trends reports the lowest and highest months of the monthly breakdown.
func (s *LedgerService) Trends(ctx context.Context) (core.Trend, error) {
	m, err := s.MonthlyTotals(ctx)
	if err != nil {
		return core.Trend{}, err
	}
	return core.Trends(m), nil
}

// Filter lists the records matching f.
func (s *LedgerService) Filter(ctx context.Context, f core.Filter) ([]core.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return s.db.Records().Filter(ctx, f)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

// Records is the record table bound to a pool or a transaction.
type Records struct {
	q      querier
	driver Driver
}

var (
	monthColumns  = buildMonthColumns()
	recordColumns = "id, despesa, " + strings.Join(monthColumns[:], ", ") + ", total_cents"
)

func buildMonthColumns() [core.NumPeriods]string {
	var cols [core.NumPeriods]string
	for _, p := range core.Periods() {
		cols[p] = p.String() + "_cents"
	}
	return cols
}

// sqlColumn maps a whitelisted column to its table column.
func sqlColumn(c core.Column) (string, error) {
	switch c {
	case core.ColumnID:
		return "id", nil
	case core.ColumnLabel:
		return "despesa", nil
	case core.ColumnTotal:
		return "total_cents", nil
	}
	if p, ok := c.Period(); ok {
		return monthColumns[p], nil
	}
	return "", &core.ValidationError{Field: "column", Msg: "unknown column " + string(c)}
}

func toCents(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}

func fromCents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

func nullCents(v decimal.NullDecimal) sql.NullInt64 {
	if !v.Valid {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toCents(v.Decimal), Valid: true}
}

func fromNullCents(v sql.NullInt64) decimal.NullDecimal {
	if !v.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(fromCents(v.Int64))
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (core.Record, error) {
	var (
		r      core.Record
		months [core.NumPeriods]sql.NullInt64
		total  int64
	)
	dest := make([]any, 0, core.NumPeriods+3)
	dest = append(dest, &r.ID, &r.Label)
	for i := range months {
		dest = append(dest, &months[i])
	}
	dest = append(dest, &total)
	if err := s.Scan(dest...); err != nil {
		return core.Record{}, err
	}
	for i, m := range months {
		r.Months[i] = fromNullCents(m)
	}
	r.Total = fromCents(total)
	return r, nil
}

func (r Records) query(ctx context.Context, op, query string, args ...any) ([]core.Record, error) {
	rows, err := r.q.QueryContext(ctx, r.driver.rebind(query), args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var out []core.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, wrap(op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return out, nil
}

func recordArgs(rec core.Record) []any {
	args := make([]any, 0, core.NumPeriods+2)
	args = append(args, rec.Label)
	for _, m := range rec.Months {
		args = append(args, nullCents(m))
	}
	return append(args, toCents(rec.Total))
}

// Create inserts rec and returns it with the assigned ID. The stored total
// is whatever rec carries; callers stamp it with core.Total first.
func (r Records) Create(ctx context.Context, rec core.Record) (core.Record, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", core.NumPeriods+2), ", ")
	query := fmt.Sprintf(
		"INSERT INTO despesas (despesa, %s, total_cents) VALUES (%s) RETURNING id",
		strings.Join(monthColumns[:], ", "), placeholders,
	)
	if err := r.q.QueryRowContext(ctx, r.driver.rebind(query), recordArgs(rec)...).Scan(&rec.ID); err != nil {
		return core.Record{}, wrap("records.create", err)
	}
	return rec, nil
}

// Get loads one record. The boolean is false when no row has that ID.
func (r Records) Get(ctx context.Context, id int64) (core.Record, bool, error) {
	row := r.q.QueryRowContext(ctx, r.driver.rebind("SELECT "+recordColumns+" FROM despesas WHERE id = ?"), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Record{}, false, nil
	}
	if err != nil {
		return core.Record{}, false, wrap("records.get", err)
	}
	return rec, true, nil
}

// List returns every record in the given order.
func (r Records) List(ctx context.Context, order core.Order) ([]core.Record, error) {
	clause, err := orderClause(order)
	if err != nil {
		return nil, err
	}
	return r.query(ctx, "records.list", "SELECT "+recordColumns+" FROM despesas ORDER BY "+clause)
}

func orderClause(order core.Order) (string, error) {
	col, err := sqlColumn(order.Column)
	if err != nil {
		return "", err
	}
	dir := "ASC"
	if order.Desc {
		dir = "DESC"
	}
	if col == "id" {
		return "id " + dir, nil
	}
	return col + " " + dir + ", id ASC", nil
}

// Update overwrites the label, months and total of the row with rec.ID.
// The boolean is false when no row was touched.
func (r Records) Update(ctx context.Context, rec core.Record) (bool, error) {
	sets := make([]string, 0, core.NumPeriods+2)
	sets = append(sets, "despesa = ?")
	for _, c := range monthColumns {
		sets = append(sets, c+" = ?")
	}
	sets = append(sets, "total_cents = ?")

	query := "UPDATE despesas SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	args := append(recordArgs(rec), rec.ID)
	res, err := r.q.ExecContext(ctx, r.driver.rebind(query), args...)
	if err != nil {
		return false, wrap("records.update", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap("records.update", err)
	}
	return n > 0, nil
}

// Delete removes one record and reports whether it existed.
func (r Records) Delete(ctx context.Context, id int64) (bool, error) {
	n, err := r.DeleteMany(ctx, []int64{id})
	return n > 0, err
}

// DeleteMany removes every listed record in one statement and returns how
// many rows were removed.
func (r Records) DeleteMany(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := "DELETE FROM despesas WHERE id IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + ")"
	res, err := r.q.ExecContext(ctx, r.driver.rebind(query), args...)
	if err != nil {
		return 0, wrap("records.delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("records.delete", err)
	}
	return n, nil
}

// Filter lists the records matching every bound set in f.
func (r Records) Filter(ctx context.Context, f core.Filter) ([]core.Record, error) {
	var (
		where []string
		args  []any
	)
	if f.MinTotal != nil {
		where = append(where, "total_cents >= ?")
		args = append(args, toCents(*f.MinTotal))
	}
	if f.MaxTotal != nil {
		where = append(where, "total_cents <= ?")
		args = append(args, toCents(*f.MaxTotal))
	}
	if f.Month != nil && f.Month.Valid() {
		col := monthColumns[*f.Month]
		if f.MinMonthValue != nil {
			where = append(where, col+" >= ?")
			args = append(args, toCents(*f.MinMonthValue))
		}
		if f.MaxMonthValue != nil {
			where = append(where, col+" <= ?")
			args = append(args, toCents(*f.MaxMonthValue))
		}
	}
	if f.LabelContains != "" {
		where = append(where, r.driver.likeExpr("despesa"))
		args = append(args, likePattern(f.LabelContains))
	}

	query := "SELECT " + recordColumns + " FROM despesas"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	return r.query(ctx, "records.filter", query+" ORDER BY id ASC", args...)
}

// FindByLabel lists records whose label contains substr, case-sensitively.
func (r Records) FindByLabel(ctx context.Context, substr string) ([]core.Record, error) {
	query := "SELECT " + recordColumns + " FROM despesas WHERE " + r.driver.containsExpr("despesa") + " ORDER BY id ASC"
	return r.query(ctx, "records.find_by_label", query, substr)
}

// Top returns the limit records with the highest totals.
func (r Records) Top(ctx context.Context, limit int) ([]core.Record, error) {
	return r.query(ctx, "records.top", "SELECT "+recordColumns+" FROM despesas ORDER BY total_cents DESC, id ASC LIMIT ?", limit)
}

// Sum adds up a numeric column over every record.
func (r Records) Sum(ctx context.Context, c core.Column) (decimal.Decimal, error) {
	sum, _, err := r.sumCount(ctx, c)
	return sum, err
}

// Average is the mean of a numeric column over the records holding a value,
// rounded to two decimals. It is zero for an empty table.
func (r Records) Average(ctx context.Context, c core.Column) (decimal.Decimal, error) {
	sum, n, err := r.sumCount(ctx, c)
	if err != nil || n == 0 {
		return decimal.Zero, err
	}
	return sum.Div(decimal.NewFromInt(n)).Round(2), nil
}

func (r Records) sumCount(ctx context.Context, c core.Column) (decimal.Decimal, int64, error) {
	if !c.Numeric() {
		return decimal.Zero, 0, &core.ValidationError{Field: "column", Msg: "column " + string(c) + " is not numeric"}
	}
	col, err := sqlColumn(c)
	if err != nil {
		return decimal.Zero, 0, err
	}
	var sum, n int64
	query := fmt.Sprintf("SELECT COALESCE(SUM(%s), 0), COUNT(%s) FROM despesas", col, col)
	if err := r.q.QueryRowContext(ctx, query).Scan(&sum, &n); err != nil {
		return decimal.Zero, 0, wrap("records.aggregate", err)
	}
	return fromCents(sum), n, nil
}

// MonthlyTotals sums every period column over the whole table.
func (r Records) MonthlyTotals(ctx context.Context) (core.MonthlyTotals, error) {
	sums := make([]string, core.NumPeriods)
	for i, c := range monthColumns {
		sums[i] = "COALESCE(SUM(" + c + "), 0)"
	}

	var cents [core.NumPeriods]int64
	dest := make([]any, core.NumPeriods)
	for i := range cents {
		dest[i] = &cents[i]
	}
	if err := r.q.QueryRowContext(ctx, "SELECT "+strings.Join(sums, ", ")+" FROM despesas").Scan(dest...); err != nil {
		return core.MonthlyTotals{}, wrap("records.monthly_totals", err)
	}

	var out core.MonthlyTotals
	for i, c := range cents {
		out[i] = fromCents(c)
	}
	return out, nil
}

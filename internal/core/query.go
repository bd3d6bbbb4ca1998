package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Column is a sortable or aggregatable record column.
type Column string

const (
	ColumnID    Column = "id"
	ColumnLabel Column = "despesa"
	ColumnTotal Column = "total"
)

// ParseColumn resolves a column name. The boolean is false for names outside
// the whitelist of id, despesa, total and the twelve periods.
func ParseColumn(name string) (Column, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	switch Column(name) {
	case ColumnID, ColumnLabel, ColumnTotal:
		return Column(name), true
	}
	if _, ok := ParsePeriod(name); ok {
		return Column(name), true
	}
	return "", false
}

// PeriodColumn returns the column holding period p.
func PeriodColumn(p Period) Column { return Column(p.String()) }

// Period returns the period this column holds, if any.
func (c Column) Period() (Period, bool) { return ParsePeriod(string(c)) }

// Numeric reports whether sums and averages are defined over the column.
func (c Column) Numeric() bool {
	if c == ColumnTotal {
		return true
	}
	_, ok := c.Period()
	return ok
}

// Order is a list ordering.
type Order struct {
	Column Column
	Desc   bool
}

// DefaultOrder lists the newest records first.
var DefaultOrder = Order{Column: ColumnID, Desc: true}

// ParseOrder builds an order from request-style arguments. Unknown columns
// fall back to id; any direction other than "desc" is ascending.
func ParseOrder(column, direction string) Order {
	c, ok := ParseColumn(column)
	if !ok {
		c = ColumnID
	}
	return Order{Column: c, Desc: strings.EqualFold(strings.TrimSpace(direction), "desc")}
}

// Filter narrows a record listing. Nil bounds are not applied. The month
// bounds only apply when Month is set.
type Filter struct {
	MinTotal      *decimal.Decimal
	MaxTotal      *decimal.Decimal
	Month         *Period
	MinMonthValue *decimal.Decimal
	MaxMonthValue *decimal.Decimal
	LabelContains string
}

// Validate rejects inverted bounds.
func (f Filter) Validate() error {
	if f.MinTotal != nil && f.MaxTotal != nil && f.MinTotal.GreaterThan(*f.MaxTotal) {
		return &ValidationError{Field: "total", Msg: "min_total is greater than max_total"}
	}
	if f.Month != nil && !f.Month.Valid() {
		return &ValidationError{Field: "month", Msg: "unknown month"}
	}
	if f.MinMonthValue != nil && f.MaxMonthValue != nil && f.MinMonthValue.GreaterThan(*f.MaxMonthValue) {
		return &ValidationError{Field: "month", Msg: "min_value is greater than max_value"}
	}
	return nil
}

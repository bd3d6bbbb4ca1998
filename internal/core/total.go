package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Total sums the twelve period values in canonical order and rounds the
// result to two decimal places. Null periods contribute zero.
func Total(months Months) decimal.Decimal {
	sum := decimal.Zero
	for _, p := range Periods() {
		if months[p].Valid {
			sum = sum.Add(months[p].Decimal)
		}
	}
	return sum.Round(2)
}

// TotalOf computes the annual total over a loosely typed field set, as
// received from an import or request payload. Keys are matched
// case-insensitively against the period names and every value goes through
// Normalize; keys that are not periods are ignored.
func TotalOf(fields map[string]any) decimal.Decimal {
	lowered := make(map[string]any, len(fields))
	for k, v := range fields {
		lowered[strings.ToLower(k)] = v
	}

	sum := decimal.Zero
	for _, p := range Periods() {
		sum = sum.Add(Normalize(lowered[p.String()]))
	}
	return sum.Round(2)
}

// Package core holds the expense ledger domain: records, change events,
// the tolerant amount normalizer and the derived-total arithmetic.
package core

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// plainNumber matches values already written as a dot-decimal number with
// at most two decimals, e.g. "100.50" or "-3". Those are taken as-is, like a
// numeric input. Three digits after a dot ("1.000") are a thousands group.
var plainNumber = regexp.MustCompile(`^[+-]?\d+(\.\d{1,2})?$`)

// Normalize converts a user-entered period value into a decimal amount.
//
// Accepted inputs are nil, the numeric Go types, decimal values and strings.
// Strings in the Brazilian format ("R$ 1.248,81", "3.312,00") are cleaned
// before parsing: currency prefix and spaces are removed, the dot is treated
// as thousands separator and the comma as decimal separator.
// Anything that cannot be parsed contributes zero; Normalize never fails.
func Normalize(v any) decimal.Decimal {
	switch x := v.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return x
	case *decimal.Decimal:
		if x == nil {
			return decimal.Zero
		}
		return *x
	case decimal.NullDecimal:
		if !x.Valid {
			return decimal.Zero
		}
		return x.Decimal
	case float64:
		return decimal.NewFromFloat(x)
	case float32:
		return decimal.NewFromFloat32(x)
	case int:
		return decimal.NewFromInt(int64(x))
	case int32:
		return decimal.NewFromInt32(x)
	case int64:
		return decimal.NewFromInt(x)
	case json.Number:
		return normalizeString(string(x))
	case string:
		return normalizeString(x)
	}
	return decimal.Zero
}

func normalizeString(s string) decimal.Decimal {
	d, ok := ParseAmount(s)
	if !ok {
		return decimal.Zero
	}
	return d
}

// ParseAmount parses a string amount. The boolean is false when the string
// is empty or unparseable; callers that want the zero fallback use Normalize.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if plainNumber.MatchString(s) {
		d, err := decimal.NewFromString(s)
		return d, err == nil
	}

	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// RoundCents rounds an amount to the two decimal places the store keeps.
func RoundCents(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// SameAmount reports whether two nullable amounts hold the same value.
// Two nulls are equal; a null never equals a number, not even zero.
func SameAmount(a, b decimal.NullDecimal) bool {
	if a.Valid != b.Valid {
		return false
	}
	if !a.Valid {
		return true
	}
	return a.Decimal.Equal(b.Decimal)
}

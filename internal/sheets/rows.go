package sheets

import (
	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

// Columns is the number of columns in an exported sheet: id, label, the
// twelve periods and the annual total.
const Columns = 2 + core.NumPeriods + 1

// Header returns the first row of an exported sheet.
func Header() []any {
	row := make([]any, 0, Columns)
	row = append(row, "id", "despesa")
	for _, p := range core.Periods() {
		row = append(row, p.String())
	}
	return append(row, "total_anual")
}

// Rows renders records as sheet rows, header first. Absent months are
// written as empty cells so they stay distinguishable from zero.
func Rows(records []core.Record) [][]any {
	out := make([][]any, 0, len(records)+1)
	out = append(out, Header())
	for _, r := range records {
		row := make([]any, 0, Columns)
		row = append(row, r.ID, r.Label)
		for _, p := range core.Periods() {
			row = append(row, cell(r.Months[p]))
		}
		row = append(row, r.Total.InexactFloat64())
		out = append(out, row)
	}
	return out
}

func cell(v decimal.NullDecimal) any {
	if !v.Valid {
		return ""
	}
	return v.Decimal.InexactFloat64()
}

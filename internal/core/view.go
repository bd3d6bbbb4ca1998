package core

import "github.com/shopspring/decimal"

// MonthlyData is the named bundle of the twelve period values.
type MonthlyData struct {
	Janeiro   decimal.NullDecimal `json:"janeiro"`
	Fevereiro decimal.NullDecimal `json:"fevereiro"`
	Marco     decimal.NullDecimal `json:"marco"`
	Abril     decimal.NullDecimal `json:"abril"`
	Maio      decimal.NullDecimal `json:"maio"`
	Junho     decimal.NullDecimal `json:"junho"`
	Julho     decimal.NullDecimal `json:"julho"`
	Agosto    decimal.NullDecimal `json:"agosto"`
	Setembro  decimal.NullDecimal `json:"setembro"`
	Outubro   decimal.NullDecimal `json:"outubro"`
	Novembro  decimal.NullDecimal `json:"novembro"`
	Dezembro  decimal.NullDecimal `json:"dezembro"`
}

// RecordView is the read-path shape of a record: identity and label, the
// monthly bundle and the derived annual total.
type RecordView struct {
	ID          int64           `json:"id"`
	Label       string          `json:"despesa"`
	MonthlyData MonthlyData     `json:"monthly_data"`
	AnnualTotal decimal.Decimal `json:"annual_total"`
}

// View returns r in its read-path shape.
func (r Record) View() RecordView {
	m := r.Months
	return RecordView{
		ID:    r.ID,
		Label: r.Label,
		MonthlyData: MonthlyData{
			Janeiro: m[Janeiro], Fevereiro: m[Fevereiro], Marco: m[Marco],
			Abril: m[Abril], Maio: m[Maio], Junho: m[Junho],
			Julho: m[Julho], Agosto: m[Agosto], Setembro: m[Setembro],
			Outubro: m[Outubro], Novembro: m[Novembro], Dezembro: m[Dezembro],
		},
		AnnualTotal: r.Total,
	}
}

// Views maps records to their read-path shape.
func Views(records []Record) []RecordView {
	out := make([]RecordView, len(records))
	for i, r := range records {
		out[i] = r.View()
	}
	return out
}

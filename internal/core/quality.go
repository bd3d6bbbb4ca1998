package core

import "github.com/shopspring/decimal"

// DefaultAnomalyThreshold is the percentage of the record average above
// which a month is reported.
const DefaultAnomalyThreshold = 200.0

var consistencyTolerance = decimal.New(1, -2)

// Consistency compares a stored total against the recomputed one.
type Consistency struct {
	ID              int64           `json:"id"`
	StoredTotal     decimal.Decimal `json:"stored_total"`
	CalculatedTotal decimal.Decimal `json:"calculated_total"`
	IsConsistent    bool            `json:"is_consistent"`
}

// CheckConsistency recomputes the total of r and compares it with the stored
// one. Totals closer than one cent are consistent.
func CheckConsistency(r Record) Consistency {
	calc := Total(r.Months)
	return Consistency{
		ID:              r.ID,
		StoredTotal:     r.Total,
		CalculatedTotal: calc,
		IsConsistent:    r.Total.Sub(calc).Abs().LessThan(consistencyTolerance),
	}
}

// Anomaly is a month whose value stands out against the record average.
type Anomaly struct {
	Month           Period          `json:"-"`
	MonthName       string          `json:"month"`
	Value           decimal.Decimal `json:"value"`
	Average         decimal.Decimal `json:"average"`
	PercentageOfAvg decimal.Decimal `json:"percentage_of_avg"`
}

// DetectAnomalies reports the months of r whose value exceeds
// thresholdPercent of the record average.
//
// The average only counts months holding a non-zero value: null and zero
// months are both treated as having no data.
func DetectAnomalies(r Record, thresholdPercent float64) []Anomaly {
	sum := decimal.Zero
	n := 0
	for _, p := range Periods() {
		v := r.Months[p]
		if !v.Valid || v.Decimal.IsZero() {
			continue
		}
		sum = sum.Add(v.Decimal)
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum.Div(decimal.NewFromInt(int64(n)))
	if avg.IsZero() {
		return nil
	}

	threshold := decimal.NewFromFloat(thresholdPercent)
	var out []Anomaly
	for _, p := range Periods() {
		v := r.Months[p]
		if !v.Valid {
			continue
		}
		pct := v.Decimal.Div(avg).Mul(hundred)
		if !pct.GreaterThan(threshold) {
			continue
		}
		out = append(out, Anomaly{
			Month:           p,
			MonthName:       p.String(),
			Value:           v.Decimal,
			Average:         avg.Round(2),
			PercentageOfAvg: pct.Round(2),
		})
	}
	return out
}

// MonthlyTotals is the per-period sum over every record.
type MonthlyTotals [NumPeriods]decimal.Decimal

// Map keys the totals by period name.
func (m MonthlyTotals) Map() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, NumPeriods)
	for _, p := range Periods() {
		out[p.String()] = m[p]
	}
	return out
}

// Direction of the monthly spending trend.
const (
	TrendUp   = "up"
	TrendDown = "down"
)

// Trend summarizes a monthly breakdown by its extremes.
type Trend struct {
	Lowest       Period          `json:"-"`
	LowestName   string          `json:"lowest_month"`
	LowestValue  decimal.Decimal `json:"lowest_value"`
	Highest      Period          `json:"-"`
	HighestName  string          `json:"highest_month"`
	HighestValue decimal.Decimal `json:"highest_value"`
	Direction    string          `json:"trend"`
}

// Trends picks the first lowest and the last highest month of m. The trend
// is "up" when the highest value is strictly above the lowest one, "down"
// for a flat breakdown.
func Trends(m MonthlyTotals) Trend {
	lo, hi := Janeiro, Janeiro
	for _, p := range Periods() {
		if m[p].LessThan(m[lo]) {
			lo = p
		}
		if m[p].GreaterThanOrEqual(m[hi]) {
			hi = p
		}
	}
	dir := TrendDown
	if m[hi].GreaterThan(m[lo]) {
		dir = TrendUp
	}
	return Trend{
		Lowest: lo, LowestName: lo.String(), LowestValue: m[lo],
		Highest: hi, HighestName: hi.String(), HighestValue: m[hi],
		Direction: dir,
	}
}

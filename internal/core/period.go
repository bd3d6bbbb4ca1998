package core

import "strings"

// Period is one of the twelve fixed monthly slots of a record.
type Period int

const (
	Janeiro Period = iota
	Fevereiro
	Marco
	Abril
	Maio
	Junho
	Julho
	Agosto
	Setembro
	Outubro
	Novembro
	Dezembro
)

// NumPeriods is the number of monthly slots on every record.
const NumPeriods = 12

var periodNames = [NumPeriods]string{
	"janeiro", "fevereiro", "marco", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// String returns the canonical field name of the period.
func (p Period) String() string {
	if !p.Valid() {
		return "invalid"
	}
	return periodNames[p]
}

// Valid reports whether p is one of the twelve canonical periods.
func (p Period) Valid() bool {
	return p >= Janeiro && p <= Dezembro
}

// ParsePeriod resolves a field name (case-insensitive) to its period.
func ParsePeriod(name string) (Period, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range periodNames {
		if n == name {
			return Period(i), true
		}
	}
	return 0, false
}

// Periods returns the twelve periods in canonical order.
func Periods() []Period {
	out := make([]Period, NumPeriods)
	for i := range out {
		out[i] = Period(i)
	}
	return out
}

package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// MaxLabelLength bounds the "despesa" label.
const MaxLabelLength = 100

type (
	// Months holds the twelve period values of a record. A null entry means
	// no value was ever stored for that slot.
	Months [NumPeriods]decimal.NullDecimal

	// Record is one ledger line: a label, twelve period values and the
	// annual total derived from them.
	Record struct {
		ID     int64
		Label  string
		Months Months
		Total  decimal.Decimal
	}

	// Draft is the input for creating a record. Unset months default to zero.
	Draft struct {
		Label  string
		Months [NumPeriods]*decimal.Decimal
	}

	// Patch is a partial update. Nil fields keep the stored value.
	Patch struct {
		Label  *string
		Months [NumPeriods]*decimal.Decimal
	}

	// BatchItem targets one record of a batch update. A zero ID marks an
	// item without identity, which batch updates skip.
	BatchItem struct {
		ID    int64
		Patch Patch
	}
)

// Value returns the amount stored for p, treating null as zero.
func (r Record) Value(p Period) decimal.Decimal {
	if !r.Months[p].Valid {
		return decimal.Zero
	}
	return r.Months[p].Decimal
}

// WithMonth returns a copy of r with period p set to v and the total
// recomputed.
func (r Record) WithMonth(p Period, v decimal.NullDecimal) Record {
	if v.Valid {
		v.Decimal = RoundCents(v.Decimal)
	}
	r.Months[p] = v
	r.Total = Total(r.Months)
	return r
}

// Validate checks the create-time constraints: a non-empty label of at most
// MaxLabelLength characters and no negative month.
func (d Draft) Validate() error {
	if err := validateLabel(d.Label); err != nil {
		return err
	}
	for _, p := range Periods() {
		if v := d.Months[p]; v != nil && v.IsNegative() {
			return &ValidationError{Field: p.String(), Msg: "must not be negative"}
		}
	}
	return nil
}

// Record builds the record a draft describes. The ID is left to the store.
func (d Draft) Record() Record {
	r := Record{Label: strings.TrimSpace(d.Label)}
	for _, p := range Periods() {
		v := decimal.Zero
		if d.Months[p] != nil {
			v = RoundCents(*d.Months[p])
		}
		r.Months[p] = decimal.NewNullDecimal(v)
	}
	r.Total = Total(r.Months)
	return r
}

// Set marks period p to be written with v.
func (p *Patch) Set(period Period, v decimal.Decimal) {
	p.Months[period] = &v
}

// IsEmpty reports whether the patch carries no field at all.
func (p Patch) IsEmpty() bool {
	if p.Label != nil {
		return false
	}
	for _, v := range p.Months {
		if v != nil {
			return false
		}
	}
	return true
}

// Validate checks the label when the patch carries one.
func (p Patch) Validate() error {
	if p.Label == nil {
		return nil
	}
	return validateLabel(*p.Label)
}

// Merge applies patch over current and recomputes the total from the merged
// months. Fields the patch leaves nil keep their current value.
func Merge(current Record, patch Patch) Record {
	merged := current
	if patch.Label != nil {
		merged.Label = strings.TrimSpace(*patch.Label)
	}
	for _, p := range Periods() {
		if v := patch.Months[p]; v != nil {
			merged.Months[p] = decimal.NewNullDecimal(RoundCents(*v))
		}
	}
	merged.Total = Total(merged.Months)
	return merged
}

// Changes lists the period fields whose value in patch differs from the
// value stored in current. The returned events carry no ID or timestamp yet.
// Label changes are not listed; the history only holds period amounts.
func Changes(current Record, patch Patch) []ChangeEvent {
	var out []ChangeEvent
	for _, p := range Periods() {
		v := patch.Months[p]
		if v == nil {
			continue
		}
		next := decimal.NewNullDecimal(RoundCents(*v))
		if SameAmount(current.Months[p], next) {
			continue
		}
		out = append(out, ChangeEvent{
			RecordID: current.ID,
			Field:    p.String(),
			OldValue: current.Months[p],
			NewValue: next,
		})
	}
	return out
}

// DraftFromValues builds a draft from a loosely typed field set. Period keys
// go through Normalize; a nil value leaves the month at its zero default.
func DraftFromValues(label string, values map[string]any) Draft {
	d := Draft{Label: label}
	for k, v := range values {
		p, ok := ParsePeriod(k)
		if !ok || v == nil {
			continue
		}
		n := Normalize(v)
		d.Months[p] = &n
	}
	return d
}

// PatchFromValues builds a patch from a loosely typed field set. The
// "despesa" key sets the label; period keys go through Normalize. Nil values
// and unknown keys are ignored.
func PatchFromValues(values map[string]any) Patch {
	var patch Patch
	for k, v := range values {
		if v == nil {
			continue
		}
		if strings.EqualFold(k, "despesa") {
			label := fmt.Sprint(v)
			patch.Label = &label
			continue
		}
		if p, ok := ParsePeriod(k); ok {
			patch.Set(p, Normalize(v))
		}
	}
	return patch
}

func validateLabel(label string) error {
	label = strings.TrimSpace(label)
	if label == "" {
		return &ValidationError{Field: "despesa", Msg: "must not be empty"}
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return &ValidationError{Field: "despesa", Msg: fmt.Sprintf("must be at most %d characters", MaxLabelLength)}
	}
	return nil
}

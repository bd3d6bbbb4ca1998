package services

import (
	"context"

	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/storage"

	"github.com/shopspring/decimal"
)

// ApplyFormula rewrites one period of a record with op applied to its
// current value (zero when unset) and operand.
func (s *LedgerService) ApplyFormula(ctx context.Context, id int64, period core.Period, op core.FormulaOp, operand decimal.Decimal, userID *int64) (core.Record, error) {
	if !period.Valid() {
		return core.Record{}, &core.ValidationError{Field: "month", Msg: "unknown month"}
	}
	if _, err := core.ParseFormulaOp(string(op)); err != nil {
		return core.Record{}, err
	}

	var out core.Record
	err := s.mutate(ctx, core.MutationFormula, userID, func(tx *storage.Tx) ([]int64, error) {
		current, ok, err := tx.Records().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, core.NotFound("record", id)
		}

		next, err := op.Apply(current.Value(period), operand)
		if err != nil {
			return nil, err
		}

		out, err = s.writeCell(ctx, tx, current, period, decimal.NewNullDecimal(next), userID)
		if err != nil {
			return nil, err
		}
		return []int64{id}, nil
	})
	return out, err
}

// Revert restores field of a record to the old value captured by the
// history version versionID. The restore is itself logged as a new change.
func (s *LedgerService) Revert(ctx context.Context, id int64, field string, versionID int64, userID *int64) (core.Record, error) {
	period, ok := core.ParsePeriod(field)
	if !ok {
		return core.Record{}, &core.ValidationError{Field: "field", Msg: "unknown field " + field}
	}

	var out core.Record
	err := s.mutate(ctx, core.MutationRevert, userID, func(tx *storage.Tx) ([]int64, error) {
		ev, found, err := tx.History().Find(ctx, versionID, id, period.String())
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, core.NotFound("version", versionID)
		}

		current, ok, err := tx.Records().Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, core.NotFound("record", id)
		}

		out, err = s.writeCell(ctx, tx, current, period, ev.OldValue, userID)
		if err != nil {
			return nil, err
		}
		s.logger.DebugContext(ctx, "Reverted field",
			log.FieldRecordID, id,
			log.FieldField, period.String(),
			log.FieldVersionID, versionID)
		return []int64{id}, nil
	})
	return out, err
}

// writeCell stores value into one period of current, logs the change when
// the value differs and returns the reloaded record.
func (s *LedgerService) writeCell(ctx context.Context, tx *storage.Tx, current core.Record, period core.Period, value decimal.NullDecimal, userID *int64) (core.Record, error) {
	updated := current.WithMonth(period, value)
	if !core.SameAmount(current.Months[period], updated.Months[period]) {
		_, err := tx.History().Append(ctx, core.ChangeEvent{
			RecordID: current.ID,
			Field:    period.String(),
			OldValue: current.Months[period],
			NewValue: updated.Months[period],
			UserID:   userID,
		})
		if err != nil {
			return core.Record{}, err
		}
	}
	if _, err := tx.Records().Update(ctx, updated); err != nil {
		return core.Record{}, err
	}
	return reload(ctx, tx, current.ID)
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"despesas/internal/core"
)

// History is the append-only change log bound to a pool or a transaction.
type History struct {
	q      querier
	driver Driver
	now    func() time.Time
}

const historyColumns = "id, despesa_id, field, old_value_cents, new_value_cents, user_id, changed_at_ms"

// Append stores ev and returns it with its version ID and timestamp set.
func (h History) Append(ctx context.Context, ev core.ChangeEvent) (core.ChangeEvent, error) {
	ev.Timestamp = h.now().UTC().Truncate(time.Millisecond)

	var userID sql.NullInt64
	if ev.UserID != nil {
		userID = sql.NullInt64{Int64: *ev.UserID, Valid: true}
	}

	query := `INSERT INTO despesa_history (despesa_id, field, old_value_cents, new_value_cents, user_id, changed_at_ms)
		VALUES (?, ?, ?, ?, ?, ?) RETURNING id`
	err := h.q.QueryRowContext(ctx, h.driver.rebind(query),
		ev.RecordID, ev.Field, nullCents(ev.OldValue), nullCents(ev.NewValue), userID, ev.Timestamp.UnixMilli(),
	).Scan(&ev.ID)
	if err != nil {
		return core.ChangeEvent{}, wrap("history.append", err)
	}
	return ev, nil
}

// List returns the events of one record, most recent first.
func (h History) List(ctx context.Context, recordID int64) ([]core.ChangeEvent, error) {
	query := "SELECT " + historyColumns + " FROM despesa_history WHERE despesa_id = ? ORDER BY changed_at_ms DESC, id DESC"
	rows, err := h.q.QueryContext(ctx, h.driver.rebind(query), recordID)
	if err != nil {
		return nil, wrap("history.list", err)
	}
	defer rows.Close()

	var out []core.ChangeEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("history.list", err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("history.list", err)
	}
	return out, nil
}

// Find looks up one version of a field. The boolean is false when the
// version does not belong to that record and field.
func (h History) Find(ctx context.Context, versionID, recordID int64, field string) (core.ChangeEvent, bool, error) {
	query := "SELECT " + historyColumns + " FROM despesa_history WHERE id = ? AND despesa_id = ? AND field = ?"
	ev, err := scanEvent(h.q.QueryRowContext(ctx, h.driver.rebind(query), versionID, recordID, field))
	if errors.Is(err, sql.ErrNoRows) {
		return core.ChangeEvent{}, false, nil
	}
	if err != nil {
		return core.ChangeEvent{}, false, wrap("history.find", err)
	}
	return ev, true, nil
}

func scanEvent(s scanner) (core.ChangeEvent, error) {
	var (
		ev       core.ChangeEvent
		oldValue sql.NullInt64
		newValue sql.NullInt64
		userID   sql.NullInt64
		ms       int64
	)
	if err := s.Scan(&ev.ID, &ev.RecordID, &ev.Field, &oldValue, &newValue, &userID, &ms); err != nil {
		return core.ChangeEvent{}, err
	}
	ev.OldValue = fromNullCents(oldValue)
	ev.NewValue = fromNullCents(newValue)
	if userID.Valid {
		id := userID.Int64
		ev.UserID = &id
	}
	ev.Timestamp = time.UnixMilli(ms).UTC()
	return ev, nil
}

package storage_test

import (
	"context"
	"testing"

	"despesas/internal/core"
	"despesas/internal/storage/storagetest"

	"github.com/shopspring/decimal"
)

func TestHistoryAppendListFind(t *testing.T) {
	ctx := context.Background()
	db := storagetest.Open(t)
	h := db.History()
	user := int64(42)

	first, err := h.Append(ctx, core.ChangeEvent{
		RecordID: 1, Field: "janeiro",
		OldValue: decimal.NullDecimal{},
		NewValue: decimal.NewNullDecimal(dec("10.50")),
		UserID:   &user,
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	second, err := h.Append(ctx, core.ChangeEvent{
		RecordID: 1, Field: "janeiro",
		OldValue: decimal.NewNullDecimal(dec("10.50")),
		NewValue: decimal.NewNullDecimal(dec("60.50")),
	})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if second.ID <= first.ID {
		t.Fatalf("version ids should increase: %d then %d", first.ID, second.ID)
	}
	if _, err := h.Append(ctx, core.ChangeEvent{RecordID: 2, Field: "marco"}); err != nil {
		t.Fatal(err)
	}

	events, err := h.List(ctx, 1)
	if err != nil || len(events) != 2 {
		t.Fatalf("List = %d, %v", len(events), err)
	}
	if events[0].ID != second.ID || events[1].ID != first.ID {
		t.Fatalf("expected most recent first, got %d, %d", events[0].ID, events[1].ID)
	}
	if events[1].OldValue.Valid || events[1].UserID == nil || *events[1].UserID != 42 {
		t.Fatalf("unexpected first event %+v", events[1])
	}
	if events[0].Timestamp.IsZero() {
		t.Fatal("expected a timestamp")
	}

	ev, ok, err := h.Find(ctx, first.ID, 1, "janeiro")
	if err != nil || !ok || !ev.NewValue.Decimal.Equal(dec("10.5")) {
		t.Fatalf("Find = %+v, %v, %v", ev, ok, err)
	}
	if _, ok, err := h.Find(ctx, first.ID, 1, "fevereiro"); err != nil || ok {
		t.Fatalf("Find with wrong field = %v, %v", ok, err)
	}
	if _, ok, err := h.Find(ctx, first.ID, 2, "janeiro"); err != nil || ok {
		t.Fatalf("Find with wrong record = %v, %v", ok, err)
	}
}

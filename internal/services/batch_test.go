package services

import (
	"context"
	"errors"
	"testing"

	"despesas/internal/core"
	"despesas/internal/storage/storagetest"
)

const (
	rejectInsert = `CREATE TRIGGER reject_boom_insert BEFORE INSERT ON despesas
		WHEN NEW.despesa = 'boom' BEGIN SELECT RAISE(ABORT, 'boom rejected'); END`
	rejectUpdate = `CREATE TRIGGER reject_boom_update BEFORE UPDATE ON despesas
		WHEN NEW.despesa = 'boom' BEGIN SELECT RAISE(ABORT, 'boom rejected'); END`
)

func TestBatchCreate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.svc.BatchCreate(ctx, []core.Draft{
		core.DraftFromValues("a", map[string]any{"janeiro": "1,50"}),
		core.DraftFromValues("b", map[string]any{"janeiro": 2, "dezembro": "3"}),
	})
	if err != nil || len(out) != 2 {
		t.Fatalf("BatchCreate = %d, %v", len(out), err)
	}
	if !out[1].Total.Equal(dec("5")) || out[0].ID == 0 {
		t.Fatalf("unexpected records %+v", out)
	}
	if f.notifier.count() != 1 {
		t.Fatalf("expected one notification for the batch, got %d", f.notifier.count())
	}
	if got := f.counter(t, "despesas_aggregate_cache_invalidations_total", nil); got != 1 {
		t.Fatalf("invalidations = %v, want 1", got)
	}
}

func TestBatchCreateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	storagetest.Exec(t, f.db, rejectInsert)

	if _, err := f.svc.ColumnSum(ctx, core.ColumnTotal); err != nil {
		t.Fatal(err)
	}

	_, err := f.svc.BatchCreate(ctx, []core.Draft{
		core.DraftFromValues("ok", map[string]any{"janeiro": 10}),
		core.DraftFromValues("boom", nil),
	})
	if !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	list, err := f.svc.List(ctx, core.DefaultOrder)
	if err != nil || len(list) != 0 {
		t.Fatalf("partial batch visible: %d records, %v", len(list), err)
	}
	if f.cache.Len() != 1 {
		t.Fatal("a failed batch must not clear the cache")
	}
	if got := f.counter(t, "despesas_rollbacks_total", map[string]string{"op": "batch_create"}); got != 1 {
		t.Fatalf("rollbacks = %v", got)
	}
	if f.notifier.count() != 0 {
		t.Fatal("failed batch should not notify")
	}
}

func TestBatchCreateValidatesEveryItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.BatchCreate(context.Background(), []core.Draft{
		core.DraftFromValues("ok", nil),
		core.DraftFromValues("bad", map[string]any{"julho": -1}),
	})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if list, _ := f.svc.List(context.Background(), core.DefaultOrder); len(list) != 0 {
		t.Fatal("nothing should be written")
	}
}

func TestBatchUpdateSkipsUnknownItems(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := mustCreate(t, f.svc, "a", map[string]any{"janeiro": 10})
	b := mustCreate(t, f.svc, "b", map[string]any{"janeiro": 20})

	out, err := f.svc.BatchUpdate(ctx, []core.BatchItem{
		{ID: 0, Patch: core.PatchFromValues(map[string]any{"janeiro": 1})},
		{ID: 999, Patch: core.PatchFromValues(map[string]any{"janeiro": 1})},
		{ID: b.ID, Patch: core.PatchFromValues(map[string]any{"janeiro": 25, "maio": "5"})},
		{ID: a.ID, Patch: core.PatchFromValues(map[string]any{"janeiro": 10})},
	}, nil)
	if err != nil {
		t.Fatalf("BatchUpdate: %v", err)
	}
	if len(out) != 2 || out[0].ID != b.ID || out[1].ID != a.ID {
		t.Fatalf("unexpected result %+v", out)
	}
	if !out[0].Total.Equal(dec("30")) {
		t.Fatalf("b total = %s, want 30", out[0].Total)
	}

	if events, _ := f.svc.History(ctx, b.ID); len(events) != 2 {
		t.Fatalf("b should have 2 events, got %+v", events)
	}
	if events, _ := f.svc.History(ctx, a.ID); len(events) != 0 {
		t.Fatalf("unchanged a should have no events, got %+v", events)
	}
}

func TestBatchUpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := mustCreate(t, f.svc, "a", map[string]any{"janeiro": 10})
	b := mustCreate(t, f.svc, "b", nil)
	storagetest.Exec(t, f.db, rejectUpdate)

	boom := "boom"
	_, err := f.svc.BatchUpdate(ctx, []core.BatchItem{
		{ID: a.ID, Patch: core.PatchFromValues(map[string]any{"janeiro": 77})},
		{ID: b.ID, Patch: core.Patch{Label: &boom}},
	}, nil)
	if !errors.Is(err, core.ErrStorage) {
		t.Fatalf("expected storage error, got %v", err)
	}

	got, _, _ := f.svc.Get(ctx, a.ID)
	if !got.Months[core.Janeiro].Decimal.Equal(dec("10")) || !got.Total.Equal(dec("10")) {
		t.Fatalf("first item was partially committed: %+v", got)
	}
	if events, _ := f.svc.History(ctx, a.ID); len(events) != 0 {
		t.Fatalf("history of the rolled back item survived: %+v", events)
	}
}

func TestBatchDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := mustCreate(t, f.svc, "a", nil)
	b := mustCreate(t, f.svc, "b", nil)
	mustCreate(t, f.svc, "c", nil)

	n, err := f.svc.BatchDelete(ctx, []int64{a.ID, b.ID, 999})
	if err != nil || n != 2 {
		t.Fatalf("BatchDelete = %d, %v", n, err)
	}
	if n, err := f.svc.BatchDelete(ctx, nil); err != nil || n != 0 {
		t.Fatalf("BatchDelete(nil) = %d, %v", n, err)
	}
	if list, _ := f.svc.List(ctx, core.DefaultOrder); len(list) != 1 || list[0].Label != "c" {
		t.Fatalf("unexpected survivors %+v", list)
	}
}

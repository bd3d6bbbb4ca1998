package services

import (
	"context"
	"errors"
	"testing"

	"despesas/internal/core"
)

func TestAggregatesReflectEveryMutation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	a := mustCreate(t, f.svc, "a", map[string]any{"janeiro": 10})

	sum, err := f.svc.ColumnSum(ctx, core.ColumnTotal)
	if err != nil || !sum.Equal(dec("10")) {
		t.Fatalf("ColumnSum = %s, %v", sum, err)
	}
	// second read is served from the cache
	if _, err := f.svc.ColumnSum(ctx, core.ColumnTotal); err != nil {
		t.Fatal(err)
	}
	if got := f.counter(t, "despesas_aggregate_cache_requests_total", map[string]string{"op": "column_sum", "result": "hit"}); got != 1 {
		t.Fatalf("column_sum hits = %v, want 1", got)
	}

	steps := []struct {
		name   string
		mutate func() error
		want   string
	}{
		{"create", func() error {
			_, err := f.svc.Create(ctx, core.DraftFromValues("b", map[string]any{"janeiro": 5}))
			return err
		}, "15"},
		{"update", func() error {
			_, _, err := f.svc.Update(ctx, a.ID, core.PatchFromValues(map[string]any{"fevereiro": 1}), nil)
			return err
		}, "16"},
		{"formula", func() error {
			_, err := f.svc.ApplyFormula(ctx, a.ID, core.Janeiro, core.OpMultiply, dec("2"), nil)
			return err
		}, "26"},
		{"revert", func() error {
			events, err := f.svc.History(ctx, a.ID)
			if err != nil {
				return err
			}
			_, err = f.svc.Revert(ctx, a.ID, "janeiro", events[0].ID, nil)
			return err
		}, "16"},
		{"delete", func() error {
			_, err := f.svc.Delete(ctx, a.ID)
			return err
		}, "5"},
	}
	for _, step := range steps {
		if err := step.mutate(); err != nil {
			t.Fatalf("%s: %v", step.name, err)
		}
		sum, err := f.svc.ColumnSum(ctx, core.ColumnTotal)
		if err != nil {
			t.Fatal(err)
		}
		if !sum.Equal(dec(step.want)) {
			t.Fatalf("after %s ColumnSum = %s, want %s", step.name, sum, step.want)
		}
	}
}

func TestColumnAverageAndMonthly(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mustCreate(t, f.svc, "a", map[string]any{"marco": 10, "dezembro": 1})
	mustCreate(t, f.svc, "b", map[string]any{"marco": 20})

	avg, err := f.svc.ColumnAverage(ctx, core.PeriodColumn(core.Marco))
	if err != nil || !avg.Equal(dec("15")) {
		t.Fatalf("ColumnAverage = %s, %v", avg, err)
	}
	if _, err := f.svc.ColumnAverage(ctx, core.ColumnLabel); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	monthly, err := f.svc.MonthlyTotals(ctx)
	if err != nil || !monthly[core.Marco].Equal(dec("30")) || !monthly[core.Dezembro].Equal(dec("1")) {
		t.Fatalf("MonthlyTotals = %v, %v", monthly, err)
	}

	tr, err := f.svc.Trends(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if tr.Highest != core.Marco || tr.Lowest != core.Janeiro || tr.Direction != core.TrendUp {
		t.Fatalf("unexpected trend %+v", tr)
	}
}

func TestTopExpenses(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mustCreate(t, f.svc, "small", map[string]any{"janeiro": 1})
	mustCreate(t, f.svc, "big", map[string]any{"janeiro": 100})
	mustCreate(t, f.svc, "mid", map[string]any{"janeiro": 50})

	top, err := f.svc.TopExpenses(ctx, 2)
	if err != nil || len(top) != 2 || top[0].Label != "big" || top[1].Label != "mid" {
		t.Fatalf("TopExpenses = %+v, %v", top, err)
	}

	top[0].Label = "mutated"
	again, _ := f.svc.TopExpenses(ctx, 2)
	if again[0].Label != "big" {
		t.Fatal("caller mutation leaked into the cache")
	}

	if _, err := f.svc.TopExpenses(ctx, 0); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for limit 0, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	mustCreate(t, f.svc, "Conta de luz", map[string]any{"junho": 90})
	mustCreate(t, f.svc, "Aluguel", map[string]any{"junho": 900})

	month := core.Junho
	lo := dec("100")
	got, err := f.svc.Filter(ctx, core.Filter{Month: &month, MinMonthValue: &lo})
	if err != nil || len(got) != 1 || got[0].Label != "Aluguel" {
		t.Fatalf("Filter = %+v, %v", got, err)
	}

	hi := dec("50")
	if _, err := f.svc.Filter(ctx, core.Filter{MinTotal: &lo, MaxTotal: &hi}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected inverted bounds to fail, got %v", err)
	}
}

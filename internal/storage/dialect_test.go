package storage

import (
	"testing"

	"despesas/internal/core"
)

func TestRebind(t *testing.T) {
	cases := []struct {
		driver Driver
		in     string
		out    string
	}{
		{DriverSQLite, "a = ? AND b = ?", "a = ? AND b = ?"},
		{DriverPostgres, "a = ? AND b = ?", "a = $1 AND b = $2"},
		{DriverPostgres, "no placeholders", "no placeholders"},
	}
	for _, tc := range cases {
		if got := tc.driver.rebind(tc.in); got != tc.out {
			t.Fatalf("%s rebind(%q) = %q, want %q", tc.driver, tc.in, got, tc.out)
		}
	}
}

func TestLikePattern(t *testing.T) {
	if got := likePattern(`50%_off\`); got != `%50\%\_off\\%` {
		t.Fatalf("likePattern = %q", got)
	}
}

func TestDriverValidate(t *testing.T) {
	if err := Driver("mysql").Validate(); err == nil {
		t.Fatal("expected mysql to be rejected")
	}
	if err := DriverPostgres.Validate(); err != nil {
		t.Fatal(err)
	}
}

func TestCentsConversion(t *testing.T) {
	d := core.Normalize("1.248,815")
	if got := toCents(d); got != 124882 {
		t.Fatalf("toCents = %d, want 124882", got)
	}
	if got := fromCents(-5); got.String() != "-0.05" {
		t.Fatalf("fromCents = %s", got)
	}
}

func TestOrderClause(t *testing.T) {
	got, err := orderClause(core.ParseOrder("Marco", "desc"))
	if err != nil || got != "marco_cents DESC, id ASC" {
		t.Fatalf("orderClause = %q, %v", got, err)
	}
	got, err = orderClause(core.ParseOrder("drop table", "asc"))
	if err != nil || got != "id ASC" {
		t.Fatalf("fallback orderClause = %q, %v", got, err)
	}
}

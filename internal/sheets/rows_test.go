package sheets

import (
	"testing"

	"despesas/internal/core"

	"github.com/shopspring/decimal"
)

func TestHeader(t *testing.T) {
	h := Header()
	if len(h) != Columns {
		t.Fatalf("len(Header()) = %d, want %d", len(h), Columns)
	}
	if h[0] != "id" || h[1] != "despesa" || h[2] != "janeiro" || h[13] != "dezembro" || h[14] != "total_anual" {
		t.Errorf("unexpected header %v", h)
	}
}

func TestRows(t *testing.T) {
	rec := core.Record{ID: 7, Label: "Aluguel"}
	rec = rec.WithMonth(core.Janeiro, decimal.NewNullDecimal(decimal.RequireFromString("1500.50")))
	rec = rec.WithMonth(core.Fevereiro, decimal.NewNullDecimal(decimal.Zero))

	rows := Rows([]core.Record{rec})
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	row := rows[1]
	if len(row) != Columns {
		t.Fatalf("len(row) = %d, want %d", len(row), Columns)
	}

	tests := []struct {
		name string
		col  int
		want any
	}{
		{"id", 0, int64(7)},
		{"label", 1, "Aluguel"},
		{"set month", 2, 1500.5},
		{"zero month", 3, 0.0},
		{"absent month", 4, ""},
		{"total", 14, 1500.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if row[tt.col] != tt.want {
				t.Errorf("row[%d] = %v (%T), want %v (%T)", tt.col, row[tt.col], row[tt.col], tt.want, tt.want)
			}
		})
	}
}

func TestRows_Empty(t *testing.T) {
	rows := Rows(nil)
	if len(rows) != 1 {
		t.Fatalf("len(rows) = %d, want header only", len(rows))
	}
}

package memory

import (
	"context"
	"testing"

	"despesas/internal/core"
)

func TestStore_Export(t *testing.T) {
	s := New()
	records := []core.Record{{ID: 1, Label: "Luz"}, {ID: 2, Label: "Agua"}}

	ref, err := s.Export(context.Background(), records)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if ref != "mem:A1:O3" {
		t.Errorf("Export() ref = %q, want mem:A1:O3", ref)
	}

	rows := s.Rows()
	if len(rows) != 3 || rows[2][1] != "Agua" {
		t.Errorf("unexpected rows %v", rows)
	}

	rows[1][1] = "changed"
	if s.Rows()[1][1] != "Luz" {
		t.Error("Rows() should return a copy")
	}

	if _, err := s.Export(context.Background(), records[:1]); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if s.Exports() != 2 || len(s.Rows()) != 2 {
		t.Errorf("second export should replace the snapshot, got %d exports and %d rows", s.Exports(), len(s.Rows()))
	}
}

func TestStore_Export_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Export(ctx, nil); err != context.Canceled {
		t.Errorf("Export() error = %v, want context.Canceled", err)
	}
}

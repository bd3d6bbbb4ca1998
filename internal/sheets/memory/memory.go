package memory

import (
	"context"
	"fmt"
	"sync"

	"despesas/internal/core"
	ports "despesas/internal/sheets"
)

// Store keeps the last exported snapshot in memory. It backs dry runs and
// tests that need a LedgerWriter without a spreadsheet.
type Store struct {
	mu      sync.Mutex
	rows    [][]any
	exports int
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// Export replaces the stored snapshot and returns a synthetic range reference.
func (s *Store) Export(ctx context.Context, records []core.Record) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	rows := ports.Rows(records)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	s.exports++
	return fmt.Sprintf("mem:A1:O%d", len(rows)), nil
}

// Rows returns a copy of the last exported snapshot, header included.
func (s *Store) Rows() [][]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]any, len(s.rows))
	for i, r := range s.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}

// Exports reports how many snapshots have been written.
func (s *Store) Exports() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exports
}

package sheets

import (
	"context"

	"despesas/internal/core"
)

// Ports for outbound adapters.
type (
	// LedgerWriter replaces the contents of a spreadsheet tab with a snapshot
	// of the ledger and returns a reference to the written range.
	LedgerWriter interface {
		Export(ctx context.Context, records []core.Record) (rangeRef string, err error)
	}
)

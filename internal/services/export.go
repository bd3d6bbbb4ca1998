package services

import (
	"context"
	"fmt"

	"despesas/internal/core"
	"despesas/internal/log"
)

// Exporter writes a full snapshot of the ledger somewhere outside the store.
type Exporter interface {
	Export(ctx context.Context, records []core.Record) (string, error)
}

// ExportTo snapshots every record in id order and hands it to exp. It
// returns the reference the exporter reports for the written data.
func (s *LedgerService) ExportTo(ctx context.Context, exp Exporter) (string, error) {
	records, err := s.db.Records().List(ctx, core.Order{Column: core.ColumnID})
	if err != nil {
		return "", err
	}

	ref, err := exp.Export(ctx, records)
	if err != nil {
		return "", fmt.Errorf("export %d records: %w", len(records), err)
	}

	s.logger.InfoContext(ctx, "Exported ledger",
		log.FieldCount, len(records),
		log.FieldSheetsRef, ref)
	return ref, nil
}

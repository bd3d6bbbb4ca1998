package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"despesas/internal/amqp"
	"despesas/internal/log"
	"despesas/internal/services"
)

// Ledger is the part of the ledger service the worker needs.
type Ledger interface {
	ExportTo(ctx context.Context, exp services.Exporter) (string, error)
}

// SyncWorker keeps a spreadsheet in step with the ledger by re-exporting
// the full snapshot whenever a record change notification arrives.
type SyncWorker struct {
	ledger Ledger
	writer services.Exporter
	logger *log.Logger
	now    func() time.Time

	mu         sync.Mutex
	lastExport time.Time
	exports    int
}

func NewSyncWorker(ledger Ledger, writer services.Exporter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{
		ledger: ledger,
		writer: writer,
		logger: logger.WithComponent(log.ComponentSheets),
		now:    time.Now,
	}
}

// StartupSync writes the current snapshot once so the sheet is current
// before any message is consumed.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.exportLocked(ctx); err != nil {
		return fmt.Errorf("startup sync: %w", err)
	}
	return nil
}

// HandleRecordChange exports the ledger for msg. A change stamped before the
// start of the last successful export is already part of that snapshot and
// is skipped.
func (w *SyncWorker) HandleRecordChange(ctx context.Context, msg *amqp.RecordChangeMessage) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lastExport.IsZero() && msg.Timestamp.Before(w.lastExport) {
		w.logger.DebugContext(ctx, "Change already exported",
			"message_id", msg.ID,
			log.FieldOperation, msg.Operation)
		return nil
	}
	if err := w.exportLocked(ctx); err != nil {
		return fmt.Errorf("sync ledger to sheets: %w", err)
	}
	return nil
}

func (w *SyncWorker) exportLocked(ctx context.Context) error {
	started := w.now()
	ref, err := w.ledger.ExportTo(ctx, w.writer)
	if err != nil {
		return err
	}
	w.lastExport = started
	w.exports++
	w.logger.InfoContext(ctx, "Ledger synced", log.FieldSheetsRef, ref)
	return nil
}

// Exports reports how many snapshots the worker has written.
func (w *SyncWorker) Exports() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.exports
}

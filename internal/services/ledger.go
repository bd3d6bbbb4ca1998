// Package services implements the ledger engine: point and batch mutations,
// formula application and reverts, memoized aggregates and data-quality
// checks, each mutating call committed as a single unit of work.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"despesas/internal/cache"
	"despesas/internal/core"
	"despesas/internal/log"
	"despesas/internal/metrics"
	"despesas/internal/storage"
)

// Notifier is told about every committed mutation.
type Notifier interface {
	PublishRecordChange(ctx context.Context, change core.RecordChange) error
}

// Options carries the optional collaborators of a LedgerService.
type Options struct {
	Notifier Notifier
	Metrics  *metrics.Recorder
	Logger   *log.Logger
}

// LedgerService is the entry point adapters call into.
type LedgerService struct {
	db       *storage.DB
	cache    *cache.Aggregates
	notifier Notifier
	metrics  *metrics.Recorder
	logger   *log.Logger
}

// DefaultCacheSize bounds the aggregate cache when the caller brings none.
const DefaultCacheSize = 128

// NewLedgerService wires the service. A nil aggregates cache gets a default
// bounded one reporting to opts.Metrics.
func NewLedgerService(db *storage.DB, aggregates *cache.Aggregates, opts Options) *LedgerService {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	if aggregates == nil {
		aggregates = cache.NewAggregates(cache.NewLRUCache[any](DefaultCacheSize, 0), opts.Metrics)
	}
	return &LedgerService{
		db:       db,
		cache:    aggregates,
		notifier: opts.Notifier,
		metrics:  opts.Metrics,
		logger:   logger.WithComponent(log.ComponentLedger),
	}
}

// unitFn runs inside a transaction and returns the ids it changed.
type unitFn func(tx *storage.Tx) ([]int64, error)

// mutate runs fn as one unit of work. After a commit that changed at least
// one record it invalidates the aggregate cache, then records metrics and
// publishes the change. A failed unit leaves the cache untouched.
func (s *LedgerService) mutate(ctx context.Context, op core.Mutation, userID *int64, fn unitFn) error {
	start := time.Now()

	var changed []int64
	err := s.db.WithTx(ctx, func(tx *storage.Tx) error {
		ids, err := fn(tx)
		changed = ids
		return err
	})
	if err != nil {
		s.metrics.RolledBack(string(op), time.Since(start))
		fields := log.NewFields().
			WithOperation(string(op)).
			WithUser(userID).
			WithError(err).
			WithErrorType(errorType(err))
		if errors.Is(err, core.ErrStorage) {
			s.logger.WithFields(fields).ErrorContext(ctx, "Unit of work rolled back")
		} else {
			s.logger.WithFields(fields).DebugContext(ctx, "Unit of work rejected")
		}
		return err
	}
	if len(changed) == 0 {
		return nil
	}

	s.cache.InvalidateAll()
	took := time.Since(start)
	s.metrics.Committed(string(op), took)
	s.logger.WithFields(log.NewFields().
		WithOperation(string(op)).
		WithRecords(changed).
		WithUser(userID)).
		InfoContext(ctx, "Mutation committed", log.FieldDuration, took.Milliseconds())

	s.notify(ctx, core.RecordChange{Operation: op, RecordIDs: changed, UserID: userID})
	return nil
}

func errorType(err error) string {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrInvalidOperation):
		return log.ErrorTypeValidation
	case errors.Is(err, core.ErrNotFound):
		return log.ErrorTypeNotFound
	case errors.Is(err, core.ErrStorage):
		return log.ErrorTypeDatabase
	}
	return log.ErrorTypeInternal
}

func (s *LedgerService) notify(ctx context.Context, change core.RecordChange) {
	if s.notifier == nil {
		return
	}
	// The mutation is already durable; a lost notification is only logged.
	if err := s.notifier.PublishRecordChange(ctx, change); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish record change",
			log.FieldOperation, string(change.Operation),
			log.FieldRecordIDs, change.RecordIDs,
			log.FieldErrorType, log.ErrorTypeNetwork,
			log.FieldError, err)
	}
}

func reload(ctx context.Context, tx *storage.Tx, id int64) (core.Record, error) {
	rec, ok, err := tx.Records().Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	if !ok {
		// the row was written in this transaction; losing it is a store fault
		return core.Record{}, &core.StorageError{Op: "reload", Err: fmt.Errorf("record %d vanished after write", id)}
	}
	return rec, nil
}

// Create stores a new record built from draft.
func (s *LedgerService) Create(ctx context.Context, draft core.Draft) (core.Record, error) {
	if err := draft.Validate(); err != nil {
		return core.Record{}, err
	}

	var out core.Record
	err := s.mutate(ctx, core.MutationCreate, nil, func(tx *storage.Tx) ([]int64, error) {
		created, err := tx.Records().Create(ctx, draft.Record())
		if err != nil {
			return nil, err
		}
		out, err = reload(ctx, tx, created.ID)
		if err != nil {
			return nil, err
		}
		return []int64{out.ID}, nil
	})
	return out, err
}

// Get loads one record. The boolean is false for unknown ids.
func (s *LedgerService) Get(ctx context.Context, id int64) (core.Record, bool, error) {
	return s.db.Records().Get(ctx, id)
}

// List returns every record in the given order.
func (s *LedgerService) List(ctx context.Context, order core.Order) ([]core.Record, error) {
	return s.db.Records().List(ctx, order)
}

// Update merges patch into the record and recomputes its total. Every
// period whose value actually changes is logged to the history. Unknown ids
// report false without an error.
func (s *LedgerService) Update(ctx context.Context, id int64, patch core.Patch, userID *int64) (core.Record, bool, error) {
	if err := patch.Validate(); err != nil {
		return core.Record{}, false, err
	}

	var (
		out   core.Record
		found bool
	)
	err := s.mutate(ctx, core.MutationUpdate, userID, func(tx *storage.Tx) ([]int64, error) {
		rec, ok, err := s.applyPatch(ctx, tx, id, patch, userID)
		if err != nil || !ok {
			return nil, err
		}
		out, found = rec, true
		return []int64{id}, nil
	})
	return out, found, err
}

// applyPatch is the read-modify-write shared by Update and BatchUpdate.
func (s *LedgerService) applyPatch(ctx context.Context, tx *storage.Tx, id int64, patch core.Patch, userID *int64) (core.Record, bool, error) {
	current, ok, err := tx.Records().Get(ctx, id)
	if err != nil || !ok {
		return core.Record{}, false, err
	}

	for _, ev := range core.Changes(current, patch) {
		ev.UserID = userID
		if _, err := tx.History().Append(ctx, ev); err != nil {
			return core.Record{}, false, err
		}
		s.logger.DebugContext(ctx, "Field changed",
			log.FieldRecordID, id,
			log.FieldField, ev.Field,
			log.FieldOldValue, ev.OldValue,
			log.FieldNewValue, ev.NewValue)
	}

	if _, err := tx.Records().Update(ctx, core.Merge(current, patch)); err != nil {
		return core.Record{}, false, err
	}
	rec, err := reload(ctx, tx, id)
	if err != nil {
		return core.Record{}, false, err
	}
	return rec, true, nil
}

// Delete removes one record and reports whether it existed.
func (s *LedgerService) Delete(ctx context.Context, id int64) (bool, error) {
	var deleted bool
	err := s.mutate(ctx, core.MutationDelete, nil, func(tx *storage.Tx) ([]int64, error) {
		ok, err := tx.Records().Delete(ctx, id)
		if err != nil || !ok {
			return nil, err
		}
		deleted = true
		return []int64{id}, nil
	})
	return deleted, err
}

// History returns the change events of a record, most recent first.
func (s *LedgerService) History(ctx context.Context, id int64) ([]core.ChangeEvent, error) {
	events, err := s.db.History().List(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("history of record %d: %w", id, err)
	}
	return events, nil
}

package services

import (
	"context"
	"fmt"

	"despesas/internal/core"
	"despesas/internal/storage"
)

// BatchCreate inserts every draft in one unit of work. A single invalid
// draft rejects the batch before anything is written; a storage failure on
// any item rolls back the items already inserted.
func (s *LedgerService) BatchCreate(ctx context.Context, drafts []core.Draft) ([]core.Record, error) {
	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}
	if len(drafts) == 0 {
		return []core.Record{}, nil
	}

	var out []core.Record
	err := s.mutate(ctx, core.MutationBatchCreate, nil, func(tx *storage.Tx) ([]int64, error) {
		out = make([]core.Record, 0, len(drafts))
		ids := make([]int64, 0, len(drafts))
		for _, d := range drafts {
			created, err := tx.Records().Create(ctx, d.Record())
			if err != nil {
				return nil, err
			}
			rec, err := reload(ctx, tx, created.ID)
			if err != nil {
				return nil, err
			}
			out = append(out, rec)
			ids = append(ids, rec.ID)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchUpdate applies every item in the order given, in one unit of work.
// Items without an id or targeting a missing record are skipped and left
// out of the result. Changed periods are logged per item.
func (s *LedgerService) BatchUpdate(ctx context.Context, items []core.BatchItem, userID *int64) ([]core.Record, error) {
	for i, it := range items {
		if err := it.Patch.Validate(); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
	}

	var out []core.Record
	err := s.mutate(ctx, core.MutationBatchUpdate, userID, func(tx *storage.Tx) ([]int64, error) {
		out = make([]core.Record, 0, len(items))
		var ids []int64
		for _, it := range items {
			if it.ID == 0 {
				continue
			}
			rec, ok, err := s.applyPatch(ctx, tx, it.ID, it.Patch, userID)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", it.ID, err)
			}
			if !ok {
				continue
			}
			out = append(out, rec)
			ids = append(ids, rec.ID)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BatchDelete removes every listed record in one statement and returns how
// many existed.
func (s *LedgerService) BatchDelete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var removed int64
	err := s.mutate(ctx, core.MutationBatchDelete, nil, func(tx *storage.Tx) ([]int64, error) {
		n, err := tx.Records().DeleteMany(ctx, ids)
		if err != nil || n == 0 {
			return nil, err
		}
		removed = n
		return ids, nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

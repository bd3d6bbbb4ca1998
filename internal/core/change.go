package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// ChangeEvent is one audited field change. ID doubles as the version
// number used by reverts.
type ChangeEvent struct {
	ID        int64               `json:"id"`
	RecordID  int64               `json:"despesa_id"`
	Field     string              `json:"field"`
	OldValue  decimal.NullDecimal `json:"old_value"`
	NewValue  decimal.NullDecimal `json:"new_value"`
	UserID    *int64              `json:"user_id,omitempty"`
	Timestamp time.Time           `json:"changed_at"`
}

// Mutation names the ledger operation behind a committed change.
type Mutation string

const (
	MutationCreate      Mutation = "create"
	MutationUpdate      Mutation = "update"
	MutationDelete      Mutation = "delete"
	MutationBatchCreate Mutation = "batch_create"
	MutationBatchUpdate Mutation = "batch_update"
	MutationBatchDelete Mutation = "batch_delete"
	MutationFormula     Mutation = "formula"
	MutationRevert      Mutation = "revert"
)

// RecordChange describes a committed mutation for downstream consumers.
type RecordChange struct {
	Operation Mutation
	RecordIDs []int64
	UserID    *int64
}

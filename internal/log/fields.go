package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldDuration  = "duration_ms"
	FieldRecordID  = "record_id"
	FieldRecordIDs = "record_ids"
	FieldCount     = "count"
	FieldField     = "field"
	FieldOldValue  = "old_value"
	FieldNewValue  = "new_value"
	FieldVersionID = "version_id"
	FieldUserID    = "user_id"
	FieldSheetsRef = "sheets_ref"
	FieldErrorType = "error_type"
)

// Components defines standard component names
const (
	ComponentApp    = "app"
	ComponentLedger = "ledger"
	ComponentAMQP   = "amqp"
	ComponentSheets = "sheets"
	ComponentCLI    = "cli"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation = "validation_error"
	ErrorTypeDatabase   = "database_error"
	ErrorTypeNetwork    = "network_error"
	ErrorTypeNotFound   = "not_found_error"
	ErrorTypeInternal   = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(t string) LogFields {
	f[FieldErrorType] = t
	return f
}

// WithRecords adds the affected record ids and their count.
func (f LogFields) WithRecords(ids []int64) LogFields {
	f[FieldRecordIDs] = ids
	f[FieldCount] = len(ids)
	return f
}

// WithUser adds the acting user when known.
func (f LogFields) WithUser(userID *int64) LogFields {
	if userID != nil {
		f[FieldUserID] = *userID
	}
	return f
}

// ToSlice converts LogFields to a slice for slog, sorted by key so
// output is stable.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}

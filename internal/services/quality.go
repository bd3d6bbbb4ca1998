package services

import (
	"context"

	"despesas/internal/core"
	"despesas/internal/log"
)

func (s *LedgerService) mustGet(ctx context.Context, id int64) (core.Record, error) {
	rec, ok, err := s.db.Records().Get(ctx, id)
	if err != nil {
		return core.Record{}, err
	}
	if !ok {
		return core.Record{}, core.NotFound("record", id)
	}
	return rec, nil
}

// CheckConsistency compares the stored total of a record with the one
// recomputed from its periods.
func (s *LedgerService) CheckConsistency(ctx context.Context, id int64) (core.Consistency, error) {
	rec, err := s.mustGet(ctx, id)
	if err != nil {
		return core.Consistency{}, err
	}
	return core.CheckConsistency(rec), nil
}

// DetectAnomalies lists the months of a record above thresholdPercent of
// its average.
func (s *LedgerService) DetectAnomalies(ctx context.Context, id int64, thresholdPercent float64) ([]core.Anomaly, error) {
	rec, err := s.mustGet(ctx, id)
	if err != nil {
		return nil, err
	}
	return core.DetectAnomalies(rec, thresholdPercent), nil
}

// FindDuplicates lists records whose label contains name, case-sensitively.
func (s *LedgerService) FindDuplicates(ctx context.Context, name string) ([]core.Record, error) {
	return s.db.Records().FindByLabel(ctx, name)
}

// ConsistencySweep checks every record and returns the inconsistent ones.
func (s *LedgerService) ConsistencySweep(ctx context.Context) ([]core.Consistency, error) {
	records, err := s.db.Records().List(ctx, core.Order{Column: core.ColumnID})
	if err != nil {
		return nil, err
	}

	var drift []core.Consistency
	for _, rec := range records {
		if c := core.CheckConsistency(rec); !c.IsConsistent {
			drift = append(drift, c)
		}
	}
	s.metrics.Inconsistent(len(drift))
	if len(drift) > 0 {
		s.logger.WarnContext(ctx, "Inconsistent totals found",
			log.FieldCount, len(drift),
			"checked", len(records))
	}
	return drift, nil
}

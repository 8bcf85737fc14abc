package reconcile

import "context"

// Rejection describes one record the store refused during a bulk insert,
// identified by its natural keys so the operator can locate the source row.
type Rejection struct {
	Primary   string `json:"primaryKey"`
	Secondary string `json:"secondaryKey"`
	Reason    string `json:"reason"`
}

// BulkResult is the uniform outcome of a duplicate-tolerant bulk insert.
// Store adapters map their driver-specific duplicate reporting into this
// shape so the engine never inspects driver error formats.
type BulkResult struct {
	Inserted int
	Rejected []Rejection
}

// BulkWriter performs one unordered bulk insert. Uniqueness violations are
// expected outcomes reported per record in BulkResult; only infrastructure
// failures return an error.
type BulkWriter[T Record] interface {
	BulkInsert(ctx context.Context, recs []T) (BulkResult, error)
}

// DeriveFunc fills fields needed only at commit time (credential seeding and
// the like). A derive failure rejects that record, not the batch.
type DeriveFunc[T Record] func(ctx context.Context, rec *T) error

// Commit persists an operator-approved New subset: derive per record, then
// one unordered bulk insert. Records whose keys already landed via a
// concurrent commit come back in Rejected; re-committing the same subset
// yields Inserted=0 with every record rejected, never a duplicate row.
func Commit[T Record](ctx context.Context, recs []T, writer BulkWriter[T], derive DeriveFunc[T]) (BulkResult, error) {
	if len(recs) == 0 {
		return BulkResult{}, nil
	}

	toInsert := make([]T, 0, len(recs))
	var derived BulkResult
	for i := range recs {
		if derive != nil {
			if err := derive(ctx, &recs[i]); err != nil {
				k := recs[i].RecordKeys()
				derived.Rejected = append(derived.Rejected, Rejection{
					Primary:   k.Primary,
					Secondary: k.Secondary,
					Reason:    err.Error(),
				})
				continue
			}
		}
		toInsert = append(toInsert, recs[i])
	}

	if len(toInsert) == 0 {
		return derived, nil
	}

	res, err := writer.BulkInsert(ctx, toInsert)
	if err != nil {
		return BulkResult{}, err
	}
	res.Rejected = append(derived.Rejected, res.Rejected...)
	return res, nil
}

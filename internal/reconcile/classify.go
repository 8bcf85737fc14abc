package reconcile

import "fmt"

// Keys carries the two independently-unique natural identifiers of a record.
type Keys struct {
	Primary   string
	Secondary string
}

// Record is the constraint for everything flowing through the classifier and
// committer: any domain record that exposes its natural keys.
type Record interface {
	RecordKeys() Keys
}

// Conflict is a candidate that cannot be imported, with a human-readable
// reason surfaced to the operator.
type Conflict[T Record] struct {
	Record T
	Reason string
}

// InvalidRow is a candidate that failed structural validation, carried with
// its original raw data so operators can fix and resubmit it.
type InvalidRow struct {
	Data   RawRecord `json:"data"`
	Errors []string  `json:"errors"`
}

// Summary counts every disposition of one analyzed batch.
type Summary struct {
	Received    int `json:"totalReceived"`
	Valid       int `json:"totalValid"`
	Invalid     int `json:"totalInvalid"`
	New         int `json:"totalNew"`
	Current     int `json:"totalCurrent"`
	Conflicting int `json:"totalConflicts"`
}

// Outcome partitions one batch. Every valid candidate lands in exactly one of
// New, Current or Conflicting; invalid rows never enter classification.
// Input order is preserved within each bucket.
type Outcome[T Record] struct {
	New         []T
	Current     []T
	Conflicting []Conflict[T]
	Invalid     []InvalidRow
	Summary     Summary
}

type classifier[T Record] struct {
	primaryName   string
	secondaryName string
	payloadEqual  func(candidate, persisted T) bool
	payloadReason string
}

// Option configures per-domain classification behavior.
type Option[T Record] func(*classifier[T])

// WithKeyNames sets the business names of the two keys used in conflict
// reasons ("client code"/"tax id" instead of "primary key"/"secondary key").
func WithKeyNames[T Record](primary, secondary string) Option[T] {
	return func(c *classifier[T]) {
		c.primaryName = primary
		c.secondaryName = secondary
	}
}

// WithPayloadComparer makes a primary-key store match compare payloads:
// equal payloads classify as Current, differing payloads as Conflicting with
// the given reason. Without this option a primary-key match is always
// Current, regardless of payload drift.
func WithPayloadComparer[T Record](equal func(candidate, persisted T) bool, reason string) Option[T] {
	return func(c *classifier[T]) {
		c.payloadEqual = equal
		c.payloadReason = reason
	}
}

// Classify partitions validated candidates against the persisted snapshot in
// one deterministic pass. Store-level matches outrank in-batch matches (the
// store is the source of truth), and a primary-key store match outranks
// secondary-key checks: an exact primary hit means "same entity", a stronger
// signal than a secondary collision. Within the batch, first occurrence wins.
//
// invalid carries the rows that failed validation before classification;
// they are reported alongside so counts reconcile with the batch size.
func Classify[T Record](candidates []T, persisted []T, invalid []InvalidRow, opts ...Option[T]) Outcome[T] {
	c := classifier[T]{
		primaryName:   "primary key",
		secondaryName: "secondary key",
	}
	for _, opt := range opts {
		opt(&c)
	}

	persistedByPrimary := make(map[string]T, len(persisted))
	persistedSecondary := make(map[string]struct{}, len(persisted))
	for _, p := range persisted {
		k := p.RecordKeys()
		persistedByPrimary[k.Primary] = p
		persistedSecondary[k.Secondary] = struct{}{}
	}

	seenPrimary := make(map[string]struct{}, len(candidates))
	seenSecondary := make(map[string]struct{}, len(candidates))

	out := Outcome[T]{Invalid: invalid}
	for _, cand := range candidates {
		k := cand.RecordKeys()

		if existing, ok := persistedByPrimary[k.Primary]; ok {
			if c.payloadEqual != nil && !c.payloadEqual(cand, existing) {
				out.Conflicting = append(out.Conflicting, Conflict[T]{Record: cand, Reason: c.payloadReason})
				continue
			}
			out.Current = append(out.Current, cand)
			continue
		}
		if _, ok := persistedSecondary[k.Secondary]; ok {
			out.Conflicting = append(out.Conflicting, Conflict[T]{
				Record: cand,
				Reason: fmt.Sprintf("%s already used by another persisted record", c.secondaryName),
			})
			continue
		}
		if _, ok := seenPrimary[k.Primary]; ok {
			out.Conflicting = append(out.Conflicting, Conflict[T]{
				Record: cand,
				Reason: fmt.Sprintf("%s duplicated within the batch", c.primaryName),
			})
			continue
		}
		if _, ok := seenSecondary[k.Secondary]; ok {
			out.Conflicting = append(out.Conflicting, Conflict[T]{
				Record: cand,
				Reason: fmt.Sprintf("%s duplicated within the batch", c.secondaryName),
			})
			continue
		}

		out.New = append(out.New, cand)
		seenPrimary[k.Primary] = struct{}{}
		seenSecondary[k.Secondary] = struct{}{}
	}

	out.Summary = Summary{
		Received:    len(candidates) + len(invalid),
		Valid:       len(candidates),
		Invalid:     len(invalid),
		New:         len(out.New),
		Current:     len(out.Current),
		Conflicting: len(out.Conflicting),
	}
	return out
}

package reconcile

import "testing"

type testRec struct {
	code    string
	taxID   string
	payload string
}

func (r testRec) RecordKeys() Keys { return Keys{Primary: r.code, Secondary: r.taxID} }

func rec(code, taxID string) testRec { return testRec{code: code, taxID: taxID} }

func TestClassifyBuckets(t *testing.T) {
	persisted := []testRec{
		rec("AAA111", "11111111111"),
		rec("BBB222", "22222222222"),
	}
	batch := []testRec{
		rec("AAA111", "99999999999"), // primary in store -> Current
		rec("CCC333", "22222222222"), // secondary in store -> Conflicting
		rec("DDD444", "44444444444"), // New
		rec("DDD444", "55555555555"), // primary dup in batch -> Conflicting
		rec("EEE555", "44444444444"), // secondary dup in batch -> Conflicting
		rec("FFF666", "66666666666"), // New
	}

	out := Classify(batch, persisted, nil)

	if len(out.New) != 2 || out.New[0].code != "DDD444" || out.New[1].code != "FFF666" {
		t.Fatalf("unexpected New bucket: %+v", out.New)
	}
	if len(out.Current) != 1 || out.Current[0].code != "AAA111" {
		t.Fatalf("unexpected Current bucket: %+v", out.Current)
	}
	if len(out.Conflicting) != 3 {
		t.Fatalf("expected 3 conflicts, got %d", len(out.Conflicting))
	}

	wantReasons := map[string]string{
		"CCC333": "secondary key already used by another persisted record",
		"DDD444": "primary key duplicated within the batch",
		"EEE555": "secondary key duplicated within the batch",
	}
	for _, c := range out.Conflicting {
		if want := wantReasons[c.Record.code]; c.Reason != want {
			t.Fatalf("conflict %s: got reason %q, want %q", c.Record.code, c.Reason, want)
		}
	}

	s := out.Summary
	if s.Received != 6 || s.Valid != 6 || s.Invalid != 0 || s.New != 2 || s.Current != 1 || s.Conflicting != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	// Completeness: every candidate in exactly one bucket.
	if s.New+s.Current+s.Conflicting != s.Valid {
		t.Fatalf("buckets do not sum to valid count: %+v", s)
	}
}

// A duplicated primary key within the batch: first occurrence wins.
func TestClassifyInBatchPrimaryDuplicate(t *testing.T) {
	batch := []testRec{
		rec("ABC123", "11111111111"),
		rec("ABC123", "22222222222"),
	}

	out := Classify(batch, nil, nil)

	if len(out.New) != 1 || out.New[0].taxID != "11111111111" {
		t.Fatalf("expected first occurrence to be New, got %+v", out.New)
	}
	if len(out.Conflicting) != 1 || out.Conflicting[0].Record.taxID != "22222222222" {
		t.Fatalf("expected second occurrence to conflict, got %+v", out.Conflicting)
	}
	if out.Conflicting[0].Reason != "primary key duplicated within the batch" {
		t.Fatalf("unexpected reason %q", out.Conflicting[0].Reason)
	}
}

// A store secondary-key hit conflicts even when the primary key is unique
// and unseen anywhere else: the store is the source of truth.
func TestClassifyStorePriorityTieBreak(t *testing.T) {
	persisted := []testRec{rec("ZZZ999", "11111111111")}
	batch := []testRec{rec("ABC123", "11111111111")}

	out := Classify(batch, persisted, nil)

	if len(out.New) != 0 {
		t.Fatalf("expected no New records, got %+v", out.New)
	}
	if len(out.Conflicting) != 1 {
		t.Fatalf("expected one conflict, got %+v", out.Conflicting)
	}
	if got := out.Conflicting[0].Reason; got != "secondary key already used by another persisted record" {
		t.Fatalf("unexpected reason %q", got)
	}
}

// A conflicting record must not poison the seen-sets: a later record sharing
// its keys with a conflicting (non-New) record is judged independently.
func TestClassifySeenSetsOnlyTrackNew(t *testing.T) {
	persisted := []testRec{rec("AAA111", "11111111111")}
	batch := []testRec{
		rec("BBB222", "11111111111"), // secondary in store -> Conflicting, keys not recorded
		rec("BBB222", "33333333333"), // primary unseen among New -> New
	}

	out := Classify(batch, persisted, nil)

	if len(out.New) != 1 || out.New[0].taxID != "33333333333" {
		t.Fatalf("expected second record to be New, got %+v", out.New)
	}
}

func TestClassifyWithPayloadComparer(t *testing.T) {
	persisted := []testRec{
		{code: "AAA111", taxID: "11111111111", payload: "old"},
		{code: "BBB222", taxID: "22222222222", payload: "same"},
	}
	batch := []testRec{
		{code: "AAA111", taxID: "11111111111", payload: "changed"},
		{code: "BBB222", taxID: "22222222222", payload: "same"},
	}

	out := Classify(batch, persisted, nil,
		WithPayloadComparer(func(a, b testRec) bool { return a.payload == b.payload },
			"record exists with different data"))

	if len(out.Current) != 1 || out.Current[0].code != "BBB222" {
		t.Fatalf("expected unchanged record to be Current, got %+v", out.Current)
	}
	if len(out.Conflicting) != 1 || out.Conflicting[0].Record.code != "AAA111" {
		t.Fatalf("expected changed record to conflict, got %+v", out.Conflicting)
	}
	if out.Conflicting[0].Reason != "record exists with different data" {
		t.Fatalf("unexpected reason %q", out.Conflicting[0].Reason)
	}
}

func TestClassifyKeyNamesInReasons(t *testing.T) {
	batch := []testRec{
		rec("ABC123", "11111111111"),
		rec("XYZ789", "11111111111"),
	}

	out := Classify(batch, nil, nil, WithKeyNames[testRec]("client code", "tax id"))

	if len(out.Conflicting) != 1 {
		t.Fatalf("expected one conflict, got %+v", out.Conflicting)
	}
	if got := out.Conflicting[0].Reason; got != "tax id duplicated within the batch" {
		t.Fatalf("unexpected reason %q", got)
	}
}

func TestClassifyCountsInvalidRows(t *testing.T) {
	invalid := []InvalidRow{
		{Data: RawRecord{"code": "A1"}, Errors: []string{"client code must be exactly 3 letters followed by 3 digits"}},
	}
	batch := []testRec{rec("ABC123", "11111111111")}

	out := Classify(batch, nil, invalid)

	if out.Summary.Received != 2 || out.Summary.Valid != 1 || out.Summary.Invalid != 1 {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
	if len(out.Invalid) != 1 || len(out.Invalid[0].Errors) != 1 {
		t.Fatalf("invalid rows must be carried through: %+v", out.Invalid)
	}
}

func TestClassifyEmptyBatch(t *testing.T) {
	out := Classify([]testRec{}, nil, nil)
	if out.Summary.Received != 0 || len(out.New)+len(out.Current)+len(out.Conflicting) != 0 {
		t.Fatalf("expected empty outcome, got %+v", out)
	}
}

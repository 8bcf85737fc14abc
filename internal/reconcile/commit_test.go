package reconcile

import (
	"context"
	"errors"
	"testing"
)

// fakeWriter rejects records whose keys it has already accepted, mimicking a
// store enforcing uniqueness on both natural keys.
type fakeWriter struct {
	primaries   map[string]struct{}
	secondaries map[string]struct{}
	failWith    error
	calls       int
}

func newFakeWriter() *fakeWriter {
	return &fakeWriter{
		primaries:   make(map[string]struct{}),
		secondaries: make(map[string]struct{}),
	}
}

func (w *fakeWriter) BulkInsert(_ context.Context, recs []testRec) (BulkResult, error) {
	w.calls++
	if w.failWith != nil {
		return BulkResult{}, w.failWith
	}

	var res BulkResult
	for _, r := range recs {
		k := r.RecordKeys()
		if _, dup := w.primaries[k.Primary]; dup {
			res.Rejected = append(res.Rejected, Rejection{Primary: k.Primary, Secondary: k.Secondary, Reason: "duplicate key"})
			continue
		}
		if _, dup := w.secondaries[k.Secondary]; dup {
			res.Rejected = append(res.Rejected, Rejection{Primary: k.Primary, Secondary: k.Secondary, Reason: "duplicate key"})
			continue
		}
		w.primaries[k.Primary] = struct{}{}
		w.secondaries[k.Secondary] = struct{}{}
		res.Inserted++
	}
	return res, nil
}

func TestCommitIdempotent(t *testing.T) {
	w := newFakeWriter()
	batch := []testRec{
		rec("AAA111", "11111111111"),
		rec("BBB222", "22222222222"),
		rec("CCC333", "33333333333"),
	}

	first, err := Commit(context.Background(), batch, w, nil)
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if first.Inserted != 3 || len(first.Rejected) != 0 {
		t.Fatalf("expected clean first commit, got %+v", first)
	}

	second, err := Commit(context.Background(), batch, w, nil)
	if err != nil {
		t.Fatalf("second commit: %v", err)
	}
	if second.Inserted != 0 || len(second.Rejected) != 3 {
		t.Fatalf("expected full duplicate report on re-commit, got %+v", second)
	}
}

func TestCommitPartialFailureIsolation(t *testing.T) {
	w := newFakeWriter()
	if _, err := w.BulkInsert(context.Background(), []testRec{rec("DUP111", "00000000000")}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	batch := make([]testRec, 0, 10)
	batch = append(batch, rec("DUP111", "99999999999"))
	for _, r := range []testRec{
		rec("AAA111", "11111111111"), rec("BBB222", "22222222222"), rec("CCC333", "33333333333"),
		rec("DDD444", "44444444444"), rec("EEE555", "55555555555"), rec("FFF666", "66666666666"),
		rec("GGG777", "77777777777"), rec("HHH888", "88888888888"), rec("III999", "12121212121"),
	} {
		batch = append(batch, r)
	}

	res, err := Commit(context.Background(), batch, w, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Inserted != 9 {
		t.Fatalf("expected 9 inserted, got %d", res.Inserted)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Primary != "DUP111" {
		t.Fatalf("expected exactly the duplicate rejected, got %+v", res.Rejected)
	}
}

func TestCommitDeriveFailureRejectsOnlyThatRecord(t *testing.T) {
	w := newFakeWriter()
	batch := []testRec{
		rec("AAA111", "11111111111"),
		rec("BAD000", "22222222222"),
	}

	derive := func(_ context.Context, r *testRec) error {
		if r.code == "BAD000" {
			return errors.New("credential seeding failed")
		}
		r.payload = "derived"
		return nil
	}

	res, err := Commit(context.Background(), batch, w, derive)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Inserted != 1 {
		t.Fatalf("expected sibling to commit, got %+v", res)
	}
	if len(res.Rejected) != 1 || res.Rejected[0].Primary != "BAD000" || res.Rejected[0].Reason != "credential seeding failed" {
		t.Fatalf("unexpected rejection: %+v", res.Rejected)
	}
}

func TestCommitEmptySubsetSkipsStore(t *testing.T) {
	w := newFakeWriter()
	res, err := Commit(context.Background(), nil, w, nil)
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.Inserted != 0 || len(res.Rejected) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
	if w.calls != 0 {
		t.Fatalf("store must not be called for an empty subset")
	}
}

func TestCommitStoreFailurePropagates(t *testing.T) {
	w := newFakeWriter()
	w.failWith = errors.New("connection reset")

	_, err := Commit(context.Background(), []testRec{rec("AAA111", "11111111111")}, w, nil)
	if err == nil {
		t.Fatalf("expected infrastructure failure to propagate")
	}
}

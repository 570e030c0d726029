package vectune

import (
	"bytes"
	"math"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func approxEqual(t *testing.T, got, want, tol float32) {
	t.Helper()
	if math.Abs(float64(got-want)) > float64(tol) {
		t.Fatalf("got %v, want %v ± %v", got, want, tol)
	}
}

// Scenario A — tiny exact retrieval.
func TestScenarioATinyExactRetrieval(t *testing.T) {
	idx, err := New(WithDistance("l2"))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	if _, err := idx.Add("a", []float32{1, 0, 0, 0}, nil); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := idx.Add("b", []float32{0, 1, 0, 0}, nil); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if _, err := idx.Add("c", []float32{0.707, 0.707, 0, 0}, nil); err != nil {
		t.Fatalf("add c: %v", err)
	}

	results, err := idx.Search([]float32{1, 0, 0, 0}, 3, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	// Squared L2 against the query [1,0,0,0]: a is exact (0), b is
	// orthogonal (1²+1²=2), c sits at 45° (2−2·cos45° ≈ 0.586).
	want := []struct {
		id   string
		dist float32
	}{
		{"a", 0},
		{"c", 0.586},
		{"b", 2.0},
	}
	for i, w := range want {
		if results[i].ExternalID != w.id {
			t.Fatalf("result %d: expected id %q, got %q", i, w.id, results[i].ExternalID)
		}
		approxEqual(t, results[i].Distance, w.dist, 0.02)
	}
}

// Scenario B — duplicate rejection and upsert.
func TestScenarioBDuplicateRejectionAndUpsert(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	ok, err := idx.Add("v", []float32{1.0, 2.0}, nil)
	if err != nil || !ok {
		t.Fatalf("first add: ok=%v err=%v", ok, err)
	}

	_, err = idx.Add("v", []float32{3.0, 4.0}, nil)
	if Code(err) != ErrCodeDuplicateId {
		t.Fatalf("expected DuplicateId, got %v", err)
	}

	ok, err = idx.Upsert("v", []float32{3.0, 4.0}, nil)
	if err != nil || !ok {
		t.Fatalf("upsert: ok=%v err=%v", ok, err)
	}

	vec, _, found := idx.Get("v")
	if !found {
		t.Fatal("expected v to be found")
	}
	if vec[0] != 3.0 || vec[1] != 4.0 {
		t.Fatalf("expected upserted vector [3 4], got %v", vec)
	}
}

// Scenario C — buffer flush boundary.
func TestScenarioCBufferFlushBoundary(t *testing.T) {
	idx, err := New(WithBufferCapacity(10))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	vec := func(seed float32) []float32 {
		return []float32{seed, seed + 1, seed + 2, seed + 3, seed + 4, seed + 5, seed + 6, seed + 7}
	}

	for i := 0; i < 10; i++ {
		if _, err := idx.Add(idName(i), vec(float32(i)), nil); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if idx.Count() != 10 {
		t.Fatalf("expected count 10, got %d", idx.Count())
	}
	stats := idx.Stats()
	if stats.BufferFill != 10 {
		t.Fatalf("expected buffer full before the 11th insert, got %+v", stats)
	}

	if _, err := idx.Add(idName(10), vec(10), nil); err != nil {
		t.Fatalf("add 11th: %v", err)
	}
	if idx.Count() != 11 {
		t.Fatalf("expected count 11 after the flush-triggering insert, got %d", idx.Count())
	}

	for i := 0; i < 11; i++ {
		got, err := idx.Search(vec(float32(i)), 1, nil)
		if err != nil {
			t.Fatalf("search %d: %v", i, err)
		}
		if len(got) == 0 || got[0].ExternalID != idName(i) {
			t.Fatalf("expected self-retrieval for %s, got %+v", idName(i), got)
		}
	}
}

func idName(i int) string {
	return "id-" + string(rune('a'+i))
}

// Scenario D — persistence round-trip.
func TestScenarioDPersistenceRoundTrip(t *testing.T) {
	base := filepath.Join(t.TempDir(), "ix")

	idx, err := New(WithPersistencePath(base), WithSeed(42))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	const n = 25
	vectors := make(map[string][]float32, n)
	for i := 0; i < n; i++ {
		v := []float32{float32(i), float32(i) * 2, float32(i) * 3}
		vectors[idName(i)] = v
		if _, err := idx.Add(idName(i), v, Metadata{"i": idName(i)}); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	if err := idx.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(WithPersistencePath(base), WithSeed(42))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Count() != n {
		t.Fatalf("expected count %d after reopen, got %d", n, reopened.Count())
	}
	for id, want := range vectors {
		got, _, found := reopened.Get(id)
		if !found {
			t.Fatalf("expected %s to survive reopen", id)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("vector mismatch for %s: got %v want %v", id, got, want)
			}
		}
	}
}

// Scenario E — deletion and search.
func TestScenarioEDeletionAndSearch(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	const n = 50
	for i := 0; i < n; i++ {
		v := []float32{float32(i), float32(n - i)}
		if _, err := idx.Add(idName(i), v, nil); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}

	target := idName(25)
	targetVec, _, _ := idx.Get(target)
	ok, err := idx.Delete(target)
	if err != nil || !ok {
		t.Fatalf("delete: ok=%v err=%v", ok, err)
	}
	if idx.Count() != n-1 {
		t.Fatalf("expected count %d, got %d", n-1, idx.Count())
	}

	results, err := idx.Search(targetVec, n, nil)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != n-1 {
		t.Fatalf("expected %d results, got %d", n-1, len(results))
	}
	for _, r := range results {
		if r.ExternalID == target {
			t.Fatalf("deleted id %s reappeared in search results", target)
		}
	}
}

// Scenario F — dimension mismatch.
func TestScenarioFDimensionMismatch(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	first := make([]float32, 16)
	if _, err := idx.Add("first", first, nil); err != nil {
		t.Fatalf("add first: %v", err)
	}

	_, err = idx.Add("x", []float32{1.0, 2.0}, nil)
	if Code(err) != ErrCodeDimensionMismatch {
		t.Fatalf("expected DimensionMismatch, got %v", err)
	}
	if idx.Count() != 1 {
		t.Fatalf("expected count unchanged at 1, got %d", idx.Count())
	}
}

func TestAddBatchSkipsDuplicatesAndInsertsRest(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := idx.Add("dup", []float32{9, 9}, nil); err != nil {
		t.Fatalf("seed dup: %v", err)
	}

	vectors := [][]float32{{1, 1}, {2, 2}, {3, 3}}
	ids := []string{"dup", "fresh-1", "fresh-2"}

	got, err := idx.AddBatch(vectors, ids, nil)
	if err != nil {
		t.Fatalf("add_batch: %v", err)
	}
	want := []string{"fresh-1", "fresh-2"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	if idx.Count() != 3 {
		t.Fatalf("expected count 3 (1 seeded + 2 from batch), got %d", idx.Count())
	}
	// the pre-existing "dup" entry must be untouched by the batch's
	// attempted (and skipped) duplicate insert.
	vec, _, found := idx.Get("dup")
	if !found || vec[0] != 9 || vec[1] != 9 {
		t.Fatalf("expected dup's original vector to survive, got %v found=%v", vec, found)
	}
}

func TestClearResetsState(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	idx.Clear()
	if idx.Count() != 0 {
		t.Fatalf("expected count 0 after clear, got %d", idx.Count())
	}
	results, err := idx.Search([]float32{1, 2}, 1, nil)
	if err == nil && len(results) != 0 {
		t.Fatalf("expected no results after clear, got %+v", results)
	}
}

func TestFlushIsIdempotent(t *testing.T) {
	idx, err := New(WithBufferCapacity(4))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Flush(); err != nil {
		t.Fatalf("first flush: %v", err)
	}
	if err := idx.Flush(); err != nil {
		t.Fatalf("second flush: %v", err)
	}
	if idx.Stats().BufferFill != 0 {
		t.Fatalf("expected empty buffer after repeated flush, got %+v", idx.Stats())
	}
}

func TestConfigureSetsPersistencePathPreInsert(t *testing.T) {
	base := filepath.Join(t.TempDir(), "configured")

	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := idx.Configure(WithPersistencePath(base), WithWAL(true)); err != nil {
		t.Fatalf("configure persistence_path: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Checkpoint(); err != nil {
		t.Fatalf("checkpoint: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := New(WithPersistencePath(base))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Count() != 1 {
		t.Fatalf("expected count 1 after reopen, got %d", reopened.Count())
	}
}

func TestWithMetricsRegistersAgainstCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	idx, err := New(WithMetrics(reg))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() == "vectune_inserts_total" {
			found = true
			if got := f.GetMetric()[0].GetCounter().GetValue(); got != 1 {
				t.Fatalf("expected vectune_inserts_total=1, got %v", got)
			}
		}
	}
	if !found {
		t.Fatalf("expected vectune_inserts_total registered against the custom registry")
	}
}

func TestWithLoggerAcceptedAndFrozenAfterInsert(t *testing.T) {
	var buf bytes.Buffer
	idx, err := New(WithLogger(&buf))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := idx.Configure(WithLogger(&bytes.Buffer{})); err != nil {
		t.Fatalf("configure logger before insert: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := idx.Configure(WithLogger(&bytes.Buffer{})); Code(err) != ErrCodeConfigurationFrozen {
		t.Fatalf("expected ConfigurationFrozen for log_writer after insert, got %v", err)
	}
}

func TestConfigureFreezesAfterFirstInsert(t *testing.T) {
	idx, err := New()
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := idx.Configure(WithEfSearch(100)); err != nil {
		t.Fatalf("configure ef_search before insert: %v", err)
	}
	if _, err := idx.Add("a", []float32{1, 2}, nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := idx.Configure(WithEfSearch(200)); err != nil {
		t.Fatalf("expected ef_search mutable after insert: %v", err)
	}
	if err := idx.Configure(WithM(32)); Code(err) != ErrCodeConfigurationFrozen {
		t.Fatalf("expected ConfigurationFrozen for M after insert, got %v", err)
	}
}

package persist

import (
	"path/filepath"
	"testing"
)

func TestWALAppendAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.wal")
	w, err := OpenWAL(path)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}

	records := []Record{
		{Op: OpAdd, Timestamp: 1, ExternalID: "a", Vector: []float32{1, 2, 3}, Metadata: map[string]string{"k": "v"}},
		{Op: OpUpsert, Timestamp: 2, ExternalID: "b", Vector: []float32{4, 5, 6}},
		{Op: OpDelete, Timestamp: 3, ExternalID: "a"},
	}
	for _, rec := range records {
		if err := w.Append(rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got, err := w.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(got) != len(records) {
		t.Fatalf("expected %d records, got %d", len(records), len(got))
	}
	if got[0].ExternalID != "a" || len(got[0].Vector) != 3 || got[0].Metadata["k"] != "v" {
		t.Fatalf("record 0 mismatch: %+v", got[0])
	}
	if got[1].ExternalID != "b" || got[1].Vector[2] != 6 {
		t.Fatalf("record 1 mismatch: %+v", got[1])
	}
	if got[2].Op != OpDelete || got[2].Vector != nil {
		t.Fatalf("record 2 mismatch: %+v", got[2])
	}

	if err := w.Truncate(); err != nil {
		t.Fatalf("truncate: %v", err)
	}
	after, err := w.Replay()
	if err != nil {
		t.Fatalf("replay after truncate: %v", err)
	}
	if len(after) != 0 {
		t.Fatalf("expected empty log after truncate, got %d records", len(after))
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestWALRecordsWithDifferingDimensions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "idx.wal")
	w, err := OpenWAL(path)
	if err != nil {
		t.Fatalf("open wal: %v", err)
	}
	defer w.Close()

	if err := w.Append(Record{Op: OpAdd, ExternalID: "first", Vector: []float32{1, 2}}); err != nil {
		t.Fatalf("append short vector: %v", err)
	}
	if err := w.Append(Record{Op: OpAdd, ExternalID: "second", Vector: []float32{1, 2, 3, 4}}); err != nil {
		t.Fatalf("append long vector: %v", err)
	}

	got, err := w.Replay()
	if err != nil {
		t.Fatalf("replay: %v", err)
	}
	if len(got[0].Vector) != 2 || len(got[1].Vector) != 4 {
		t.Fatalf("expected self-describing vector lengths, got %d and %d", len(got[0].Vector), len(got[1].Vector))
	}
}

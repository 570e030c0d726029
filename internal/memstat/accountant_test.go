package memstat

import "testing"

func TestReportSumsConfiguredSources(t *testing.T) {
	s := Sources{
		RawVectors: func() uint64 { return 100 },
		GraphLinks: func() uint64 { return 50 },
	}
	u := Report(s)
	if u.RawVectors != 100 || u.GraphLinks != 50 {
		t.Fatalf("unexpected usage: %+v", u)
	}
	if u.Quantized != 0 || u.IDMap != 0 || u.Metadata != 0 || u.Buffer != 0 {
		t.Fatalf("expected zero for unconfigured sources, got %+v", u)
	}
	if u.Total() != 150 {
		t.Fatalf("expected total 150, got %d", u.Total())
	}
}

func TestReportHandlesAllNilSources(t *testing.T) {
	u := Report(Sources{})
	if u.Total() != 0 {
		t.Fatalf("expected zero total for empty sources, got %d", u.Total())
	}
}

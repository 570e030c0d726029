// Package memstat implements the memory accountant: a continuously
// queryable breakdown of approximate byte usage across the engine's
// components, for observability only (never consulted on a
// latency-sensitive path).
//
// Grounded on the field shape of internal/memory's MemoryUsage
// struct, stripped of everything that struct carried for active
// enforcement: there is no limit, no pressure callback, no cache
// eviction, and no memory-mapping story in spec.md, so none of
// internal/memory's Manager/Monitor/Cache/MemoryMappable machinery
// has a component to attach to.
package memstat

// Usage is a point-in-time breakdown of approximate byte usage.
type Usage struct {
	RawVectors  uint64
	Quantized   uint64
	GraphLinks  uint64
	IDMap       uint64
	Metadata    uint64
	Buffer      uint64
}

// Total sums every component.
func (u Usage) Total() uint64 {
	return u.RawVectors + u.Quantized + u.GraphLinks + u.IDMap + u.Metadata + u.Buffer
}

// Sources bundles the byte-reporting callbacks an Index coordinator
// wires up from its own components; each may be nil if that component
// is inactive (e.g. no quantization configured).
type Sources struct {
	RawVectors func() uint64
	Quantized  func() uint64
	GraphLinks func() uint64
	IDMap      func() uint64
	Metadata   func() uint64
	Buffer     func() uint64
}

// Report queries every configured source and assembles a Usage
// snapshot. A nil source contributes zero.
func Report(s Sources) Usage {
	call := func(fn func() uint64) uint64 {
		if fn == nil {
			return 0
		}
		return fn()
	}
	return Usage{
		RawVectors: call(s.RawVectors),
		Quantized:  call(s.Quantized),
		GraphLinks: call(s.GraphLinks),
		IDMap:      call(s.IDMap),
		Metadata:   call(s.Metadata),
		Buffer:     call(s.Buffer),
	}
}

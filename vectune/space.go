package vectune

import (
	"github.com/vectune/vectune/internal/graph"
	"github.com/vectune/vectune/internal/quant"
)

// indexSpace implements graph.Space on top of the coordinator's own
// stores. The metric's kernel family is resolved once, when the Index
// is configured (idx.kernels); the representation (raw, scalar8, or
// binary) is chosen on every DistanceToQuery call, falling back to the
// raw vector when no quantized entry exists for the id.
type indexSpace struct {
	idx *Index
}

func (s indexSpace) Vector(id graph.NodeID) []float32 {
	return s.idx.vecs.Get(id)
}

func (s indexSpace) DistanceToQuery(id graph.NodeID, query []float32) float32 {
	kernels := s.idx.kernels
	switch s.idx.cfg.Quantization {
	case quant.Scalar8:
		if enc, ok := s.idx.scalarStore.Get(id); ok {
			return kernels.Scalar8(query, enc.Code, enc.Scale, enc.Offset)
		}
	case quant.Binary:
		if enc, ok := s.idx.binaryStore.Get(id); ok {
			return kernels.Binary(query, enc.Bits, enc.Norm)
		}
	}
	return kernels.F32(query, s.idx.vecs.Get(id))
}

var _ graph.Space = indexSpace{}

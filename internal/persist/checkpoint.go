package persist

import (
	"os"

	"github.com/vectune/vectune/internal/graph"
)

// Snapshot is everything a checkpoint needs to persist, supplied by
// the coordinator. Row returns the raw vector stored at id, live or
// tombstoned; TotalRows is the dense id space (every NodeId ever
// allocated, since NodeIds are never recycled), and is what
// Checkpoint walks to write `.vectors` so on-disk ids stay aligned
// with the graph's own id space. LiveIDs (ascending) is the separate,
// sparser set actually worth persisting into `.meta` and the graph.
type Snapshot struct {
	Dim        int
	TotalRows  uint64
	Row        func(id uint64) []float32
	ExternalID func(id uint64) string
	Metadata   func(id uint64) map[string]string
	LiveIDs    []uint64 // ascending NodeId order
	Graph      *graph.Graph
}

// Checkpoint writes the three sibling files at basePath. Partial
// writes never leave a corrupt file in place: each of the three files
// is itself written atomically, but a crash between files can still
// leave an older version of one sibling alongside a newer version of
// another, which recovery's per-file validation catches on next open.
func Checkpoint(basePath string, snap Snapshot) error {
	err := WriteVectors(basePath+VectorsSuffix, snap.Dim, snap.TotalRows, func(yield func(vec []float32) error) error {
		for id := uint64(0); id < snap.TotalRows; id++ {
			if err := yield(snap.Row(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	count := uint64(len(snap.LiveIDs))

	if err := WriteGraph(basePath+GraphSuffix, snap.Graph); err != nil {
		return err
	}

	return WriteMeta(basePath+MetaSuffix, count, func(yield func(m NodeMeta) error) error {
		for _, id := range snap.LiveIDs {
			m := NodeMeta{ID: id, ExternalID: snap.ExternalID(id), Metadata: snap.Metadata(id)}
			if err := yield(m); err != nil {
				return err
			}
		}
		return nil
	})
}

// Recovered is the decoded state of a checkpoint, ready for the
// coordinator to replay into its stores.
type Recovered struct {
	Dim     int
	Vectors map[uint64][]float32
	Meta    map[uint64]NodeMeta
	Nodes   []graph.NodeRecord
	Header  GraphHeader
	Found   bool // false when no checkpoint exists at basePath yet
}

// Open reads the three sibling files at basePath. Per spec.md §4.7
// recovery step 1, if any of the three files is absent the checkpoint
// is reported as Found=false rather than an error; a malformed sibling
// is a CorruptError.
func Open(basePath string) (Recovered, error) {
	var rec Recovered

	for _, suffix := range []string{VectorsSuffix, GraphSuffix, MetaSuffix} {
		if _, err := os.Stat(basePath + suffix); os.IsNotExist(err) {
			return rec, nil
		}
	}

	rec.Vectors = make(map[uint64][]float32)
	dim, _, err := ReadVectors(basePath+VectorsSuffix, func(id uint64, vec []float32) error {
		cp := make([]float32, len(vec))
		copy(cp, vec)
		rec.Vectors[id] = cp
		return nil
	})
	if err != nil {
		return rec, err
	}
	rec.Dim = dim

	rec.Meta = make(map[uint64]NodeMeta)
	if _, err := ReadMeta(basePath+MetaSuffix, func(m NodeMeta) error {
		rec.Meta[m.ID] = m
		return nil
	}); err != nil {
		return rec, err
	}

	hdr, err := ReadGraph(basePath+GraphSuffix, func(n graph.NodeRecord) {
		rec.Nodes = append(rec.Nodes, n)
	})
	if err != nil {
		return rec, err
	}
	rec.Header = hdr
	rec.Found = true
	return rec, nil
}

// RestoreGraph rebuilds g's topology from a Recovered checkpoint.
// g must be freshly constructed (empty) with matching M/MMax0.
func RestoreGraph(g *graph.Graph, rec Recovered) {
	for _, n := range rec.Nodes {
		g.LoadNode(n)
	}
	if rec.Header.NodeCount > 0 {
		g.SetEntryPoint(rec.Header.EntryPoint, rec.Header.TopLayer)
	}
}

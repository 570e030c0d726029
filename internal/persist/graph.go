package persist

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/vectune/vectune/internal/graph"
)

// WriteGraph writes the `<base>.graph` file: header (magic, version,
// M, Mmax0, top_layer, entry_point, node_count) followed by one
// record per present node (id, top_layer, then per-layer neighbor
// lists).
func WriteGraph(path string, g *graph.Graph) error {
	entryPoint, hasEntry := g.EntryPoint()
	if !hasEntry {
		entryPoint = 0
	}

	return atomicWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)

		if _, err := w.WriteString(graphMagic); err != nil {
			return err
		}
		fields := []interface{}{
			formatVersion,
			uint16(g.M()),
			uint16(g.MMax0()),
			uint16(g.TopLayer()),
			entryPoint,
			uint64(g.Count()),
		}
		for _, v := range fields {
			if err := binary.Write(w, binary.LittleEndian, v); err != nil {
				return err
			}
		}

		var writeErr error
		g.ForEachNode(func(rec graph.NodeRecord) {
			if writeErr != nil {
				return
			}
			writeErr = writeNodeRecord(w, rec)
		})
		if writeErr != nil {
			return writeErr
		}
		return w.Flush()
	})
}

func writeNodeRecord(w io.Writer, rec graph.NodeRecord) error {
	if err := binary.Write(w, binary.LittleEndian, rec.ID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint16(rec.Level)); err != nil {
		return err
	}
	for layer := 0; layer <= rec.Level; layer++ {
		var neighbors []graph.NodeID
		if layer < len(rec.Neighbors) {
			neighbors = rec.Neighbors[layer]
		}
		if err := binary.Write(w, binary.LittleEndian, uint16(len(neighbors))); err != nil {
			return err
		}
		for _, n := range neighbors {
			if err := binary.Write(w, binary.LittleEndian, n); err != nil {
				return err
			}
		}
	}
	return nil
}

// GraphHeader is the decoded fixed portion of a `<base>.graph` file.
type GraphHeader struct {
	M          int
	MMax0      int
	TopLayer   int
	EntryPoint uint64
	NodeCount  uint64
}

// ReadGraph validates the header of a `<base>.graph` file and streams
// each node record to fn. The returned header lets the caller
// reconstruct the graph's construction parameters and entry point.
func ReadGraph(path string, fn func(rec graph.NodeRecord)) (GraphHeader, error) {
	var hdr GraphHeader

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return hdr, errNotExist
		}
		return hdr, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if string(magic) != graphMagic {
		return hdr, errBadMagic(path, graphMagic, string(magic))
	}

	var version, m, mMax0, topLayer uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if version > formatVersion {
		return hdr, errBadVersion(path, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &m); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &mMax0); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &topLayer); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.EntryPoint); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	if err := binary.Read(r, binary.LittleEndian, &hdr.NodeCount); err != nil {
		return hdr, wrapCorrupt(path, err)
	}
	hdr.M, hdr.MMax0, hdr.TopLayer = int(m), int(mMax0), int(topLayer)

	for i := uint64(0); i < hdr.NodeCount; i++ {
		rec, err := readNodeRecord(r)
		if err != nil {
			return hdr, wrapCorrupt(path, err)
		}
		fn(rec)
	}
	return hdr, nil
}

func readNodeRecord(r io.Reader) (graph.NodeRecord, error) {
	var rec graph.NodeRecord
	var level uint16

	if err := binary.Read(r, binary.LittleEndian, &rec.ID); err != nil {
		return rec, err
	}
	if err := binary.Read(r, binary.LittleEndian, &level); err != nil {
		return rec, err
	}
	rec.Level = int(level)
	rec.Neighbors = make([][]graph.NodeID, rec.Level+1)

	for layer := 0; layer <= rec.Level; layer++ {
		var n uint16
		if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
			return rec, err
		}
		neighbors := make([]graph.NodeID, n)
		for i := range neighbors {
			if err := binary.Read(r, binary.LittleEndian, &neighbors[i]); err != nil {
				return rec, err
			}
		}
		rec.Neighbors[layer] = neighbors
	}
	return rec, nil
}

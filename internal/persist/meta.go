package persist

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"
)

// NodeMeta is one node's external id and metadata, as persisted in
// the `<base>.meta` file.
type NodeMeta struct {
	ID         uint64
	ExternalID string
	Metadata   map[string]string
}

// WriteMeta writes the `<base>.meta` file: header (magic, version,
// count) followed by one record per node (id, external id, metadata
// entries).
func WriteMeta(path string, count uint64, entries func(yield func(m NodeMeta) error) error) error {
	return atomicWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)

		if _, err := w.WriteString(metaMagic); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, count); err != nil {
			return err
		}

		err := entries(func(m NodeMeta) error {
			return writeNodeMeta(w, m)
		})
		if err != nil {
			return err
		}
		return w.Flush()
	})
}

func writeNodeMeta(w io.Writer, m NodeMeta) error {
	if err := binary.Write(w, binary.LittleEndian, m.ID); err != nil {
		return err
	}
	if err := writeString(w, m.ExternalID); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, uint32(len(m.Metadata))); err != nil {
		return err
	}
	for k, v := range m.Metadata {
		if err := writeString(w, k); err != nil {
			return err
		}
		if err := writeString(w, v); err != nil {
			return err
		}
	}
	return nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadMeta validates the header of a `<base>.meta` file and streams
// each node's id/external-id/metadata record to fn.
func ReadMeta(path string, fn func(m NodeMeta) error) (count uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, errNotExist
		}
		return 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, wrapCorrupt(path, err)
	}
	if string(magic) != metaMagic {
		return 0, errBadMagic(path, metaMagic, string(magic))
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, wrapCorrupt(path, err)
	}
	if version > formatVersion {
		return 0, errBadVersion(path, version)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, wrapCorrupt(path, err)
	}

	for i := uint64(0); i < count; i++ {
		m, err := readNodeMeta(r)
		if err != nil {
			return 0, wrapCorrupt(path, err)
		}
		if err := fn(m); err != nil {
			return 0, err
		}
	}
	return count, nil
}

func readNodeMeta(r io.Reader) (NodeMeta, error) {
	var m NodeMeta
	if err := binary.Read(r, binary.LittleEndian, &m.ID); err != nil {
		return m, err
	}
	ext, err := readString(r)
	if err != nil {
		return m, err
	}
	m.ExternalID = ext

	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return m, err
	}
	if n > 0 {
		m.Metadata = make(map[string]string, n)
	}
	for i := uint32(0); i < n; i++ {
		k, err := readString(r)
		if err != nil {
			return m, err
		}
		v, err := readString(r)
		if err != nil {
			return m, err
		}
		m.Metadata[k] = v
	}
	return m, nil
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

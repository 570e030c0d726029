package persist

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// WriteVectors writes the `<base>.vectors` file: a fixed header
// (magic, version, dimension, count) followed by count raw f32
// records of length dim, little-endian. vectors is visited in
// ascending NodeId order by the caller.
func WriteVectors(path string, dim int, count uint64, vectors func(yield func(vec []float32) error) error) error {
	return atomicWrite(path, func(f *os.File) error {
		w := bufio.NewWriter(f)

		if _, err := w.WriteString(vectorsMagic); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, formatVersion); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, uint32(dim)); err != nil {
			return err
		}
		if err := binary.Write(w, binary.LittleEndian, count); err != nil {
			return err
		}

		raw := make([]byte, dim*4)
		err := vectors(func(vec []float32) error {
			if len(vec) != dim {
				return fmt.Errorf("persist: vector length %d does not match dimension %d", len(vec), dim)
			}
			for i, v := range vec {
				binary.LittleEndian.PutUint32(raw[i*4:], float32bits(v))
			}
			_, err := w.Write(raw)
			return err
		})
		if err != nil {
			return err
		}
		return w.Flush()
	})
}

// ReadVectors validates the header of a `<base>.vectors` file and
// streams each record to fn in file order (ascending NodeId, by
// construction of WriteVectors).
func ReadVectors(path string, fn func(id uint64, vec []float32) error) (dim int, count uint64, err error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, 0, errNotExist
		}
		return 0, 0, err
	}
	defer f.Close()

	r := bufio.NewReader(f)

	magic := make([]byte, 4)
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, 0, wrapCorrupt(path, err)
	}
	if string(magic) != vectorsMagic {
		return 0, 0, errBadMagic(path, vectorsMagic, string(magic))
	}

	var version uint16
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, 0, wrapCorrupt(path, err)
	}
	if version > formatVersion {
		return 0, 0, errBadVersion(path, version)
	}

	var d32 uint32
	if err := binary.Read(r, binary.LittleEndian, &d32); err != nil {
		return 0, 0, wrapCorrupt(path, err)
	}
	dim = int(d32)

	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return 0, 0, wrapCorrupt(path, err)
	}

	raw := make([]byte, dim*4)
	vec := make([]float32, dim)
	for id := uint64(0); id < count; id++ {
		if _, err := io.ReadFull(r, raw); err != nil {
			return 0, 0, wrapCorrupt(path, err)
		}
		for i := 0; i < dim; i++ {
			vec[i] = float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		if err := fn(id, vec); err != nil {
			return 0, 0, err
		}
	}
	return dim, count, nil
}

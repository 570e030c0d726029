package persist

import "os"

// atomicWrite writes to a temp file beside finalPath, syncs and closes
// it, then renames it into place. A failure at any step leaves
// finalPath untouched and removes the temp file. Grounded on the
// write-then-rename pattern the proximity graph's own ad hoc
// persistence code used before this package replaced it.
func atomicWrite(finalPath string, writeFunc func(f *os.File) error) error {
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return err
	}

	if err := writeFunc(f); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

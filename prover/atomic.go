package prover

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// writeToAtomic streams a WriterTo into path via a temp file and rename, so
// a partially written file is never observable at the final path.
func writeToAtomic(path string, src io.WriterTo) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := src.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// WriteFileAtomic writes a byte slice with the same guarantee.
func WriteFileAtomic(path string, data []byte) error {
	return writeToAtomic(path, bytesWriterTo(data))
}

type bytesWriterTo []byte

func (b bytesWriterTo) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(b)
	if err != nil {
		return int64(n), err
	}
	if n != len(b) {
		return int64(n), fmt.Errorf("short write: %d of %d bytes", n, len(b))
	}
	return int64(n), nil
}

package image

import (
	"fmt"
	"os"
	"path/filepath"

	"example.com/tokencrc/internal/geometry"
)

// Load reads the image at path and returns its decrypted record.
func Load(path string, c Cipher) ([]byte, error) {
	record, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := geometry.CheckRecord(record); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := orPlain(c).Decrypt(record); err != nil {
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}
	return record, nil
}

// Save encrypts a copy of record and writes it to path through a temporary
// file in the same directory.
func Save(path string, record []byte, c Cipher) error {
	out := make([]byte, len(record))
	copy(out, record)
	if err := orPlain(c).Encrypt(out); err != nil {
		return fmt.Errorf("encrypt %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(out); err != nil {
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

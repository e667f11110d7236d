package image

import (
	"errors"
	"fmt"
	"os"

	mmap "github.com/edsrzf/mmap-go"

	"example.com/tokencrc/internal/geometry"
)

// Mapped is a token image file mapped read-write for in-place edits. The
// record is decrypted on open and encrypted again on Close.
type Mapped struct {
	file   *os.File
	cipher Cipher
	mmap.MMap
}

// OpenMapped maps the image at path and decrypts it in place.
func OpenMapped(path string, c Cipher) (*Mapped, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if stat.Size() < geometry.MinRecordSize {
		f.Close()
		return nil, fmt.Errorf("%s: %w: %d bytes", path, geometry.ErrOutOfBounds, stat.Size())
	}
	data, err := mmap.Map(f, mmap.RDWR, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	m := &Mapped{file: f, cipher: orPlain(c), MMap: data}
	if err := m.cipher.Decrypt(m.MMap); err != nil {
		m.MMap.Unmap()
		f.Close()
		return nil, fmt.Errorf("decrypt %s: %w", path, err)
	}
	return m, nil
}

// Record returns the mapped, decrypted record.
func (m *Mapped) Record() []byte {
	return m.MMap
}

// Close encrypts the record, flushes it to the file and unmaps it.
func (m *Mapped) Close() error {
	encErr := m.cipher.Encrypt(m.MMap)
	flushErr := m.MMap.Flush()
	unmapErr := m.MMap.Unmap()
	closeErr := m.file.Close()
	return errors.Join(encErr, flushErr, unmapErr, closeErr)
}

package samples

import (
	"fmt"
	"os"
	"path/filepath"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/geometry"
)

const (
	// File names exposed for generator consumers.
	ValidFileName   = "sample.bin"
	CorruptFileName = "sample_corrupt.bin"

	// Sequence numbers written into the raw data area headers.
	Area0Sequence = 0x2A
	Area1Sequence = 0x29

	// CorruptOffset is the byte flipped in the corrupt sample. It lies in
	// area 0 block 2, covered by the type 2 checksum only.
	CorruptOffset = 0x08*geometry.BlockSize + 2*geometry.BlockSize + 5
)

// Raw returns a deterministic full-size record whose checksum fields are
// all zero.
func Raw() []byte {
	rec := make([]byte, geometry.RecordSize)
	for i := range rec {
		rec[i] = byte(i*7 + 3)
	}
	// Clear every checksum field so nothing matches by accident.
	for _, t := range checksum.RegenerationOrder {
		p, _ := checksum.Parameters(t)
		if !t.AreaRelative() {
			rec[p.ChecksumOffset], rec[p.ChecksumOffset+1] = 0, 0
			continue
		}
		for area := 0; area < geometry.NumAreas; area++ {
			base, _ := geometry.AreaBase(area)
			off := base + p.FieldOffset(t)
			rec[off], rec[off+1] = 0, 0
		}
	}
	base0, _ := geometry.AreaBase(0)
	base1, _ := geometry.AreaBase(1)
	rec[base0+geometry.SequenceOffset] = Area0Sequence
	rec[base1+geometry.SequenceOffset] = Area1Sequence
	return rec
}

// Image returns Raw with every checksum regenerated by engine, or by a
// chained type 4 engine when nil. Regeneration bumps both sequence numbers.
func Image(engine *checksum.Engine) ([]byte, error) {
	if engine == nil {
		engine = checksum.NewEngine(checksum.Options{Type4: checksum.Type4Chained})
	}
	rec := Raw()
	if _, err := engine.Sweep(rec, true); err != nil {
		return nil, fmt.Errorf("regenerate sample checksums: %w", err)
	}
	return rec, nil
}

// Corrupt returns a valid image with one data byte flipped.
func Corrupt(engine *checksum.Engine) ([]byte, error) {
	rec, err := Image(engine)
	if err != nil {
		return nil, err
	}
	rec[CorruptOffset] ^= 0xFF
	return rec, nil
}

// WriteFiles writes the valid and corrupt samples into dir.
func WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	valid, err := Image(nil)
	if err != nil {
		return err
	}
	corrupt, err := Corrupt(nil)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, ValidFileName), valid, 0o644); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, CorruptFileName), corrupt, 0o644)
}

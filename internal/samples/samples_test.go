package samples

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/geometry"
)

func fieldOffsets(t *testing.T) map[string]int {
	t.Helper()
	offs := map[string]int{}
	for _, typ := range checksum.RegenerationOrder {
		p, err := checksum.Parameters(typ)
		if err != nil {
			t.Fatalf("Parameters(%s): %v", typ, err)
		}
		if !typ.AreaRelative() {
			offs[typ.String()] = p.ChecksumOffset
			continue
		}
		for area := 0; area < geometry.NumAreas; area++ {
			base, _ := geometry.AreaBase(area)
			offs[fmt.Sprintf("%s/area%d", typ, area)] = base + p.FieldOffset(typ)
		}
	}
	return offs
}

func TestRawLayout(t *testing.T) {
	rec := Raw()
	if len(rec) != geometry.RecordSize {
		t.Fatalf("len = %d, want %d", len(rec), geometry.RecordSize)
	}
	offs := fieldOffsets(t)
	if len(offs) != 9 {
		t.Fatalf("field offsets = %d, want 9", len(offs))
	}
	for name, off := range offs {
		if v := binary.LittleEndian.Uint16(rec[off:]); v != 0 {
			t.Errorf("%s at %#x = %04X, want 0", name, off, v)
		}
	}
	base0, _ := geometry.AreaBase(0)
	base1, _ := geometry.AreaBase(1)
	if rec[base0+geometry.SequenceOffset] != 0x2A || rec[base1+geometry.SequenceOffset] != 0x29 {
		t.Fatalf("sequence numbers = %#x/%#x, want 0x2a/0x29",
			rec[base0+geometry.SequenceOffset], rec[base1+geometry.SequenceOffset])
	}
	if !bytes.Equal(rec, Raw()) {
		t.Fatalf("Raw is not deterministic")
	}
}

func TestImagePassesChainedSweep(t *testing.T) {
	common.SetLogOutput(io.Discard)
	rec, err := Image(nil)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	e := checksum.NewEngine(checksum.Options{Type4: checksum.Type4Chained})
	if !e.ValidateAll(rec, false) {
		t.Fatalf("Image(nil) does not validate in chained mode")
	}
	base0, _ := geometry.AreaBase(0)
	if rec[base0+geometry.SequenceOffset] != Area0Sequence+1 {
		t.Fatalf("area 0 sequence = %#x, want bumped once", rec[base0+geometry.SequenceOffset])
	}
}

func TestCorruptFlipsOneByte(t *testing.T) {
	valid, err := Image(nil)
	if err != nil {
		t.Fatalf("Image: %v", err)
	}
	bad, err := Corrupt(nil)
	if err != nil {
		t.Fatalf("Corrupt: %v", err)
	}
	for i := range valid {
		want := valid[i]
		if i == CorruptOffset {
			want ^= 0xFF
		}
		if bad[i] != want {
			t.Fatalf("byte %#x = %#x, want %#x", i, bad[i], want)
		}
	}
}

func TestWriteFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	if err := WriteFiles(dir); err != nil {
		t.Fatalf("WriteFiles: %v", err)
	}
	valid, _ := Image(nil)
	got, err := os.ReadFile(filepath.Join(dir, ValidFileName))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !bytes.Equal(got, valid) {
		t.Fatalf("%s differs from Image(nil)", ValidFileName)
	}
	if _, err := os.Stat(filepath.Join(dir, CorruptFileName)); err != nil {
		t.Fatalf("corrupt sample missing: %v", err)
	}
}

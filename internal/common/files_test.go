package common

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCopyFileAndHash(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	data := []byte("token image bytes")
	if err := os.WriteFile(src, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	dst := filepath.Join(dir, "out", "dst.bin")
	if err := CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	srcHash, size, err := Sha256OfFile(src)
	if err != nil {
		t.Fatalf("Sha256OfFile: %v", err)
	}
	dstHash, _, err := Sha256OfFile(dst)
	if err != nil {
		t.Fatalf("Sha256OfFile: %v", err)
	}
	if srcHash != dstHash || size != int64(len(data)) {
		t.Fatalf("copy differs: %s vs %s (%d)", srcHash, dstHash, size)
	}
	if srcHash != Sha256Hex(data) {
		t.Fatalf("Sha256Hex = %s, want %s", Sha256Hex(data), srcHash)
	}
}

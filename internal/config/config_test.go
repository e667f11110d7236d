package config

import (
	"os"
	"path/filepath"
	"testing"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/geometry"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tokencrc.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "verbose: true\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Verbose {
		t.Fatalf("verbose not decoded")
	}
	if cfg.Type4Mode != string(checksum.Type4Chained) {
		t.Fatalf("Type4Mode = %q", cfg.Type4Mode)
	}
	if cfg.Report.QRSize != 128 || cfg.Logs.MaxSizeMB != 25 || cfg.Logs.MaxAgeDays != 7 || cfg.Logs.MaxBackups != 5 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
	if _, ok := cfg.AccessControlPredicate().(geometry.SectorTrailers); !ok {
		t.Fatalf("default predicate should be sector trailers")
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	path := writeConfig(t, `
type4Mode: header
accessControl:
  blocks: [3, 7, 11]
audit:
  dir: audit
logs:
  directory: logs
  compress: true
report:
  pdf: true
  qrSize: 256
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	dir := filepath.Dir(path)
	if cfg.Audit.Dir != filepath.Join(dir, "audit") {
		t.Errorf("Audit.Dir = %q", cfg.Audit.Dir)
	}
	if cfg.Logs.Directory != filepath.Join(dir, "logs") || !cfg.Logs.Compress {
		t.Errorf("Logs = %+v", cfg.Logs)
	}
	if !cfg.Report.PDF || cfg.Report.QRSize != 256 {
		t.Errorf("Report = %+v", cfg.Report)
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		t.Fatalf("EngineOptions: %v", err)
	}
	if opts.Type4 != checksum.Type4Header {
		t.Errorf("Type4 = %q", opts.Type4)
	}
	acl := opts.AccessControl
	if !acl.IsAccessControlBlock(7) || acl.IsAccessControlBlock(15) {
		t.Errorf("explicit block list not honoured")
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load(writeConfig(t, "type4Mode: sideways\n")); err == nil {
		t.Fatalf("expected error for unknown type4Mode")
	}
	if _, err := Load(writeConfig(t, "verbos: true\n")); err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Type4Mode != string(checksum.Type4Chained) {
		t.Fatalf("Resolve default = %+v", cfg)
	}
}

func TestLoadShippedConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", DefaultFileName))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Type4Mode != string(checksum.Type4Chained) || cfg.Logs.Directory != "" || cfg.Audit.Dir != "" {
		t.Fatalf("unexpected shipped config %+v", cfg)
	}
	if _, ok := cfg.AccessControlPredicate().(geometry.SectorTrailers); !ok {
		t.Fatalf("empty block list should fall back to sector trailers")
	}
}

func TestLoadEmptyFile(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load(empty): %v", err)
	}
	if cfg.Report.QRSize != 128 {
		t.Fatalf("defaults not applied to empty file: %+v", cfg)
	}
}

package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"example.com/tokencrc/internal/checksum"
	"example.com/tokencrc/internal/common"
	"example.com/tokencrc/internal/geometry"
)

// DefaultFileName is looked up in the working directory when no config path
// is given.
const DefaultFileName = "tokencrc.yaml"

type AccessControlConfig struct {
	// Blocks lists absolute access-control block indexes. Empty means
	// every sector trailer.
	Blocks []uint32 `yaml:"blocks"`
}

type AuditConfig struct {
	// Dir holds audit logs; empty writes them next to the image.
	Dir string `yaml:"dir"`
}

type ReportConfig struct {
	JSON   bool `yaml:"json"`
	PDF    bool `yaml:"pdf"`
	QRSize int  `yaml:"qrSize"`
}

type Config struct {
	Verbose       bool                `yaml:"verbose"`
	Type4Mode     string              `yaml:"type4Mode"`
	AccessControl AccessControlConfig `yaml:"accessControl"`
	Audit         AuditConfig         `yaml:"audit"`
	Report        ReportConfig        `yaml:"report"`
	Logs          common.LogConfig    `yaml:"logs"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	// Chained, not the engine's header default: header mode leaves type 4
	// stale after a full regeneration.
	if strings.TrimSpace(cfg.Type4Mode) == "" {
		cfg.Type4Mode = string(checksum.Type4Chained)
	}
	if cfg.Report.QRSize <= 0 {
		cfg.Report.QRSize = 128
	}
	if cfg.Logs.MaxSizeMB <= 0 {
		cfg.Logs.MaxSizeMB = 25
	}
	if cfg.Logs.MaxAgeDays <= 0 {
		cfg.Logs.MaxAgeDays = 7
	}
	if cfg.Logs.MaxBackups <= 0 {
		cfg.Logs.MaxBackups = 5
	}
}

// Load reads the YAML file at path. Relative directories are resolved
// against the file's directory.
func Load(path string) (Config, error) {
	var cfg Config
	f, err := os.Open(path)
	if err != nil {
		return cfg, err
	}
	defer f.Close()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	baseDir := filepath.Dir(path)
	resolvePath := func(p string) string {
		p = strings.TrimSpace(p)
		if p == "" {
			return ""
		}
		if filepath.IsAbs(p) {
			return filepath.Clean(p)
		}
		return filepath.Clean(filepath.Join(baseDir, p))
	}
	cfg.Audit.Dir = resolvePath(cfg.Audit.Dir)
	cfg.Logs.Directory = resolvePath(cfg.Logs.Directory)
	cfg.applyDefaults()
	if _, err := checksum.ParseType4Mode(cfg.Type4Mode); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Resolve loads path when set, else DefaultFileName from the working
// directory if it exists, else Default.
func Resolve(path string) (Config, error) {
	if strings.TrimSpace(path) != "" {
		return Load(path)
	}
	if _, err := os.Stat(DefaultFileName); err == nil {
		return Load(DefaultFileName)
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}
	return Default(), nil
}

// AccessControlPredicate builds the predicate described by the config.
func (cfg Config) AccessControlPredicate() geometry.AccessControl {
	if len(cfg.AccessControl.Blocks) == 0 {
		return geometry.SectorTrailers{}
	}
	return geometry.NewBlockSet(cfg.AccessControl.Blocks...)
}

// EngineOptions converts the config into checksum engine options. The
// caller supplies the trace sink.
func (cfg Config) EngineOptions() (checksum.Options, error) {
	mode, err := checksum.ParseType4Mode(cfg.Type4Mode)
	if err != nil {
		return checksum.Options{}, err
	}
	return checksum.Options{
		AccessControl: cfg.AccessControlPredicate(),
		Type4:         mode,
	}, nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"example.com/fhgen/internal/common"
)

// defaultSettingsPath is probed when --settings is not given; a missing
// file simply means built-in defaults.
const defaultSettingsPath = "fhgen.yaml"

type logSettings struct {
	Directory  string `yaml:"directory"`
	MaxSizeMB  int    `yaml:"maxSizeMB"`
	MaxAgeDays int    `yaml:"maxAgeDays"`
	MaxBackups int    `yaml:"maxBackups"`
	Compress   bool   `yaml:"compress"`
}

// settings is the optional operator-level YAML file wrapped around a run:
// default paths and log rotation. The run itself is still described by
// the key=value configuration file.
type settings struct {
	ConfigPath string      `yaml:"configPath"`
	OutPath    string      `yaml:"outPath"`
	Logs       logSettings `yaml:"logs"`
}

// loadSettings reads the YAML settings file at path. When the path was not
// given explicitly, a missing file is not an error — the tool falls back
// to its built-in defaults.
func loadSettings(path string, explicit bool) (settings, error) {
	var s settings
	f, err := os.Open(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return s, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&s); err != nil {
		return s, fmt.Errorf("decode %s: %w", path, err)
	}
	if s.Logs.Directory != "" {
		if s.Logs.MaxSizeMB <= 0 {
			s.Logs.MaxSizeMB = 25
		}
		if s.Logs.MaxAgeDays <= 0 {
			s.Logs.MaxAgeDays = 7
		}
		if s.Logs.MaxBackups <= 0 {
			s.Logs.MaxBackups = 5
		}
	}
	return s, nil
}

// setupLogging attaches a rotating log file alongside stderr when the
// settings name a log directory.
func setupLogging(s settings) error {
	if s.Logs.Directory == "" {
		return nil
	}
	if err := os.MkdirAll(s.Logs.Directory, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(s.Logs.Directory, "fhgen.log"),
		MaxSize:    s.Logs.MaxSizeMB,
		MaxAge:     s.Logs.MaxAgeDays,
		MaxBackups: s.Logs.MaxBackups,
		Compress:   s.Logs.Compress,
	}
	common.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return nil
}

// applySettings loads and activates the settings file for one subcommand
// invocation. explicit reports whether the operator passed --settings
// rather than relying on the probe of defaultSettingsPath.
func applySettings(path string, explicit bool) (settings, error) {
	s, err := loadSettings(path, explicit)
	if err != nil {
		return s, err
	}
	if err := setupLogging(s); err != nil {
		return s, err
	}
	return s, nil
}

// firstNonEmpty resolves a path from flag value, settings value, and
// built-in fallback, in that order.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Package config loads afri settings from defaults, an optional JSONC file,
// the environment and command-line overrides, in that order.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tailscale/hujson"
)

// FileName is the config file looked up in the working directory.
const FileName = "afri.jsonc"

var (
	ErrFileNotFound = errors.New("config file not found")
	ErrInvalid      = errors.New("invalid config")
	ErrDBEmpty      = errors.New("db must not be empty")
	ErrLogLevel     = errors.New("log_level must be debug, info, warn or error")
	ErrLogFormat    = errors.New("log_format must be json or console")
	ErrSlugAttempts = errors.New("slug_max_attempts must be positive")
	ErrExportDir    = errors.New("export_dir must not be empty")
)

// Config holds all settings.
type Config struct {
	DB              string `json:"db"`
	LogLevel        string `json:"log_level"`
	LogFormat       string `json:"log_format"`
	SlugMaxAttempts int    `json:"slug_max_attempts"`
	ExportDir       string `json:"export_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DB:              "afri.db",
		LogLevel:        "info",
		LogFormat:       "console",
		SlugMaxAttempts: 1000,
		ExportDir:       "pages",
	}
}

// Overrides carries flag values; empty fields leave the loaded value alone.
type Overrides struct {
	DB       string
	LogLevel string
}

// Load resolves the configuration. An explicit path must exist; otherwise
// FileName in workDir is read when present. env is a list of KEY=VALUE
// pairs, normally os.Environ().
// Returns the config and the path of the file that was loaded, if any.
func Load(workDir, path string, env []string, over Overrides) (Config, string, error) {
	cfg := Default()

	file := path
	mustExist := path != ""
	if file == "" {
		file = FileName
	}
	if !filepath.IsAbs(file) {
		file = filepath.Join(workDir, file)
	}

	loaded, err := loadFile(&cfg, file, mustExist)
	if err != nil {
		return Config{}, "", err
	}
	if !loaded {
		file = ""
	}

	if err := applyEnv(&cfg, env); err != nil {
		return Config{}, "", err
	}
	if over.DB != "" {
		cfg.DB = over.DB
	}
	if over.LogLevel != "" {
		cfg.LogLevel = over.LogLevel
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, "", err
	}
	return cfg, file, nil
}

func loadFile(cfg *Config, path string, mustExist bool) (bool, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is intentionally user-controlled
	if err != nil {
		if os.IsNotExist(err) {
			if mustExist {
				return false, fmt.Errorf("%w: %s", ErrFileNotFound, path)
			}
			return false, nil
		}
		return false, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := Parse(cfg, data); err != nil {
		return false, fmt.Errorf("%w %s: %w", ErrInvalid, path, err)
	}
	return true, nil
}

// Parse overlays the JSONC document data onto cfg. Keys absent from the
// document keep their current values.
func Parse(cfg *Config, data []byte) error {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return fmt.Errorf("invalid JSONC: %w", err)
	}
	dec := json.NewDecoder(strings.NewReader(string(standardized)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

func lookup(env []string, key string) (string, bool) {
	for i := len(env) - 1; i >= 0; i-- {
		if after, ok := strings.CutPrefix(env[i], key+"="); ok {
			return after, true
		}
	}
	return "", false
}

func applyEnv(cfg *Config, env []string) error {
	if v, ok := lookup(env, "AFRI_DB"); ok && v != "" {
		cfg.DB = v
	}
	if v, ok := lookup(env, "AFRI_LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup(env, "AFRI_LOG_FORMAT"); ok && v != "" {
		cfg.LogFormat = v
	}
	if v, ok := lookup(env, "AFRI_SLUG_MAX_ATTEMPTS"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w AFRI_SLUG_MAX_ATTEMPTS: %w", ErrInvalid, err)
		}
		cfg.SlugMaxAttempts = n
	}
	return nil
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.DB == "":
		return fmt.Errorf("%w: %w", ErrInvalid, ErrDBEmpty)
	case c.SlugMaxAttempts <= 0:
		return fmt.Errorf("%w: %w", ErrInvalid, ErrSlugAttempts)
	case c.ExportDir == "":
		return fmt.Errorf("%w: %w", ErrInvalid, ErrExportDir)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %w (got %q)", ErrInvalid, ErrLogLevel, c.LogLevel)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("%w: %w (got %q)", ErrInvalid, ErrLogFormat, c.LogFormat)
	}
	return nil
}

// Format renders cfg as indented JSON.
func Format(cfg Config) (string, error) {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return "", fmt.Errorf("format config: %w", err)
	}
	return string(data), nil
}

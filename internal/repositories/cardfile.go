package repositories

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/desertthunder/webradio/internal/models"
	"github.com/desertthunder/webradio/internal/shared"
	"gopkg.in/yaml.v3"
)

// CardConfigFile reads and writes the card configuration as YAML.
type CardConfigFile struct {
	path string
}

func NewCardConfigFile(path string) *CardConfigFile {
	return &CardConfigFile{path: path}
}

func (f *CardConfigFile) Path() string { return f.path }

// Exists reports whether the file is present
func (f *CardConfigFile) Exists() bool {
	_, err := os.Stat(f.path)
	return err == nil
}

// Load reads and validates the card configuration
func (f *CardConfigFile) Load() (models.CardConfig, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return models.CardConfig{}, fmt.Errorf("%w: card config not found at %s", shared.ErrMissingConfig, f.path)
	}
	if err != nil {
		return models.CardConfig{}, fmt.Errorf("failed to read card config: %w", err)
	}
	return ParseCardConfig(data)
}

// Save validates cfg and replaces the file contents
func (f *CardConfigFile) Save(cfg models.CardConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := MarshalCardConfig(cfg)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create card config directory: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write card config: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace card config: %w", err)
	}
	return nil
}

// ParseCardConfig decodes YAML (JSON is valid YAML) and validates the result
func ParseCardConfig(data []byte) (models.CardConfig, error) {
	var cfg models.CardConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return models.CardConfig{}, fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return models.CardConfig{}, err
	}
	return cfg, nil
}

// MarshalCardConfig encodes cfg as YAML with two-space indentation
func MarshalCardConfig(cfg models.CardConfig) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode card config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode card config: %w", err)
	}
	return buf.Bytes(), nil
}

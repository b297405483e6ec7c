// Package config loads payload configurations from JSON or YAML documents.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gregLibert/sgqr/pkg/sgqr"
	"gopkg.in/yaml.v3"
)

// Format identifies the document syntax.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var ErrUnsupportedFormat = errors.New("unsupported config format")

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Load reads a payload configuration file.
func Load(path string) (sgqr.PayloadConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return sgqr.PayloadConfig{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return sgqr.PayloadConfig{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := Decode(f, format)
	if err != nil {
		return sgqr.PayloadConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses a payload configuration document from r.
// An empty document yields the zero configuration, which builds with defaults.
func Decode(r io.Reader, format Format) (sgqr.PayloadConfig, error) {
	var cfg sgqr.PayloadConfig

	switch format {
	case FormatJSON:
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return sgqr.PayloadConfig{}, fmt.Errorf("decode json: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return sgqr.PayloadConfig{}, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return sgqr.PayloadConfig{}, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	return cfg, nil
}

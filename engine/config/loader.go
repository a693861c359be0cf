package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-orbit/common"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Decoder is the subset of the TOML and YAML decoders used to read a config.
type Decoder interface {
	Decode(v any) error
}

// DecoderFunc creates a Decoder reading from r.
type DecoderFunc func(r io.Reader) Decoder

// decoderFor picks the decoder from the file extension.
func decoderFor(path string) (DecoderFunc, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return func(r io.Reader) Decoder {
			d := toml.NewDecoder(r)
			d.DisallowUnknownFields()
			return d
		}, nil
	case ".yaml", ".yml":
		return func(r io.Reader) Decoder {
			d := yaml.NewDecoder(r)
			d.KnownFields(true)
			return d
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported config format %q", common.ErrInvalidConfig, filepath.Ext(path))
	}
}

// Load reads the file at path over Default and validates the result.
// The format is chosen by extension: .toml, .yaml or .yml.
//
// Parameters:
//   - path: the config file
//
// Returns:
//   - Config: the merged configuration
//   - error: an error if the file cannot be read, or one wrapping common.ErrInvalidConfig
func Load(path string) (Config, error) {
	f, err := decoderFor(path)
	if err != nil {
		return Config{}, err
	}
	fp, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to open config: %w", err)
	}
	defer fp.Close()
	return Read(bufio.NewReader(fp), f)
}

// Read decodes a config from r over Default and validates it.
//
// Parameters:
//   - r: the encoded config
//   - f: the decoder for the encoding
//
// Returns:
//   - Config: the merged configuration
//   - error: an error wrapping common.ErrInvalidConfig if decoding or validation fails
func Read(r io.Reader, f DecoderFunc) (Config, error) {
	cfg := Default()
	if err := f(r).Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

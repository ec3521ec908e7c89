package def

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/hostref/errors"
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.InvalidInput(errors.PhaseConfig,
		fmt.Sprintf("unknown definition format %q", filepath.Ext(path)))
}

// Load reads, decodes and validates a definition file.
func Load(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err,
			fmt.Sprintf("cannot read %s", path))
	}

	d, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	d.Source = path
	return d, nil
}

// Parse decodes and validates a definition.
func Parse(data []byte, format Format) (*Definition, error) {
	var d Definition
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse yaml")
		}
	case FormatTOML:
		md, err := toml.Decode(string(data), &d)
		if err != nil {
			return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, errors.InvalidData(errors.PhaseConfig, undecoded[0].String(), "unknown key")
		}
	default:
		return nil, errors.InvalidInput(errors.PhaseConfig, fmt.Sprintf("unknown definition format %q", format))
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

package report

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/rahulvramesh/vac/internal/errors"
)

// Format is a report serialization
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// FormatFor picks the format from a file extension
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", errors.Newf(errors.ErrInvalidInput, "unsupported report format %q (use .json, .yaml or .toml)", filepath.Ext(path)).
		WithDetail("path", path)
}

// Encode writes r to w in the given format
func Encode(w io.Writer, format Format, r *Report) error {
	var err error
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		err = enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		err = enc.Encode(r)
		if err == nil {
			err = enc.Close()
		}
	case FormatTOML:
		err = toml.NewEncoder(w).Encode(r)
	default:
		return errors.Newf(errors.ErrInvalidInput, "unknown report format %q", format)
	}
	if err != nil {
		return errors.Wrapf(err, errors.ErrInternal, "failed to encode %s report", format)
	}
	return nil
}

// Write stores r at path in the format implied by its extension
func Write(path string, r *Report) error {
	format, err := FormatFor(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.FromIO(err, path)
	}
	if err := Encode(f, format, r); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.FromIO(err, path)
	}
	return nil
}

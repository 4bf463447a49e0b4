// Package config loads vac settings from built-in defaults, an optional TOML
// file and VAC_ environment variables, in that order of precedence.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

// EnvPrefix marks environment overrides. A double underscore separates the
// section from the key: VAC_SAFETY__MOVE_TO_TRASH=true.
const EnvPrefix = "VAC_"

type Config struct {
	Scan   ScanConfig   `koanf:"scan"`
	Safety SafetyConfig `koanf:"safety"`
	Clean  CleanConfig  `koanf:"clean"`
	UI     UIConfig     `koanf:"ui"`
}

type ScanConfig struct {
	// ExtraTargets are scanned after the well-known locations; ~ is expanded
	ExtraTargets []string `koanf:"extra_targets"`
	// Workers bounds each size computation; 0 means one per CPU
	Workers int `koanf:"workers"`
	// Dispatch bounds how many directories are sized at once
	Dispatch int `koanf:"dispatch"`
}

type SafetyConfig struct {
	MoveToTrash       bool     `koanf:"move_to_trash"`
	ExtraAllowedRoots []string `koanf:"extra_allowed_roots"`
}

// CleanConfig overrides the per-category whole-removal defaults
type CleanConfig struct {
	WholeRemoval []string `koanf:"whole_removal"`
	ContentOnly  []string `koanf:"content_only"`
}

type UIConfig struct {
	DefaultSort string `koanf:"default_sort"`
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"scan.extra_targets":         []string{},
		"scan.workers":               0,
		"scan.dispatch":              4,
		"safety.move_to_trash":       false,
		"safety.extra_allowed_roots": []string{},
		"clean.whole_removal":        []string{},
		"clean.content_only":         []string{},
		"ui.default_sort":            string(utils.SortBySize),
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/vac/config.toml
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, "vac", "config.toml")
}

// Default returns the built-in configuration, ignoring files and environment
func Default() *Config {
	k := koanf.New(".")
	_ = k.Load(confmap.Provider(defaults(), "."), nil)
	cfg, err := unmarshal(k)
	if err != nil {
		return &Config{}
	}
	return cfg
}

// Load reads the configuration. An empty path uses DefaultPath, where a
// missing file just means defaults; an explicitly named file must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	return load(path, explicit)
}

func load(path string, explicit bool) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "failed to load defaults")
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfig, "failed to parse config %s", path).
					WithDetail("path", path)
			}
			logger.Debug().Str("path", path).Msg("Loaded config file")
		} else if explicit {
			return nil, errors.Wrapf(err, errors.ErrConfig, "config file not readable: %s", path).
				WithDetail("path", path)
		}
	}

	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "failed to load environment")
	}

	return unmarshal(k)
}

func unmarshal(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	unmarshalConf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           &cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := k.UnmarshalWithConf("", &cfg, unmarshalConf); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfig, "invalid configuration")
	}
	return &cfg, nil
}

// ExpandedExtraTargets returns the extra targets with ~ resolved against home
func (c *Config) ExpandedExtraTargets(home string) []string {
	return expandAll(c.Scan.ExtraTargets, home)
}

// ExpandedAllowedRoots returns the extra allowed roots with ~ resolved
func (c *Config) ExpandedAllowedRoots(home string) []string {
	return expandAll(c.Safety.ExtraAllowedRoots, home)
}

// WholeRemoval returns the categories forced to whole removal
func (c *Config) WholeRemoval() []types.Category {
	return categories(c.Clean.WholeRemoval)
}

// ContentOnly returns the categories forced to content-only clearing
func (c *Config) ContentOnly() []types.Category {
	return categories(c.Clean.ContentOnly)
}

// SortOrder returns the configured default sort
func (c *Config) SortOrder() utils.SortOrder {
	return utils.ParseSortOrder(c.UI.DefaultSort)
}

func expandAll(raw []string, home string) []string {
	var out []string
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, filepath.Clean(utils.ExpandTilde(p, home)))
	}
	return out
}

func categories(raw []string) []types.Category {
	var out []types.Category
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c != "" {
			out = append(out, types.Category(strings.ToLower(c)))
		}
	}
	return out
}

// Package config loads tool configuration and builds the logger.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/rupor-github/gencfg"
)

//go:embed config.yaml
var defaultConfig []byte

type (
	// ProjectConfig locates the Godot project.
	ProjectConfig struct {
		Root string `yaml:"root"`
	}

	// OutputConfig controls generated documents.
	OutputConfig struct {
		Format     int    `yaml:"format" validate:"min=3,max=4"`
		EmitUID    bool   `yaml:"emit_uid"`
		TilesetDir string `yaml:"tileset_dir"`
	}

	// MapConfig controls map export.
	MapConfig struct {
		SkipHidden bool   `yaml:"skip_hidden"`
		ObjectType string `yaml:"object_type" validate:"oneof=Area2D StaticBody2D"`
	}

	// TilesetConfig controls tileset export.
	TilesetConfig struct {
		SkipBlankTiles bool   `yaml:"skip_blank_tiles"`
		CollisionLayer uint32 `yaml:"collision_layer"`
		CollisionMask  uint32 `yaml:"collision_mask"`
	}

	// Config is the complete tool configuration.
	Config struct {
		Project ProjectConfig `yaml:"project"`
		Output  OutputConfig  `yaml:"output"`
		Map     MapConfig     `yaml:"map"`
		Tileset TilesetConfig `yaml:"tileset"`
		Logging LoggingConfig `yaml:"logging"`
		Version int           `yaml:"version" validate:"eq=1"`
	}
)

// unmarshalConfig decodes data over cfg, rejecting unknown fields.
func unmarshalConfig(data []byte, cfg *Config) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode configuration data: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() (*Config, error) {
	cfg, err := unmarshalConfig(defaultConfig, &Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to process default configuration: %w", err)
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load reads the configuration file at path over the built-in defaults
// and validates the result. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if cfg, err = unmarshalConfig(data, cfg); err != nil {
		return nil, err
	}
	if err := gencfg.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", path, err)
	}

	return cfg, nil
}

// Dump returns the built-in configuration text.
func Dump() []byte {
	return append([]byte(nil), defaultConfig...)
}

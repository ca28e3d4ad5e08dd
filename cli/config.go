package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/ankit-chaubey/metascrub/core"
)

// DefaultConfigFile is read from the working directory when --config is
// not given.
const DefaultConfigFile = "surgery.yaml"

// Config mirrors surgery.yaml.
type Config struct {
	Log struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
	Output struct {
		Format string `yaml:"format"` // text | json
		Color  string `yaml:"color"`  // auto | always | never
	} `yaml:"output"`
	Clean struct {
		Suffix    string `yaml:"suffix"`
		Overwrite bool   `yaml:"overwrite"`
	} `yaml:"clean"`
	GPS struct {
		Precision string `yaml:"precision"`
	} `yaml:"gps"`
	Serve struct {
		Addr      string `yaml:"addr"`
		MaxBodyMB int    `yaml:"max_body_mb"`
	} `yaml:"serve"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Log.Level = "info"
	cfg.Log.Pretty = true
	cfg.Output.Format = "text"
	cfg.Output.Color = "auto"
	cfg.Clean.Suffix = "_clean"
	cfg.GPS.Precision = "exact"
	cfg.Serve.Addr = ":8080"
	cfg.Serve.MaxBodyMB = 32
	return cfg
}

// LoadConfig reads path over the defaults. Keys missing from the file
// keep their default values.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, errors.Wrap(err, "error reading config file")
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "error parsing config file")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return cfg, nil
}

// LoadConfigOrDefault is LoadConfig, except that a missing file yields
// the defaults. An empty path means DefaultConfigFile.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFile
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case "text", "json":
	default:
		return errors.Errorf("output.format must be text or json, got %q", c.Output.Format)
	}
	switch c.Output.Color {
	case "auto", "always", "never":
	default:
		return errors.Errorf("output.color must be auto, always or never, got %q", c.Output.Color)
	}
	if _, err := core.ParsePrecision(c.GPS.Precision); err != nil {
		return err
	}
	if c.Serve.MaxBodyMB <= 0 {
		return errors.Errorf("serve.max_body_mb must be positive, got %d", c.Serve.MaxBodyMB)
	}
	return nil
}

// Precision returns the parsed GPS precision. Validate has already
// rejected unknown names.
func (c *Config) Precision() core.Precision {
	p, _ := core.ParsePrecision(c.GPS.Precision)
	return p
}

// Package config handles bsptool configuration loading and management.
package config

import (
	"fmt"

	"github.com/romain-durban/bsploader/pkg/encoding"
)

// Output formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

// Config holds all bsptool settings.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	Output  OutputConfig  `yaml:"output"`
	Input   InputConfig   `yaml:"input"`
	Names   NamesConfig   `yaml:"names"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	Color   bool   `yaml:"color"`
}

// OutputConfig controls how records are printed.
type OutputConfig struct {
	Format string `yaml:"format"` // text or yaml
	Limit  int    `yaml:"limit"`  // Max records per dump, 0 for all
}

// InputConfig controls how map files are opened.
type InputConfig struct {
	MaxDecompressedMB int64 `yaml:"max_decompressed_mb"` // 0 disables the limit
}

// NamesConfig controls decoding of texture names.
type NamesConfig struct {
	Encoding string `yaml:"encoding"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:   "warn",
			LogFile: "",
			Color:   true,
		},
		Output: OutputConfig{
			Format: FormatText,
			Limit:  0,
		},
		Input: InputConfig{
			MaxDecompressedMB: 512,
		},
		Names: NamesConfig{
			Encoding: encoding.Windows1252,
		},
	}
}

// MaxDecompressedBytes returns the input limit in bytes.
func (c *Config) MaxDecompressedBytes() int64 {
	return c.Input.MaxDecompressedMB << 20
}

// Validate checks values a config file or flag may have set.
func (c *Config) Validate() error {
	switch c.Output.Format {
	case FormatText, FormatYAML:
	default:
		return fmt.Errorf("output.format: unknown format %q", c.Output.Format)
	}
	if c.Output.Limit < 0 {
		return fmt.Errorf("output.limit: must not be negative, got %d", c.Output.Limit)
	}
	if c.Input.MaxDecompressedMB < 0 {
		return fmt.Errorf("input.max_decompressed_mb: must not be negative, got %d", c.Input.MaxDecompressedMB)
	}
	if _, err := encoding.ToUTF8(c.Names.Encoding, nil); err != nil {
		return fmt.Errorf("names.encoding: %w", err)
	}
	return nil
}

// Package config loads the wrapper's configuration from lightx2v.yaml
// with LIGHTX2V_ environment overrides.
package config

import (
	"fmt"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

// Config is the complete tool configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Paths    PathsConfig    `yaml:"paths" mapstructure:"paths"`
	Defaults DefaultsConfig `yaml:"defaults" mapstructure:"defaults"`
}

// ServerConfig locates the ComfyUI server.
type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
	// ConnectTimeout bounds the websocket connection attempt in seconds;
	// zero or negative waits indefinitely.
	ConnectTimeout int `yaml:"connect_timeout" mapstructure:"connect_timeout"`
}

// PathsConfig holds server-side and local directories.
type PathsConfig struct {
	// ModelDir is the Wan model directory as seen by the server.
	ModelDir string `yaml:"model_dir" mapstructure:"model_dir"`
	// OutputDir is the local directory downloaded outputs land in.
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
}

// DefaultsConfig seeds generation parameters that flags and presets can
// override.
type DefaultsConfig struct {
	Steps     int                    `yaml:"steps" mapstructure:"steps"`
	Precision lightx2v.Precision     `yaml:"precision" mapstructure:"precision"`
	Attention lightx2v.AttentionType `yaml:"attention" mapstructure:"attention"`
}

// NewConfig returns a config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8188,
		},
		Paths: PathsConfig{
			OutputDir: "output",
		},
		Defaults: DefaultsConfig{
			Steps:     20,
			Precision: lightx2v.PrecisionBF16,
			Attention: lightx2v.AttentionFlashAttn3,
		},
	}
}

// ApplyDefaults fills in zero values left after unmarshalling.
func (c *Config) ApplyDefaults() {
	base := NewConfig()
	if c.Server.Host == "" {
		c.Server.Host = base.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = base.Server.Port
	}
	if c.Paths.OutputDir == "" {
		c.Paths.OutputDir = base.Paths.OutputDir
	}
	if c.Defaults.Steps == 0 {
		c.Defaults.Steps = base.Defaults.Steps
	}
	if c.Defaults.Precision == "" {
		c.Defaults.Precision = base.Defaults.Precision
	}
	if c.Defaults.Attention == "" {
		c.Defaults.Attention = base.Defaults.Attention
	}
}

// Validate checks the configuration for coherent values.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server.host must not be empty")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d outside (0, 65535]", c.Server.Port)
	}
	if c.Defaults.Steps <= 0 {
		return fmt.Errorf("defaults.steps must be positive")
	}
	if err := c.Defaults.Precision.Validate(); err != nil {
		return fmt.Errorf("defaults.precision: %w", err)
	}
	if err := c.Defaults.Attention.Validate(); err != nil {
		return fmt.Errorf("defaults.attention: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/GACLove/ComfyUI-Lightx2vWrapper/lightx2v"
)

const (
	// DefaultConfigName is the config file looked up in the working
	// directory when no path is given.
	DefaultConfigName = "lightx2v.yaml"

	// EnvPrefix is the prefix for environment variable overrides.
	EnvPrefix = "LIGHTX2V"
)

// LoadError wraps configuration loading failures with their source path.
type LoadError struct {
	Path    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("config %s: %s: %v", e.Path, e.Message, e.Err)
	}
	return fmt.Sprintf("config %s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Loader reads configuration from a YAML file and the environment.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads the config file at path, applies environment overrides and
// defaults, and validates the result. An empty path falls back to
// DefaultConfigName in the working directory; a missing default file is
// not an error, the defaults apply.
func (l *Loader) Load(path string) (*Config, error) {
	optional := path == ""
	if optional {
		path = DefaultConfigName
	}

	cfg := NewConfig()

	if _, err := os.Stat(path); err != nil {
		if !optional {
			return nil, &LoadError{Path: path, Message: "config file not found", Err: err}
		}
	} else {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, &LoadError{Path: path, Message: "failed to read config file", Err: err}
		}
		if err := l.v.Unmarshal(cfg); err != nil {
			return nil, &LoadError{Path: path, Message: "failed to parse config file", Err: err}
		}
	}

	l.applyEnvOverrides(cfg)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, &LoadError{Path: path, Message: "configuration validation failed", Err: err}
	}
	return cfg, nil
}

// LoadFromDir loads lightx2v.yaml from the given directory.
func (l *Loader) LoadFromDir(dir string) (*Config, error) {
	return l.Load(filepath.Join(dir, DefaultConfigName))
}

func (l *Loader) applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPrefix + "_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv(EnvPrefix + "_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv(EnvPrefix + "_SERVER_CONNECT_TIMEOUT"); v != "" {
		if timeout, err := strconv.Atoi(v); err == nil {
			cfg.Server.ConnectTimeout = timeout
		}
	}
	if v := os.Getenv(EnvPrefix + "_PATHS_MODEL_DIR"); v != "" {
		cfg.Paths.ModelDir = v
	}
	if v := os.Getenv(EnvPrefix + "_PATHS_OUTPUT_DIR"); v != "" {
		cfg.Paths.OutputDir = v
	}
	if v := os.Getenv(EnvPrefix + "_DEFAULTS_STEPS"); v != "" {
		if steps, err := strconv.Atoi(v); err == nil {
			cfg.Defaults.Steps = steps
		}
	}
	if v := os.Getenv(EnvPrefix + "_DEFAULTS_PRECISION"); v != "" {
		cfg.Defaults.Precision = lightx2v.Precision(v)
	}
	if v := os.Getenv(EnvPrefix + "_DEFAULTS_ATTENTION"); v != "" {
		cfg.Defaults.Attention = lightx2v.AttentionType(v)
	}
}

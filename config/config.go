// Package config loads todoparty.yml.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/delaneyj/todoparty/errors"
	"github.com/delaneyj/todoparty/logging"
	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

// Config is the root of todoparty.yml.
type Config struct {
	Log   logging.Config `yaml:"log"`
	Data  DataConfig     `yaml:"data"`
	Store StoreConfig    `yaml:"store"`

	// Settings is where the signed in user and view preferences are kept.
	Settings string `yaml:"settings"`
}

type DataConfig struct {
	// Driver is "sqlite" (default) or "memory".
	Driver string `yaml:"driver"`
	// Path of the sqlite file. Overridden by TODO_DB_PATH.
	Path string `yaml:"path"`
}

type StoreConfig struct {
	// Name prefixes store log lines.
	Name string `yaml:"name"`
	// Quiet drops store logs below warn.
	Quiet bool `yaml:"quiet"`
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// Default is the configuration used when no file exists.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// Load reads path. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c := Default()
			c.applyEnv()
			return c, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to read config file").
			WithDetail("path", path)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration, expanding ${VAR} and ${VAR:-default}.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvVars(string(data))

	var c Config
	if err := yaml.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid, "failed to parse YAML configuration")
	}
	c.SetDefaults()
	c.applyEnv()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) SetDefaults() {
	if c.Data.Driver == "" {
		c.Data.Driver = DriverSQLite
	}
	if c.Data.Path == "" {
		c.Data.Path = filepath.Join(dataDir(), "todo.db")
	}
	if c.Settings == "" {
		c.Settings = filepath.Join(configDir(), "settings.yml")
	}
	if c.Store.Name == "" {
		c.Store.Name = "todo"
	}
	if c.Log.Stderr == "" {
		c.Log.Stderr = "auto"
	}
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TODO_DB_PATH"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("TODO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) Validate() error {
	switch c.Data.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "data.driver must be memory or sqlite").
			WithDetail("driver", c.Data.Driver)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "log.format must be text or json").
			WithDetail("format", c.Log.Format)
	}
	switch c.Log.Stderr {
	case "auto", "always", "never":
	default:
		return errors.New(errors.ErrCodeConfigInvalid, "log.stderr must be auto, always or never").
			WithDetail("stderr", c.Log.Stderr)
	}
	return nil
}

// DefaultPath is $XDG_CONFIG_HOME/todoparty/todoparty.yml.
func DefaultPath() string {
	return filepath.Join(configDir(), "todoparty.yml")
}

// expandEnvVars replaces ${VAR} with environment variable values
func expandEnvVars(content string) string {
	return envVarRegex.ReplaceAllStringFunc(content, func(match string) string {
		name := envVarRegex.FindStringSubmatch(match)[1]

		name, fallback, _ := strings.Cut(name, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		return fallback
	})
}

func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "todoparty")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "todoparty")
	}
	return "."
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "todoparty")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", "todoparty")
	}
	return "."
}

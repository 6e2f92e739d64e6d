// Package config loads serialcheck settings from YAML, .env and the
// environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = ".serialcheck.yaml"

// Environment overrides.
const (
	EnvNM       = "SERIALCHECK_NM"
	EnvNMArgs   = "SERIALCHECK_NM_ARGS"
	EnvLogLevel = "SERIALCHECK_LOG_LEVEL"
)

// Policy mirrors the pointer relaxations of the classifier.
type Policy struct {
	AllowCharPointer  bool `yaml:"allow_char_pointer"`
	AllowVoidPointer  bool `yaml:"allow_void_pointer"`
	AllowBasicPointer bool `yaml:"allow_basic_pointer"`
}

// NM configures the symbol dump utility.
type NM struct {
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args,omitempty"`
	Dynamic bool          `yaml:"dynamic"`
	Timeout time.Duration `yaml:"timeout"` // zero waits for the utility to exit
}

// Log configures the stderr logger.
type Log struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Config is the resolved run configuration.
type Config struct {
	Policy       Policy `yaml:"policy"`
	ShowReserved bool   `yaml:"show_reserved"`
	Summary      bool   `yaml:"summary"`
	OmitHeaders  bool   `yaml:"omit_headers"`
	Format       string `yaml:"format"`
	Demangle     bool   `yaml:"demangle"`
	KeepGoing    bool   `yaml:"keep_going"`
	Match        string `yaml:"match,omitempty"`
	Failing      bool   `yaml:"failing"`
	NM           NM     `yaml:"nm"`
	Log          Log    `yaml:"log"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Format: "text",
		NM:     NM{Path: "nm"},
		Log:    Log{Level: "warn"},
	}
}

// Load reads .env when present, then the YAML file at path over the
// defaults, then environment overrides. A missing file is only an error when
// required is set.
func Load(path string, required bool) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !required:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvNM); v != "" {
		cfg.NM.Path = v
	}
	if v := os.Getenv(EnvNMArgs); v != "" {
		cfg.NM.Args = strings.Fields(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
}

// DumpArgs returns the extra arguments passed to the dump utility.
func (c *Config) DumpArgs() []string {
	args := append([]string{}, c.NM.Args...)
	if c.NM.Dynamic && !slices.Contains(args, "-D") {
		args = append(args, "-D")
	}
	return args
}

// Marshal renders c as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

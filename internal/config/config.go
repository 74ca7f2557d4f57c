package config

import (
	"errors"
	"fmt"
	"go/token"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is looked up at the root of the declarations directory
const FileName = "ovld.toml"

type Config struct {
	LogLevel string `toml:"log_level"`
	// Jobs bounds how many independent overload sets are split at once; 0 uses GOMAXPROCS
	Jobs int      `toml:"jobs"`
	Go   GoConfig `toml:"go"`
}

type GoConfig struct {
	Package       string `toml:"package"`
	RuntimeImport string `toml:"runtime_import"`
	// Types maps runtime representation names to Go types, like Integer = "int"
	Types map[string]string `toml:"types"`
}

func Default() Config {
	return Config{
		LogLevel: "error",
		Go: GoConfig{
			Package:       "dispatch",
			RuntimeImport: "github.com/cottand/ovld/drt",
			Types:         map[string]string{},
		},
	}
}

// Load reads FileName from fsys, falling back to Default when there is none
func Load(fsys fs.FS) (Config, error) {
	data, err := fs.ReadFile(fsys, FileName)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", FileName, err)
	}
	return Parse(string(data), FileName)
}

// Parse decodes data over Default. path is only used in error messages.
func Parse(data string, path string) (Config, error) {
	cfg := Default()
	meta, err := toml.Decode(data, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("%s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.validate(path); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate(path string) error {
	if c.Jobs < 0 {
		return fmt.Errorf("%s: jobs must not be negative, got %d", path, c.Jobs)
	}
	if !token.IsIdentifier(c.Go.Package) {
		return fmt.Errorf("%s: [go].package %q is not a Go identifier", path, c.Go.Package)
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Level parses LogLevel, which is a slog level name like "debug" or "warn+2"
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// Package config resolves voxclone settings. Sources are applied in order,
// later ones winning: defaults, config file (YAML or TOML), .env file,
// process environment. Command-line flags are applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/fmueller/voxclone/internal/inference"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	EnvEndpoint  = "VOXCLONE_ENDPOINT"
	EnvToken     = "VOXCLONE_TOKEN"
	EnvOutputDir = "VOXCLONE_OUTPUT_DIR"
	EnvConfig    = "VOXCLONE_CONFIG"
	EnvPreset    = "VOXCLONE_PRESET"
	EnvTimeout   = "VOXCLONE_TIMEOUT_SECONDS"
)

var ErrUnsupportedFormat = errors.New("unsupported config file format")

type Config struct {
	Endpoint       string `yaml:"endpoint" toml:"endpoint" validate:"required,url"`
	Token          string `yaml:"token" toml:"token" validate:"required"`
	Preset         string `yaml:"preset" toml:"preset" validate:"omitempty,oneof=singing rapping"`
	OutputDir      string `yaml:"output_dir" toml:"output_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds" validate:"gte=0"`

	// Source is the config file that was read, if any.
	Source string `yaml:"-" toml:"-"`
}

// Timeout is the client-side request limit; zero waits indefinitely.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the settings needed to submit a conversion.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, describe(fe))
			}
			return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func describe(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Token":
		return fmt.Sprintf("inference token is missing; set %s or token in the config file", EnvToken)
	case "Endpoint":
		return fmt.Sprintf("endpoint %q is not a valid URL", fe.Value())
	default:
		return fmt.Sprintf("%s failed %q", strings.ToLower(fe.Field()), fe.Tag())
	}
}

type Options struct {
	// Path is an explicit config file. Empty means ConfigDir/config.yaml or
	// ConfigDir/config.toml, whichever exists.
	Path      string
	ConfigDir string
	// EnvFile is a dotenv file. Empty means ConfigDir/.env and ./.env.
	EnvFile   string
	LookupEnv func(string) (string, bool)
	Defaults  Config
}

func Load(opts Options) (Config, error) {
	if opts.LookupEnv == nil {
		opts.LookupEnv = os.LookupEnv
	}

	cfg := opts.Defaults

	path := opts.Path
	if path == "" {
		if value, ok := opts.LookupEnv(EnvConfig); ok {
			path = strings.TrimSpace(value)
		}
	}
	explicit := path != ""
	if !explicit {
		path = findConfigFile(opts.ConfigDir)
	}

	if path != "" {
		if err := readFile(path, &cfg); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return Config{}, err
			}
		} else {
			cfg.Source = path
		}
	}

	dotenv, err := readDotenv(opts)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if value, ok := opts.LookupEnv(key); ok {
			return value, true
		}
		value, ok := dotenv[key]
		return value, ok
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return Config{}, err
	}
	cfg.Preset = normalizePreset(cfg.Preset)

	return cfg, nil
}

// normalizePreset maps any spelling the preset parser accepts to its
// canonical name. Unknown values are kept for Validate to report.
func normalizePreset(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	preset, err := inference.ParsePreset(value)
	if err != nil {
		return value
	}
	return string(preset)
}

func findConfigFile(dir string) string {
	if dir == "" {
		return ""
	}
	for _, name := range []string{"config.yaml", "config.yml", "config.toml"} {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func readFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		err = toml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func readDotenv(opts Options) (map[string]string, error) {
	candidates := []string{opts.EnvFile}
	if opts.EnvFile == "" {
		candidates = []string{".env"}
		if opts.ConfigDir != "" {
			candidates = append([]string{filepath.Join(opts.ConfigDir, ".env")}, candidates...)
		}
	}

	merged := map[string]string{}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			if opts.EnvFile != "" {
				return nil, fmt.Errorf("env file %s: %w", candidate, err)
			}
			continue
		}

		values, err := godotenv.Read(candidate)
		if err != nil {
			return nil, fmt.Errorf("load env file %s: %w", candidate, err)
		}
		for key, value := range values {
			merged[key] = value
		}
	}
	return merged, nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if value, ok := lookup(EnvEndpoint); ok && strings.TrimSpace(value) != "" {
		cfg.Endpoint = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvToken); ok && strings.TrimSpace(value) != "" {
		cfg.Token = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvOutputDir); ok && strings.TrimSpace(value) != "" {
		cfg.OutputDir = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvPreset); ok && strings.TrimSpace(value) != "" {
		cfg.Preset = strings.TrimSpace(value)
	}
	if value, ok := lookup(EnvTimeout); ok && strings.TrimSpace(value) != "" {
		seconds, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("parse %s: %w", EnvTimeout, err)
		}
		cfg.TimeoutSeconds = seconds
	}
	return nil
}

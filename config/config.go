// Package config loads server settings. Sources are applied in order:
// built-in defaults, an optional YAML file, a .env file in the working
// directory, then EDA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/vinodismyname/edamcp/pkg/validation"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "EDA"

// ErrInvalid indicates a setting outside its allowed range.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds every tunable of the server.
type Config struct {
	MaxConcurrentRequests int           `yaml:"max_concurrent_requests" envconfig:"MAX_CONCURRENT_REQUESTS" validate:"gte=1"`
	MaxSubprocesses       int           `yaml:"max_subprocesses" envconfig:"MAX_SUBPROCESSES" validate:"gte=1"`
	OperationTimeout      time.Duration `yaml:"operation_timeout" envconfig:"OPERATION_TIMEOUT" validate:"gte=0"`
	AcquireTimeout        time.Duration `yaml:"acquire_timeout" envconfig:"ACQUIRE_TIMEOUT" validate:"gte=0"`
	CustomCodeTimeout     time.Duration `yaml:"custom_code_timeout" envconfig:"CUSTOM_CODE_TIMEOUT" validate:"gte=0"`

	MaxFileBytes    int64  `yaml:"max_file_bytes" envconfig:"MAX_FILE_BYTES" validate:"gte=1"`
	MaxOutputBytes  int    `yaml:"max_output_bytes" envconfig:"MAX_OUTPUT_BYTES" validate:"gte=0"`
	ReportPageBytes int    `yaml:"report_page_bytes" envconfig:"REPORT_PAGE_BYTES" validate:"gte=0"`
	Model           string `yaml:"model" envconfig:"MODEL"`

	FetchTimeout time.Duration `yaml:"fetch_timeout" envconfig:"FETCH_TIMEOUT" validate:"gte=0"`
	FetchRate    float64       `yaml:"fetch_rate" envconfig:"FETCH_RATE" validate:"gte=0"`
	FetchBurst   int           `yaml:"fetch_burst" envconfig:"FETCH_BURST" validate:"gte=1"`

	EnablePython bool     `yaml:"enable_python" envconfig:"ENABLE_PYTHON"`
	Interpreters []string `yaml:"interpreters" envconfig:"INTERPRETERS"`
	TempDir      string   `yaml:"temp_dir" envconfig:"TEMP_DIR"`
	AllowedDirs  []string `yaml:"allowed_dirs" envconfig:"ALLOWED_DIRS"`
	// Sheet selects the worksheet of .xlsx inputs; empty means the first.
	Sheet string `yaml:"sheet" envconfig:"SHEET"`

	// DisabledTools are hidden from tools/list and refused when called.
	DisabledTools []string `yaml:"disabled_tools" envconfig:"DISABLED_TOOLS"`

	HTTPAddr string `yaml:"http_addr" envconfig:"HTTP_ADDR"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`
}

// Defaults returns a Config populated from defaults.go.
func Defaults() Config {
	return Config{
		MaxConcurrentRequests: DefaultMaxConcurrentRequests,
		MaxSubprocesses:       DefaultMaxSubprocesses,
		OperationTimeout:      DefaultOperationTimeout,
		AcquireTimeout:        DefaultAcquireRequestTimeout,
		CustomCodeTimeout:     DefaultCustomCodeTimeout,
		MaxFileBytes:          DefaultMaxFileBytes,
		MaxOutputBytes:        DefaultMaxOutputBytes,
		ReportPageBytes:       DefaultReportPageBytes,
		Model:                 DefaultModel,
		FetchTimeout:          DefaultFetchTimeout,
		FetchRate:             DefaultFetchRate,
		FetchBurst:            DefaultFetchBurst,
		EnablePython:          true,
		Interpreters:          append([]string(nil), DefaultInterpreters...),
		LogLevel:              "info",
	}
}

// Load builds a Config. path names an optional YAML file; when empty,
// EDA_CONFIG is consulted. A missing .env file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Defaults()
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: environment: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Interpreters = compact(c.Interpreters)
	if len(c.Interpreters) == 0 {
		c.Interpreters = append([]string(nil), DefaultInterpreters...)
	}
	c.AllowedDirs = compact(c.AllowedDirs)
	c.DisabledTools = compact(c.DisabledTools)
	c.Sheet = strings.TrimSpace(c.Sheet)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Model == "" {
		c.Model = DefaultModel
	}
}

// Validate checks ranges and the log level.
func (c *Config) Validate() error {
	if msg := validation.ValidateStruct(c); msg != "" {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.TrimPrefix(msg, "VALIDATION: "))
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalid, c.LogLevel)
	}
	return nil
}

// Level parses LogLevel; empty means info.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	return zerolog.ParseLevel(c.LogLevel)
}

func compact(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

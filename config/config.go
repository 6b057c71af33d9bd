// Package config loads the server configuration. Sources are applied in
// order, later ones overriding earlier ones: defaults, a .env file, an
// optional YAML file, HTTPCORE_* environment variables and finally flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

const envPrefix = "HTTPCORE_"

var (
	ErrInvalidWorkers  = errors.New("config: workers must be positive")
	ErrInvalidTimeout  = errors.New("config: timeouts must not be negative")
	ErrInvalidEncoding = errors.New("config: unsupported compression encoding")
	ErrMissingEndpoint = errors.New("config: telemetry endpoint required when telemetry is enabled")
)

type Config struct {
	Address      string
	Directory    string
	Workers      int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	LogLevel     string

	Compression Compression
	Telemetry   Telemetry
}

type Compression struct {
	Level     int
	MinSize   int
	Encodings []string
}

type Telemetry struct {
	Enabled     bool
	ServiceName string
	Endpoint    string
	Insecure    bool
}

// source looks up a dotted key such as "compression.level".
type source func(key string) (any, bool)

func Default() Config {
	return Config{
		Address:     "127.0.0.1:4221",
		Workers:     10,
		ReadTimeout: 5 * time.Second,
		LogLevel:    "info",
		Compression: Compression{
			Level:     -1,
			Encodings: []string{"gzip", "br", "zstd", "deflate"},
		},
		Telemetry: Telemetry{
			ServiceName: "httpcore",
			Endpoint:    "127.0.0.1:4317",
			Insecure:    true,
		},
	}
}

// Load builds the configuration for the command line args (without the
// program name).
func Load(args []string) (Config, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("config: loading .env: %w", err)
	}

	fset := flag.NewFlagSet("httpcore", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	configPath := fset.String("config", os.Getenv(envPrefix+"CONFIG"), "path to a YAML configuration file")
	address := fset.String("address", "", "listen address")
	directory := fset.String("directory", "", "directory served by /files")
	workers := fset.Int("workers", 0, "number of connection workers")
	readTimeout := fset.Duration("read-timeout", 0, "read deadline per connection")
	writeTimeout := fset.Duration("write-timeout", 0, "write deadline per connection")
	logLevel := fset.String("log-level", "", "debug, info, warn or error")
	if err := fset.Parse(args); err != nil {
		return cfg, fmt.Errorf("config: parsing flags: %w", err)
	}

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return cfg, err
		}
	}

	if err := cfg.loadEnv(os.LookupEnv); err != nil {
		return cfg, err
	}

	fset.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "address":
			cfg.Address = *address
		case "directory":
			cfg.Directory = *directory
		case "workers":
			cfg.Workers = *workers
		case "read-timeout":
			cfg.ReadTimeout = *readTimeout
		case "write-timeout":
			cfg.WriteTimeout = *writeTimeout
		case "log-level":
			cfg.LogLevel = *logLevel
		}
	})

	return cfg, cfg.Validate()
}

func (cfg *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return cfg.apply(path, fileSource(tree))
}

func (cfg *Config) loadEnv(lookup func(string) (string, bool)) error {
	return cfg.apply("environment", envSource(lookup))
}

func fileSource(tree map[string]any) source {
	return func(key string) (any, bool) {
		var node any = tree
		for _, part := range strings.Split(key, ".") {
			m, ok := node.(map[string]any)
			if !ok {
				return nil, false
			}
			if node, ok = m[part]; !ok {
				return nil, false
			}
		}
		return node, true
	}
}

func envSource(lookup func(string) (string, bool)) source {
	return func(key string) (any, bool) {
		name := envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		v, ok := lookup(name)
		if !ok {
			return nil, false
		}
		return v, true
	}
}

// apply overrides every field src has a value for. Values are coerced with
// cast, so "5s", "true" and "8" work as well as native YAML types.
func (cfg *Config) apply(origin string, src source) error {
	var errs []error
	check := func(key string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("config: %s: %s: %w", origin, key, err))
		}
	}
	str := func(key string, dst *string) {
		if v, ok := src(key); ok {
			s, err := cast.ToStringE(v)
			check(key, err)
			*dst = s
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := src(key); ok {
			n, err := cast.ToIntE(v)
			check(key, err)
			*dst = n
		}
	}
	duration := func(key string, dst *time.Duration) {
		if v, ok := src(key); ok {
			d, err := cast.ToDurationE(v)
			check(key, err)
			*dst = d
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := src(key); ok {
			b, err := cast.ToBoolE(v)
			check(key, err)
			*dst = b
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := src(key); ok {
			if s, isString := v.(string); isString {
				*dst = splitList(s)
				return
			}
			items, err := cast.ToStringSliceE(v)
			check(key, err)
			*dst = items
		}
	}

	str("address", &cfg.Address)
	str("directory", &cfg.Directory)
	integer("workers", &cfg.Workers)
	duration("read_timeout", &cfg.ReadTimeout)
	duration("write_timeout", &cfg.WriteTimeout)
	str("log_level", &cfg.LogLevel)

	integer("compression.level", &cfg.Compression.Level)
	integer("compression.min_size", &cfg.Compression.MinSize)
	list("compression.encodings", &cfg.Compression.Encodings)

	boolean("telemetry.enabled", &cfg.Telemetry.Enabled)
	str("telemetry.service_name", &cfg.Telemetry.ServiceName)
	str("telemetry.endpoint", &cfg.Telemetry.Endpoint)
	boolean("telemetry.insecure", &cfg.Telemetry.Insecure)

	return errors.Join(errs...)
}

// Validate reports the first problem that would prevent the server from
// starting.
func (cfg Config) Validate() error {
	if cfg.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if cfg.ReadTimeout < 0 || cfg.WriteTimeout < 0 {
		return ErrInvalidTimeout
	}
	for _, enc := range cfg.Compression.Encodings {
		switch enc {
		case "gzip", "br", "zstd", "deflate":
		default:
			return fmt.Errorf("%w: %q", ErrInvalidEncoding, enc)
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return ErrMissingEndpoint
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

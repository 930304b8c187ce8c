// Package config loads logreport settings from defaults, an optional YAML
// file, LOGREPORT_* environment variables and bound flags, in that order of
// increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/coffersTech/logreport/internal/logging"
)

// EnvPrefix is prepended to every environment override, e.g.
// LOGREPORT_SERVER_ADDR for server.addr.
const EnvPrefix = "LOGREPORT"

// DefaultFile is looked up in the working directory when no file is given.
const DefaultFile = "logreport.yaml"

type Config struct {
	Server   ServerConfig `mapstructure:"server" yaml:"server"`
	LogsRoot string       `mapstructure:"logs_root" yaml:"logs_root"`
	Parser   ParserConfig `mapstructure:"parser" yaml:"parser"`
	Engine   EngineConfig `mapstructure:"engine" yaml:"engine"`
	Jobs     JobsConfig   `mapstructure:"jobs" yaml:"jobs"`
	Log      LogConfig    `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
}

type ParserConfig struct {
	TimestampLayouts []string `mapstructure:"timestamp_layouts" yaml:"timestamp_layouts"`
	MaxLineBytes     int      `mapstructure:"max_line_bytes" yaml:"max_line_bytes"`
}

type EngineConfig struct {
	Workers int `mapstructure:"workers" yaml:"workers"`
}

type JobsConfig struct {
	TTL             time.Duration `mapstructure:"ttl" yaml:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" yaml:"cleanup_interval"`
	Capacity        int           `mapstructure:"capacity" yaml:"capacity"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:              ":8080",
			ShutdownTimeout:   5 * time.Second,
			ReadHeaderTimeout: 10 * time.Second,
		},
		LogsRoot: "/",
		Parser: ParserConfig{
			TimestampLayouts: []string{time.RFC3339Nano},
			MaxLineBytes:     1 << 20,
		},
		Engine: EngineConfig{Workers: 4},
		Jobs: JobsConfig{
			TTL:             time.Hour,
			CleanupInterval: time.Minute,
			Capacity:        1024,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers every key with v so environment overrides and
// flag bindings resolve.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("logs_root", d.LogsRoot)
	v.SetDefault("parser.timestamp_layouts", d.Parser.TimestampLayouts)
	v.SetDefault("parser.max_line_bytes", d.Parser.MaxLineBytes)
	v.SetDefault("engine.workers", d.Engine.Workers)
	v.SetDefault("jobs.ttl", d.Jobs.TTL)
	v.SetDefault("jobs.cleanup_interval", d.Jobs.CleanupInterval)
	v.SetDefault("jobs.capacity", d.Jobs.Capacity)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads the configuration into a Config. An explicit path must exist;
// without one, DefaultFile in the working directory is used if present.
func Load(v *viper.Viper, path string) (Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName(strings.TrimSuffix(DefaultFile, filepath.Ext(DefaultFile)))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr must not be empty"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}
	if c.LogsRoot == "" {
		errs = append(errs, errors.New("logs_root must not be empty"))
	}
	if len(c.Parser.TimestampLayouts) == 0 {
		errs = append(errs, errors.New("parser.timestamp_layouts must list at least one layout"))
	}
	if c.Parser.MaxLineBytes < 0 {
		errs = append(errs, errors.New("parser.max_line_bytes must not be negative"))
	}
	if c.Engine.Workers <= 0 {
		errs = append(errs, errors.New("engine.workers must be positive"))
	}
	if c.Jobs.TTL < 0 {
		errs = append(errs, errors.New("jobs.ttl must not be negative"))
	}
	if c.Jobs.CleanupInterval <= 0 {
		errs = append(errs, errors.New("jobs.cleanup_interval must be positive"))
	}
	if c.Jobs.Capacity <= 0 {
		errs = append(errs, errors.New("jobs.capacity must be positive"))
	}
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// WriteDefault writes the default configuration as YAML to path. It refuses
// to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

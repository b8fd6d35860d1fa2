package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. CERTDESK_SERVER_ADDR.
const EnvPrefix = "CERTDESK"

// Config is the full runtime configuration shared by the server and the CLI.
type Config struct {
	Environment string    `mapstructure:"environment"`
	Server      Server    `mapstructure:"server"`
	Storage     Storage   `mapstructure:"storage"`
	Resources   Resources `mapstructure:"resources"`
	Logging     Logging   `mapstructure:"logging"`
	Tracing     Tracing   `mapstructure:"tracing"`
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string        `mapstructure:"addr"`
	AdminToken     string        `mapstructure:"admin_token"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	MaxBodyBytes   int64         `mapstructure:"max_body_bytes"`
}

// Storage locates the record stores and generated output.
type Storage struct {
	DataDir    string `mapstructure:"data_dir"`
	OutputDir  string `mapstructure:"output_dir"`
	ArchiveDir string `mapstructure:"archive_dir"`
}

// Resources locates background images and fonts.
type Resources struct {
	Dir      string        `mapstructure:"dir"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	Watch    bool          `mapstructure:"watch"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type Tracing struct {
	Enabled bool `mapstructure:"enabled"`
}

// Defaults mirror the layout the application has always used: stores and
// templates in the working directory, PDFs under certificates/.
func Defaults() Config {
	return Config{
		Environment: "development",
		Server: Server{
			Addr:           ":8080",
			RequestTimeout: 5 * time.Minute,
			MaxBodyBytes:   64 * 1024,
		},
		Storage: Storage{
			DataDir:    ".",
			OutputDir:  "certificates",
			ArchiveDir: ".",
		},
		Resources: Resources{
			Dir:      ".",
			CacheTTL: 10 * time.Minute,
		},
		Logging: Logging{Level: "info"},
	}
}

// NewViper returns a viper instance with defaults registered and
// CERTDESK_* environment overrides enabled. Callers may bind flags to it
// before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Defaults()
	v.SetDefault("environment", d.Environment)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.admin_token", d.Server.AdminToken)
	v.SetDefault("server.request_timeout", d.Server.RequestTimeout)
	v.SetDefault("server.max_body_bytes", d.Server.MaxBodyBytes)
	v.SetDefault("storage.data_dir", d.Storage.DataDir)
	v.SetDefault("storage.output_dir", d.Storage.OutputDir)
	v.SetDefault("storage.archive_dir", d.Storage.ArchiveDir)
	v.SetDefault("resources.dir", d.Resources.Dir)
	v.SetDefault("resources.cache_ttl", d.Resources.CacheTTL)
	v.SetDefault("resources.watch", d.Resources.Watch)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("tracing.enabled", d.Tracing.Enabled)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional YAML file into v and decodes the result.
// An empty file path means environment and defaults only.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// FromEnv builds a Config from defaults and environment variables so main stays lean.
func FromEnv() (*Config, error) {
	return Load(NewViper(), "")
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr must not be empty")
	}
	if c.Storage.OutputDir == "" {
		return errors.New("storage.output_dir must not be empty")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("server.request_timeout must be positive")
	}
	return nil
}

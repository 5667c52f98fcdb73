// Package config loads cloudraid's static configuration: the catalog's
// backing database, registered storage credentials, and the
// balancer/upload/download engines' tuning knobs. Precedence, highest
// first: CLI flags, CLOUDRAID_* environment variables, the config file,
// built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/cloudraid/internal/bytesize"
	"github.com/marmos91/cloudraid/pkg/catalog"
)

// Config is cloudraid's complete static configuration.
//
// Sources, highest precedence first: CLI flags, CLOUDRAID_* environment
// variables, the config file, built-in defaults.
type Config struct {
	Logging  LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Catalog  CatalogConfig   `mapstructure:"catalog" yaml:"catalog"`
	Balancer BalancerConfig  `mapstructure:"balancer" yaml:"balancer"`
	Upload   UploadConfig    `mapstructure:"upload" yaml:"upload"`
	Download DownloadConfig  `mapstructure:"download" yaml:"download"`
	Storages []StorageConfig `mapstructure:"storages" yaml:"storages,omitempty"`
}

// LoggingConfig controls log output: a level, a format, and a destination.
type LoggingConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// CatalogConfig selects and configures the catalog's backing database.
type CatalogConfig struct {
	Type     string         `mapstructure:"type" validate:"required,oneof=sqlite postgres" yaml:"type"`
	SQLite   SQLitePath     `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres,omitempty"`
}

// SQLitePath holds the single field catalog.SQLiteConfig needs.
type SQLitePath struct {
	Path string `mapstructure:"path" yaml:"path,omitempty"`
}

// PostgresConfig mirrors catalog.PostgresConfig with config-file tags.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host,omitempty"`
	Port         int    `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port,omitempty"`
	Database     string `mapstructure:"database" yaml:"database,omitempty"`
	User         string `mapstructure:"user" yaml:"user,omitempty"`
	Password     string `mapstructure:"password" yaml:"password,omitempty"`
	SSLMode      string `mapstructure:"ssl_mode" yaml:"ssl_mode,omitempty"`
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns,omitempty"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns,omitempty"`
}

// ToCatalogConfig converts to the catalog package's own Config type.
func (c CatalogConfig) ToCatalogConfig() *catalog.Config {
	return &catalog.Config{
		Type:   catalog.DatabaseType(c.Type),
		SQLite: catalog.SQLiteConfig{Path: c.SQLite.Path},
		Postgres: catalog.PostgresConfig{
			Host:         c.Postgres.Host,
			Port:         c.Postgres.Port,
			Database:     c.Postgres.Database,
			User:         c.Postgres.User,
			Password:     c.Postgres.Password,
			SSLMode:      c.Postgres.SSLMode,
			MaxOpenConns: c.Postgres.MaxOpenConns,
			MaxIdleConns: c.Postgres.MaxIdleConns,
		},
	}
}

// BalancerConfig bounds the block sizes the balancer computes for a file
// whose upload didn't request an explicit block size.
type BalancerConfig struct {
	MinBlockSize bytesize.ByteSize `mapstructure:"min_block_size" yaml:"min_block_size"`
	MaxBlockSize bytesize.ByteSize `mapstructure:"max_block_size" validate:"gtefield=MinBlockSize" yaml:"max_block_size"`
}

// UploadConfig tunes the upload engine's worker pool and retry policy.
type UploadConfig struct {
	ParallelNum int               `mapstructure:"parallel_num" validate:"required,gt=0" yaml:"parallel_num"`
	ChunkSize   bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`
	RepeatCount int               `mapstructure:"repeat_count" validate:"required,gt=0" yaml:"repeat_count"`
}

// DownloadConfig tunes the download engine's worker pool.
type DownloadConfig struct {
	ParallelNum int               `mapstructure:"parallel_num" validate:"required,gt=0" yaml:"parallel_num"`
	ChunkSize   bytesize.ByteSize `mapstructure:"chunk_size" yaml:"chunk_size"`
}

// StorageConfig pairs a catalog storage token with the adapter credentials
// needed to rebuild a live storage.Storage for it on every invocation — the
// catalog persists the token and type, but never the secret used to
// authenticate, so the config file is where that secret lives.
type StorageConfig struct {
	Token      string `mapstructure:"token" validate:"required" yaml:"token"`
	Type       string `mapstructure:"type" validate:"required,oneof=yandex-disk" yaml:"type"`
	OAuthToken string `mapstructure:"oauth_token" validate:"required" yaml:"oauth_token"`
}

// ApplyDefaults fills unset fields with sensible defaults.
func ApplyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "INFO"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Logging.Output == "" {
		cfg.Logging.Output = "stderr"
	}
	if cfg.Catalog.Type == "" {
		cfg.Catalog.Type = "sqlite"
	}
	if cfg.Catalog.Type == "sqlite" && cfg.Catalog.SQLite.Path == "" {
		cfg.Catalog.SQLite.Path = filepath.Join(getConfigDir(), "catalog.db")
	}
	if cfg.Balancer.MinBlockSize == 0 {
		cfg.Balancer.MinBlockSize = 1 * bytesize.MiB
	}
	if cfg.Balancer.MaxBlockSize == 0 {
		cfg.Balancer.MaxBlockSize = 64 * bytesize.MiB
	}
	if cfg.Upload.ParallelNum == 0 {
		cfg.Upload.ParallelNum = 4
	}
	if cfg.Upload.ChunkSize == 0 {
		cfg.Upload.ChunkSize = 64 * bytesize.KiB
	}
	if cfg.Upload.RepeatCount == 0 {
		cfg.Upload.RepeatCount = 3
	}
	if cfg.Download.ParallelNum == 0 {
		cfg.Download.ParallelNum = 4
	}
	if cfg.Download.ChunkSize == 0 {
		cfg.Download.ChunkSize = 64 * bytesize.KiB
	}
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// GetDefaultConfig returns a fully defaulted Config; it does not call
// Validate.
func GetDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads configuration from file, environment, and defaults.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setupViper(v, configPath)

	found, err := readConfigFile(v)
	if err != nil {
		return nil, err
	}
	if !found {
		return GetDefaultConfig(), nil
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

// MustLoad loads configuration, failing with setup instructions if the
// requested (or default) file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf(
				"no configuration file found at default location: %s\n\n"+
					"create one with:\n  cloudraid init\n\n"+
					"or point at an existing file:\n  cloudraid <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}
	return Load(configPath)
}

// SaveConfig writes cfg to path as YAML.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

func setupViper(v *viper.Viper, configPath string) {
	v.SetEnvPrefix("CLOUDRAID")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.AddConfigPath(getConfigDir())
	v.SetConfigName("config")
	v.SetConfigType("yaml")
}

func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read config file: %w", err)
	}
	return true, nil
}

func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		byteSizeDecodeHook(),
		durationDecodeHook(),
	)
}

func byteSizeDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(bytesize.ByteSize(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return bytesize.ParseByteSize(v)
		case int:
			return bytesize.ByteSize(v), nil
		case int64:
			return bytesize.ByteSize(v), nil
		case uint64:
			return bytesize.ByteSize(v), nil
		case float64:
			return bytesize.ByteSize(v), nil
		default:
			return data, nil
		}
	}
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(_ reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}
		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

func getConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cloudraid")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "cloudraid")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists reports whether a config file exists at the default location.
func DefaultConfigExists() bool {
	return DefaultConfigExistsAt(GetDefaultConfigPath())
}

// DefaultConfigExistsAt reports whether a config file exists at path.
func DefaultConfigExistsAt(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}

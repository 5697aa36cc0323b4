// Package config loads server settings from a YAML file, REUNITE_*
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. REUNITE_MATCH_THRESHOLD.
const EnvPrefix = "REUNITE"

// FileName is the default config file name in the home directory.
const FileName = ".reunite.yaml"

// Config holds all settings.
type Config struct {
	DB     string       `mapstructure:"db" yaml:"db"`
	Addr   string       `mapstructure:"addr" yaml:"addr"`
	Log    LogConfig    `mapstructure:"log" yaml:"log"`
	Admin  AdminConfig  `mapstructure:"admin" yaml:"admin"`
	Match  MatchConfig  `mapstructure:"match" yaml:"match"`
	Images ImageConfig  `mapstructure:"images" yaml:"images"`
	S3     S3Config     `mapstructure:"s3" yaml:"s3"`
	Notify NotifyConfig `mapstructure:"notify" yaml:"notify"`
	Scans  ScanConfig   `mapstructure:"scans" yaml:"scans"`
}

type LogConfig struct {
	Path  string `mapstructure:"path" yaml:"path"`
	Level string `mapstructure:"level" yaml:"level"`
}

type AdminConfig struct {
	User string `mapstructure:"user" yaml:"user"`
}

type MatchConfig struct {
	Threshold int `mapstructure:"threshold" yaml:"threshold"`
	Limit     int `mapstructure:"limit" yaml:"limit"`
}

type ImageConfig struct {
	// Backend is "db" or "s3".
	Backend      string `mapstructure:"backend" yaml:"backend"`
	MaxDimension int    `mapstructure:"max_dimension" yaml:"max_dimension"`
	Thumbnail    int    `mapstructure:"thumbnail" yaml:"thumbnail"`
}

type S3Config struct {
	Endpoint  string `mapstructure:"endpoint" yaml:"endpoint"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key"`
	Bucket    string `mapstructure:"bucket" yaml:"bucket"`
	Region    string `mapstructure:"region" yaml:"region"`
	Prefix    string `mapstructure:"prefix" yaml:"prefix"`
	UseSSL    bool   `mapstructure:"use_ssl" yaml:"use_ssl"`
}

type NotifyConfig struct {
	// Backend is "none", "log" or "http".
	Backend       string  `mapstructure:"backend" yaml:"backend"`
	Endpoint      string  `mapstructure:"endpoint" yaml:"endpoint"`
	ServiceID     string  `mapstructure:"service_id" yaml:"service_id"`
	TemplateID    string  `mapstructure:"template_id" yaml:"template_id"`
	PublicKey     string  `mapstructure:"public_key" yaml:"public_key"`
	PrivateKey    string  `mapstructure:"private_key" yaml:"private_key"`
	SiteLink      string  `mapstructure:"site_link" yaml:"site_link"`
	RatePerSecond float64 `mapstructure:"rate" yaml:"rate"`
	Burst         int     `mapstructure:"burst" yaml:"burst"`
	// Queue bounds the messages waiting for the relay.
	Queue int `mapstructure:"queue" yaml:"queue"`
}

type ScanConfig struct {
	Sessions int `mapstructure:"sessions" yaml:"sessions"`
}

var defaults = map[string]any{
	"db":                   "reunite.db",
	"addr":                 ":8080",
	"log.path":             "",
	"log.level":            "info",
	"admin.user":           "admin",
	"match.threshold":      65,
	"match.limit":          3,
	"images.backend":       "db",
	"images.max_dimension": 1024,
	"images.thumbnail":     256,
	"s3.endpoint":          "",
	"s3.access_key":        "",
	"s3.secret_key":        "",
	"s3.bucket":            "reunite",
	"s3.region":            "us-east-1",
	"s3.prefix":            "",
	"s3.use_ssl":           true,
	"notify.backend":       "log",
	"notify.endpoint":      "",
	"notify.service_id":    "",
	"notify.template_id":   "",
	"notify.public_key":    "",
	"notify.private_key":   "",
	"notify.site_link":     "",
	"notify.rate":          1.0,
	"notify.burst":         1,
	"notify.queue":         64,
	"scans.sessions":       256,
}

// New returns a viper instance with defaults and environment overrides set up.
func New() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// DefaultPath returns $HOME/.reunite.yaml.
func DefaultPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, FileName), nil
}

// Load reads file into v and decodes the result. An empty file means the
// default path, which may be absent; an explicitly named file must exist.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, fmt.Errorf("finding home directory: %w", err)
		}
		v.AddConfigPath(home)
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have a fixed set of values.
func (c *Config) Validate() error {
	switch c.Images.Backend {
	case "db":
	case "s3":
		if c.S3.Endpoint == "" || c.S3.Bucket == "" {
			return errors.New("images.backend s3 needs s3.endpoint and s3.bucket")
		}
	default:
		return fmt.Errorf("unknown images.backend %q", c.Images.Backend)
	}

	switch c.Notify.Backend {
	case "none", "log", "http":
	default:
		return fmt.Errorf("unknown notify.backend %q", c.Notify.Backend)
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}

	if c.Match.Threshold < 0 || c.Match.Threshold > 100 {
		return fmt.Errorf("match.threshold must be between 0 and 100, got %d", c.Match.Threshold)
	}
	if c.Match.Limit <= 0 {
		return fmt.Errorf("match.limit must be positive, got %d", c.Match.Limit)
	}
	if c.Notify.Queue <= 0 {
		return fmt.Errorf("notify.queue must be positive, got %d", c.Notify.Queue)
	}
	if c.Scans.Sessions <= 0 {
		return fmt.Errorf("scans.sessions must be positive, got %d", c.Scans.Sessions)
	}
	return nil
}

const redacted = "********"

// YAML renders the effective configuration with secrets masked.
func (c *Config) YAML() ([]byte, error) {
	out := *c
	if out.S3.SecretKey != "" {
		out.S3.SecretKey = redacted
	}
	if out.Notify.PrivateKey != "" {
		out.Notify.PrivateKey = redacted
	}
	return yaml.Marshal(&out)
}

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the address of one mail protocol endpoint.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
}

// HTTPConfig holds the gateway's own listen settings.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// DBConfig holds the account directory database settings.
type DBConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Config is the top-level gateway configuration. The mail server
// endpoints are fixed deployment parameters, not per-request values.
type Config struct {
	HTTP HTTPConfig   `mapstructure:"http" yaml:"http"`
	IMAP ServerConfig `mapstructure:"imap" yaml:"imap"`
	SMTP ServerConfig `mapstructure:"smtp" yaml:"smtp"`
	DB   DBConfig     `mapstructure:"db" yaml:"db"`
	Log  LogConfig    `mapstructure:"log" yaml:"log"`
}

func defaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{Addr: ":8080"},
		IMAP: ServerConfig{Port: 993},
		SMTP: ServerConfig{Port: 465},
		DB:   DBConfig{Path: "mailgate.db"},
		Log:  LogConfig{Level: "info"},
	}
}

// Load reads configuration from the given YAML file using Viper, with
// MAILGATE_* environment variables overriding file values. A missing
// file falls back to defaults plus environment; an invalid configuration
// is a deployment-time fault.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetDefault("http.addr", ":8080")
	// Empty-string defaults keep AutomaticEnv able to resolve keys that
	// have no file entry.
	v.SetDefault("imap.host", "")
	v.SetDefault("smtp.host", "")
	v.SetDefault("imap.port", 993)
	v.SetDefault("smtp.port", 465)
	v.SetDefault("db.path", "mailgate.db")
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("MAILGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		_, pathErr := err.(*os.PathError)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !pathErr && !notFound {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports deployment-time configuration faults.
func (c *Config) Validate() error {
	if c.IMAP.Host == "" {
		return fmt.Errorf("imap.host is required")
	}
	if c.SMTP.Host == "" {
		return fmt.Errorf("smtp.host is required")
	}
	if c.IMAP.Port <= 0 || c.IMAP.Port > 65535 {
		return fmt.Errorf("imap.port must be between 1 and 65535")
	}
	if c.SMTP.Port <= 0 || c.SMTP.Port > 65535 {
		return fmt.Errorf("smtp.port must be between 1 and 65535")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log.level: %s", c.Log.Level)
	}
	return nil
}

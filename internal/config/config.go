// Package config loads the console settings from defaults, an optional YAML
// file and ASSETFLOW_* environment variables, in increasing precedence.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ASSETFLOW_REDIS_ADDR.
const EnvPrefix = "ASSETFLOW"

// Config holds application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	API       APIConfig       `mapstructure:"api"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	List      ListConfig      `mapstructure:"list"`
	Workflows WorkflowsConfig `mapstructure:"workflows"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds the console API listener.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// APIConfig points at the asset-management backend. An empty BaseURL selects
// the in-memory demo backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Token   string        `mapstructure:"token"`
}

// RedisConfig enables the shared session store when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SessionConfig bounds hosted wizard sessions.
type SessionConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	LockTTL time.Duration `mapstructure:"lock_ttl"`
	// Dir keeps sessions as JSON files when Redis is not configured.
	Dir string `mapstructure:"dir"`
	// EncryptionKey is a base64 AES-256 key sealing stored wizard values.
	EncryptionKey string `mapstructure:"encryption_key"`
	// FallbackKeys still decrypt sessions sealed before a key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`
}

// Keys decodes the session encryption keys. active is nil when encryption
// is off.
func (s SessionConfig) Keys() (active []byte, fallback [][]byte, err error) {
	if s.EncryptionKey == "" {
		return nil, nil, nil
	}
	if active, err = decodeKey(s.EncryptionKey); err != nil {
		return nil, nil, fmt.Errorf("session.encryption_key: %w", err)
	}
	for i, k := range s.FallbackKeys {
		key, err := decodeKey(k)
		if err != nil {
			return nil, nil, fmt.Errorf("session.fallback_keys[%d]: %w", i, err)
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

func decodeKey(s string) ([]byte, error) {
	key, err := base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, err
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("want 32 bytes, got %d", len(key))
	}
	return key, nil
}

// ListConfig holds registry defaults.
type ListConfig struct {
	PageSize int `mapstructure:"page_size"`
}

// WorkflowsConfig holds workflow definition inputs.
type WorkflowsConfig struct {
	TaxRate float64 `mapstructure:"tax_rate"`
	// File replaces the built-in definitions when set.
	File string `mapstructure:"file"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.timeout", 15*time.Second)
	v.SetDefault("api.token", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.lock_ttl", 30*time.Second)
	v.SetDefault("session.dir", "")
	v.SetDefault("session.encryption_key", "")
	v.SetDefault("list.page_size", 10)
	v.SetDefault("workflows.tax_rate", 0.18)
	v.SetDefault("workflows.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// DefaultPath returns the file read when neither an explicit path nor
// ASSETFLOW_CONFIG is given.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "assetflow", "config.yaml")
}

// Load reads configuration. path wins over ASSETFLOW_CONFIG; an explicitly
// named file must exist, the default one is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			missing := errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
			if explicit || !missing {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects settings the console cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.List.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("list.page_size must be positive, got %d", c.List.PageSize))
	}
	if c.Workflows.TaxRate < 0 {
		errs = append(errs, fmt.Errorf("workflows.tax_rate must not be negative, got %v", c.Workflows.TaxRate))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive, got %v", c.API.Timeout))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, fmt.Errorf("session.ttl must not be negative, got %v", c.Session.TTL))
	}
	if _, _, err := c.Session.Keys(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

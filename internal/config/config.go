package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Address string `mapstructure:"address"`
	Port    int    `mapstructure:"port"`
	Mode    string `mapstructure:"mode"`
}

// DatabaseConfig configures the blob server's document database.
type DatabaseConfig struct {
	Path    string `mapstructure:"path"`
	LogMode bool   `mapstructure:"log_mode"`
}

// LocalConfig configures the client-side offline cache.
type LocalConfig struct {
	Path string `mapstructure:"path"`
}

type RemoteConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	Watch          bool   `mapstructure:"watch"`
}

type SyncConfig struct {
	DebounceMs   int `mapstructure:"debounce_ms"`
	RetrySeconds int `mapstructure:"retry_seconds"`
	WatchPollMs  int `mapstructure:"watch_poll_ms"`
}

type SecurityConfig struct {
	// EncryptionKey, when non-empty, encrypts the local cache at rest.
	EncryptionKey string `mapstructure:"encryption_key"`
}

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Local    LocalConfig    `mapstructure:"local"`
	Remote   RemoteConfig   `mapstructure:"remote"`
	Sync     SyncConfig     `mapstructure:"sync"`
	Security SecurityConfig `mapstructure:"security"`
}

// Debounce returns the data-push debounce window, defaulting to 2s.
func (c SyncConfig) Debounce() time.Duration {
	if c.DebounceMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Retry returns the delay before a failed sync is retried, defaulting to 15s.
func (c SyncConfig) Retry() time.Duration {
	if c.RetrySeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.RetrySeconds) * time.Second
}

// WatchPoll returns the local-store polling interval, defaulting to 1s.
func (c SyncConfig) WatchPoll() time.Duration {
	if c.WatchPollMs <= 0 {
		return time.Second
	}
	return time.Duration(c.WatchPollMs) * time.Millisecond
}

// Timeout returns the remote request timeout, defaulting to 10s.
func (c RemoteConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

var (
	appConfig *Config
	once      sync.Once
)

// Load loads configuration from given file path (e.g. "config.yaml").
// If path is empty, it defaults to "config.yaml" in current working directory.
func Load(path string) (*Config, error) {
	var err error
	once.Do(func() {
		v := viper.New()

		if path == "" {
			v.SetConfigName("config")
			v.SetConfigType("yaml")
			v.AddConfigPath(".")
		} else {
			v.SetConfigFile(path)
		}

		// environment overrides, e.g. CONTAS_SERVER_PORT=9000
		v.SetEnvPrefix("CONTAS")
		v.AutomaticEnv()

		if err = v.ReadInConfig(); err != nil {
			err = fmt.Errorf("read config: %w", err)
			return
		}

		var c Config
		if err = v.Unmarshal(&c); err != nil {
			err = fmt.Errorf("unmarshal config: %w", err)
			return
		}

		appConfig = &c
	})

	if err != nil {
		return nil, err
	}
	return appConfig, nil
}

// Get returns the loaded global configuration.
// Call Load() once at application startup.
func Get() *Config {
	return appConfig
}

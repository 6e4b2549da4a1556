package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ncobase/scoutcore/validator"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

var (
	config *Config
	path   string
	mu     sync.Mutex
)

// Config represents the configuration implementation.
type Config struct {
	AppName   string       `yaml:"app_name" validate:"required"`
	Logger    *Logger      `yaml:"logger" validate:"required"`
	Data      *Data        `yaml:"data" validate:"required"`
	Recompute *Recompute   `yaml:"recompute" validate:"required"`
	Formula   *Formula     `yaml:"formula" validate:"required"`
	Viper     *viper.Viper `yaml:"-" validate:"-"`
}

// GetConfig returns the configuration loaded last, loading it from the
// default search path on first use.
func GetConfig() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if config == nil {
		cfg, err := LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize config: %w", err)
		}
		config = cfg
	}
	return config, nil
}

// Init loads the configuration from configPath and sets it globally.
func Init(configPath string) (*Config, error) {
	mu.Lock()
	defer mu.Unlock()

	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("error loading config: %w", err)
	}
	path = configPath
	config = cfg
	return cfg, nil
}

// LoadConfig loads the configuration from the file. An empty path searches
// /etc/scoutcore, $HOME/.scoutcore, the working directory and the
// executable directory for config.{yaml,json,toml}. SCOUTCORE_ prefixed
// environment variables override file values.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("scoutcore")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		ex, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to get executable path: %w", err)
		}
		v.SetConfigName("config")
		v.AddConfigPath("/etc/scoutcore")
		v.AddConfigPath("$HOME/.scoutcore")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(ex))
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{
		AppName:   v.GetString("app_name"),
		Logger:    getLoggerConfig(v),
		Data:      getDataConfig(v),
		Recompute: getRecomputeConfig(v),
		Formula:   getFormulaConfig(v),
		Viper:     v,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its constraints.
func (c *Config) Validate() error {
	if err := validator.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// setDefaults registers the value of every key left out of the file
func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "scoutcore")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "text")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("data.mongodb.master.uri", "mongodb://localhost:27017")
	v.SetDefault("data.mongodb.strategy", "round_robin")
	v.SetDefault("data.mongodb.database", "app")
	v.SetDefault("data.mongodb.max_retry", 3)
	v.SetDefault("recompute.workers", 4)
	v.SetDefault("recompute.queue_size", 256)
	v.SetDefault("recompute.task_timeout", "30s")
	v.SetDefault("formula.max_depth", 32)
	v.SetDefault("formula.max_length", 4096)
	v.SetDefault("formula.max_passes", 16)
}

// Reload reloads the configuration from the file.
func Reload() error {
	mu.Lock()
	defer mu.Unlock()

	newConfig, err := LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to reload config: %w", err)
	}

	config = newConfig
	return nil
}

// Watch watches the configuration file and reloads it when it changes.
// Reload errors are passed to onError and keep the previous configuration.
func Watch(callback func(*Config), onError func(error)) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	cfg.Viper.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		if err := Reload(); err != nil {
			if onError != nil {
				onError(err)
			}
			return
		}
		mu.Lock()
		current := config
		mu.Unlock()
		callback(current)
	})
	cfg.Viper.WatchConfig()
	return nil
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/tinytelemetry/sentrycli/internal/model"
	"github.com/tinytelemetry/sentrycli/internal/sentryapi"
)

const (
	defaultAPIVersion     = model.DefaultAPIVersion
	defaultAuthScheme     = model.DefaultAuthScheme
	defaultRequestTimeout = model.DefaultRequestTimeout
	defaultQueryTimeout   = model.DefaultQueryTimeout
	defaultAPIAddr        = "127.0.0.1:3000"
	defaultCacheRetention = time.Duration(0) // 0 = keep forever
)

// appConfig is internal runtime configuration.
// It is package-private to keep defaults and shape local to the CLI entrypoint.
type appConfig struct {
	APIVersion     int           `mapstructure:"api-version"`
	AuthScheme     string        `mapstructure:"auth-scheme"`
	RequestTimeout time.Duration `mapstructure:"request-timeout"`
	DBPath         string        `mapstructure:"db-path"`
	PrefsPath      string        `mapstructure:"prefs-path"`
	APIAddr        string        `mapstructure:"api-addr"`
	QueryTimeout   time.Duration `mapstructure:"query-timeout"`
	CacheRetention time.Duration `mapstructure:"cache-retention"`
	ConfigPath     string        `mapstructure:"-"` // not from config file
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("SENTRYCLI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("api-version", defaultAPIVersion)
	v.SetDefault("auth-scheme", defaultAuthScheme)
	v.SetDefault("request-timeout", defaultRequestTimeout)
	v.SetDefault("db-path", filepath.Join(home, ".local", "share", "sentrycli", "events.duckdb"))
	v.SetDefault("prefs-path", filepath.Join(home, ".sentrycli"))
	v.SetDefault("api-addr", defaultAPIAddr)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("cache-retention", defaultCacheRetention)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "sentrycli", "config.yml"))
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFound) && !os.IsNotExist(err) {
			return cfg, err
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	cfg.ConfigPath = v.ConfigFileUsed()

	if cfg.APIVersion < 0 {
		return cfg, fmt.Errorf("invalid api-version: %d", cfg.APIVersion)
	}
	cfg.AuthScheme = strings.ToLower(cfg.AuthScheme)
	if cfg.AuthScheme != sentryapi.AuthBearer && cfg.AuthScheme != sentryapi.AuthBasic {
		return cfg, fmt.Errorf("invalid auth-scheme %q: want bearer or basic", cfg.AuthScheme)
	}
	if cfg.RequestTimeout <= 0 {
		return cfg, fmt.Errorf("invalid request-timeout: %s", cfg.RequestTimeout)
	}

	cfg.DBPath = expandHome(home, cfg.DBPath)
	cfg.PrefsPath = expandHome(home, cfg.PrefsPath)

	return cfg, nil
}

func expandHome(home, path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(home, path[2:])
	}
	return path
}

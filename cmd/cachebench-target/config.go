package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/catalog"
	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/spf13/viper"
)

const (
	defaultAddr         = "127.0.0.1:8080"
	defaultQueryTimeout = 30 * time.Second
	defaultLogLevel     = "info"
)

// appConfig is the target's runtime configuration.
type appConfig struct {
	Addr         string        `mapstructure:"addr"`
	DBPath       string        `mapstructure:"db-path"`
	CatalogSize  int           `mapstructure:"catalog-size"`
	GridSize     int           `mapstructure:"grid-size"`
	Relational   string        `mapstructure:"relational"`
	PostgresDSN  string        `mapstructure:"postgres-dsn"`
	QueryTimeout time.Duration `mapstructure:"query-timeout"`
	LogLevel     string        `mapstructure:"log-level"`
	LogFile      string        `mapstructure:"log-file"`
	ConfigPath   string        `mapstructure:"-"` // not from config file
}

func (c appConfig) catalogConfig() catalog.Config {
	return catalog.Config{
		Driver:       c.Relational,
		DBPath:       c.DBPath,
		PostgresDSN:  c.PostgresDSN,
		QueryTimeout: c.QueryTimeout,
	}
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("CACHEBENCH")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("addr", defaultAddr)
	v.SetDefault("db-path", "")
	v.SetDefault("catalog-size", model.DefaultCatalogSize)
	v.SetDefault("grid-size", model.DefaultGridSize)
	v.SetDefault("relational", catalog.DriverDuckDB)
	v.SetDefault("postgres-dsn", "")
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("log-file", logging.DefaultPath("target"))

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "cachebench", "target.yml"))
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

	if cfg.CatalogSize <= 0 {
		return cfg, fmt.Errorf("invalid catalog-size: %d", cfg.CatalogSize)
	}
	if cfg.GridSize <= 0 {
		return cfg, fmt.Errorf("invalid grid-size: %d", cfg.GridSize)
	}
	switch cfg.Relational {
	case catalog.DriverDuckDB:
	case catalog.DriverPostgres:
		if cfg.PostgresDSN == "" {
			return cfg, fmt.Errorf("postgres-dsn is required when relational is %q", catalog.DriverPostgres)
		}
	default:
		return cfg, fmt.Errorf("invalid relational: %q (want duckdb or postgres)", cfg.Relational)
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	return cfg, nil
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tinytelemetry/cachebench/internal/catalog"
	"github.com/tinytelemetry/cachebench/internal/logging"
	"github.com/tinytelemetry/cachebench/internal/model"
	"github.com/tinytelemetry/cachebench/internal/pipeline"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Environment modes accepted by environment.mode.
const (
	modeNone     = "none"
	modeEmbedded = "embedded"
	modeShell    = "shell"
)

const (
	defaultBaseURL            = "http://127.0.0.1:8080"
	defaultLogLevel           = "info"
	defaultTrafficRequests    = 100
	defaultTrafficConcurrency = 4
	defaultStartupTimeout     = 60 * time.Second
	defaultCheckTimeout       = 10 * time.Second
	defaultEmbeddedAddr       = "127.0.0.1:0"
	defaultQueryTimeout       = 30 * time.Second

	requestsMetric = "/actuator/metrics/http.server.requests?tag=uri:"
)

type trafficConfig struct {
	Requests    int      `mapstructure:"requests" yaml:"requests"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
	Paths       []string `mapstructure:"paths" yaml:"paths"`
}

type environmentConfig struct {
	Mode           string        `mapstructure:"mode" yaml:"mode"`
	StartCommand   string        `mapstructure:"start-command" yaml:"start-command,omitempty"`
	StopCommand    string        `mapstructure:"stop-command" yaml:"stop-command,omitempty"`
	HealthURL      string        `mapstructure:"health-url" yaml:"health-url,omitempty"`
	StartupTimeout time.Duration `mapstructure:"startup-timeout" yaml:"startup-timeout"`
}

// embeddedTargetConfig configures the in-process target used by the
// embedded environment mode.
type embeddedTargetConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr"`
	DBPath       string        `mapstructure:"db-path" yaml:"db-path"`
	CatalogSize  int           `mapstructure:"catalog-size" yaml:"catalog-size"`
	GridSize     int           `mapstructure:"grid-size" yaml:"grid-size"`
	Relational   string        `mapstructure:"relational" yaml:"relational"`
	PostgresDSN  string        `mapstructure:"postgres-dsn" yaml:"postgres-dsn,omitempty"`
	QueryTimeout time.Duration `mapstructure:"query-timeout" yaml:"query-timeout"`
}

// appConfig is the runner's configuration.
type appConfig struct {
	BaseURL        string               `mapstructure:"base-url" yaml:"base-url"`
	Targets        []model.TrackTarget  `mapstructure:"targets" yaml:"targets"`
	Comparisons    []model.PairSpec     `mapstructure:"comparisons" yaml:"comparisons"`
	ChartWidth     int                  `mapstructure:"chart-width" yaml:"chart-width"`
	NoColor        bool                 `mapstructure:"no-color" yaml:"no-color"`
	UpdateInterval time.Duration        `mapstructure:"update-interval" yaml:"update-interval"`
	CheckTimeout   time.Duration        `mapstructure:"check-timeout" yaml:"check-timeout"`
	LogLevel       string               `mapstructure:"log-level" yaml:"log-level"`
	LogFile        string               `mapstructure:"log-file" yaml:"log-file"`
	Traffic        trafficConfig        `mapstructure:"traffic" yaml:"traffic"`
	Environment    environmentConfig    `mapstructure:"environment" yaml:"environment"`
	Target         embeddedTargetConfig `mapstructure:"target" yaml:"target"`
	ConfigPath     string               `mapstructure:"-" yaml:"-"` // not from config file
}

func (t embeddedTargetConfig) catalogConfig() catalog.Config {
	return catalog.Config{
		Driver:       t.Relational,
		DBPath:       t.DBPath,
		PostgresDSN:  t.PostgresDSN,
		QueryTimeout: t.QueryTimeout,
	}
}

// defaultTargets tracks both read paths of the demo target, by id and as a list.
func defaultTargets() []map[string]any {
	return []map[string]any{
		{"label": "db", "endpoint": requestsMetric + "/api/books/db/:id"},
		{"label": "grid", "endpoint": requestsMetric + "/api/books/grid/:id"},
		{"label": "db-list", "endpoint": requestsMetric + "/api/books/db"},
		{"label": "grid-list", "endpoint": requestsMetric + "/api/books/grid"},
	}
}

func defaultComparisons() []map[string]any {
	return []map[string]any{
		{"title": "Book by id: database vs data grid", "left": 0, "right": 1, "left-color": "red", "right-color": "green"},
		{"title": "Book list: database vs data grid", "left": 2, "right": 3, "left-color": "red", "right-color": "green"},
	}
}

func defaultTrafficPaths() []string {
	return []string{"/api/books/db/1", "/api/books/grid/1", "/api/books/db", "/api/books/grid"}
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
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	v.SetDefault("base-url", defaultBaseURL)
	v.SetDefault("targets", defaultTargets())
	v.SetDefault("comparisons", defaultComparisons())
	v.SetDefault("chart-width", model.DefaultChartWidth)
	v.SetDefault("no-color", false)
	v.SetDefault("update-interval", model.DefaultUpdateInterval)
	v.SetDefault("check-timeout", defaultCheckTimeout)
	v.SetDefault("log-level", defaultLogLevel)
	v.SetDefault("log-file", logging.DefaultPath("cachebench"))

	v.SetDefault("traffic.requests", defaultTrafficRequests)
	v.SetDefault("traffic.concurrency", defaultTrafficConcurrency)
	v.SetDefault("traffic.paths", defaultTrafficPaths())

	v.SetDefault("environment.mode", modeNone)
	v.SetDefault("environment.start-command", "")
	v.SetDefault("environment.stop-command", "")
	v.SetDefault("environment.health-url", "")
	v.SetDefault("environment.startup-timeout", defaultStartupTimeout)

	v.SetDefault("target.addr", defaultEmbeddedAddr)
	v.SetDefault("target.db-path", "")
	v.SetDefault("target.catalog-size", model.DefaultCatalogSize)
	v.SetDefault("target.grid-size", model.DefaultGridSize)
	v.SetDefault("target.relational", catalog.DriverDuckDB)
	v.SetDefault("target.postgres-dsn", "")
	v.SetDefault("target.query-timeout", defaultQueryTimeout)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "cachebench", "config.yml"))
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

	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}

	// Expand ~ in target.db-path
	if strings.HasPrefix(cfg.Target.DBPath, "~/") {
		cfg.Target.DBPath = filepath.Join(home, cfg.Target.DBPath[2:])
	}

	return cfg, nil
}

func validateConfig(cfg appConfig) error {
	if cfg.ChartWidth <= 0 {
		return fmt.Errorf("invalid chart-width: %d", cfg.ChartWidth)
	}
	if cfg.UpdateInterval <= 0 {
		return fmt.Errorf("invalid update-interval: %s", cfg.UpdateInterval)
	}
	for i, t := range cfg.Targets {
		if strings.TrimSpace(t.Endpoint) == "" {
			return fmt.Errorf("targets[%d] (%q): endpoint is required", i, t.Label)
		}
	}
	if err := pipeline.ValidatePairs(cfg.Comparisons, len(cfg.Targets)); err != nil {
		return err
	}
	if cfg.Traffic.Requests < 0 {
		return fmt.Errorf("invalid traffic.requests: %d", cfg.Traffic.Requests)
	}
	if cfg.Traffic.Concurrency <= 0 {
		return fmt.Errorf("invalid traffic.concurrency: %d", cfg.Traffic.Concurrency)
	}

	if cfg.Environment.StartupTimeout <= 0 {
		return fmt.Errorf("invalid environment.startup-timeout: %s", cfg.Environment.StartupTimeout)
	}

	switch cfg.Environment.Mode {
	case modeNone, modeEmbedded:
	case modeShell:
		if strings.TrimSpace(cfg.Environment.StartCommand) == "" {
			return fmt.Errorf("environment.start-command is required in %s mode", modeShell)
		}
	default:
		return fmt.Errorf("invalid environment.mode: %q (want none, embedded or shell)", cfg.Environment.Mode)
	}
	return nil
}

// writeConfig prints the effective configuration as YAML.
func writeConfig(w io.Writer, cfg appConfig) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

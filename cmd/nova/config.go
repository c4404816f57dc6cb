package main

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/novacrypto/nova/internal/format"
	"github.com/novacrypto/nova/internal/model"
	"github.com/novacrypto/nova/internal/socketrpc"
	"github.com/spf13/viper"
)

const (
	defaultRefreshInterval  = model.DefaultRefreshInterval
	defaultAPIBaseURL       = "https://api.coingecko.com/api/v3"
	defaultPerPage          = model.DefaultPerPage
	defaultFetchTimeout     = 10 * time.Second
	defaultFetchRetries     = 2
	defaultHistoryDays      = model.DefaultHistoryDays
	defaultQueryTimeout     = 10 * time.Second
	defaultHistoryRetention = 7 // days, 0 = disabled
	defaultBindHost         = "127.0.0.1"
	defaultAPIPort          = 3000
)

// appConfig is internal runtime configuration.
type appConfig struct {
	RefreshInterval  time.Duration `mapstructure:"refresh-interval"`
	APIBaseURL       string        `mapstructure:"api-base-url"`
	APIKey           string        `mapstructure:"api-key"`
	PerPage          int           `mapstructure:"per-page"`
	FetchTimeout     time.Duration `mapstructure:"fetch-timeout"`
	FetchRetries     int           `mapstructure:"fetch-retries"`
	HistoryDays      int           `mapstructure:"history-days"`
	DBPath           string        `mapstructure:"db-path"`
	QueryTimeout     time.Duration `mapstructure:"query-timeout"`
	HistoryRetention int           `mapstructure:"history-retention"`
	DeltaPruneAfter  int           `mapstructure:"delta-prune-after"`
	Currency         string        `mapstructure:"currency"`
	APIEnabled       bool          `mapstructure:"api-enabled"`
	APIPort          int           `mapstructure:"api-port"`
	APIAddr          string        `mapstructure:"api-addr"`
	SocketPath       string        `mapstructure:"socket-path"`
	ConfigPath       string        `mapstructure:"-"`
}

// loadDotEnv loads the first .env found in the working directory or its parents.
func loadDotEnv() string {
	for _, p := range []string{".env", "../.env", "../../.env"} {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err == nil {
			return p
		}
	}
	return ""
}

func loadConfig(configPath string) (appConfig, error) {
	var cfg appConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	defaultDBPath := filepath.Join(home, ".local", "share", "nova", "nova.duckdb")

	v := viper.New()
	v.SetEnvPrefix("NOVA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("refresh-interval", defaultRefreshInterval)
	v.SetDefault("api-base-url", defaultAPIBaseURL)
	v.SetDefault("api-key", "")
	v.SetDefault("per-page", defaultPerPage)
	v.SetDefault("fetch-timeout", defaultFetchTimeout)
	v.SetDefault("fetch-retries", defaultFetchRetries)
	v.SetDefault("history-days", defaultHistoryDays)
	v.SetDefault("db-path", defaultDBPath)
	v.SetDefault("query-timeout", defaultQueryTimeout)
	v.SetDefault("history-retention", defaultHistoryRetention)
	v.SetDefault("delta-prune-after", 0)
	v.SetDefault("currency", "")
	v.SetDefault("api-enabled", false)
	v.SetDefault("api-port", defaultAPIPort)
	v.SetDefault("api-addr", "")
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigFile(filepath.Join(home, ".config", "nova", "config.yml"))
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
	if _, err := os.Stat(cfg.ConfigPath); err != nil {
		cfg.ConfigPath = ""
	}

	if cfg.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid refresh-interval: %s", cfg.RefreshInterval)
	}
	if cfg.PerPage <= 0 || cfg.PerPage > 250 {
		return cfg, fmt.Errorf("invalid per-page: %d", cfg.PerPage)
	}
	if cfg.HistoryDays <= 0 {
		return cfg, fmt.Errorf("invalid history-days: %d", cfg.HistoryDays)
	}
	if cfg.APIPort <= 0 || cfg.APIPort > 65535 {
		return cfg, fmt.Errorf("invalid api-port: %d", cfg.APIPort)
	}
	if cfg.Currency != "" {
		code, err := format.NormalizeCurrency(cfg.Currency)
		if err != nil {
			return cfg, fmt.Errorf("invalid currency: %w", err)
		}
		cfg.Currency = code
	}

	// Expand ~ in db-path
	if strings.HasPrefix(cfg.DBPath, "~/") {
		cfg.DBPath = filepath.Join(home, cfg.DBPath[2:])
	}

	if cfg.APIAddr == "" {
		cfg.APIAddr = net.JoinHostPort(defaultBindHost, strconv.Itoa(cfg.APIPort))
	}

	return cfg, nil
}

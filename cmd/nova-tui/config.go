package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/novacrypto/nova/internal/model"
	"github.com/novacrypto/nova/internal/socketrpc"
	"github.com/spf13/viper"
)

// cliConfig holds only TUI-relevant configuration.
type cliConfig struct {
	RefreshInterval time.Duration `mapstructure:"refresh-interval"`
	SocketPath      string        `mapstructure:"socket-path"`
	ThemeDir        string        `mapstructure:"theme-dir"`
	Currencies      []string      `mapstructure:"currencies"`
}

func loadCLIConfig(configPath string) (cliConfig, error) {
	var cfg cliConfig

	home, err := os.UserHomeDir()
	if err != nil {
		return cfg, fmt.Errorf("finding home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("NOVA")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	v.SetDefault("refresh-interval", model.DefaultRefreshInterval)
	v.SetDefault("socket-path", socketrpc.DefaultSocketPath())
	v.SetDefault("theme-dir", filepath.Join(home, ".config", "nova", "themes"))
	v.SetDefault("currencies", []string{"usd", "eur", "gbp", "jpy"})

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
	if cfg.RefreshInterval <= 0 {
		return cfg, fmt.Errorf("invalid refresh-interval: %s", cfg.RefreshInterval)
	}
	if strings.HasPrefix(cfg.ThemeDir, "~/") {
		cfg.ThemeDir = filepath.Join(home, cfg.ThemeDir[2:])
	}

	return cfg, nil
}

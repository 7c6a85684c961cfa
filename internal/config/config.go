package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// The server host lives in the config file; the API token does not.
// Tokens go to the OS credential store only (see internal/credstore).
type Config struct {
	Host              string        `mapstructure:"host"`
	DBPath            string        `mapstructure:"db_path"`
	DaemonPort        int           `mapstructure:"daemon_port"`
	StartPollInterval time.Duration `mapstructure:"start_poll_interval"`
	ExitPollInterval  time.Duration `mapstructure:"exit_poll_interval"`
}

var Default = Config{
	Host:              "",
	DBPath:            "mnemy.db",
	DaemonPort:        9731,
	StartPollInterval: 10 * time.Second,
	ExitPollInterval:  time.Second,
}

// Dir returns the config directory, creating it if needed.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	dir := filepath.Join(home, ".mnemy")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config dir: %w", err)
	}

	return dir, nil
}

func newViper(dir string) *viper.Viper {
	v := viper.New()
	v.SetConfigName("settings")
	v.SetConfigType("json")
	v.AddConfigPath(dir)

	v.SetDefault("host", Default.Host)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("daemon_port", Default.DaemonPort)
	v.SetDefault("start_poll_interval", Default.StartPollInterval.String())
	v.SetDefault("exit_poll_interval", Default.ExitPollInterval.String())

	v.SetEnvPrefix("MNEMY")
	v.AutomaticEnv()

	return v
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	return LoadFrom(dir)
}

func LoadFrom(dir string) (*Config, error) {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := Default
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.DBPath != "" && !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	return &cfg, nil
}

// LoadHost reads the host fresh from disk, so a host change is picked
// up by a running daemon without a restart. An absent config file is
// not an error; it just means no host is set yet.
func LoadHost() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}

	cfg, err := LoadFrom(dir)
	if err != nil {
		return "", err
	}

	return cfg.Host, nil
}

func SaveHost(host string) error {
	dir, err := Dir()
	if err != nil {
		return err
	}

	return SaveHostIn(host, dir)
}

func SaveHostIn(host, dir string) error {
	v := newViper(dir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.Set("host", host)

	path := filepath.Join(dir, "settings.json")
	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

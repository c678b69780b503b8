package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	Backup   BackupConfig   `mapstructure:"backup"`
	Server   ServerConfig   `mapstructure:"server"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig selects the backend. An empty BaseURL runs the backend in-process.
type APIConfig struct {
	BaseURL     string `mapstructure:"base_url"`
	Username    string `mapstructure:"username"`
	PasswordEnv string `mapstructure:"password_env"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string `mapstructure:"path"`
	Migrations string `mapstructure:"migrations"`
}

type BackupConfig struct {
	Dir string `mapstructure:"dir"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	Language   string `mapstructure:"language"`
	PageSize   int    `mapstructure:"page_size"`
	DateFormat string `mapstructure:"date_format"`
	Currency   string `mapstructure:"currency"`
	Timezone   string `mapstructure:"timezone"`
}

type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// Password returns the auto-login password from the configured env var.
func (c APIConfig) Password() string {
	if c.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(c.PasswordEnv)
}

// Location resolves the configured timezone, falling back to local time.
func (c UIConfig) Location() *time.Location {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "Local") {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func dataDir() string {
	return filepath.Join(os.Getenv("HOME"), ".local", "share", "finmgr")
}

// Path returns the config file location, honoring FINMGR_CONFIG.
func Path() string {
	if p := os.Getenv("FINMGR_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "finmgr", "config.toml")
}

// Load reads configuration from file and env. Env var overrides use prefix FINMGR_.
func Load() (Config, error) {
	v := viper.New()

	// default values
	v.SetDefault("api.base_url", "")
	v.SetDefault("api.username", "")
	v.SetDefault("api.password_env", "FINMGR_PASSWORD")
	v.SetDefault("database.path", filepath.Join(dataDir(), "finmgr.db"))
	v.SetDefault("database.migrations", "")
	v.SetDefault("backup.dir", filepath.Join(dataDir(), "backups"))
	v.SetDefault("server.addr", "127.0.0.1:8080")
	v.SetDefault("ui.language", "en")
	v.SetDefault("ui.page_size", 50)
	v.SetDefault("ui.date_format", "2006-01-02")
	v.SetDefault("ui.currency", "EUR")
	v.SetDefault("ui.timezone", "Local")
	v.SetDefault("log.path", filepath.Join(dataDir(), "finmgr.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")
	if cfgPath := os.Getenv("FINMGR_CONFIG"); cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "finmgr"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("FINMGR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.UI.PageSize <= 0 {
		c.UI.PageSize = 50
	}
	return c, nil
}

// Save writes the non-secret preferences to disk, creating the config directory
// if needed. Passwords are never written; only the name of their env var.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("api.base_url", cfg.API.BaseURL)
	v.Set("api.username", cfg.API.Username)
	v.Set("api.password_env", cfg.API.PasswordEnv)
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("backup.dir", cfg.Backup.Dir)
	v.Set("server.addr", cfg.Server.Addr)
	v.Set("ui.language", cfg.UI.Language)
	v.Set("ui.page_size", cfg.UI.PageSize)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.currency", cfg.UI.Currency)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

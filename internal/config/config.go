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

const (
	StorageDB      = "db"
	StorageKeyring = "keyring"
)

type Provider struct {
	ClientID string `mapstructure:"client_id"`
	// FolderID is the Drive parent folder for uploads. Unused by Dropbox,
	// which uploads to upload_folder.
	FolderID string `mapstructure:"folder_id"`
}

type Config struct {
	Port           int           `mapstructure:"port"`
	DBPath         string        `mapstructure:"db_path"`
	Storage        string        `mapstructure:"storage"`
	KeyringService string        `mapstructure:"keyring_service"`
	RedirectOrigin string        `mapstructure:"redirect_origin"`
	AuthPath       string        `mapstructure:"auth_path"`
	UploadFolder   string        `mapstructure:"upload_folder"`
	WatchDebounce  time.Duration `mapstructure:"watch_debounce"`
	Dropbox        Provider      `mapstructure:"dropbox"`
	GDrive         Provider      `mapstructure:"gdrive"`
}

var Default = Config{
	Port:           8080,
	DBPath:         "mapshare.db",
	Storage:        StorageDB,
	KeyringService: "mapshare",
	RedirectOrigin: "http://localhost:8080",
	AuthPath:       "auth",
	UploadFolder:   "/keplergl",
	WatchDebounce:  2 * time.Second,
}

func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home dir: %w", err)
	}

	return filepath.Join(home, ".mapshare"), nil
}

func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}

	return LoadFrom(dir)
}

// LoadFrom reads config.yaml from dir, falling back to defaults and
// MAPSHARE_* environment variables. A relative db_path is resolved
// against dir.
func LoadFrom(dir string) (*Config, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetDefault("port", Default.Port)
	v.SetDefault("db_path", Default.DBPath)
	v.SetDefault("storage", Default.Storage)
	v.SetDefault("keyring_service", Default.KeyringService)
	v.SetDefault("redirect_origin", Default.RedirectOrigin)
	v.SetDefault("auth_path", Default.AuthPath)
	v.SetDefault("upload_folder", Default.UploadFolder)
	v.SetDefault("watch_debounce", Default.WatchDebounce)
	v.SetDefault("dropbox.client_id", "")
	v.SetDefault("gdrive.client_id", "")
	v.SetDefault("gdrive.folder_id", "")

	v.SetEnvPrefix("MAPSHARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := errors.AsType[viper.ConfigFileNotFoundError](err); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if !filepath.IsAbs(cfg.DBPath) {
		cfg.DBPath = filepath.Join(dir, cfg.DBPath)
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage {
	case StorageDB, StorageKeyring:
	default:
		return fmt.Errorf("unknown storage backend %q (want %q or %q)", c.Storage, StorageDB, StorageKeyring)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	return nil
}

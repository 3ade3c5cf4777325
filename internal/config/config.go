// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

// Package config loads labrador.yaml through viper, layered with LABRADOR_*
// environment variables and command flags.
package config // import "github.com/toeirei/labrador/internal/config"

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/toeirei/labrador/internal/adapter"
)

// Config is the contents of labrador.yaml.
type Config struct {
	// AppsPath is scanned when no path hint is given. Empty means the pow
	// directory, when present.
	AppsPath string `mapstructure:"apps_path" yaml:"apps_path"`
	// Env selects the block of multi-environment application configs.
	Env string `mapstructure:"env" yaml:"env"`
	// Timeout bounds every connect, introspection and query call.
	Timeout  string  `mapstructure:"timeout" yaml:"timeout"`
	Language string  `mapstructure:"language" yaml:"language"`
	Log      Log     `mapstructure:"log" yaml:"log"`
	Session  Session `mapstructure:"session" yaml:"session"`
	Server   Server  `mapstructure:"server" yaml:"server"`
}

type Log struct {
	Level string `mapstructure:"level" yaml:"level"`
}

type Session struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	DSN     string `mapstructure:"dsn" yaml:"dsn"`
	Redis   Redis  `mapstructure:"redis" yaml:"redis"`
}

type Redis struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
}

type Server struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
	// BaseDomain enables subdomain resolution: blog.<base_domain>.
	BaseDomain string `mapstructure:"base_domain" yaml:"base_domain"`
	// User and Password guard the HTTP API with basic auth. The API refuses
	// every request while either is empty.
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	// CORSOrigins lists browser origins allowed to call the API.
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// ConnectTimeout parses Timeout, falling back to adapter.DefaultTimeout.
func (c Config) ConnectTimeout() time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(c.Timeout))
	if err != nil || d <= 0 {
		return adapter.DefaultTimeout
	}
	return d
}

// Defaults returns the default value of every known key. Keys must be known
// to viper for LABRADOR_* variables to apply during Unmarshal.
func Defaults() map[string]any {
	return map[string]any{
		"apps_path":              "",
		"env":                    "development",
		"timeout":                adapter.DefaultTimeout.String(),
		"language":               "en",
		"log.level":              "info",
		"session.backend":        "sqlite",
		"session.dsn":            "",
		"session.redis.addr":     "localhost:6379",
		"session.redis.password": "",
		"session.redis.db":       0,
		"session.redis.prefix":   "labrador:",
		"server.addr":            "127.0.0.1:9292",
		"server.base_domain":     "",
		"server.user":            "",
		"server.password":        "",
		"server.cors_origins":    []string{},
	}
}

// GetConfigPath returns the full path for the configuration file.
func GetConfigPath(system bool) (string, error) {
	if system {
		switch runtime.GOOS {
		case "windows":
			return filepath.Join(os.Getenv("ProgramData"), "Labrador", "labrador.yaml"), nil
		default:
			return "/etc/labrador/labrador.yaml", nil
		}
	}
	if xdg.ConfigHome == "" {
		return "", fmt.Errorf("could not get user config directory")
	}
	return filepath.Join(xdg.ConfigHome, "labrador", "labrador.yaml"), nil
}

// LoadConfig reads labrador.yaml from the user, system and current
// directories (or configFile when given), then applies LABRADOR_* variables
// and the flags of cmd. flagKeys maps config keys to flag names when they
// differ, e.g. "log.level" to "log-level".
func LoadConfig[T any](cmd *cobra.Command, defaults map[string]any, configFile *string, flagKeys map[string]string) (T, error) {
	var c T
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("labrador")
	v.SetConfigType("yaml")
	if configFile != nil && *configFile != "" {
		v.SetConfigFile(*configFile)
	}
	if userConfigPath, err := GetConfigPath(false); err == nil {
		v.AddConfigPath(filepath.Dir(userConfigPath))
	}
	if systemConfigPath, err := GetConfigPath(true); err == nil {
		v.AddConfigPath(filepath.Dir(systemConfigPath))
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing file is fine; a broken one is not.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return c, fmt.Errorf("read config: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("labrador")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if cmd != nil {
		for key, name := range flagKeys {
			if f := cmd.Flags().Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// WriteConfigFile writes c as YAML to the user (or system) config path and
// returns that path.
func WriteConfigFile[T any](c *T, system bool) (string, error) {
	path, err := GetConfigPath(system)
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create config directory %s: %w", configDir, err)
	}
	// 0600: the file may hold session and server credentials.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}

// LoadEnvFiles loads the given dotenv files into the process environment,
// skipping missing ones. Variables already set are not overridden.
func LoadEnvFiles(files ...string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("load %s: %w", f, err)
		}
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// NewViperInstance creates and configures a new viper instance with defaults
func NewViperInstance() *viper.Viper {
	v := viper.New()

	v.SetDefault("http.host", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", "10s")
	v.SetDefault("http.write_timeout", "10s")
	v.SetDefault("http.idle_timeout", "120s")
	v.SetDefault("http.shutdown_timeout", "30s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "development")

	v.SetDefault("models.config_path", "models.json")

	v.SetDefault("webhook.timeout", "10s")

	v.SetDefault("concurrency.default_foreach_max_workers", 8)

	return v
}

// BindEnvironmentVariables binds environment variables to viper keys
func BindEnvironmentVariables(v *viper.Viper) error {
	bindings := map[string]string{
		"auth.api_key":                            "API_KEY",
		"http.host":                               "HTTP_HOST",
		"http.port":                               "HTTP_PORT",
		"http.read_timeout":                       "HTTP_READ_TIMEOUT",
		"http.write_timeout":                      "HTTP_WRITE_TIMEOUT",
		"http.idle_timeout":                       "HTTP_IDLE_TIMEOUT",
		"http.shutdown_timeout":                   "HTTP_SHUTDOWN_TIMEOUT",
		"log.level":                               "LOG_LEVEL",
		"log.format":                               "LOG_FORMAT",
		"models.config_path":                      "MODEL_CONFIG_PATH",
		"webhook.base_url":                        "WEBHOOK_BASE_URL",
		"webhook.timeout":                         "WEBHOOK_TIMEOUT",
		"concurrency.default_foreach_max_workers": "DEFAULT_FOREACH_MAX_WORKERS",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}
	return nil
}

// FindConfigFile finds a configuration file using the precedence order:
// 1. Explicit --config flag (passed via configPath parameter)
// 2. ORCHESTRATOR_CONFIG environment variable
// 3. Standard locations: ./config.{yaml,json}, /etc/orchestrator/config.{yaml,json}, $XDG_CONFIG_HOME/orchestrator/config.{yaml,json}
func FindConfigFile(configPath string) (string, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); err != nil {
			if os.IsNotExist(err) {
				return "", fmt.Errorf("config file not found: %s", configPath)
			}
			return "", fmt.Errorf("cannot access config file %s: %w", configPath, err)
		}
		return configPath, nil
	}

	if envPath := os.Getenv("ORCHESTRATOR_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	locations := []string{
		".",
		"/etc/orchestrator",
	}
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		locations = append(locations, filepath.Join(xdgConfig, "orchestrator"))
	}

	for _, loc := range locations {
		for _, ext := range []string{"yaml", "json"} {
			path := filepath.Join(loc, "config."+ext)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", nil
}

// LoadConfigFile loads a configuration file (YAML or JSON) into viper
func LoadConfigFile(v *viper.Viper, filePath string) error {
	if filePath == "" {
		return nil
	}

	ext := filepath.Ext(filePath)
	switch ext {
	case ".yaml", ".yml":
		v.SetConfigType("yaml")
	case ".json":
		v.SetConfigType("json")
	default:
		return fmt.Errorf("unsupported config file type: %s", ext)
	}

	v.SetConfigFile(filePath)

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	return nil
}

// LoadFromViper unmarshals viper configuration into a Config struct
func LoadFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

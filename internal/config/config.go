package config

import "fmt"

// Config holds all application configuration (§2.1, §6.6).
type Config struct {
	Auth        AuthConfig        `mapstructure:"auth"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Log         LogConfig         `mapstructure:"log"`
	Models      ModelsConfig      `mapstructure:"models"`
	Webhook     WebhookConfig     `mapstructure:"webhook"`
	Concurrency ConcurrencyConfig `mapstructure:"concurrency"`
}

// Validate performs validation on the configuration
func (c *Config) Validate() error {
	if err := c.Auth.Validate(); err != nil {
		return fmt.Errorf("auth config: %w", err)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if err := c.Models.Validate(); err != nil {
		return fmt.Errorf("models config: %w", err)
	}
	if err := c.Webhook.Validate(); err != nil {
		return fmt.Errorf("webhook config: %w", err)
	}
	if err := c.Concurrency.Validate(); err != nil {
		return fmt.Errorf("concurrency config: %w", err)
	}
	return nil
}

package config

import "fmt"

// AuthConfig holds the shared secret every authenticated route checks
// against the X-API-Key header (§6.1, §6.6).
type AuthConfig struct {
	APIKey string `mapstructure:"api_key" env:"API_KEY"`
}

// Validate validates auth configuration.
func (a *AuthConfig) Validate() error {
	if a.APIKey == "" {
		return fmt.Errorf("api_key must not be empty")
	}
	return nil
}

package config

import (
	"fmt"
	"time"
)

// WebhookConfig holds the fields used to build the internal webhook URL
// injected into remote service calls and the internal workflow-completion
// callback (§6.1, §6.6).
type WebhookConfig struct {
	// BaseURL is this service's own externally-reachable base URL, used
	// to construct the webhook URL handed to remote-service nodes and the
	// engine's internal completion callback.
	BaseURL string `mapstructure:"base_url" env:"WEBHOOK_BASE_URL"`

	// Timeout bounds how long a user webhook POST may take before it is
	// abandoned (best-effort, never retried -- §7).
	Timeout time.Duration `mapstructure:"timeout" env:"WEBHOOK_TIMEOUT" default:"10s"`
}

// Validate validates webhook configuration.
func (w *WebhookConfig) Validate() error {
	if w.BaseURL == "" {
		return fmt.Errorf("base_url must not be empty")
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	return nil
}

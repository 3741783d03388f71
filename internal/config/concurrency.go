package config

import "fmt"

// ServicePolicy configures one named remote service's rate limit and
// concurrency ceiling. cmd/server mirrors every entry in
// ConcurrencyConfig.Services into an internal/ratelimit.Policy at startup,
// keyed by the same service name a remote node's service_name input uses.
type ServicePolicy struct {
	CallsPerPeriod int     `mapstructure:"calls_per_period"`
	PeriodSeconds  float64 `mapstructure:"period_seconds"`
	MaxConcurrent  int     `mapstructure:"max_concurrent"`
}

// ConcurrencyConfig holds per-service rate limiting and the default
// ForEach worker ceiling (§5). DefaultForEachMaxWorkers is passed to
// internal/node/builtin.RegisterForEach, which falls back to it whenever
// a workflow leaves a ForEach node's own max_workers input at zero.
type ConcurrencyConfig struct {
	Services                 map[string]ServicePolicy `mapstructure:"services"`
	DefaultForEachMaxWorkers int                       `mapstructure:"default_foreach_max_workers" env:"DEFAULT_FOREACH_MAX_WORKERS" default:"8"`
}

// Validate validates concurrency configuration.
func (c *ConcurrencyConfig) Validate() error {
	if c.DefaultForEachMaxWorkers < 0 {
		return fmt.Errorf("default_foreach_max_workers must be non-negative")
	}
	for name, policy := range c.Services {
		if policy.CallsPerPeriod < 0 || policy.PeriodSeconds < 0 || policy.MaxConcurrent < 0 {
			return fmt.Errorf("service %q: rate and concurrency limits must be non-negative", name)
		}
	}
	return nil
}

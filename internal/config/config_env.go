package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// envConfig mirrors Config for environment parsing. Zero values mean
// "unset"; Retry.Enabled uses a pointer for the same reason as the file
// config.
type envConfig struct {
	ResourceURL   string `env:"LOGSHIP_RESOURCE_URL"`
	Source        string `env:"LOGSHIP_SOURCE"`
	InstanceID    string `env:"LOGSHIP_INSTANCE_ID"`
	RequestPolicy string `env:"LOGSHIP_REQUEST_POLICY"`
	HeaderName    string `env:"LOGSHIP_HEADER_NAME"`
	HeaderValue   string `env:"LOGSHIP_HEADER_VALUE"`

	ThresholdMessages int           `env:"LOGSHIP_THRESHOLD_MESSAGES"`
	ThresholdInterval time.Duration `env:"LOGSHIP_THRESHOLD_INTERVAL"`

	RetryEnabled  *bool         `env:"LOGSHIP_RETRY_ENABLED"`
	RetryInterval time.Duration `env:"LOGSHIP_RETRY_INTERVAL"`
	RetryBudget   int           `env:"LOGSHIP_RETRY_BUDGET"`

	HTTPTimeout time.Duration `env:"LOGSHIP_HTTP_TIMEOUT"`
}

// ApplyEnvConfig applies LOGSHIP_* environment variables to cfg.
// Environment values override file config but are overridden by explicitly
// set flags (changed map).
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	var ec envConfig
	if err := env.Parse(&ec); err != nil {
		return err
	}

	s := setter{changed: changed}
	s.setString("resource-url", ec.ResourceURL, &cfg.ResourceURL)
	s.setString("source", ec.Source, &cfg.Source)
	s.setString("instance-id", ec.InstanceID, &cfg.InstanceID)
	s.setPolicy("request-policy", ec.RequestPolicy, &cfg.RequestPolicy)
	s.setString("header-name", ec.HeaderName, &cfg.HeaderName)
	s.setString("header-value", ec.HeaderValue, &cfg.HeaderValue)
	s.setInt("threshold-messages", ec.ThresholdMessages, &cfg.Threshold.Messages)
	s.setInt("retry-budget", ec.RetryBudget, &cfg.Retry.Retries)
	s.setBool("retry", ec.RetryEnabled, &cfg.Retry.Enabled)

	applyEnvDuration(s, "threshold-interval", ec.ThresholdInterval, &cfg.Threshold.Interval)
	applyEnvDuration(s, "retry-interval", ec.RetryInterval, &cfg.Retry.Interval)
	applyEnvDuration(s, "timeout", ec.HTTPTimeout, &cfg.HTTPTimeout)

	return nil
}

func applyEnvDuration(s setter, flag string, value time.Duration, dst *time.Duration) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

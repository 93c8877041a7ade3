package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/LaxarJS/laxar-log-activity/internal/domain"
)

// fileConfig mirrors Config but uses strings for durations to make TOML
// friendly and pointer bools to distinguish "unset" from "false".
type fileConfig struct {
	ResourceURL   string `toml:"resource_url"`
	Source        string `toml:"source"`
	InstanceID    string `toml:"instance_id"`
	RequestPolicy string `toml:"request_policy"`
	HeaderName    string `toml:"header_name"`
	HeaderValue   string `toml:"header_value"`
	HTTPTimeout   string `toml:"http_timeout"`

	Threshold struct {
		Messages int    `toml:"messages"`
		Interval string `toml:"interval"`
	} `toml:"threshold"`

	Retry struct {
		Enabled  *bool  `toml:"enabled"`
		Interval string `toml:"interval"`
		Retries  int    `toml:"retries"`
	} `toml:"retry"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (fileConfig, error) {
	var fc fileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns the default configuration file path.
// Returns ~/.logship/config.toml if the user home directory is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".logship", "config.toml")
	}
	return ""
}

// FileExists reports whether path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc fileConfig, changed map[string]bool) error {
	s := setter{changed: changed}

	s.setString("resource-url", fc.ResourceURL, &cfg.ResourceURL)
	s.setString("source", fc.Source, &cfg.Source)
	s.setString("instance-id", fc.InstanceID, &cfg.InstanceID)
	s.setPolicy("request-policy", fc.RequestPolicy, &cfg.RequestPolicy)
	s.setString("header-name", fc.HeaderName, &cfg.HeaderName)
	s.setString("header-value", fc.HeaderValue, &cfg.HeaderValue)

	s.setInt("threshold-messages", fc.Threshold.Messages, &cfg.Threshold.Messages)
	s.setInt("retry-budget", fc.Retry.Retries, &cfg.Retry.Retries)
	s.setBool("retry", fc.Retry.Enabled, &cfg.Retry.Enabled)

	if err := s.setDuration("threshold-interval", fc.Threshold.Interval, &cfg.Threshold.Interval); err != nil {
		return err
	}
	if err := s.setDuration("retry-interval", fc.Retry.Interval, &cfg.Retry.Interval); err != nil {
		return err
	}
	if err := s.setDuration("timeout", fc.HTTPTimeout, &cfg.HTTPTimeout); err != nil {
		return err
	}

	return nil
}

// setter applies values while respecting flag precedence: a value is only
// applied if the corresponding flag has not been explicitly set.
type setter struct {
	changed map[string]bool
}

func (s setter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s setter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s setter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

func (s setter) setPolicy(flag, value string, dst *domain.RequestPolicy) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = domain.RequestPolicy(value)
}

func (s setter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

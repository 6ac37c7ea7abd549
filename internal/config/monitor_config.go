package config

import "time"

// MonitorConfig defines configuration for the monitoring engine.
type MonitorConfig struct {
	CheckIntervalSeconds int    `json:"check_interval_seconds,omitempty" yaml:"check_interval_seconds,omitempty" validate:"omitempty,min=1"`
	HTTPTimeoutSeconds   int    `json:"http_timeout_seconds,omitempty" yaml:"http_timeout_seconds,omitempty" validate:"omitempty,min=1"`
	InsecureSkipVerify   bool   `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	MaxContentSize       int    `json:"max_content_size,omitempty" yaml:"max_content_size,omitempty" validate:"omitempty,min=1"` // Max page size in bytes
	UserAgent            string `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
}

// CheckInterval returns the polling interval as a duration.
func (c MonitorConfig) CheckInterval() time.Duration {
	if c.CheckIntervalSeconds <= 0 {
		return DefaultCheckIntervalSeconds * time.Second
	}
	return time.Duration(c.CheckIntervalSeconds) * time.Second
}

// HTTPTimeout returns the per-fetch timeout as a duration.
func (c MonitorConfig) HTTPTimeout() time.Duration {
	if c.HTTPTimeoutSeconds <= 0 {
		return DefaultHTTPTimeoutSeconds * time.Second
	}
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// NewDefaultMonitorConfig creates default monitor configuration
func NewDefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		CheckIntervalSeconds: DefaultCheckIntervalSeconds,
		HTTPTimeoutSeconds:   DefaultHTTPTimeoutSeconds,
		InsecureSkipVerify:   false,
		MaxContentSize:       DefaultMaxContentSize,
		UserAgent:            DefaultUserAgent,
	}
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/lab007/webalert/internal/common"

	"gopkg.in/yaml.v3"
)

const (
	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// Monitor Defaults
	DefaultCheckIntervalSeconds = 180 // 3 minutes
	DefaultHTTPTimeoutSeconds   = 90
	DefaultMaxContentSize       = 5 * 1024 * 1024
	DefaultUserAgent            = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	// Storage Defaults
	DefaultSQLiteDBPath = "data/webalert.db"

	// Notification Defaults
	DefaultSMTPPort     = 587
	DefaultAlertSubject = "Page Change Detected"
	DefaultFromName     = "Web Alert"

	// Server Defaults
	DefaultListenAddress = ":8080"
)

// GlobalConfig aggregates all configuration sections of the application.
type GlobalConfig struct {
	LogConfig          LogConfig          `json:"log_config,omitempty" yaml:"log_config,omitempty"`
	MonitorConfig      MonitorConfig      `json:"monitor_config,omitempty" yaml:"monitor_config,omitempty"`
	NotificationConfig NotificationConfig `json:"notification_config,omitempty" yaml:"notification_config,omitempty"`
	ServerConfig       ServerConfig       `json:"server_config,omitempty" yaml:"server_config,omitempty"`
	StorageConfig      StorageConfig      `json:"storage_config,omitempty" yaml:"storage_config,omitempty"`
}

// NewDefaultGlobalConfig creates a GlobalConfig populated with defaults.
func NewDefaultGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		LogConfig:          NewDefaultLogConfig(),
		MonitorConfig:      NewDefaultMonitorConfig(),
		NotificationConfig: NewDefaultNotificationConfig(),
		ServerConfig:       NewDefaultServerConfig(),
		StorageConfig:      NewDefaultStorageConfig(),
	}
}

// LoadGlobalConfig loads the configuration from a file or default locations.
// It determines the config file path using GetConfigPath and supports both
// JSON and YAML formats. YAML is preferred if the extension is .yaml or .yml.
// Secrets (SMTP credentials) may be overridden from the environment.
func LoadGlobalConfig(providedPath string) (*GlobalConfig, error) {
	cfg := NewDefaultGlobalConfig()

	filePath := GetConfigPath(providedPath)
	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, common.WrapErrorf(err, "failed to read config file '%s'", filePath)
		}
		if err := parseConfigContent(data, filePath, cfg); err != nil {
			return nil, common.WrapError(err, "failed to parse config content")
		}
	}

	cfg.NotificationConfig.applyEnvOverrides()
	return cfg, nil
}

// parseConfigContent parses the config content based on file extension.
func parseConfigContent(data []byte, filePath string, cfg *GlobalConfig) error {
	ext := filepath.Ext(filePath)
	if ext == ".yaml" || ext == ".yml" {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return common.WrapErrorf(err, "invalid YAML in '%s'", filePath)
		}
		return nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return common.WrapErrorf(err, "invalid JSON in '%s'", filePath)
	}
	return nil
}

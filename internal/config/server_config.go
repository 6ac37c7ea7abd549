package config

// ServerConfig defines configuration for the HTTP API surface.
type ServerConfig struct {
	ListenAddress         string `json:"listen_address,omitempty" yaml:"listen_address,omitempty"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds,omitempty" yaml:"request_timeout_seconds,omitempty" validate:"omitempty,min=1"`
}

// NewDefaultServerConfig creates default server configuration
func NewDefaultServerConfig() ServerConfig {
	return ServerConfig{
		ListenAddress:         DefaultListenAddress,
		RequestTimeoutSeconds: 60,
	}
}

package ingress

import (
	"fmt"
	"strings"

	"github.com/c360/signalbus/errors"
)

// Config holds the ingress server settings.
type Config struct {
	// Host is the listen interface.
	Host string `json:"host"`
	// Port is the listen port. Zero binds an ephemeral port; read it
	// back with Server.Addr.
	Port int `json:"port"`
	// Path is the WebSocket endpoint path.
	Path string `json:"path"`
	// QueueCapacity bounds the dispatch queue; the oldest envelope is
	// dropped when a write finds it full.
	QueueCapacity int `json:"queue_capacity"`
	// MaxMessageBytes caps a single inbound frame. A frame over the
	// cap closes its connection.
	MaxMessageBytes int64 `json:"max_message_bytes"`
}

// DefaultConfig returns the ingress defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8787,
		Path:            "/signal",
		QueueCapacity:   1024,
		MaxMessageBytes: 1 << 20,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	var problems []string

	if c.Port < 0 || c.Port > 65535 {
		problems = append(problems, fmt.Sprintf("port %d out of range 0-65535", c.Port))
	}
	if !strings.HasPrefix(c.Path, "/") {
		problems = append(problems, fmt.Sprintf("path %q must start with /", c.Path))
	}
	if c.QueueCapacity < 1 {
		problems = append(problems, fmt.Sprintf("queue_capacity %d must be at least 1", c.QueueCapacity))
	}
	if c.MaxMessageBytes < 1 {
		problems = append(problems, fmt.Sprintf("max_message_bytes %d must be at least 1", c.MaxMessageBytes))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Ingress", "Validate", "check config")
	}
	return nil
}

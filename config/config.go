// Package config loads signal bus service configuration from an
// optional YAML file with environment variable overrides.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/c360/signalbus/errors"
)

// Config is the complete service configuration. Values resolve in
// three layers: Default(), then the YAML file if one is given, then
// SIGNALBUS_* environment variables.
type Config struct {
	Service ServiceConfig `yaml:"service"`
	Ingress IngressConfig `yaml:"ingress"`
	Journal JournalConfig `yaml:"journal"`
	IMU     IMUConfig     `yaml:"imu"`
	Bridge  BridgeConfig  `yaml:"bridge"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServiceConfig identifies the running service instance.
type ServiceConfig struct {
	Name string `yaml:"name" env:"SIGNALBUS_SERVICE_NAME"`
}

// IngressConfig controls the WebSocket ingress server.
type IngressConfig struct {
	Host string `yaml:"host" env:"SIGNALBUS_INGRESS_HOST"`
	Port int    `yaml:"port" env:"SIGNALBUS_INGRESS_PORT"`
	Path string `yaml:"path" env:"SIGNALBUS_INGRESS_PATH"`

	// QueueCapacity bounds the dispatch queue between the ingress read
	// loops and downstream consumers.
	QueueCapacity int `yaml:"queue_capacity" env:"SIGNALBUS_INGRESS_QUEUE_CAPACITY"`

	// MaxMessageBytes caps a single inbound frame.
	MaxMessageBytes int64 `yaml:"max_message_bytes" env:"SIGNALBUS_INGRESS_MAX_MESSAGE_BYTES"`
}

// JournalConfig controls the durable envelope log.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled" env:"SIGNALBUS_JOURNAL_ENABLED"`
	Path    string `yaml:"path" env:"SIGNALBUS_JOURNAL_PATH"`
}

// IMUConfig controls the inertial sample ring buffer.
type IMUConfig struct {
	Capacity int `yaml:"capacity" env:"SIGNALBUS_IMU_CAPACITY"`
}

// BridgeConfig controls the validated-envelope fan-out router.
type BridgeConfig struct {
	Enabled      bool     `yaml:"enabled" env:"SIGNALBUS_BRIDGE_ENABLED"`
	SDKSurface   string   `yaml:"sdk_surface" env:"SIGNALBUS_BRIDGE_SDK_SURFACE"`
	Capabilities []string `yaml:"capabilities" env:"SIGNALBUS_BRIDGE_CAPABILITIES" envSeparator:","`

	// RateLimit is the per-sink dispatch budget in envelopes per
	// second; Burst is the token bucket depth.
	RateLimit float64 `yaml:"rate_limit" env:"SIGNALBUS_BRIDGE_RATE_LIMIT"`
	Burst     int     `yaml:"burst" env:"SIGNALBUS_BRIDGE_BURST"`

	// DispatchLog, when set, receives one JSON line per dispatch.
	DispatchLog string `yaml:"dispatch_log" env:"SIGNALBUS_BRIDGE_DISPATCH_LOG"`

	// UDPTargets are host:port addresses that receive dispatched
	// envelopes as UDP datagrams.
	UDPTargets []string `yaml:"udp_targets" env:"SIGNALBUS_BRIDGE_UDP_TARGETS" envSeparator:","`

	// NATSSubject, when non-empty, publishes dispatches to NATS using
	// the top-level nats connection settings.
	NATSSubject string `yaml:"nats_subject" env:"SIGNALBUS_BRIDGE_NATS_SUBJECT"`
}

// NATSConfig defines the NATS connection shared by components that
// publish.
type NATSConfig struct {
	URL           string        `yaml:"url" env:"SIGNALBUS_NATS_URL"`
	MaxReconnects int           `yaml:"max_reconnects" env:"SIGNALBUS_NATS_MAX_RECONNECTS"`
	ReconnectWait time.Duration `yaml:"reconnect_wait" env:"SIGNALBUS_NATS_RECONNECT_WAIT"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"SIGNALBUS_METRICS_ENABLED"`
	Port    int    `yaml:"port" env:"SIGNALBUS_METRICS_PORT"`
	Path    string `yaml:"path" env:"SIGNALBUS_METRICS_PATH"`
}

// LoggingConfig controls slog output.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"SIGNALBUS_LOG_LEVEL"`
	Format string `yaml:"format" env:"SIGNALBUS_LOG_FORMAT"`
}

// Default returns the built-in configuration. Every layer above it
// only overrides what it names.
func Default() *Config {
	return &Config{
		Service: ServiceConfig{
			Name: "signalbus",
		},
		Ingress: IngressConfig{
			Host:            "0.0.0.0",
			Port:            8787,
			Path:            "/signal",
			QueueCapacity:   1024,
			MaxMessageBytes: 1 << 20,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "data/journal.jsonl",
		},
		IMU: IMUConfig{
			Capacity: 256,
		},
		Bridge: BridgeConfig{
			Enabled:      false,
			SDKSurface:   "wearable",
			Capabilities: []string{"render.intent.apply", "safety.log"},
			RateLimit:    5,
			Burst:        5,
		},
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
			ReconnectWait: 2 * time.Second,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load builds the effective configuration: defaults, then the YAML
// file at path if path is non-empty, then environment overrides.
// Malformed values at any layer fail the load rather than silently
// falling back.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "read config file")
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %s: %v", errors.ErrInvalidConfig, path, err),
				"Config", "Load", "parse config file")
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err),
			"Config", "Load", "apply environment overrides")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks ranges and cross-field requirements. All problems
// are reported in one error.
func (c *Config) Validate() error {
	var problems []string

	if c.Service.Name == "" {
		problems = append(problems, "service.name is required")
	}
	if c.Ingress.Port < 1 || c.Ingress.Port > 65535 {
		problems = append(problems, fmt.Sprintf("ingress.port %d out of range 1-65535", c.Ingress.Port))
	}
	if c.Ingress.Path == "" || !strings.HasPrefix(c.Ingress.Path, "/") {
		problems = append(problems, fmt.Sprintf("ingress.path %q must start with /", c.Ingress.Path))
	}
	if c.Ingress.QueueCapacity < 1 {
		problems = append(problems, fmt.Sprintf("ingress.queue_capacity %d must be positive", c.Ingress.QueueCapacity))
	}
	if c.Ingress.MaxMessageBytes < 1 {
		problems = append(problems, fmt.Sprintf("ingress.max_message_bytes %d must be positive", c.Ingress.MaxMessageBytes))
	}
	if c.Journal.Enabled && c.Journal.Path == "" {
		problems = append(problems, "journal.path is required when journal.enabled")
	}
	if c.IMU.Capacity < 1 {
		problems = append(problems, fmt.Sprintf("imu.capacity %d must be positive", c.IMU.Capacity))
	}
	if c.Bridge.Enabled {
		if c.Bridge.RateLimit <= 0 {
			problems = append(problems, fmt.Sprintf("bridge.rate_limit %v must be positive", c.Bridge.RateLimit))
		}
		if c.Bridge.Burst < 1 {
			problems = append(problems, fmt.Sprintf("bridge.burst %d must be positive", c.Bridge.Burst))
		}
		if c.Bridge.NATSSubject != "" && c.NATS.URL == "" {
			problems = append(problems, "nats.url is required when bridge.nats_subject is set")
		}
	}
	if c.Metrics.Enabled {
		if c.Metrics.Port < 1 || c.Metrics.Port > 65535 {
			problems = append(problems, fmt.Sprintf("metrics.port %d out of range 1-65535", c.Metrics.Port))
		}
		if c.Metrics.Port == c.Ingress.Port {
			problems = append(problems, fmt.Sprintf("metrics.port %d collides with ingress.port", c.Metrics.Port))
		}
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q must be one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("logging.format %q must be json or text", c.Logging.Format))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "check fields")
	}
	return nil
}

package ingress

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/signalbus/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, 8787, cfg.Port)
	assert.Equal(t, "/signal", cfg.Path)
	assert.Equal(t, 1024, cfg.QueueCapacity)
	assert.Equal(t, int64(1<<20), cfg.MaxMessageBytes)

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "ephemeral port allowed",
			mutate: func(c *Config) { c.Port = 0 },
		},
		{
			name:    "negative port",
			mutate:  func(c *Config) { c.Port = -1 },
			wantErr: "port",
		},
		{
			name:    "port too high",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantErr: "port",
		},
		{
			name:    "path without slash",
			mutate:  func(c *Config) { c.Path = "signal" },
			wantErr: "path",
		},
		{
			name:    "zero queue capacity",
			mutate:  func(c *Config) { c.QueueCapacity = 0 },
			wantErr: "queue_capacity",
		},
		{
			name:    "zero max message bytes",
			mutate:  func(c *Config) { c.MaxMessageBytes = 0 },
			wantErr: "max_message_bytes",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_ValidateCollectsAllProblems(t *testing.T) {
	cfg := Config{Port: -1, Path: "nope", QueueCapacity: 0, MaxMessageBytes: 0}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
	assert.Contains(t, err.Error(), "path")
	assert.Contains(t, err.Error(), "queue_capacity")
	assert.Contains(t, err.Error(), "max_message_bytes")
}

package bridge

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/signalbus/errors"
	"github.com/c360/signalbus/natsclient"
)

func TestNewNATSSink_Validation(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	tests := []struct {
		name     string
		sinkName string
		subject  string
		client   *natsclient.Client
	}{
		{"empty name", "", "signal.dispatch", client},
		{"empty subject", "holo", "", client},
		{"nil client", "holo", "signal.dispatch", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNATSSink(tt.sinkName, tt.subject, tt.client)
			if !stderrors.Is(err, errors.ErrMissingConfig) {
				t.Errorf("expected ErrMissingConfig, got %v", err)
			}
			assert.True(t, errors.IsInvalid(err))
		})
	}
}

func TestNATSSink_SendNotConnected(t *testing.T) {
	client, err := natsclient.NewClient("nats://localhost:4222")
	require.NoError(t, err)

	sink, err := NewNATSSink("holo", "signal.dispatch", client)
	require.NoError(t, err)

	assert.Equal(t, "holo", sink.Name())
	assert.Equal(t, "signal.dispatch", sink.Subject())

	err = sink.Send(context.Background(), dispatchFixture(t))
	if !stderrors.Is(err, errors.ErrNoConnection) {
		t.Errorf("expected ErrNoConnection, got %v", err)
	}
}

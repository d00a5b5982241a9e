package bridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/c360/signalbus/errors"
	"github.com/c360/signalbus/natsclient"
)

// NATSSink publishes each dispatch as JSON to a fixed NATS subject.
type NATSSink struct {
	name    string
	subject string
	client  *natsclient.Client
}

// NewNATSSink creates a sink publishing on subject through client. The
// client's connection lifecycle belongs to the caller.
func NewNATSSink(name, subject string, client *natsclient.Client) (*NATSSink, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: sink name", errors.ErrMissingConfig),
			"NATSSink", "NewNATSSink", "validate name")
	}
	if subject == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: subject", errors.ErrMissingConfig),
			"NATSSink", "NewNATSSink", "validate subject")
	}
	if client == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: nats client", errors.ErrMissingConfig),
			"NATSSink", "NewNATSSink", "validate client")
	}
	return &NATSSink{name: name, subject: subject, client: client}, nil
}

// Name returns the sink name.
func (s *NATSSink) Name() string { return s.name }

// Subject returns the publish subject.
func (s *NATSSink) Subject() string { return s.subject }

// Send marshals d and publishes it. Publish failures carry the
// client's transient classification so the router can surface them.
func (s *NATSSink) Send(ctx context.Context, d *Dispatch) error {
	data, err := json.Marshal(d)
	if err != nil {
		return errors.WrapInvalid(err, "NATSSink", "Send", "marshal dispatch")
	}
	return s.client.Publish(ctx, s.subject, data)
}

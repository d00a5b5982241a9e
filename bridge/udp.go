package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/c360/signalbus/errors"
)

// UDPSink emits each dispatch as a single JSON datagram to a fixed
// host:port target. Datagrams are fire-and-forget; delivery is not
// acknowledged.
type UDPSink struct {
	name string
	addr string

	mu   sync.Mutex
	conn net.Conn
}

// NewUDPSink dials the UDP target at addr (host:port). Dialing
// resolves the address but sends nothing.
func NewUDPSink(name, addr string) (*UDPSink, error) {
	if name == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: sink name", errors.ErrMissingConfig),
			"UDPSink", "NewUDPSink", "validate name")
	}
	if addr == "" {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: target address", errors.ErrMissingConfig),
			"UDPSink", "NewUDPSink", "validate address")
	}

	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, errors.WrapTransient(err, "UDPSink", "NewUDPSink", "dial target")
	}

	return &UDPSink{name: name, addr: addr, conn: conn}, nil
}

// Name returns the sink name.
func (s *UDPSink) Name() string { return s.name }

// Addr returns the dialed target address.
func (s *UDPSink) Addr() string { return s.addr }

// Send marshals d and writes it as one datagram. A ctx deadline is
// applied to the write.
func (s *UDPSink) Send(ctx context.Context, d *Dispatch) error {
	if err := ctx.Err(); err != nil {
		return errors.WrapTransient(err, "UDPSink", "Send", "check context")
	}

	data, err := json.Marshal(d)
	if err != nil {
		return errors.WrapInvalid(err, "UDPSink", "Send", "marshal dispatch")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return errors.ErrNoConnection
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Time{}
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return errors.WrapTransient(err, "UDPSink", "Send", "set write deadline")
	}

	if _, err := s.conn.Write(data); err != nil {
		return errors.WrapTransient(
			fmt.Errorf("%w: %v", errors.ErrPublishFailed, err),
			"UDPSink", "Send", "write datagram")
	}
	return nil
}

// Close releases the socket. Further sends fail with ErrNoConnection.
func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn = nil
	if err != nil {
		return errors.Wrap(err, "UDPSink", "Close", "close socket")
	}
	return nil
}

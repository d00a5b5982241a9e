// Package replay re-drives recorded envelope sequences through a live
// ingress endpoint, and captures dispatched envelopes for later export.
package replay

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
)

// Frame is one replayable record: an envelope kind plus its raw
// payload. The on-disk shape matches the journal format, but the
// reader is independent of any journal instance.
type Frame struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ReadFrames loads a line-delimited JSON frame file, validating every
// record before returning. A single malformed or invalid record aborts
// the whole read with no partial results; a corrupt fixture should
// fail loudly, not play back half a session. The source file is never
// modified, so repeated reads return identical sequences.
func ReadFrames(path string) ([]Frame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if stderrors.Is(err, fs.ErrNotExist) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("frame file %q does not exist", path),
				"Replay", "ReadFrames", "open frame file")
		}
		return nil, errors.Wrap(err, "Replay", "ReadFrames", "read frame file")
	}

	var frames []Frame
	for i, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}

		var frame Frame
		if err := json.Unmarshal([]byte(line), &frame); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: line %d: %v", errors.ErrParsingFailed, i+1, err),
				"Replay", "ReadFrames", "parse frame")
		}
		if err := envelope.AssertValid(frame.Kind, frame.Payload); err != nil {
			return nil, errors.WrapInvalid(
				fmt.Errorf("line %d: %w", i+1, err),
				"Replay", "ReadFrames", "validate frame")
		}

		frames = append(frames, frame)
	}

	return frames, nil
}

// SendFrames dials the endpoint once and transmits every frame in
// order, counting acknowledgement responses. The operation completes
// when acknowledgements received equals frames sent; acknowledgement
// content is not inspected, so out-of-order acks are tolerated. Any
// connection error aborts the replay immediately. There is no retry
// and no implicit deadline; cancel ctx to bound the operation.
func SendFrames(ctx context.Context, endpoint string, frames []Frame) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return errors.WrapTransient(err, "Replay", "SendFrames", "dial endpoint")
	}
	defer conn.Close()

	g, gctx := errgroup.WithContext(ctx)

	// Closing the connection on group cancellation unblocks whichever
	// side is stuck in a read or write.
	go func() {
		<-gctx.Done()
		conn.Close()
	}()

	g.Go(func() error {
		for i := 0; i < len(frames); i++ {
			data, err := json.Marshal(frames[i])
			if err != nil {
				return errors.WrapInvalid(err, "Replay", "SendFrames", "encode frame")
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				if ctx.Err() != nil {
					return errors.WrapTransient(ctx.Err(), "Replay", "SendFrames", "send frame")
				}
				return errors.WrapTransient(
					fmt.Errorf("frame %d: %w", i+1, err),
					"Replay", "SendFrames", "send frame")
			}
		}
		return nil
	})

	g.Go(func() error {
		for acked := 0; acked < len(frames); acked++ {
			if _, _, err := conn.ReadMessage(); err != nil {
				if ctx.Err() != nil {
					return errors.WrapTransient(ctx.Err(), "Replay", "SendFrames", "await acknowledgement")
				}
				return errors.WrapTransient(
					fmt.Errorf("after %d of %d acknowledgements: %w", acked, len(frames), err),
					"Replay", "SendFrames", "await acknowledgement")
			}
		}
		return nil
	})

	return g.Wait()
}

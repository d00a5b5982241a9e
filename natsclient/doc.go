// Package natsclient wraps the NATS Go client with connection status
// tracking, failure counting, and lifecycle management for signal bus
// publishers.
//
// # Basic Usage
//
// Create a client, connect, publish:
//
//	client, err := natsclient.NewClient("nats://localhost:4222",
//	    natsclient.WithName("signalbus"),
//	)
//	if err != nil {
//	    return err
//	}
//
//	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
//	defer cancel()
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(context.Background())
//
//	err = client.Publish(ctx, "signal.dispatch", data)
//
// Publish on a disconnected client returns errors.ErrNoConnection; the
// caller decides whether that is fatal. Reconnection is handled by the
// underlying NATS client and reflected in Status.
//
// # Testing
//
// NewTestClient starts a disposable NATS server container and returns
// a connected client, with cleanup registered on the test:
//
//	tc := natsclient.NewTestClient(t)
//	err := tc.Client.Publish(ctx, "test.subject", data)
package natsclient

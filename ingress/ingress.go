// Package ingress terminates inbound telemetry WebSocket connections,
// validating every message in place and answering each with a
// structured acknowledgement.
package ingress

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/errors"
	"github.com/c360/signalbus/health"
	"github.com/c360/signalbus/metric"
	"github.com/c360/signalbus/pkg/buffer"
)

// readDeadline bounds each blocking read so connection goroutines
// notice shutdown promptly.
const readDeadline = 1 * time.Second

// drainTimeout bounds queue draining during shutdown.
const drainTimeout = 5 * time.Second

// Handler consumes validated envelopes dequeued from the dispatch
// queue. Handlers run on the server's processing goroutine; slow work
// belongs behind the handler, not in it.
type Handler func(ctx context.Context, env *envelope.Envelope)

// Server accepts WebSocket connections and validates every inbound
// frame against its kind's schema. Each message is answered in place:
// valid frames with an ok acknowledgement echoing the minimal view,
// invalid ones with an error response that leaves the connection open.
// Valid envelopes are additionally queued for the dispatch handler;
// the server itself persists nothing.
type Server struct {
	config  Config
	logger  *slog.Logger
	handler Handler

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader
	clients    map[string]*websocket.Conn
	clientsMu  sync.RWMutex

	queue *buffer.Queue[*envelope.Envelope]

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}
	doneOnce     sync.Once
	started      atomic.Bool
	startTime    time.Time
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	lifecycleMu  sync.Mutex

	messagesReceived int64
	messagesAccepted int64
	messagesRejected int64
	connectionsTotal int64
	lastActivity     atomic.Value // time.Time
	lastError        atomic.Value // string
	errorCount       atomic.Int64

	metrics         *Metrics
	metricsRegistry *metric.MetricsRegistry
}

// Stats reports ingress activity counters.
type Stats struct {
	MessagesReceived  int64 `json:"messages_received"`
	MessagesAccepted  int64 `json:"messages_accepted"`
	MessagesRejected  int64 `json:"messages_rejected"`
	ConnectionsTotal  int64 `json:"connections_total"`
	ConnectionsActive int   `json:"connections_active"`
	QueueDepth        int   `json:"queue_depth"`
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for server activity.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithHandler sets the dispatch handler for validated envelopes.
func WithHandler(handler Handler) Option {
	return func(s *Server) {
		s.handler = handler
	}
}

// WithMetricsRegistry enables Prometheus metrics for the server and
// its dispatch queue.
func WithMetricsRegistry(registry *metric.MetricsRegistry) Option {
	return func(s *Server) {
		s.metrics = newMetrics(registry)
		s.metricsRegistry = registry
	}
}

// New creates an ingress server from config.
func New(config Config, opts ...Option) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config:   config,
		logger:   slog.Default(),
		clients:  make(map[string]*websocket.Conn),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(_ *http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "ingress")

	queueOpts := []buffer.Option[*envelope.Envelope]{
		buffer.WithOverflowPolicy[*envelope.Envelope](buffer.DropOldest),
		buffer.WithDropCallback[*envelope.Envelope](func(env *envelope.Envelope) {
			s.logger.Warn("Dispatch queue full, dropping oldest envelope", "kind", env.Kind)
			s.trackError("queue_overflow")
		}),
	}
	if s.metricsRegistry != nil {
		queueOpts = append(queueOpts,
			buffer.WithMetrics[*envelope.Envelope](s.metricsRegistry, "ingress"))
	}

	queue, err := buffer.New(config.QueueCapacity, queueOpts...)
	if err != nil {
		return nil, errors.WrapFatal(err, "Ingress", "New", "create dispatch queue")
	}
	s.queue = queue

	return s, nil
}

// Start binds the listen address and begins accepting connections.
// The bind happens synchronously so configuration errors surface here
// rather than in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.started.Load() {
		return errors.WrapFatal(
			errors.ErrAlreadyStarted,
			"Ingress",
			"Start",
			"check started state",
		)
	}

	// Component context (local variable, not stored)
	componentCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	listener, err := net.Listen("tcp", fmt.Sprintf("%s:%d", s.config.Host, s.config.Port))
	if err != nil {
		cancel()
		return errors.WrapFatal(err, "Ingress", "Start", "bind listen address")
	}
	s.listener = listener

	mux := http.NewServeMux()
	// Wrap handleWebSocket in closure to pass context
	mux.HandleFunc(s.config.Path, func(w http.ResponseWriter, r *http.Request) {
		s.handleWebSocket(componentCtx, w, r)
	})
	s.httpServer = &http.Server{Handler: mux}

	// Dispatch processor goroutine (captures componentCtx)
	s.wg.Add(1)
	go s.processMessages(componentCtx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.trackError("server_error")
			s.logger.Error("Server terminated", "error", err)
		}
	}()

	s.startTime = time.Now()
	s.started.Store(true)
	s.logger.Info("Ingress listening",
		"address", listener.Addr().String(),
		"path", s.config.Path,
	)
	return nil
}

// Stop shuts the server down, draining queued envelopes to the
// handler before closing the queue.
func (s *Server) Stop(timeout time.Duration) error {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.started.Load() {
		return nil // Already stopped
	}

	// Signal shutdown exactly once
	s.shutdownOnce.Do(func() {
		close(s.shutdown)
	})
	s.cancel()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	_ = s.httpServer.Shutdown(ctx)

	// Close all client connections so blocked reads return
	s.clientsMu.Lock()
	for _, conn := range s.clients {
		conn.Close()
	}
	s.clients = make(map[string]*websocket.Conn)
	s.clientsMu.Unlock()

	// Wait for goroutines with timeout
	doneCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(doneCh)
	}()

	select {
	case <-doneCh:
		// Clean shutdown
	case <-time.After(timeout):
		return errors.WrapTransient(
			fmt.Errorf("shutdown timeout after %v", timeout),
			"Ingress",
			"Stop",
			"wait for goroutines",
		)
	}

	// Close queue after goroutines have stopped
	_ = s.queue.Close()

	s.doneOnce.Do(func() {
		close(s.done)
	})
	s.started.Store(false)
	return nil
}

// Addr returns the bound listen address, valid after Start. Useful
// when the configured port is 0.
func (s *Server) Addr() string {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) handleWebSocket(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.trackError("upgrade_error")
		return
	}

	conn.SetReadLimit(s.config.MaxMessageBytes)

	clientID := uuid.NewString()
	s.clientsMu.Lock()
	s.clients[clientID] = conn
	s.clientsMu.Unlock()

	atomic.AddInt64(&s.connectionsTotal, 1)
	if s.metrics != nil {
		s.metrics.connectionsActive.Inc()
		s.metrics.connectionsTotal.Inc()
	}
	s.logger.Debug("Client connected", "client_id", clientID, "remote", r.RemoteAddr)

	// Handle client connection (captures ctx from closure)
	s.wg.Add(1)
	go s.handleClient(ctx, clientID, conn)
}

// handleClient reads frames from a connection, validating and
// answering each one in place. Responses go out in arrival order
// because the loop is strictly read, validate, respond.
func (s *Server) handleClient(ctx context.Context, clientID string, conn *websocket.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.clientsMu.Lock()
		delete(s.clients, clientID)
		s.clientsMu.Unlock()
		if s.metrics != nil {
			s.metrics.connectionsActive.Dec()
		}
	}()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		default:
			// Deadline before each read keeps the loop responsive to
			// shutdown
			conn.SetReadDeadline(time.Now().Add(readDeadline))

			_, message, err := conn.ReadMessage()
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue // Check shutdown signal on next iteration
				}
				if websocket.IsCloseError(err,
					websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					s.logger.Debug("Client disconnected", "client_id", clientID)
					return
				}
				s.trackError("read_error")
				return
			}

			atomic.AddInt64(&s.messagesReceived, 1)
			s.lastActivity.Store(time.Now())

			resp := s.processFrame(message)
			if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
				s.trackError("write_error")
				return
			}
		}
	}
}

// frameResponse is the per-message acknowledgement written back on
// the connection.
type frameResponse struct {
	Status  string          `json:"status"`
	Kind    string          `json:"kind,omitempty"`
	Minimal json.RawMessage `json:"minimal,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// processFrame validates a single inbound frame and returns the
// response to write back. Valid envelopes are queued for the dispatch
// handler; the ok response echoes the payload untransformed.
func (s *Server) processFrame(message []byte) []byte {
	env, err := envelope.ParseEnvelope(message)
	if err != nil {
		return s.reject("parse_error", err)
	}
	if len(env.Payload) == 0 {
		return s.reject("parse_error",
			fmt.Errorf("%w: missing payload", errors.ErrParsingFailed))
	}

	if s.metrics != nil {
		s.metrics.messagesReceived.WithLabelValues(env.Kind).Inc()
	}

	if err := envelope.AssertValid(env.Kind, env.Payload); err != nil {
		return s.reject("validation_error", err)
	}

	// Queue for dispatch. Overflow drops the oldest envelope, never
	// the acknowledgement.
	if err := s.queue.Write(env); err != nil {
		s.trackError("enqueue_error")
	}

	atomic.AddInt64(&s.messagesAccepted, 1)
	if s.metrics != nil {
		s.metrics.responses.WithLabelValues("ok").Inc()
	}

	data, _ := json.Marshal(frameResponse{
		Status:  "ok",
		Kind:    env.Kind,
		Minimal: env.Payload,
	})
	return data
}

// reject records a failed frame and builds its error response. The
// connection stays open; rejection is per message, not per client.
func (s *Server) reject(errorType string, err error) []byte {
	atomic.AddInt64(&s.messagesRejected, 1)
	s.lastError.Store(err.Error())
	s.trackError(errorType)
	if s.metrics != nil {
		s.metrics.responses.WithLabelValues("error").Inc()
	}

	data, _ := json.Marshal(frameResponse{
		Status: "error",
		Error:  err.Error(),
	})
	return data
}

// processMessages feeds queued envelopes to the dispatch handler.
func (s *Server) processMessages(ctx context.Context) {
	defer s.wg.Done()
	defer s.drainQueue(ctx)

	// Ticker to prevent busy-waiting when the queue is empty
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			env, ok := s.queue.Read()
			if ok && s.handler != nil {
				s.handler(ctx, env)
			}
		}
	}
}

// drainQueue hands remaining envelopes to the handler during shutdown.
func (s *Server) drainQueue(ctx context.Context) {
	timeout := time.NewTimer(drainTimeout)
	defer timeout.Stop()

	for {
		select {
		case <-timeout.C:
			return
		default:
			env, ok := s.queue.Read()
			if !ok {
				return
			}
			if s.handler != nil {
				s.handler(ctx, env)
			}
		}
	}
}

// trackError increments error counters (both atomic and metrics)
func (s *Server) trackError(errorType string) {
	s.errorCount.Add(1)
	if s.metrics != nil {
		s.metrics.errorsTotal.WithLabelValues(errorType).Inc()
	}
}

// Health reports current server health.
func (s *Server) Health() health.Status {
	started := s.started.Load()

	uptime := time.Duration(0)
	if started && !s.startTime.IsZero() {
		uptime = time.Since(s.startTime)
	}

	lastError := ""
	if v := s.lastError.Load(); v != nil {
		lastError = v.(string)
	}
	lastActivity := time.Time{}
	if v := s.lastActivity.Load(); v != nil {
		lastActivity = v.(time.Time)
	}

	return health.FromReport("ingress", health.Report{
		Healthy:            started,
		LastError:          lastError,
		ErrorCount:         int(s.errorCount.Load()),
		Uptime:             uptime,
		LastActivity:       lastActivity,
		EnvelopesProcessed: atomic.LoadInt64(&s.messagesAccepted),
	})
}

// Stats returns a snapshot of activity counters.
func (s *Server) Stats() Stats {
	s.clientsMu.RLock()
	active := len(s.clients)
	s.clientsMu.RUnlock()

	return Stats{
		MessagesReceived:  atomic.LoadInt64(&s.messagesReceived),
		MessagesAccepted:  atomic.LoadInt64(&s.messagesAccepted),
		MessagesRejected:  atomic.LoadInt64(&s.messagesRejected),
		ConnectionsTotal:  atomic.LoadInt64(&s.connectionsTotal),
		ConnectionsActive: active,
		QueueDepth:        s.queue.Size(),
	}
}

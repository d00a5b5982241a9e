// Package main implements the signal bus daemon. One process carries
// the full telemetry path: WebSocket ingress with per-frame schema
// validation, append-only journaling, a pose sample window, and
// optional bridge fan-out to downstream SDK sinks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/c360/signalbus/bridge"
	"github.com/c360/signalbus/config"
	"github.com/c360/signalbus/envelope"
	"github.com/c360/signalbus/imu"
	"github.com/c360/signalbus/ingress"
	"github.com/c360/signalbus/journal"
	"github.com/c360/signalbus/metric"
	"github.com/c360/signalbus/natsclient"
	"github.com/c360/signalbus/pkg/retry"
	"github.com/c360/signalbus/pkg/timestamp"
	"github.com/c360/signalbus/replay"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "signalbus"
)

func main() {
	// Add panic recovery
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg, shouldExit, err := initializeCLI()
	if shouldExit || err != nil {
		return err
	}

	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := reconcileLogging(cliCfg, cfg)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	ctx := context.Background()
	comps, err := buildComponents(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return runWithSignalHandling(ctx, cliCfg, comps)
}

// initializeCLI parses flags and installs the initial logger
func initializeCLI() (*CLIConfig, bool, error) {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, true, nil
	}

	if cliCfg.ShowHelp {
		printDetailedHelp()
		return nil, true, nil
	}

	slog.SetDefault(setupLogger(cliCfg.LogLevel, cliCfg.LogFormat))

	slog.Info("Starting signal bus",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, false, nil
}

// reconcileLogging applies config-file logging where the CLI left the
// log flags untouched, then reinstalls the default logger.
func reconcileLogging(cliCfg *CLIConfig, cfg *config.Config) *slog.Logger {
	if !flagWasSet("log-level") && !cliCfg.Debug {
		cliCfg.LogLevel = cfg.Logging.Level
	}
	if !flagWasSet("log-format") {
		cliCfg.LogFormat = cfg.Logging.Format
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

// components holds every long-lived piece of the daemon.
type components struct {
	cfg    *config.Config
	logger *slog.Logger

	registry      *metric.MetricsRegistry
	core          *metric.Metrics
	metricsServer *metric.Server

	journal *journal.Journal
	ring    *imu.RingBuffer

	nats        *natsclient.Client
	router      *bridge.Router
	monitor     *bridge.Monitor
	perf        *bridge.PerformanceMonitor
	recorder    *replay.Recorder
	dispatchLog *os.File
	session     bridge.Session

	server *ingress.Server
}

// buildComponents wires the daemon from configuration.
func buildComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*components, error) {
	c := &components{cfg: cfg, logger: logger}

	c.registry = metric.NewMetricsRegistry()
	c.core = c.registry.CoreMetrics()

	if cfg.Metrics.Enabled {
		c.metricsServer = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, c.registry)
	}

	if cfg.Journal.Enabled {
		j, err := journal.New(cfg.Journal.Path, journal.WithLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("create journal: %w", err)
		}
		c.journal = j
	}

	ring, err := imu.NewRingBuffer(cfg.IMU.Capacity)
	if err != nil {
		return nil, fmt.Errorf("create pose buffer: %w", err)
	}
	c.ring = ring

	if cfg.Bridge.Enabled {
		if err := setupBridge(ctx, cfg, logger, c); err != nil {
			return nil, err
		}
	}

	server, err := ingress.New(ingressConfig(cfg),
		ingress.WithLogger(logger),
		ingress.WithMetricsRegistry(c.registry),
		ingress.WithHandler(c.dispatchHandler()),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingress server: %w", err)
	}
	c.server = server

	return c, nil
}

func ingressConfig(cfg *config.Config) ingress.Config {
	return ingress.Config{
		Host:            cfg.Ingress.Host,
		Port:            cfg.Ingress.Port,
		Path:            cfg.Ingress.Path,
		QueueCapacity:   cfg.Ingress.QueueCapacity,
		MaxMessageBytes: cfg.Ingress.MaxMessageBytes,
	}
}

// setupBridge builds the fan-out router and its sinks.
func setupBridge(ctx context.Context, cfg *config.Config, logger *slog.Logger, c *components) error {
	c.monitor = bridge.NewMonitor()
	c.recorder = replay.NewRecorder()

	perf, err := bridge.NewPerformanceMonitor(bridge.DefaultWindowSize)
	if err != nil {
		return fmt.Errorf("create performance monitor: %w", err)
	}
	c.perf = perf

	capabilities := make(map[string]any, len(cfg.Bridge.Capabilities))
	for _, name := range cfg.Bridge.Capabilities {
		capabilities[name] = true
	}
	c.session = bridge.NewSession(uuid.NewString(), cfg.Bridge.SDKSurface, capabilities)
	slog.Info("Bridge session created", "session", c.session.Metadata())

	c.router = bridge.NewRouter(bridge.WithRouterLogger(logger))

	transportOpts := []bridge.TransportOption{
		bridge.WithRateLimit(cfg.Bridge.RateLimit, cfg.Bridge.Burst),
		bridge.WithMonitor(c.monitor),
		bridge.WithTransportMetrics(bridge.NewMetrics(c.registry)),
		bridge.WithRecorder(c.recorder),
		bridge.WithTransportLogger(logger),
	}

	if cfg.Bridge.DispatchLog != "" {
		f, err := os.OpenFile(cfg.Bridge.DispatchLog, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open dispatch log: %w", err)
		}
		c.dispatchLog = f
		transportOpts = append(transportOpts, bridge.WithDispatchLog(bridge.NewDispatchLog(f)))
	}

	for i, addr := range cfg.Bridge.UDPTargets {
		sink, err := bridge.NewUDPSink(fmt.Sprintf("udp-%d", i), addr)
		if err != nil {
			return fmt.Errorf("create UDP sink %s: %w", addr, err)
		}
		if err := c.router.AddSink(bridge.NewTransport(sink, transportOpts...)); err != nil {
			return fmt.Errorf("register UDP sink %s: %w", addr, err)
		}
	}

	if cfg.Bridge.NATSSubject != "" {
		client, err := natsclient.NewClient(cfg.NATS.URL,
			natsclient.WithName(appName),
			natsclient.WithMaxReconnects(cfg.NATS.MaxReconnects),
			natsclient.WithReconnectWait(cfg.NATS.ReconnectWait),
			natsclient.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("create NATS client: %w", err)
		}
		err = retry.Do(ctx, retry.Startup(), func() error {
			return client.Connect(ctx)
		})
		if err != nil {
			return fmt.Errorf("connect to NATS: %w", err)
		}
		c.nats = client

		sink, err := bridge.NewNATSSink("nats", cfg.Bridge.NATSSubject, client)
		if err != nil {
			return fmt.Errorf("create NATS sink: %w", err)
		}
		if err := c.router.AddSink(bridge.NewTransport(sink, transportOpts...)); err != nil {
			return fmt.Errorf("register NATS sink: %w", err)
		}
	}

	slog.Info("Bridge configured",
		"sinks", c.router.Sinks(),
		"rate_limit", cfg.Bridge.RateLimit,
		"burst", cfg.Bridge.Burst)

	return nil
}

// dispatchHandler fans each validated envelope out to the journal, the
// pose buffer, and the bridge.
func (c *components) dispatchHandler() ingress.Handler {
	return func(ctx context.Context, env *envelope.Envelope) {
		c.core.RecordEnvelopeReceived(appName, env.Kind)

		if c.journal != nil {
			if err := c.journal.Append(journal.FromEnvelope(env)); err != nil {
				c.logger.Error("Journal append failed", "kind", env.Kind, "error", err)
				c.core.RecordJournalAppend(appName, "error")
			} else {
				c.core.RecordJournalAppend(appName, "ok")
			}
		}

		if sample, ok := poseSample(env); ok {
			if err := c.ring.Push(sample); err != nil {
				c.logger.Warn("Pose sample rejected", "kind", env.Kind, "error", err)
			}
		}

		if c.router != nil {
			if err := c.router.Dispatch(ctx, env.Kind, env.Payload, c.session); err != nil {
				c.logger.Warn("Bridge dispatch failed", "kind", env.Kind, "error", err)
			}
			if _, err := c.perf.Ingest(env.Kind, env.Payload, c.session); err != nil {
				c.logger.Warn("Latency sample rejected", "kind", env.Kind, "error", err)
			}
		}
	}
}

// poseSample extracts a pose quaternion from envelope kinds that carry
// one. Sample timestamps are receipt time, so the buffer sees a single
// monotonic clock regardless of producer clock skew.
func poseSample(env *envelope.Envelope) (imu.Sample, bool) {
	var quaternion []float64

	switch env.Kind {
	case envelope.KindEvent:
		var payload struct {
			Payload struct {
				HoloFrame *struct {
					Quaternion []float64 `json:"quaternion"`
				} `json:"HOLO_FRAME"`
			} `json:"payload"`
		}
		if json.Unmarshal(env.Payload, &payload) != nil || payload.Payload.HoloFrame == nil {
			return imu.Sample{}, false
		}
		quaternion = payload.Payload.HoloFrame.Quaternion

	case envelope.KindHoloFrame:
		var payload struct {
			Frame struct {
				Quaternion []float64 `json:"quaternion"`
			} `json:"frame"`
		}
		if json.Unmarshal(env.Payload, &payload) != nil {
			return imu.Sample{}, false
		}
		quaternion = payload.Frame.Quaternion

	case envelope.KindHoloIntent:
		var payload struct {
			Alignment struct {
				Quaternion []float64 `json:"quaternion"`
			} `json:"alignment"`
		}
		if json.Unmarshal(env.Payload, &payload) != nil {
			return imu.Sample{}, false
		}
		quaternion = payload.Alignment.Quaternion

	default:
		return imu.Sample{}, false
	}

	if len(quaternion) != 4 {
		return imu.Sample{}, false
	}

	sample := imu.Sample{TS: timestamp.Now()}
	copy(sample.Quaternion[:], quaternion)
	return sample, true
}

// runWithSignalHandling starts everything and blocks until a shutdown
// signal arrives.
func runWithSignalHandling(ctx context.Context, cliCfg *CLIConfig, c *components) error {
	signalCtx, signalCancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	if c.metricsServer != nil {
		// Start blocks, so it gets its own goroutine
		go func() {
			if err := c.metricsServer.Start(); err != nil {
				slog.Error("Metrics server failed", "error", err)
			}
		}()
		slog.Info("Metrics server starting", "address", c.metricsServer.Address())
	}

	if err := c.server.Start(signalCtx); err != nil {
		return fmt.Errorf("start ingress server: %w", err)
	}

	c.core.RecordServiceStatus(appName, 2)
	go c.healthLoop(signalCtx)

	slog.Info("Signal bus started", "ingress", c.server.Addr(), "path", c.cfg.Ingress.Path)

	<-signalCtx.Done()
	slog.Info("Received shutdown signal")

	return c.shutdown(cliCfg.ShutdownTimeout)
}

// healthLoop periodically records component health and NATS liveness.
func (c *components) healthLoop(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status := c.server.Health()
			c.core.RecordHealthStatus("ingress", status.IsHealthy())
			if !status.IsHealthy() {
				c.logger.Warn("Component unhealthy",
					"component", status.Component, "message", status.Message)
			}

			if c.monitor != nil {
				bridgeStatus := c.monitor.Health()
				c.core.RecordHealthStatus("bridge", bridgeStatus.IsHealthy())
				if bridgeStatus.IsUnhealthy() {
					c.logger.Warn("Component unhealthy",
						"component", bridgeStatus.Component, "message", bridgeStatus.Message)
				}
			}

			if c.nats != nil {
				c.core.RecordNATSStatus(c.nats.IsConnected())
				if rtt, err := c.nats.RTT(); err == nil {
					c.core.RecordNATSRTT(rtt)
				}
			}
		}
	}
}

// shutdown stops components in reverse start order, reporting the
// first failure but attempting every stop.
func (c *components) shutdown(timeout time.Duration) error {
	c.core.RecordServiceStatus(appName, 3)

	var firstErr error
	if err := c.server.Stop(timeout); err != nil {
		firstErr = fmt.Errorf("stop ingress server: %w", err)
	}

	if c.metricsServer != nil {
		if err := c.metricsServer.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("stop metrics server: %w", err)
		}
	}

	if c.nats != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), timeout)
		if err := c.nats.Close(closeCtx); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close NATS client: %w", err)
		}
		cancel()
	}

	if c.dispatchLog != nil {
		if err := c.dispatchLog.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close dispatch log: %w", err)
		}
	}

	if firstErr != nil {
		c.core.RecordServiceStatus(appName, 4)
		return firstErr
	}

	c.core.RecordServiceStatus(appName, 0)
	slog.Info("Signal bus shutdown complete")
	return nil
}

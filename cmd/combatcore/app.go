package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/pvpguard/combatcore/internal/cache"
	"github.com/pvpguard/combatcore/internal/config"
	"github.com/pvpguard/combatcore/internal/dispatcher"
	"github.com/pvpguard/combatcore/internal/effects"
	"github.com/pvpguard/combatcore/internal/handlers"
	"github.com/pvpguard/combatcore/internal/influx"
	"github.com/pvpguard/combatcore/internal/logging"
	"github.com/pvpguard/combatcore/internal/monitor"
	intOtel "github.com/pvpguard/combatcore/internal/otel"
	"github.com/pvpguard/combatcore/internal/parser"
	"github.com/pvpguard/combatcore/internal/reach"
	"github.com/pvpguard/combatcore/internal/session"
	"github.com/pvpguard/combatcore/internal/storage"
	"github.com/pvpguard/combatcore/internal/storage/websocket"
	"github.com/pvpguard/combatcore/pkg/hostbridge"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// app owns every long-lived component. Fields are closed in reverse order of
// construction by shutdown.
type app struct {
	started time.Time
	logFile *os.File
	slog    *logging.SlogManager
	logger  *slog.Logger
	otel    *intOtel.Provider

	actors     *cache.ActorCache
	session    *session.Context
	backend    storage.Backend
	influx     *influx.Sink
	ws         *websocket.Sink
	dispatcher *dispatcher.Dispatcher
	monitor    *monitor.Service
}

func newApp(configDir string) (*app, error) {
	a := &app{started: time.Now(), slog: logging.NewSlogManager()}

	configErr := config.Load(configDir)
	if err := a.setupLogging(); err != nil {
		a.shutdown()
		return nil, err
	}
	if configErr != nil {
		a.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		a.logger.Info("Loaded config")
	}

	if err := a.build(); err != nil {
		a.logger.Error("Startup failed", "error", err)
		a.shutdown()
		return nil, err
	}
	a.logger.Info("combatcore ready",
		"version", CurrentVersion,
		"commands", a.dispatcher.Commands(),
		"storage", config.GetStorageConfig().Type)
	return a, nil
}

// setupLogging opens the session log file and wires OTel and Graylog. Stdout
// belongs to the host bridge, so nothing is logged there.
func (a *app) setupLogging() error {
	logsDir := config.GetString("logsDir")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}
	path := logging.LogFilePath(logsDir, logging.ServiceName, a.started)
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}
	a.logFile = f

	var opts []logging.Option
	gl := config.GetGraylogConfig()
	var graylogErr error
	if gl.Enabled {
		w, err := a.slog.ConnectGraylog(gl.Address)
		if err != nil {
			graylogErr = err
		} else {
			opts = append(opts, logging.WithWriter(w))
		}
	}
	opts = append(opts, logging.WithContext(a.logContext))

	oc := config.GetOTelConfig()
	a.otel, err = intOtel.New(intOtel.Config{
		Enabled:      oc.Enabled,
		ServiceName:  oc.ServiceName,
		BatchTimeout: oc.BatchTimeout,
		LogWriter:    f,
		Endpoint:     oc.Endpoint,
		Insecure:     oc.Insecure,
	})
	if err != nil {
		return fmt.Errorf("initializing otel: %w", err)
	}

	a.slog.Setup(f, config.GetString("logLevel"), a.otel.LoggerProvider(), opts...)
	a.logger = a.slog.Logger()
	a.logger.Info("Logging to file", "path", path)
	if graylogErr != nil {
		a.logger.Error("Failed to connect to Graylog", "error", graylogErr, "address", gl.Address)
	}
	return nil
}

// logContext adds the live settings revision and actor count to every record.
func (a *app) logContext() []slog.Attr {
	var attrs []slog.Attr
	if a.session != nil {
		attrs = append(attrs, slog.Uint64("revision", a.session.Current().Revision))
	}
	if a.actors != nil {
		attrs = append(attrs, slog.Int("actors", a.actors.Len()))
	}
	return attrs
}

func (a *app) componentLogger(component string) zerolog.Logger {
	return zerolog.New(a.logFile).With().Timestamp().Str("component", component).Logger()
}

func (a *app) build() error {
	snap, err := session.Build(config.GetReachConfig(), config.GetVelocityConfig())
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	a.session = session.NewContext(snap)
	a.actors = cache.NewActorCache()

	validator, err := reach.NewValidator(a.actors, a.actors)
	if err != nil {
		return err
	}

	a.backend, err = storage.NewBackend(config.GetStorageConfig(), a.componentLogger("storage"))
	if err != nil {
		return err
	}
	if err := a.backend.Init(); err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	audit := a.auditSinks()
	history, _ := a.backend.(storage.AuditReader)

	a.dispatcher, err = dispatcher.New(logging.NewDispatcherLogger(a.componentLogger("dispatcher")))
	if err != nil {
		return err
	}

	handlers.NewService(handlers.Dependencies{
		Validator:      validator,
		Actors:         a.actors,
		Session:        a.session,
		Effects:        effects.New(a.backend, a.session, a.logger),
		Parser:         parser.NewParser(a.logger),
		Audit:          audit,
		RecordAccepted: config.GetAuditConfig().RecordAccepted,
		History:        history,
		Reload:         reloadSettings,
		LogManager:     a.slog,
		Logger:         a.logger,
		Version:        CurrentVersion,
	}).Register(a.dispatcher)

	deps := monitor.Dependencies{
		Logger:     a.logger,
		Validator:  validator,
		Actors:     a.actors,
		Dispatcher: a.dispatcher,
		Interval:   config.GetDuration("statusInterval"),
		ActorTTL:   config.GetDuration("actorTTL"),
		StatusFile: config.GetString("statusFile"),
	}
	if q, ok := a.backend.(interface{ QueueLen() int }); ok {
		deps.AuditQueue = q.QueueLen
	}
	a.monitor = monitor.NewService(deps)
	return nil
}

// auditSinks combines the storage backend with the optional Influx and
// websocket sinks. Optional sinks that fail to start are skipped.
func (a *app) auditSinks() storage.AuditSink {
	sinks := storage.MultiSink{a.backend}
	ac := config.GetAuditConfig()

	if ac.Influx.Enabled {
		s := influx.New(ac.Influx, a.componentLogger("influx"))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := s.Connect(ctx)
		cancel()
		if err != nil {
			a.logger.Error("Failed to set up InfluxDB audit sink", "error", err)
		} else {
			a.influx = s
			sinks = append(sinks, s)
		}
	}

	if ac.WebSocket.Enabled {
		s := websocket.New(websocket.Config{URL: ac.WebSocket.URL, Secret: ac.WebSocket.Secret}, a.logger)
		if err := s.Init(); err != nil {
			a.logger.Error("Failed to connect verdict stream", "error", err, "url", ac.WebSocket.URL)
		} else {
			a.ws = s
			sinks = append(sinks, s)
		}
	}

	if len(sinks) == 1 {
		return a.backend
	}
	return sinks
}

func reloadSettings() (session.Snapshot, error) {
	if err := config.Reload(); err != nil {
		return session.Snapshot{}, err
	}
	return session.Build(config.GetReachConfig(), config.GetVelocityConfig())
}

// serve runs the host bridge until in is exhausted or ctx is cancelled.
func (a *app) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bridge := hostbridge.New(a.dispatcher, out)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := bridge.Serve(gctx, in)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		a.monitor.Start()
		<-gctx.Done()
		a.monitor.Stop()
		return nil
	})

	err := g.Wait()
	a.monitor.Report()
	a.logger.Info("Host bridge closed", "uptime", time.Since(a.started).Round(time.Second))
	return err
}

// shutdown drains queues and releases resources. Safe on a partially built app.
func (a *app) shutdown() {
	if a.dispatcher != nil {
		a.dispatcher.Close()
		a.dispatcher = nil
	}
	if a.ws != nil {
		if err := a.ws.Close(); err != nil {
			a.logger.Error("Error closing verdict stream", "error", err)
		}
		a.ws = nil
	}
	if a.influx != nil {
		if err := a.influx.Close(); err != nil {
			a.logger.Error("Error closing InfluxDB sink", "error", err)
		}
		a.influx = nil
	}
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Error("Error closing storage", "error", err)
		}
		a.backend = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.slog.Close(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "combatcore: flushing logs:", err)
	}
	if a.otel != nil {
		_ = a.otel.Shutdown(ctx)
		a.otel = nil
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/Graylog2/go-gelf/gelf"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	sdklog "go.opentelemetry.io/otel/sdk/log"
)

// ServiceName identifies this process in OTel and GELF records.
const ServiceName = "combatcore"

// console is where records go when no log file is configured.
var console io.Writer = os.Stdout

// SlogManager manages slog-based logging with optional OTel and GELF sinks.
type SlogManager struct {
	logger *slog.Logger

	// OTel provider for flushing
	logProvider *sdklog.LoggerProvider
	gelf        *gelf.Writer
}

// Option customises Setup.
type Option func(*setupOptions)

type setupOptions struct {
	extra   []io.Writer
	context ContextProvider
}

// WithWriter adds a JSON sink next to the console/file handler.
func WithWriter(w io.Writer) Option {
	return func(o *setupOptions) {
		if w != nil {
			o.extra = append(o.extra, w)
		}
	}
}

// WithContext attaches attributes computed on every record.
func WithContext(p ContextProvider) Option {
	return func(o *setupOptions) { o.context = p }
}

// NewSlogManager creates a new slog-based logging manager.
func NewSlogManager() *SlogManager {
	return &SlogManager{}
}

// parseLevel converts a string log level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func handlerOptions(lvl slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: lvl,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.UTC().Format(time.RFC3339))
				}
			}
			return a
		},
	}
}

// Setup initializes the logging system. Records go to file when it is set,
// to stdout otherwise. A nil provider disables the OTel bridge.
func (m *SlogManager) Setup(file io.Writer, level string, provider *sdklog.LoggerProvider, opts ...Option) {
	var so setupOptions
	for _, opt := range opts {
		opt(&so)
	}

	lvl := parseLevel(level)
	m.logProvider = provider
	hopts := handlerOptions(lvl)

	var handlers []slog.Handler
	if file != nil {
		handlers = append(handlers, slog.NewTextHandler(file, hopts))
	} else {
		handlers = append(handlers, slog.NewTextHandler(console, hopts))
	}
	for _, w := range so.extra {
		handlers = append(handlers, slog.NewJSONHandler(w, hopts))
	}
	if provider != nil {
		handlers = append(handlers, otelslog.NewHandler(ServiceName, otelslog.WithLoggerProvider(provider)))
	}

	var root slog.Handler = NewMultiHandler(handlers...)
	if so.context != nil {
		root = NewContextHandler(root, so.context)
	}

	m.logger = slog.New(root)
	m.logger.Info("Logging initialized", "level", lvl.String())
}

// ConnectGraylog dials a UDP GELF writer. Pass the result to Setup with
// WithWriter; Close releases it.
func (m *SlogManager) ConnectGraylog(address string) (io.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, err
	}
	w.Facility = ServiceName
	m.gelf = w
	return w, nil
}

// Logger returns the configured slog.Logger.
func (m *SlogManager) Logger() *slog.Logger {
	if m.logger == nil {
		return slog.Default()
	}
	return m.logger
}

// Flush forces a flush of OTel logs if available.
func (m *SlogManager) Flush(ctx context.Context) error {
	if m.logProvider != nil {
		return m.logProvider.ForceFlush(ctx)
	}
	return nil
}

// Close flushes and releases the GELF connection.
func (m *SlogManager) Close(ctx context.Context) error {
	err := m.Flush(ctx)
	if m.gelf != nil {
		if cerr := m.gelf.Close(); cerr != nil && err == nil {
			err = cerr
		}
		m.gelf = nil
	}
	return err
}

// WriteLog writes a host-originated log line at the given level.
func (m *SlogManager) WriteLog(source, data, level string) {
	if m.logger == nil {
		return
	}
	m.logger.Log(context.Background(), parseLevel(level), data, "source", source)
}

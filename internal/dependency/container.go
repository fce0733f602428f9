// Package dependency wires the harness services from a config.Config.
package dependency

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"toolcore/internal/adapters/transcripts"
	"toolcore/internal/blob"
	"toolcore/internal/config"
	"toolcore/internal/core"
	"toolcore/internal/runner"
	"toolcore/pkg/domain"
	"toolcore/plugins"
)

// Container holds the resolved singletons. Callers use the typed getters and
// never import dig.
type Container struct {
	cfg      *config.Config
	logger   *slog.Logger
	service  *core.Service
	plugins  []core.PluginMetadata
	metrics  *prometheus.Registry
	store    blob.Store
	ledger   domain.RunLedger
	exporter *transcripts.Exporter
	runner   *runner.Runner
	trace    *traceFile
}

func (c *Container) Config() *config.Config                { return c.cfg }
func (c *Container) Logger() *slog.Logger                  { return c.logger }
func (c *Container) Service() *core.Service                { return c.service }
func (c *Container) Plugins() []core.PluginMetadata        { return c.plugins }
func (c *Container) MetricsRegistry() *prometheus.Registry { return c.metrics }
func (c *Container) Blob() blob.Store                      { return c.store }
func (c *Container) Ledger() domain.RunLedger              { return c.ledger }
func (c *Container) Exporter() *transcripts.Exporter       { return c.exporter }
func (c *Container) Runner() *runner.Runner                { return c.runner }

// WriteMetrics writes the Prometheus registry to the configured metrics file
// in text exposition format. It does nothing when no file is configured.
func (c *Container) WriteMetrics() error {
	if c.cfg.MetricsFile == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(c.cfg.MetricsFile, c.metrics); err != nil {
		return fmt.Errorf("write metrics file: %w", err)
	}
	return nil
}

// Close releases the ledger and the trace file.
func (c *Container) Close() error {
	var errs []error
	if c.ledger != nil {
		errs = append(errs, c.ledger.Close())
	}
	if c.trace != nil && c.trace.file != nil {
		errs = append(errs, c.trace.file.Close())
	}
	return errors.Join(errs...)
}

// LogOutput is where the harness logger writes.
type LogOutput struct{ io.Writer }

// traceFile carries the tracer and, when tracing to a file, the handle to close.
type traceFile struct {
	tracer core.Tracer
	file   *os.File
}

// installed is the plugin metadata produced while building the service.
type installed []core.PluginMetadata

// New builds and wires every service from cfg. Log lines go to out, or to
// stderr when out is nil.
func New(cfg *config.Config, out io.Writer) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if out == nil {
		out = os.Stderr
	}
	d := dig.New()

	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() LogOutput { return LogOutput{out} }); err != nil {
		return nil, err
	}
	if err := d.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := d.Provide(prometheus.NewRegistry); err != nil {
		return nil, err
	}
	if err := d.Provide(newMetrics); err != nil {
		return nil, err
	}
	if err := d.Provide(newTracer); err != nil {
		return nil, err
	}
	if err := d.Provide(newService); err != nil {
		return nil, err
	}
	if err := d.Provide(newBlobStore); err != nil {
		return nil, err
	}
	if err := d.Provide(newLedger); err != nil {
		return nil, err
	}
	if err := d.Provide(transcripts.NewExporter); err != nil {
		return nil, err
	}
	if err := d.Provide(newRunner); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		logger *slog.Logger,
		reg *prometheus.Registry,
		trace *traceFile,
		svc *core.Service,
		metas installed,
		store blob.Store,
		ledger domain.RunLedger,
		exporter *transcripts.Exporter,
		r *runner.Runner,
	) {
		result = &Container{
			cfg:      cfg,
			logger:   logger,
			service:  svc,
			plugins:  metas,
			metrics:  reg,
			store:    store,
			ledger:   ledger,
			exporter: exporter,
			runner:   r,
			trace:    trace,
		}
	})
	if err != nil {
		return nil, dig.RootCause(err)
	}
	return result, nil
}

func newLogger(cfg *config.Config, out LogOutput) (*slog.Logger, error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level})), nil
}

func newMetrics(cfg *config.Config, reg *prometheus.Registry) (core.MetricsRecorder, error) {
	switch cfg.Metrics {
	case config.MetricsPrometheus:
		rec, err := core.NewPrometheusMetricsRecorder(reg, "toolcore")
		if err != nil {
			return nil, err
		}
		return rec, nil
	case config.MetricsExpvar:
		return core.NewExpvarMetricsRecorder(""), nil
	default:
		return nil, nil
	}
}

func newTracer(cfg *config.Config) (*traceFile, error) {
	if cfg.TraceFile == "" {
		return &traceFile{}, nil
	}
	f, err := os.OpenFile(cfg.TraceFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	return &traceFile{tracer: core.NewJSONTracer(f), file: f}, nil
}

func newService(cfg *config.Config, logger *slog.Logger, metrics core.MetricsRecorder, trace *traceFile) (*core.Service, installed, error) {
	svc := core.NewService(
		core.WithLogger(logger),
		core.WithMetricsRecorder(metrics),
		core.WithTracer(trace.tracer),
		core.WithDispatchTimeout(cfg.DispatchTimeout),
	)
	metas, err := plugins.Install(svc)
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("plugins installed", "count", len(metas))
	return svc, installed(metas), nil
}

func newBlobStore(cfg *config.Config) (blob.Store, error) {
	return blob.Open(context.Background(), cfg.BlobConfig())
}

func newLedger(cfg *config.Config) (domain.RunLedger, error) {
	return core.OpenRunLedger(cfg.LedgerConfig())
}

func newRunner(cfg *config.Config, svc *core.Service, logger *slog.Logger, ledger domain.RunLedger, exporter *transcripts.Exporter) *runner.Runner {
	return runner.New(svc,
		runner.WithLedger(ledger),
		runner.WithSink(exporter),
		runner.WithLogger(logger),
		runner.WithConcurrency(cfg.Concurrency),
	)
}

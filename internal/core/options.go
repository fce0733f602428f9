package core

import "time"

type options struct {
	logger          Logger
	metrics         MetricsRecorder
	tracer          Tracer
	clock           Clock
	dispatchTimeout time.Duration
}

func defaultOptions() options {
	return options{
		logger:  noopLogger{},
		metrics: noopMetrics{},
		tracer:  noopTracer{},
		clock:   ClockFunc(func() time.Time { return time.Now().UTC() }),
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// Option configures a Service or Dispatcher.
type Option func(*options)

// WithLogger sets the structured logger. Nil keeps the no-op logger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetricsRecorder sets the dispatch metrics recorder.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithTracer sets the dispatch tracer.
func WithTracer(t Tracer) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
	}
}

// WithClock sets the time source handed to every store the service creates.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithDispatchTimeout bounds the wall-clock time of a single handler. A handler
// that overruns has its transaction rolled back and reports Internal.
func WithDispatchTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.dispatchTimeout = d
		}
	}
}

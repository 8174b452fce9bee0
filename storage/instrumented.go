package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/inho1628/korea-community-website/storage"

type kvMetrics struct {
	ops      metric.Int64Counter
	duration metric.Float64Histogram
	errors   metric.Int64Counter
	bytes    metric.Int64Histogram
}

func newKVMetrics(meter metric.Meter) *kvMetrics {
	ops, _ := meter.Int64Counter("board.kv.operations",
		metric.WithDescription("Key-value operations executed"),
		metric.WithUnit("{operation}"),
	)
	duration, _ := meter.Float64Histogram("board.kv.duration",
		metric.WithDescription("Key-value operation duration in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(1, 5, 10, 25, 50, 100, 250, 500, 1000),
	)
	errs, _ := meter.Int64Counter("board.kv.errors",
		metric.WithDescription("Key-value operations that failed"),
		metric.WithUnit("{error}"),
	)
	size, _ := meter.Int64Histogram("board.kv.document.size",
		metric.WithDescription("Size of documents read and written"),
		metric.WithUnit("By"),
	)
	return &kvMetrics{ops: ops, duration: duration, errors: errs, bytes: size}
}

// Instrumented wraps a KV with tracing, metrics and slow-operation logging.
type Instrumented struct {
	next    KV
	backend string
	logger  *slog.Logger
	tracer  trace.Tracer
	metrics *kvMetrics
	slow    time.Duration
}

// InstrumentOption configures an Instrumented store.
type InstrumentOption func(*Instrumented)

// WithLogger sets the logger for failed and slow operations.
func WithLogger(logger *slog.Logger) InstrumentOption {
	return func(i *Instrumented) {
		i.logger = logger
	}
}

// WithTracer overrides the global tracer.
func WithTracer(tracer trace.Tracer) InstrumentOption {
	return func(i *Instrumented) {
		i.tracer = tracer
	}
}

// WithMeter overrides the global meter.
func WithMeter(meter metric.Meter) InstrumentOption {
	return func(i *Instrumented) {
		i.metrics = newKVMetrics(meter)
	}
}

// WithSlowThreshold sets when an operation is logged as slow.
func WithSlowThreshold(d time.Duration) InstrumentOption {
	return func(i *Instrumented) {
		i.slow = d
	}
}

// Instrument wraps next. backend names the engine in spans and metrics.
func Instrument(next KV, backend string, opts ...InstrumentOption) *Instrumented {
	i := &Instrumented{
		next:    next,
		backend: backend,
		logger:  slog.Default(),
		tracer:  otel.Tracer(instrumentationName),
		metrics: newKVMetrics(otel.Meter(instrumentationName)),
		slow:    200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := i.observe(ctx, "get", key, func(ctx context.Context) error {
		var err error
		value, err = i.next.Get(ctx, key)
		return err
	}, func() int { return len(value) })
	return value, err
}

func (i *Instrumented) Set(ctx context.Context, key string, value []byte) error {
	return i.observe(ctx, "set", key, func(ctx context.Context) error {
		return i.next.Set(ctx, key, value)
	}, func() int { return len(value) })
}

func (i *Instrumented) Remove(ctx context.Context, key string) error {
	return i.observe(ctx, "remove", key, func(ctx context.Context) error {
		return i.next.Remove(ctx, key)
	}, nil)
}

func (i *Instrumented) observe(ctx context.Context, op, key string, fn func(context.Context) error, size func() int) error {
	attrs := []attribute.KeyValue{
		attribute.String("kv.operation", op),
		attribute.String("kv.backend", i.backend),
		attribute.String("kv.key", key),
	}

	ctx, span := i.tracer.Start(ctx, "kv."+op, trace.WithAttributes(attrs...))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	// A missing key is an expected answer, not a failure.
	failed := err != nil && !errors.Is(err, ErrNotFound)
	if failed {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	set := metric.WithAttributes(attrs[:2]...)
	i.metrics.ops.Add(ctx, 1, set)
	i.metrics.duration.Record(ctx, float64(elapsed.Microseconds())/1000, set)
	if failed {
		i.metrics.errors.Add(ctx, 1, set)
	}
	if size != nil && err == nil {
		i.metrics.bytes.Record(ctx, int64(size()), set)
	}

	logAttrs := []slog.Attr{
		slog.String("operation", op),
		slog.String("key", key),
		slog.String("backend", i.backend),
		slog.Duration("duration", elapsed),
	}
	switch {
	case failed:
		i.logger.LogAttrs(ctx, slog.LevelError, "kv operation failed", append(logAttrs, slog.String("error", err.Error()))...)
	case elapsed > i.slow:
		i.logger.LogAttrs(ctx, slog.LevelWarn, "slow kv operation", logAttrs...)
	}

	return err
}

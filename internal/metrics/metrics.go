// Package metrics provides the OpenTelemetry instruments recorded by the
// store. When disabled, every instrument is a no-op.
package metrics

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// MeterName is the instrumentation scope name for seotrack metrics.
const MeterName = "seotrack"

// Outcome attribute values.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
	OutcomeNoop  = "noop"
)

// Metrics holds all seotrack metric instruments.
type Metrics struct {
	Operations      metric.Int64Counter
	FetchDuration   metric.Float64Histogram
	ModeTransitions metric.Int64Counter
}

// NewMetrics creates all metric instruments from the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.Operations, err = meter.Int64Counter("seotrack.store.operations",
		metric.WithDescription("Store operations by op, mode and outcome"),
	)
	if err != nil {
		return nil, err
	}

	m.FetchDuration, err = meter.Float64Histogram("seotrack.store.fetch.duration",
		metric.WithDescription("Full snapshot fetch duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	m.ModeTransitions, err = meter.Int64Counter("seotrack.store.mode.transitions",
		metric.WithDescription("Store mode transitions by target mode"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// Noop returns instruments that record nothing.
func Noop() *Metrics {
	m, _ := NewMetrics(noop.NewMeterProvider().Meter(MeterName))
	return m
}

// RecordOperation counts one store operation.
func (m *Metrics) RecordOperation(ctx context.Context, op, mode, outcome string) {
	m.Operations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", op),
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
}

// RecordFetch records the duration of one full snapshot fetch.
func (m *Metrics) RecordFetch(ctx context.Context, d time.Duration, outcome string) {
	m.FetchDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

// RecordTransition counts one mode transition into mode.
func (m *Metrics) RecordTransition(ctx context.Context, mode string) {
	m.ModeTransitions.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
}

// Provider owns the meter provider backing a Metrics set.
type Provider struct {
	Meter    metric.Meter
	reader   sdkmetric.Reader
	shutdown func(context.Context) error
}

// Init returns a provider collecting in-process through a manual reader when
// enabled, or a no-op provider otherwise.
func Init(enabled bool) *Provider {
	if !enabled {
		return &Provider{
			Meter:    noop.NewMeterProvider().Meter(MeterName),
			shutdown: func(context.Context) error { return nil },
		}
	}
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &Provider{
		Meter:    mp.Meter(MeterName),
		reader:   reader,
		shutdown: mp.Shutdown,
	}
}

// Enabled reports whether the provider records anything.
func (p *Provider) Enabled() bool {
	return p.reader != nil
}

// Collect reads the current state of every instrument.
func (p *Provider) Collect(ctx context.Context) (metricdata.ResourceMetrics, error) {
	var rm metricdata.ResourceMetrics
	if p.reader == nil {
		return rm, nil
	}
	err := p.reader.Collect(ctx, &rm)
	return rm, err
}

// LogSummary writes one debug line per recorded data point.
func (p *Provider) LogSummary(ctx context.Context, log zerolog.Logger) {
	rm, err := p.Collect(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("metrics collection failed")
		return
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					log.Debug().Str("metric", m.Name).Str("attrs", dp.Attributes.Encoded(attribute.DefaultEncoder())).
						Int64("value", dp.Value).Msg("metric")
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					log.Debug().Str("metric", m.Name).Str("attrs", dp.Attributes.Encoded(attribute.DefaultEncoder())).
						Uint64("count", dp.Count).Float64("sum", dp.Sum).Msg("metric")
				}
			}
		}
	}
}

// Shutdown flushes and releases the provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	return p.shutdown(ctx)
}

package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// instrument names one ordtree metric; name is relative to ScopeName.
type instrument struct {
	name string
	desc string
	unit string
}

func (in instrument) fullName() string {
	return ScopeName + "." + in.name
}

// metricBuilder creates the instruments of one meter. The first creation
// error sticks in err so the whole set is checked once. Gauges are collected
// in observables for the callback registration.
type metricBuilder struct {
	meter       metric.Meter
	observables []metric.Observable
	err         error
}

func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

func (b *metricBuilder) counter(in instrument) metric.Int64Counter {
	c, err := b.meter.Int64Counter(in.fullName(), metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	b.setErr(in, err)

	return c
}

func (b *metricBuilder) histogram(in instrument, bounds []float64) metric.Float64Histogram {
	h, err := b.meter.Float64Histogram(in.fullName(),
		metric.WithDescription(in.desc),
		metric.WithUnit(in.unit),
		metric.WithExplicitBucketBoundaries(bounds...),
	)
	b.setErr(in, err)

	return h
}

func (b *metricBuilder) gauge(in instrument) metric.Int64ObservableGauge {
	g, err := b.meter.Int64ObservableGauge(in.fullName(), metric.WithDescription(in.desc), metric.WithUnit(in.unit))
	b.setErr(in, err)

	if err == nil {
		b.observables = append(b.observables, g)
	}

	return g
}

func (b *metricBuilder) setErr(in instrument, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", in.fullName(), err)
	}
}

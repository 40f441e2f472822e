package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	insertsInstrument        = instrument{"inserts.total", "Total keys inserted", "{key}"}
	insertFailuresInstrument = instrument{"insert.failures.total", "Inserts rejected by the node allocator", "{key}"}
	removalsInstrument       = instrument{"removals.total", "Remove calls by result", "{call}"}
	lookupsInstrument        = instrument{"lookups.total", "Lookup calls by result", "{call}"}
	persistInstrument        = instrument{"persist.duration.seconds", "Tree file load and flush duration", "s"}
	sizeInstrument           = instrument{"tree.size", "Number of nodes in the tree", "{node}"}
	depthInstrument          = instrument{"tree.depth", "Height of the tree in levels", "{level}"}
)

const (
	attrOp     = "op"
	attrResult = "result"
	attrStatus = "status"

	// Attribute values.
	ResultHit     = "hit"
	ResultMiss    = "miss"
	ResultRemoved = "removed"
	ResultAbsent  = "absent"
	StatusOK      = "ok"
	StatusError   = "error"
	OpLoad        = "load"
	OpFlush       = "flush"
)

// persistBucketBoundaries covers 100us to 30s, from tiny trees to multi-million node snapshots.
var persistBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30}

// TreeSnapshot is the shape of a tree at one observation.
type TreeSnapshot struct {
	Size  int64
	Depth int64
}

// TreeMetrics holds the OTel instruments of one tree store. All methods are
// safe to call on a nil receiver (no-op).
type TreeMetrics struct {
	meter           metric.Meter
	inserts         metric.Int64Counter
	insertFailures  metric.Int64Counter
	removals        metric.Int64Counter
	lookups         metric.Int64Counter
	persistDuration metric.Float64Histogram
	size            metric.Int64ObservableGauge
	depth           metric.Int64ObservableGauge
	observables     []metric.Observable
}

// NewTreeMetrics creates tree metric instruments from the given meter.
func NewTreeMetrics(mt metric.Meter) (*TreeMetrics, error) {
	b := newMetricBuilder(mt)

	tm := &TreeMetrics{
		meter:           mt,
		inserts:         b.counter(insertsInstrument),
		insertFailures:  b.counter(insertFailuresInstrument),
		removals:        b.counter(removalsInstrument),
		lookups:         b.counter(lookupsInstrument),
		persistDuration: b.histogram(persistInstrument, persistBucketBoundaries),
		size:            b.gauge(sizeInstrument),
		depth:           b.gauge(depthInstrument),
	}

	if b.err != nil {
		return nil, b.err
	}

	tm.observables = b.observables

	return tm, nil
}

// RecordInsert counts one insert, or one insert failure when err is non-nil.
func (tm *TreeMetrics) RecordInsert(ctx context.Context, err error) {
	if tm == nil {
		return
	}

	if err != nil {
		tm.insertFailures.Add(ctx, 1)

		return
	}

	tm.inserts.Add(ctx, 1)
}

// RecordRemove counts one remove call.
func (tm *TreeMetrics) RecordRemove(ctx context.Context, removed bool) {
	if tm == nil {
		return
	}

	result := ResultAbsent
	if removed {
		result = ResultRemoved
	}

	tm.removals.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordLookup counts one lookup call.
func (tm *TreeMetrics) RecordLookup(ctx context.Context, hit bool) {
	if tm == nil {
		return
	}

	result := ResultMiss
	if hit {
		result = ResultHit
	}

	tm.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrResult, result)))
}

// RecordPersist records the duration of a load or flush.
func (tm *TreeMetrics) RecordPersist(ctx context.Context, op string, duration time.Duration, err error) {
	if tm == nil {
		return
	}

	status := StatusOK
	if err != nil {
		status = StatusError
	}

	tm.persistDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(attrOp, op),
		attribute.String(attrStatus, status),
	))
}

// ObserveTree registers source as the callback reporting the size and depth
// gauges. The returned registration must be unregistered when the tree goes
// away. A nil receiver returns a nil registration.
func (tm *TreeMetrics) ObserveTree(source func() TreeSnapshot) (metric.Registration, error) {
	if tm == nil {
		return nil, nil
	}

	return tm.meter.RegisterCallback(func(_ context.Context, observer metric.Observer) error {
		snapshot := source()

		observer.ObserveInt64(tm.size, snapshot.Size)
		observer.ObserveInt64(tm.depth, snapshot.Depth)

		return nil
	}, tm.observables...)
}

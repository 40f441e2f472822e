package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	promexporter "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// PrometheusHandler creates a Prometheus exporter backed by its own OTel
// MeterProvider, hands the provider's meter to register so the caller can
// create instruments on it, and returns the /metrics scrape handler. Each call
// uses an independent Prometheus registry.
func PrometheusHandler(register func(metric.Meter) error) (http.Handler, error) {
	registry := prometheus.NewRegistry()

	exporter, err := promexporter.New(
		promexporter.WithRegisterer(registry),
	)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))

	if register != nil {
		err = register(mp.Meter(ScopeName))
		if err != nil {
			return nil, fmt.Errorf("register prometheus instruments: %w", err)
		}
	}

	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), nil
}

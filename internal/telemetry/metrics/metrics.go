// Package metrics provides an OpenTelemetry meter provider backed by a
// Prometheus exporter, served over HTTP.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	serviceName = "fluxfakr"

	// readHeaderTimeout bounds header reads on the metrics listener.
	readHeaderTimeout = 10 * time.Second
)

// Prometheus is an OpenTelemetry Prometheus exporter served on /metrics.
type Prometheus struct {
	addr      string
	resources *resource.Resource
	provider  *sdkmetric.MeterProvider
	server    *http.Server
}

// NewPrometheus creates a new Prometheus provider listening on addr.
func NewPrometheus(addr string) (*Prometheus, error) {
	if addr == "" {
		return nil, fmt.Errorf("metrics address cannot be empty")
	}

	hostname, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("get hostname: %w", err)
	}

	r := []attribute.KeyValue{
		semconv.ServiceNameKey.String(serviceName),
		semconv.HostNameKey.String(hostname),
	}

	return &Prometheus{
		addr:      addr,
		resources: resource.NewWithAttributes(semconv.SchemaURL, r...),
	}, nil
}

// Start registers the global meter provider and begins serving /metrics.
func (p *Prometheus) Start(_ context.Context) error {
	exporter, err := prometheus.New(prometheus.WithNamespace(serviceName))
	if err != nil {
		return err
	}

	p.provider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(p.resources),
	)

	otel.SetMeterProvider(p.provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	p.server = &http.Server{
		Addr:              p.addr,
		Handler:           mux,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		if err := p.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// The run continues without served metrics; counters still
			// record through the provider.
			fmt.Fprintf(os.Stderr, "metrics listener failed: %s\n", err)
		}
	}()

	return nil
}

// Shutdown stops the metrics listener and the meter provider.
func (p *Prometheus) Shutdown(ctx context.Context) error {
	var errs []error
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if p.provider != nil {
		if err := p.provider.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

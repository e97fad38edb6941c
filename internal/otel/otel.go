// Package otel wires OpenTelemetry metrics to a Prometheus scrape endpoint
// and defines the instruments jet records.
package otel

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelglobal "go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "github.com/kianmotamedipinnacle-boop/jet-dashboard"

// Provider is an installed meter provider and the /metrics handler that
// exposes it.
type Provider struct {
	Handler http.Handler
	sdk     *sdkmetric.MeterProvider
}

// Shutdown flushes and stops the provider. Safe on a nil Provider.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.sdk == nil {
		return nil
	}
	return p.sdk.Shutdown(ctx)
}

// Setup installs a global MeterProvider backed by a private Prometheus
// registry. The registry also carries the Go runtime and process collectors.
func Setup(ctx context.Context, serviceName, version string) (*Provider, error) {
	if serviceName == "" {
		serviceName = "jet"
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	attrs := []attribute.KeyValue{semconv.ServiceName(serviceName)}
	if version != "" {
		attrs = append(attrs, semconv.ServiceVersion(version))
	}
	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter), sdkmetric.WithResource(res))
	otelglobal.SetMeterProvider(mp)
	return &Provider{
		Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}),
		sdk:     mp,
	}, nil
}

// Meter returns jet's meter from the global provider.
func Meter() metric.Meter {
	return otelglobal.Meter(meterName)
}

var (
	AttrOperation  = attribute.Key("operation")
	AttrStatus     = attribute.Key("status")
	AttrCollection = attribute.Key("collection")
	AttrSession    = attribute.Key("session")
	AttrRoute      = attribute.Key("http.route")
)

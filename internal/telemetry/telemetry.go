// Package telemetry wires OpenTelemetry metrics and traces for the routing
// service. When disabled it hands out no-op providers so call sites never
// branch on configuration.
package telemetry

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Config controls telemetry setup.
type Config struct {
	Enabled  bool
	Endpoint string
	Protocol string // grpc | http
	Service  string
	Version  string
}

// Provider wires tracer/meter providers and exposes recording helpers.
type Provider struct {
	Enabled bool
	tracer  trace.Tracer
	meter   metric.Meter

	requestsCounter  metric.Int64Counter
	decisionsCounter metric.Int64Counter
	requestDuration  metric.Float64Histogram

	shutdownTraceProvider func(context.Context) error
	shutdownMeterProvider func(context.Context) error
}

// NewProvider configures OTLP exporters + providers. When disabled, returns
// no-op providers.
func NewProvider(ctx context.Context, cfg Config) (*Provider, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !cfg.Enabled {
		no := &Provider{
			Enabled: false,
			tracer:  tracenoop.NewTracerProvider().Tracer(""),
			meter:   metricnoop.NewMeterProvider().Meter(""),
		}
		no.initInstruments()
		return no, nil
	}

	log.Printf("[telemetry] enabled (OTLP %s) endpoint=%s", strings.ToLower(cfg.Protocol), cfg.Endpoint)

	res, err := resource.New(ctx,
		resource.WithFromEnv(),
		resource.WithTelemetrySDK(),
		resource.WithAttributes(
			attribute.String("service.name", cfg.Service),
			attribute.String("service.version", cfg.Version),
		),
	)
	if err != nil {
		return nil, err
	}

	var tp *sdktrace.TracerProvider
	var mp *sdkmetric.MeterProvider

	switch strings.ToLower(cfg.Protocol) {
	case "", "grpc":
		texp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(cfg.Endpoint), otlptracegrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		mexp, err := otlpmetricgrpc.New(ctx, otlpmetricgrpc.WithEndpoint(cfg.Endpoint), otlpmetricgrpc.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(texp), sdktrace.WithResource(res))
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
			sdkmetric.WithResource(res),
		)
	case "http":
		texp, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpoint(cfg.Endpoint), otlptracehttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("trace exporter: %w", err)
		}
		mexp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.Endpoint), otlpmetrichttp.WithInsecure())
		if err != nil {
			return nil, fmt.Errorf("metric exporter: %w", err)
		}
		tp = sdktrace.NewTracerProvider(sdktrace.WithBatcher(texp), sdktrace.WithResource(res))
		mp = sdkmetric.NewMeterProvider(
			sdkmetric.WithReader(sdkmetric.NewPeriodicReader(mexp)),
			sdkmetric.WithResource(res),
		)
	default:
		return nil, fmt.Errorf("unknown telemetry protocol %q", cfg.Protocol)
	}

	p := &Provider{
		Enabled:               true,
		tracer:                tp.Tracer("muwajjih"),
		meter:                 mp.Meter("muwajjih"),
		shutdownTraceProvider: tp.Shutdown,
		shutdownMeterProvider: mp.Shutdown,
	}
	p.initInstruments()
	return p, nil
}

func (p *Provider) initInstruments() {
	var err error
	p.requestsCounter, err = p.meter.Int64Counter("muwajjih.requests",
		metric.WithDescription("API requests by operation and status"))
	if err != nil {
		p.requestsCounter, _ = metricnoop.NewMeterProvider().Meter("").Int64Counter("muwajjih.requests")
	}
	p.decisionsCounter, err = p.meter.Int64Counter("muwajjih.routing.decisions",
		metric.WithDescription("Routing decisions by winning source"))
	if err != nil {
		p.decisionsCounter, _ = metricnoop.NewMeterProvider().Meter("").Int64Counter("muwajjih.routing.decisions")
	}
	p.requestDuration, err = p.meter.Float64Histogram("muwajjih.request.duration_ms",
		metric.WithDescription("Request handling duration in milliseconds"))
	if err != nil {
		p.requestDuration, _ = metricnoop.NewMeterProvider().Meter("").Float64Histogram("muwajjih.request.duration_ms")
	}
}

// StartSpan opens a span for one evaluation.
func (p *Provider) StartSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return p.tracer.Start(ctx, name)
}

// RecordRequest counts a handled request and its duration.
func (p *Provider) RecordRequest(ctx context.Context, operation, status string, dur time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.String("status", status),
	)
	p.requestsCounter.Add(ctx, 1, attrs)
	p.requestDuration.Record(ctx, float64(dur.Milliseconds()),
		metric.WithAttributes(attribute.String("operation", operation)))
}

// RecordDecision counts one routing decision by its winning source.
func (p *Provider) RecordDecision(ctx context.Context, department string, fallback bool) {
	src := "candidate"
	if fallback {
		src = "fallback"
	}
	p.decisionsCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", src),
		attribute.String("department", department),
	))
}

// Shutdown flushes exporters; safe on a disabled provider.
func (p *Provider) Shutdown(ctx context.Context) {
	if p == nil {
		return
	}
	if p.shutdownTraceProvider != nil {
		if err := p.shutdownTraceProvider(ctx); err != nil {
			log.Printf("[telemetry] trace shutdown: %v", err)
		}
	}
	if p.shutdownMeterProvider != nil {
		if err := p.shutdownMeterProvider(ctx); err != nil {
			log.Printf("[telemetry] metric shutdown: %v", err)
		}
	}
}

// Package otel wires the auth service's OpenTelemetry providers (OTLP over gRPC) and the
// event emitters that turn auth events into log records and counters.
package otel

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.39.0"
)

// DefaultServiceName is used when Options.ServiceName is empty.
const DefaultServiceName = "auth-ms"

const metricInterval = 10 * time.Second

// Options configures NewProviders.
type Options struct {
	// Endpoint is OTEL_EXPORTER_OTLP_ENDPOINT. Empty disables export.
	Endpoint    string
	ServiceName string
	// Environment is APP_ENV, recorded as deployment.environment.name when set.
	Environment string
	// Insecure forces plaintext even for https endpoints.
	Insecure bool
}

// Providers holds the OpenTelemetry providers and a shutdown function.
type Providers struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	LoggerProvider *sdklog.LoggerProvider
	Shutdown       func(context.Context) error

	serviceName string
}

// NewProviders builds trace, metric and log providers exporting to opts.Endpoint.
// With no endpoint the providers are local only and Shutdown does nothing.
func NewProviders(ctx context.Context, opts Options) (*Providers, error) {
	name := strings.TrimSpace(opts.ServiceName)
	if name == "" {
		name = DefaultServiceName
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return &Providers{
			TracerProvider: sdktrace.NewTracerProvider(),
			MeterProvider:  sdkmetric.NewMeterProvider(),
			LoggerProvider: sdklog.NewLoggerProvider(),
			Shutdown:       func(context.Context) error { return nil },
			serviceName:    name,
		}, nil
	}

	target, insecure, err := otlpTarget(endpoint, opts.Insecure)
	if err != nil {
		return nil, err
	}
	res, err := serviceResource(name, opts.Environment)
	if err != nil {
		return nil, err
	}

	p := &Providers{serviceName: name}
	var shutdownFns []func(context.Context) error
	fail := func(err error) (*Providers, error) {
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			_ = shutdownFns[i](ctx)
		}
		return nil, err
	}

	traceOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(target)}
	metricOpts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(target)}
	logOpts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(target)}
	if insecure {
		traceOpts = append(traceOpts, otlptracegrpc.WithInsecure())
		metricOpts = append(metricOpts, otlpmetricgrpc.WithInsecure())
		logOpts = append(logOpts, otlploggrpc.WithInsecure())
	}

	traceExp, err := otlptracegrpc.New(ctx, traceOpts...)
	if err != nil {
		return fail(fmt.Errorf("trace exporter: %w", err))
	}
	p.TracerProvider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(traceExp), sdktrace.WithResource(res))
	shutdownFns = append(shutdownFns, p.TracerProvider.Shutdown)

	metricExp, err := otlpmetricgrpc.New(ctx, metricOpts...)
	if err != nil {
		return fail(fmt.Errorf("metric exporter: %w", err))
	}
	p.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExp, sdkmetric.WithInterval(metricInterval))),
	)
	shutdownFns = append(shutdownFns, p.MeterProvider.Shutdown)

	logExp, err := otlploggrpc.New(ctx, logOpts...)
	if err != nil {
		return fail(fmt.Errorf("log exporter: %w", err))
	}
	p.LoggerProvider = sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(logExp)),
		sdklog.WithResource(res),
	)
	shutdownFns = append(shutdownFns, p.LoggerProvider.Shutdown)

	// Reverse order: logs, metrics, traces.
	p.Shutdown = func(ctx context.Context) error {
		var lastErr error
		for i := len(shutdownFns) - 1; i >= 0; i-- {
			if err := shutdownFns[i](ctx); err != nil {
				log.Printf("telemetry: shutdown: %v", err)
				lastErr = err
			}
		}
		return lastErr
	}
	log.Printf("telemetry: exporting to %s (insecure=%t)", target, insecure)
	return p, nil
}

// Meter returns the service-scoped meter used for auth event counters.
func (p *Providers) Meter() otelmetric.Meter {
	return p.MeterProvider.Meter(p.serviceName)
}

// SetGlobal installs the tracer and meter providers plus the W3C trace-context and baggage
// propagators, so otelgrpc spans join callers' traces. Loggers are passed explicitly instead.
func (p *Providers) SetGlobal() {
	if p.TracerProvider != nil {
		otel.SetTracerProvider(p.TracerProvider)
	}
	if p.MeterProvider != nil {
		otel.SetMeterProvider(p.MeterProvider)
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
}

// otlpTarget reduces an endpoint (host:port or URL, any path) to the gRPC dial target.
// Plaintext is used unless the scheme is https and force is false.
func otlpTarget(endpoint string, force bool) (string, bool, error) {
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: %w", endpoint, err)
	}
	if u.Host == "" {
		return "", false, fmt.Errorf("invalid OTLP endpoint %q: missing host", endpoint)
	}
	return u.Host, force || u.Scheme != "https", nil
}

func serviceResource(name, env string) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{semconv.ServiceNameKey.String(name)}
	if env != "" {
		attrs = append(attrs, semconv.DeploymentEnvironmentNameKey.String(env))
	}
	return resource.Merge(resource.Default(), resource.NewSchemaless(attrs...))
}

// Package tracing exports benchmark repetitions and iteration probes as
// OpenTelemetry spans.
package tracing

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/torosent/crankbench/internal/config"
)

// TracerName is the instrumentation scope of repetition and probe spans.
const TracerName = "github.com/torosent/crankbench/internal/runner"

const defaultServiceName = "crankbench"

// Provider owns the exporter pipeline. The zero value and nil are disabled
// providers.
type Provider struct {
	tp     *sdktrace.TracerProvider
	tracer trace.Tracer
}

// target is where spans go once environment fallbacks are applied.
type target struct {
	endpoint string
	protocol string
	service  string
	insecure bool
}

// Disabled returns the tracer used when no exporter is configured.
func Disabled() trace.Tracer {
	return noop.NewTracerProvider().Tracer(TracerName)
}

// Init builds the exporter pipeline described by cfg. Without an endpoint,
// either configured or in OTEL_EXPORTER_OTLP_ENDPOINT, it returns a disabled
// provider.
func Init(ctx context.Context, cfg config.TracingConfig) (*Provider, error) {
	tgt, ok := resolveTarget(cfg)
	if !ok {
		return &Provider{}, nil
	}

	sampler, err := Sampler(cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	res, err := newResource(ctx, tgt.service)
	if err != nil {
		return nil, fmt.Errorf("tracing resource: %w", err)
	}

	exporter, err := newExporter(ctx, tgt)
	if err != nil {
		return nil, fmt.Errorf("tracing exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return &Provider{tp: tp, tracer: tp.Tracer(TracerName)}, nil
}

func resolveTarget(cfg config.TracingConfig) (target, bool) {
	tgt := target{
		endpoint: cfg.Endpoint,
		protocol: strings.ToLower(cfg.Protocol),
		service:  cfg.ServiceName,
		insecure: cfg.Insecure,
	}
	if tgt.endpoint == "" {
		tgt.endpoint = os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	}
	if tgt.service == "" {
		tgt.service = os.Getenv("OTEL_SERVICE_NAME")
	}
	if tgt.service == "" {
		tgt.service = defaultServiceName
	}
	if tgt.protocol == "" {
		tgt.protocol = "grpc"
	}
	return tgt, tgt.endpoint != ""
}

// Sampler maps a sample rate in [0, 1] to a parent-based sampler. Every
// probe of a sampled repetition is kept with it.
func Sampler(rate float64) (sdktrace.Sampler, error) {
	switch {
	case rate < 0 || rate > 1:
		return nil, fmt.Errorf("tracing sample_rate must be between 0.0 and 1.0, got %g", rate)
	case rate == 0:
		return sdktrace.ParentBased(sdktrace.NeverSample()), nil
	case rate == 1:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate)), nil
	}
}

// newResource describes the machine the numbers were measured on.
func newResource(ctx context.Context, service string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(service),
			attribute.Int("crankbench.gomaxprocs", runtime.GOMAXPROCS(0)),
			attribute.Int("crankbench.num_cpu", runtime.NumCPU()),
		),
		resource.WithHost(),
		resource.WithOSType(),
		resource.WithProcessRuntimeName(),
		resource.WithProcessRuntimeVersion(),
	)
}

// Tracer returns the pipeline's tracer, or a no-op tracer when disabled.
func (p *Provider) Tracer() trace.Tracer {
	if p == nil || p.tracer == nil {
		return Disabled()
	}
	return p.tracer
}

// Enabled reports whether spans are exported anywhere.
func (p *Provider) Enabled() bool {
	return p != nil && p.tp != nil
}

// Shutdown flushes pending spans.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p == nil || p.tp == nil {
		return nil
	}
	return p.tp.Shutdown(ctx)
}

func newExporter(ctx context.Context, tgt target) (sdktrace.SpanExporter, error) {
	switch tgt.protocol {
	case "grpc":
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(tgt.endpoint)}
		if tgt.insecure {
			opts = append(opts,
				otlptracegrpc.WithInsecure(),
				otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			)
		}
		return otlptracegrpc.New(ctx, opts...)
	case "http":
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(tgt.endpoint)}
		if tgt.insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}
		return otlptracehttp.New(ctx, opts...)
	default:
		return nil, fmt.Errorf("unsupported OTLP protocol %q: use grpc or http", tgt.protocol)
	}
}

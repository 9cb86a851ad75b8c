package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// Resource attribute keys describing a pipeline run.
const (
	AttrCommand  = attribute.Key("docsite.command")
	AttrMode     = attribute.Key("docsite.mode")
	AttrTokenSet = attribute.Key("docsite.token_set")
)

// BuildInfo identifies the run exported spans and metrics belong to.
type BuildInfo struct {
	Command  string
	Mode     string
	TokenSet string
}

func (b BuildInfo) attributes() []attribute.KeyValue {
	attrs := []attribute.KeyValue{AttrCommand.String(b.Command), AttrMode.String(b.Mode)}
	if b.TokenSet != "" {
		attrs = append(attrs, AttrTokenSet.String(b.TokenSet))
	}
	return attrs
}

// NewResource describes the docsite process. OTEL_RESOURCE_ATTRIBUTES and
// OTEL_SERVICE_NAME override the values given here.
func NewResource(ctx context.Context, serviceName, version string, info BuildInfo) (*resource.Resource, error) {
	attrs := append([]attribute.KeyValue{
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(version),
	}, info.attributes()...)

	res, err := resource.New(ctx,
		resource.WithAttributes(attrs...),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOSType(),
	)
	// process owner lookups fail in some containers, the rest is still usable
	if errors.Is(err, resource.ErrPartialResource) {
		log.Debug().Err(err).Msg("Partial telemetry resource")
		return res, nil
	}

	return res, err
}

// InitTelemetry installs OTLP trace and metric exporters for one build or
// dev server session. Endpoint and headers come from the standard
// OTEL_EXPORTER_OTLP_* variables.
//
// A build exits as soon as it finishes, so the returned shutdown must run
// before exit or the batched spans and the last metric interval are lost.
func InitTelemetry(ctx context.Context, serviceName, version string, info BuildInfo) (func(context.Context) error, error) {
	res, err := NewResource(ctx, serviceName, version, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	traceShutdown, err := initTraceProvider(ctx, res)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize trace provider, continuing without tracing")
		traceShutdown = func(context.Context) error { return nil }
	}

	metricShutdown, err := initMeterProvider(ctx, res, metricInterval(info))
	if err != nil {
		log.Warn().Err(err).Msg("Failed to initialize meter provider, continuing without metrics")
		metricShutdown = func(context.Context) error { return nil }
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info().
		Str("service", serviceName).
		Str("version", version).
		Str("command", info.Command).
		Str("mode", info.Mode).
		Msg("OpenTelemetry initialized")

	return func(ctx context.Context) error {
		return errors.Join(
			wrapErr("trace shutdown", traceShutdown(ctx)),
			wrapErr("metric shutdown", metricShutdown(ctx)),
		)
	}, nil
}

// metricInterval is the export period. A build normally flushes once at
// shutdown, the dev server reports every ten seconds.
func metricInterval(info BuildInfo) time.Duration {
	if info.Command == "serve" {
		return 10 * time.Second
	}
	return time.Minute
}

func wrapErr(msg string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func initTraceProvider(ctx context.Context, res *resource.Resource) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(time.Second),
			sdktrace.WithMaxExportBatchSize(512),
		),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

func initMeterProvider(ctx context.Context, res *resource.Resource, interval time.Duration) (func(context.Context) error, error) {
	exporter, err := otlpmetricgrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return mp.Shutdown, nil
}

package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/docsite"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Build metrics
	BuildsTotal       metric.Int64Counter
	BuildErrorsTotal  metric.Int64Counter
	BuildDuration     metric.Float64Histogram
	BuildOutputsTotal metric.Int64Counter

	// Loader metrics
	StyleCompileDuration metric.Float64Histogram

	// Prerender metrics
	PagesRenderedTotal metric.Int64Counter

	// Dev server metrics
	DevRequestsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	// Build metrics
	m.BuildsTotal, _ = meter.Int64Counter(
		"docsite.builds.total",
		metric.WithDescription("Total number of asset builds, including watch rebuilds"),
		metric.WithUnit("{build}"),
	)

	m.BuildErrorsTotal, _ = meter.Int64Counter(
		"docsite.builds.errors.total",
		metric.WithDescription("Total number of failed asset builds"),
		metric.WithUnit("{error}"),
	)

	m.BuildDuration, _ = meter.Float64Histogram(
		"docsite.builds.duration",
		metric.WithDescription("Duration of asset builds"),
		metric.WithUnit("ms"),
	)

	m.BuildOutputsTotal, _ = meter.Int64Counter(
		"docsite.builds.outputs.total",
		metric.WithDescription("Total number of files written by builds"),
		metric.WithUnit("{file}"),
	)

	// Loader metrics
	m.StyleCompileDuration, _ = meter.Float64Histogram(
		"docsite.loaders.sass.duration",
		metric.WithDescription("Duration of stylesheet compilation"),
		metric.WithUnit("ms"),
	)

	// Prerender metrics
	m.PagesRenderedTotal, _ = meter.Int64Counter(
		"docsite.prerender.pages.total",
		metric.WithDescription("Total number of pre-rendered pages written"),
		metric.WithUnit("{page}"),
	)

	// Dev server metrics
	m.DevRequestsTotal, _ = meter.Int64Counter(
		"docsite.devserver.requests.total",
		metric.WithDescription("Total number of requests served by the dev server"),
		metric.WithUnit("{request}"),
	)

	return m
}

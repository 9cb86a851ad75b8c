package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestGetMetrics(t *testing.T) {
	m := GetMetrics()
	require.Same(t, m, GetMetrics())

	require.NotNil(t, m.BuildsTotal)
	require.NotNil(t, m.BuildErrorsTotal)
	require.NotNil(t, m.BuildDuration)
	require.NotNil(t, m.BuildOutputsTotal)
	require.NotNil(t, m.StyleCompileDuration)
	require.NotNil(t, m.PagesRenderedTotal)
	require.NotNil(t, m.DevRequestsTotal)

	// the global no-op provider accepts recordings
	m.BuildsTotal.Add(context.Background(), 1)
	m.BuildDuration.Record(context.Background(), 12)
}

func TestNewResource(t *testing.T) {
	t.Setenv("OTEL_RESOURCE_ATTRIBUTES", "")
	t.Setenv("OTEL_SERVICE_NAME", "")

	res, err := NewResource(context.Background(), "docsite", "1.2.3", BuildInfo{
		Command:  "build",
		Mode:     "production",
		TokenSet: "dark",
	})
	require.NoError(t, err)

	set := res.Set()
	for key, want := range map[attribute.Key]string{
		"service.name":    "docsite",
		"service.version": "1.2.3",
		AttrCommand:       "build",
		AttrMode:          "production",
		AttrTokenSet:      "dark",
	} {
		got, ok := set.Value(key)
		require.True(t, ok, key)
		require.Equal(t, want, got.AsString(), key)
	}
}

func TestNewResource_noTokenSet(t *testing.T) {
	res, err := NewResource(context.Background(), "docsite", "dev", BuildInfo{Command: "serve", Mode: "development"})
	require.NoError(t, err)

	_, ok := res.Set().Value(AttrTokenSet)
	require.False(t, ok)
}

func TestMetricInterval(t *testing.T) {
	require.Equal(t, 10*time.Second, metricInterval(BuildInfo{Command: "serve"}))
	require.Equal(t, time.Minute, metricInterval(BuildInfo{Command: "build"}))
}

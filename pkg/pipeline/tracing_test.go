package pipeline_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/pipeline"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = provider.Shutdown(context.Background())
	})
	return recorder
}

func spanAttrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestJob_RunSpans(t *testing.T) {
	recorder := recordSpans(t)
	dir := t.TempDir()
	input := writeInput(t, dir,
		`{"tank_id": 1, "name": "T-34", "tier": 5}`,
		`{"tank_id": 2, "name": "KV-1"}`,
	)

	job := &pipeline.Job{
		Name:    "tanks",
		Source:  &pipeline.FileSource{Path: input, Type: tankType},
		Targets: []export.Options{{Format: export.FormatCSV, Path: filepath.Join(dir, "out.csv")}},
	}
	_, err := job.Run(context.Background())
	require.NoError(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	byName := make(map[string]sdktrace.ReadOnlySpan)
	for _, s := range spans {
		byName[s.Name()] = s
	}

	jobSpan, ok := byName["pipeline.job"]
	require.True(t, ok)
	assert.Equal(t, codes.Ok, jobSpan.Status().Code)
	attrs := spanAttrs(jobSpan)
	assert.Equal(t, "tanks", attrs["exportable.job"].AsString())
	assert.Equal(t, int64(2), attrs["export.rows"].AsInt64())

	exportSpan, ok := byName["export"]
	require.True(t, ok)
	assert.Equal(t, jobSpan.SpanContext().SpanID(), exportSpan.Parent().SpanID())
	attrs = spanAttrs(exportSpan)
	assert.Equal(t, "csv", attrs["export.format"].AsString())
	assert.Equal(t, export.OutcomeOK, attrs["export.outcome"].AsString())
}

func TestJob_RunSpanRecordsError(t *testing.T) {
	recorder := recordSpans(t)

	job := &pipeline.Job{Name: "empty", Source: pipeline.RecordSource{}}
	_, err := job.Run(context.Background())
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}

package tracing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"mercator-hq/exportable/pkg/config"
)

func ratio(r float64) *float64 { return &r }

func restoreProvider(t *testing.T) {
	t.Helper()
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil, "test"); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestNew_Disabled(t *testing.T) {
	tracer, err := New(&config.TracingConfig{}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if tracer.Enabled() {
		t.Error("expected disabled tracer")
	}

	ctx, span := tracer.Start(context.Background(), "noop")
	if span.SpanContext().IsValid() {
		t.Error("expected invalid span context from a disabled tracer")
	}
	if id := TraceID(ctx); id != "" {
		t.Errorf("TraceID() = %q, want empty", id)
	}
	span.End()
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}

func TestNew_Enabled(t *testing.T) {
	restoreProvider(t)
	tracer, err := New(&config.TracingConfig{
		Enabled:     true,
		Endpoint:    "localhost:4317",
		Insecure:    true,
		Sampler:     SamplerAlways,
		ServiceName: "exportable",
	}, "test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if !tracer.Enabled() {
		t.Error("expected enabled tracer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// Nothing was recorded, so shutting down does not reach the collector.
	_ = tracer.Shutdown(ctx)
}

func TestTracer_ExportsSpans(t *testing.T) {
	restoreProvider(t)
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := newWithExporter(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerAlways,
		ServiceName: "exportable",
	}, "1.2.3", exporter)
	if err != nil {
		t.Fatalf("newWithExporter() error = %v", err)
	}

	ctx, span := tracer.Start(context.Background(), "pipeline.job")
	if TraceID(ctx) == "" {
		t.Error("expected a trace ID inside a span")
	}
	End(span, nil)

	_, failed := otel.Tracer("other").Start(ctx, "export")
	End(failed, errors.New("disk full"))

	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2", len(spans))
	}
	byName := make(map[string]tracetest.SpanStub)
	for _, s := range spans {
		byName[s.Name] = s
	}
	job, export := byName["pipeline.job"], byName["export"]

	if job.Status.Code != codes.Ok {
		t.Errorf("job status = %v, want Ok", job.Status.Code)
	}
	if export.Status.Code != codes.Error || export.Status.Description != "disk full" {
		t.Errorf("export status = %v %q, want Error \"disk full\"", export.Status.Code, export.Status.Description)
	}
	if len(export.Events) != 1 {
		t.Errorf("export span has %d events, want the recorded error", len(export.Events))
	}
	if export.Parent.SpanID() != job.SpanContext.SpanID() {
		t.Error("export span is not a child of the job span")
	}

	var service string
	for _, kv := range job.Resource.Attributes() {
		if kv.Key == "service.name" {
			service = kv.Value.AsString()
		}
	}
	if service != "exportable" {
		t.Errorf("service.name = %q, want exportable", service)
	}
}

func TestTracer_NeverSamples(t *testing.T) {
	restoreProvider(t)
	exporter := tracetest.NewInMemoryExporter()
	tracer, err := newWithExporter(&config.TracingConfig{
		Enabled:     true,
		Sampler:     SamplerNever,
		ServiceName: "exportable",
	}, "test", exporter)
	if err != nil {
		t.Fatalf("newWithExporter() error = %v", err)
	}

	_, span := tracer.Start(context.Background(), "dropped")
	span.End()
	if err := tracer.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if n := len(exporter.GetSpans()); n != 0 {
		t.Errorf("exported %d spans, want none", n)
	}
}

func TestCreateSampler(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		ratio    float64
		wantErr  bool
	}{
		{name: "always", strategy: SamplerAlways},
		{name: "default", strategy: ""},
		{name: "never", strategy: SamplerNever},
		{name: "ratio", strategy: SamplerRatio, ratio: 0.25},
		{name: "ratio too high", strategy: SamplerRatio, ratio: 1.5, wantErr: true},
		{name: "ratio negative", strategy: SamplerRatio, ratio: -0.1, wantErr: true},
		{name: "unknown", strategy: "sometimes", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sampler, err := createSampler(tt.strategy, tt.ratio)
			if (err != nil) != tt.wantErr {
				t.Fatalf("createSampler() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if !strings.Contains(sampler.Description(), "ParentBased") {
				t.Errorf("sampler %q is not parent based", sampler.Description())
			}
		})
	}
}

func TestCreateSampler_RatioFromConfig(t *testing.T) {
	cfg := config.TracingConfig{Sampler: SamplerRatio, SampleRatio: ratio(0)}
	sampler, err := createSampler(cfg.Sampler, cfg.Ratio())
	if err != nil {
		t.Fatalf("createSampler() error = %v", err)
	}

	provider := sdktrace.NewTracerProvider(sdktrace.WithSampler(sampler))
	defer provider.Shutdown(context.Background())
	_, span := provider.Tracer("test").Start(context.Background(), "sampled")
	if span.SpanContext().IsSampled() {
		t.Error("expected a zero ratio to drop the span")
	}
	span.End()
}

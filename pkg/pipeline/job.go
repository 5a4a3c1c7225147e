package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"mercator-hq/exportable/pkg/export"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/stats"
	"mercator-hq/exportable/pkg/telemetry/tracing"
)

// tracerName names the spans of this package.
const tracerName = "mercator-hq/exportable/pkg/pipeline"

// targetBuffer is the channel capacity between the tee and each export.
const targetBuffer = 100

// JobRecorder receives job run measurements. It is implemented by the
// metrics collector.
type JobRecorder interface {
	RecordJob(job string, err error, duration time.Duration)
}

// Job exports the records of one source to one or more destinations.
type Job struct {
	// Name identifies the job in logs and names its counter.
	Name string

	Source Source

	// Targets are exported concurrently. Each target receives every
	// record in source order.
	Targets []export.Options

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records every run.
	Metrics JobRecorder
}

// Run reads the source once and feeds every target. It returns the job
// counter, which holds one child per target format.
//
// A destination error of one target cancels the others. A source error is
// returned after the rows read so far have been exported.
func (j *Job) Run(ctx context.Context) (*stats.EventCounter, error) {
	started := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.job")
	span.SetAttributes(
		tracing.AttrJob.String(j.Name),
		tracing.AttrTargets.Int(len(j.Targets)),
	)

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline.job", "job", j.Name)

	counter := stats.NewEventCounter(j.Name)
	if len(j.Targets) == 0 {
		err := fmt.Errorf("job %s: no targets", j.Name)
		tracing.End(span, err)
		return counter, err
	}

	g, gctx := errgroup.WithContext(ctx)
	outs := make([]chan *record.Record, len(j.Targets))
	for i, target := range j.Targets {
		ch := make(chan *record.Record, targetBuffer)
		outs[i] = ch

		opts := target
		opts.Counter = counter
		if opts.Logger == nil {
			opts.Logger = logger
		}
		g.Go(func() error {
			// Keep the tee moving if the export stops early.
			defer func() {
				for range ch {
				}
			}()
			_, err := export.Export(gctx, ch, opts)
			return err
		})
	}

	// The tee stays outside the group: a source error must not cancel the
	// exports of rows already read.
	var srcErr error
	teeDone := make(chan struct{})
	go func() {
		defer close(teeDone)
		defer func() {
			for _, ch := range outs {
				close(ch)
			}
		}()
		srcErr = tee(gctx, j.Source, outs)
	}()

	err := g.Wait()
	<-teeDone
	err = errors.Join(err, srcErr)
	span.SetAttributes(
		tracing.AttrRows.Int(counter.Value(stats.CategoryRows)),
		tracing.AttrErrors.Int(counter.ErrorCount()),
	)
	tracing.End(span, err)
	if j.Metrics != nil {
		j.Metrics.RecordJob(j.Name, err, time.Since(started))
	}
	if err != nil {
		logger.Error("job failed", "source", j.Source.String(), "error", err, "duration", time.Since(started))
		return counter, err
	}
	logger.Info("job finished",
		"source", j.Source.String(),
		"rows", counter.Value(stats.CategoryRows),
		"errors", counter.ErrorCount(),
		"duration", time.Since(started),
	)
	return counter, nil
}

// tee copies every source record to each channel of outs, in order.
func tee(ctx context.Context, src Source, outs []chan *record.Record) error {
	records, errs := src.Open(ctx)
	for rec := range records {
		for _, ch := range outs {
			select {
			case ch <- rec:
			case <-ctx.Done():
				// Let the source goroutine finish.
				for range records {
				}
				return nil
			}
		}
	}
	if err := <-errs; err != nil {
		return fmt.Errorf("source %s: %w", src, err)
	}
	return nil
}

package export

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"mercator-hq/exportable/pkg/stats"
)

// Export outcomes reported to a Recorder.
const (
	OutcomeOK        = "ok"
	OutcomePartial   = "partial"
	OutcomeEmpty     = "empty"
	OutcomeCancelled = "cancelled"
	OutcomeFailed    = "failed"
)

// tracerName names the spans of this package.
const tracerName = "mercator-hq/exportable/pkg/export"

// Recorder receives export measurements. It is implemented by the metrics
// collector.
type Recorder interface {
	RecordRow(format string, ok bool)
	RecordExport(format, outcome string, duration time.Duration)
}

// Options configures one export call.
type Options struct {
	// Format is the requested format. A recognized file extension on Path
	// overrides it.
	Format Format

	// Path is the destination file, or Stdout.
	Path string

	// Force overwrites an existing file.
	Force bool

	// Append appends to an existing file. CSV headers are not repeated.
	Append bool

	// Counter, when set, receives the counts of this call.
	Counter *stats.EventCounter

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics is optional.
	Metrics Recorder

	// Stdout replaces os.Stdout for the Stdout destination.
	Stdout io.Writer
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) stdout() io.Writer {
	if o.Stdout != nil {
		return o.Stdout
	}
	return os.Stdout
}

// Export writes the rows received from src to the destination in opts,
// in input order. Rows must implement the renderer contract of the
// resolved format.
//
// A row that fails to render or write is logged and counted under
// stats.CategoryErrors; the export continues with the next row. Written
// rows are counted under stats.CategoryRows. Configuration errors
// (*ConfigError) and destination errors (*ExportError) end the call. An
// existing destination is rejected before any row is read.
//
// Empty input creates no file. Cancelling ctx stops reading, keeps the rows
// already written and returns without error.
//
// The returned counter holds the counts of this call and is merged into
// opts.Counter when set. It is never nil.
func Export[T any](ctx context.Context, src <-chan T, opts Options) (counter *stats.EventCounter, err error) {
	started := time.Now()
	ctx, span := otel.Tracer(tracerName).Start(ctx, "export")
	defer span.End()

	logger := opts.logger().With("component", "export", "session_id", uuid.NewString())

	format, path, err := Resolve(opts.Format, opts.Path)
	if err != nil {
		logger.Error("invalid export configuration", "format", opts.Format, "path", opts.Path, "error", err)
		span.SetStatus(codes.Error, err.Error())
		return stats.NewEventCounter("write"), err
	}

	counter = stats.NewEventCounter(format.Label())
	logger = logger.With("format", string(format), "path", path)
	span.SetAttributes(
		attribute.String("export.format", string(format)),
		attribute.String("export.path", path),
	)
	outcome := OutcomeFailed
	defer func() {
		span.SetAttributes(
			attribute.String("export.outcome", outcome),
			attribute.Int("export.rows", counter.Value(stats.CategoryRows)),
			attribute.Int("export.errors", counter.ErrorCount()),
		)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		if opts.Counter != nil {
			opts.Counter.MergeChild(counter)
		}
		if opts.Metrics != nil {
			opts.Metrics.RecordExport(string(format), outcome, time.Since(started))
		}
	}()

	appending, err := checkDestination(path, opts.Force, opts.Append)
	if err != nil {
		logger.Error("cannot export to destination", "error", err)
		return counter, NewExportError(format, path, "check", err)
	}

	first, ok := next(ctx, src)
	if !ok {
		if ctx.Err() != nil {
			outcome = OutcomeCancelled
			logger.Debug("export cancelled before first row")
		} else {
			outcome = OutcomeEmpty
			logger.Debug("nothing to export")
		}
		return counter, nil
	}

	rows := newRowWriter(format, path == Stdout)
	if err := rows.prepare(first); err != nil {
		logger.Error("cannot derive output layout from first row", "error", err)
		return counter, NewExportError(format, path, "header", err)
	}

	dest, err := openDestination(path, opts.Force, appending, opts.stdout())
	if err != nil {
		logger.Error("cannot open destination", "error", err)
		return counter, NewExportError(format, path, "open", err)
	}
	logger.Debug("export started", "append", appending)

	if err := rows.start(dest, appending); err != nil {
		_ = dest.Close()
		logger.Error("cannot write header", "error", err)
		return counter, NewExportError(format, path, "header", err)
	}

	index := 0
	for row, ok := first, true; ok; row, ok = next(ctx, src) {
		index++
		if err := rows.write(row); err != nil {
			logger.Error("row export failed", "row", index, "error", err)
			counter.Log(stats.CategoryErrors)
			recordRow(opts.Metrics, format, false)
			continue
		}
		counter.Log(stats.CategoryRows)
		recordRow(opts.Metrics, format, true)
	}

	cancelled := ctx.Err() != nil
	err = errors.Join(rows.flush(), dest.Close())
	if err != nil {
		logger.Error("cannot finish export", "error", err)
		return counter, NewExportError(format, path, "close", err)
	}

	switch {
	case cancelled:
		outcome = OutcomeCancelled
		logger.Info("export cancelled", "rows", counter.Value(stats.CategoryRows), "errors", counter.ErrorCount())
	case counter.HasErrors():
		outcome = OutcomePartial
		logger.Warn("export finished with errors", "rows", counter.Value(stats.CategoryRows), "errors", counter.ErrorCount())
	default:
		outcome = OutcomeOK
		logger.Debug("export finished", "rows", counter.Value(stats.CategoryRows))
	}
	return counter, nil
}

// next receives the next row unless ctx is done.
func next[T any](ctx context.Context, src <-chan T) (T, bool) {
	var zero T
	if ctx.Err() != nil {
		return zero, false
	}
	select {
	case <-ctx.Done():
		return zero, false
	case row, ok := <-src:
		return row, ok
	}
}

func recordRow(r Recorder, format Format, ok bool) {
	if r != nil {
		r.RecordRow(string(format), ok)
	}
}

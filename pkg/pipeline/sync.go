package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"mercator-hq/exportable/pkg/collection"
	"mercator-hq/exportable/pkg/record"
	"mercator-hq/exportable/pkg/store"
	"mercator-hq/exportable/pkg/telemetry/tracing"
)

// SyncOptions configures Sync.
type SyncOptions struct {
	// Type is the record type of the snapshot. It must define an index.
	Type *record.Type

	// Snapshot is the collection file. A missing file starts an empty
	// collection. The file is rewritten with a ".json" suffix.
	Snapshot string

	// Incoming provides the records merged into the snapshot.
	Incoming Source

	// Store, when set, receives every added and updated record.
	Store store.Store

	// DryRun computes the changes without writing the snapshot or store.
	DryRun bool

	// Logger defaults to slog.Default().
	Logger *slog.Logger

	// Metrics, when set, records the changes of a successful sync.
	Metrics SyncRecorder
}

// SyncRecorder receives sync measurements. It is implemented by the
// metrics collector.
type SyncRecorder interface {
	RecordSync(typeName string, added, updated int)
}

// SyncResult reports the changes of a Sync call.
type SyncResult struct {
	Added   []record.Key
	Updated []record.Key

	// Collection is the snapshot after the update.
	Collection *collection.Collection
}

// Sync loads the snapshot collection, updates it from the incoming records
// and persists the result. Incoming records with the same identity are
// merged in input order before the update.
func Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "pipeline.sync")
	span.SetAttributes(
		tracing.AttrType.String(opts.Type.Name()),
		tracing.AttrPath.String(opts.Snapshot),
		attribute.Bool("sync.dry_run", opts.DryRun),
	)
	result, err := syncSnapshot(ctx, opts)
	if result != nil {
		span.SetAttributes(
			tracing.AttrAdded.Int(len(result.Added)),
			tracing.AttrUpdated.Int(len(result.Updated)),
		)
	}
	tracing.End(span, err)
	return result, err
}

func syncSnapshot(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "pipeline.sync", "type", opts.Type.Name())

	path := ""
	snapshot, err := collection.New(opts.Type)
	if err != nil {
		return nil, err
	}
	if opts.Snapshot != "" {
		path = record.WithJSONSuffix(opts.Snapshot)
		loaded, err := collection.OpenJSON(opts.Type, path)
		switch {
		case err == nil:
			snapshot = loaded
		case errors.Is(err, fs.ErrNotExist):
			logger.Debug("no snapshot yet", "path", path)
		default:
			return nil, err
		}
	}

	incoming, err := collect(ctx, opts.Type, opts.Incoming)
	if err != nil {
		return nil, err
	}

	added, updated, err := snapshot.Update(incoming, true)
	if err != nil {
		return nil, err
	}
	result := &SyncResult{Added: added, Updated: updated, Collection: snapshot}

	if opts.DryRun {
		logger.Info("sync dry run", "added", len(added), "updated", len(updated))
		return result, nil
	}

	if path != "" {
		if _, err := snapshot.SaveJSON(path); err != nil {
			return result, err
		}
	}
	if opts.Store != nil {
		for _, keys := range [][]record.Key{added, updated} {
			for _, k := range keys {
				rec, _ := snapshot.Get(k)
				if err := opts.Store.Put(ctx, rec); err != nil {
					return result, err
				}
			}
		}
	}

	if opts.Metrics != nil {
		opts.Metrics.RecordSync(opts.Type.Name(), len(added), len(updated))
	}
	logger.Info("sync finished",
		"snapshot", path,
		"total", snapshot.Len(),
		"added", len(added),
		"updated", len(updated),
	)
	return result, nil
}

// collect reads src into a collection. Records sharing an identity are
// merged; later records win field by field.
func collect(ctx context.Context, typ *record.Type, src Source) (*collection.Collection, error) {
	out, err := collection.New(typ, collection.Unsorted())
	if err != nil {
		return nil, err
	}
	// Cancelling stops the source when the loop returns early.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	records, errs := src.Open(ctx)
	for rec := range records {
		k, err := rec.Identity()
		if err != nil {
			return nil, err
		}
		if existing, ok := out.Get(k); ok {
			if _, err := existing.Merge(rec, true); err != nil {
				return nil, fmt.Errorf("merge incoming %s: %w", k, err)
			}
			continue
		}
		if err := out.Add(rec); err != nil {
			return nil, err
		}
	}
	if err := <-errs; err != nil {
		return nil, fmt.Errorf("source %s: %w", src, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

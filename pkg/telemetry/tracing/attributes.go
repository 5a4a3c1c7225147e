package tracing

import "go.opentelemetry.io/otel/attribute"

// Span attribute keys.
const (
	AttrJob     = attribute.Key("exportable.job")
	AttrType    = attribute.Key("exportable.type")
	AttrTargets = attribute.Key("exportable.targets")
	AttrFormat  = attribute.Key("export.format")
	AttrPath    = attribute.Key("export.path")
	AttrRows    = attribute.Key("export.rows")
	AttrErrors  = attribute.Key("export.errors")
	AttrOutcome = attribute.Key("export.outcome")
	AttrAdded   = attribute.Key("sync.added")
	AttrUpdated = attribute.Key("sync.updated")
)

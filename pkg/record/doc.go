// Package record implements typed records with two renderings: a DB view
// shaped for persistence and a source view shaped for interchange.
//
// # Types and Records
//
// A Type is declared once with NewType and never changes afterwards. It
// lists the fields, the index fields that make up a record's identity, the
// view policy, the conversions from other record types and the renderer
// settings:
//
//	tank := record.MustType("tank", []record.Field{
//		{Name: "tank_id", Alias: "_id", Kind: record.KindInt, Required: true},
//		{Name: "name", Kind: record.KindString},
//		{Name: "tier", Kind: record.KindInt, Default: 1},
//	}, record.WithIndex("tank_id"))
//
// A Record tracks which fields were set explicitly. Unset fields report
// their default; the difference matters to the views and to Merge.
//
// # Views
//
// The DB view uses aliases and drops fields equal to their default. The
// source view uses field names and drops unset and null fields. Both are
// controlled by the type's Policy and can be narrowed per call:
//
//	rec.DumpJSON(record.ViewDB)
//	rec.DumpJSON(record.ViewSource, record.Exclude("name"))
//	rec.DumpJSON(record.ViewSource, record.Fields("tank_id", "tier"))
//
// Fields switches to include-only mode and disables suppression, so the
// literal value of every listed field is shown.
//
// # Identity and Merge
//
// Identity returns the Key built from the index fields, or ErrNoIdentity.
// Merge patches a record with the fields explicitly set on another record
// of the same identity, recursing into nested records:
//
//	changed, err := current.Merge(incoming, true)
//
// # Reading
//
// Read runs the type's Validator and decodes raw input; ReadVia first reads
// an intermediate type and applies the conversion registered for it.
// ReadMany keeps going past bad inputs and returns them in Batch.Rejected.
package record

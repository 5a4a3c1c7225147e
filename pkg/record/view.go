package record

import (
	"bytes"
	"fmt"
	"time"
)

// View selects one of the two renderings of a record.
type View int

const (
	// ViewDB is the persistence view: aliased names, defaults suppressed.
	ViewDB View = iota

	// ViewSource is the interchange view: field names, unset and null
	// fields suppressed.
	ViewSource
)

// String returns the view name.
func (v View) String() string {
	switch v {
	case ViewDB:
		return "db"
	case ViewSource:
		return "source"
	}
	return fmt.Sprintf("view(%d)", int(v))
}

// ParseView parses "db" or "source" ("src" is accepted too).
func ParseView(s string) (View, error) {
	switch s {
	case "db", "DB":
		return ViewDB, nil
	case "source", "src", "":
		return ViewSource, nil
	}
	return 0, fmt.Errorf("unknown view %q", s)
}

// DumpOption adjusts the field filter of a single dump call.
type DumpOption func(*dumpOptions)

type dumpOptions struct {
	fields    []string
	hasFields bool
	include   []string
	exclude   []string
}

// Fields restricts the dump to exactly these fields and turns off every
// suppression rule, so the literal values are shown.
func Fields(names ...string) DumpOption {
	return func(o *dumpOptions) {
		o.fields = append(o.fields, names...)
		o.hasFields = true
	}
}

// Include adds fields to the view's include list for this call.
func Include(names ...string) DumpOption {
	return func(o *dumpOptions) {
		o.include = append(o.include, names...)
	}
}

// Exclude adds fields to the view's exclude list for this call.
func Exclude(names ...string) DumpOption {
	return func(o *dumpOptions) {
		o.exclude = append(o.exclude, names...)
	}
}

// dumpParams is the effective filter of one dump call. It is built fresh
// for every call from the type policy and never written back.
type dumpParams struct {
	include         map[string]bool
	exclude         map[string]bool
	byAlias         bool
	excludeDefaults bool
	excludeUnset    bool
	excludeNone     bool
}

func (t *Type) dumpParams(view View, opts []DumpOption) dumpParams {
	var o dumpOptions
	for _, opt := range opts {
		opt(&o)
	}

	var p dumpParams
	var include, exclude []string
	switch view {
	case ViewDB:
		include, exclude = t.policy.DBInclude, t.policy.DBExclude
		p.byAlias = t.policy.DBByAlias
		p.excludeDefaults = t.policy.ExcludeDefaults
	default:
		include, exclude = t.policy.SourceInclude, t.policy.SourceExclude
		p.byAlias = !t.policy.DBByAlias
		p.excludeUnset = t.policy.ExcludeUnset
		p.excludeNone = t.policy.ExcludeNone
	}

	if o.hasFields {
		p.include = toSet(o.fields)
		p.excludeDefaults = false
		p.excludeUnset = false
		p.excludeNone = false
		return p
	}

	if include != nil || o.include != nil {
		p.include = toSet(include, o.include)
	}
	if exclude != nil || o.exclude != nil {
		p.exclude = toSet(exclude, o.exclude)
	}
	return p
}

func toSet(lists ...[]string) map[string]bool {
	set := make(map[string]bool)
	for _, l := range lists {
		for _, s := range l {
			set[s] = true
		}
	}
	return set
}

// object is a JSON object that keeps its key order.
type object struct {
	keys   []string
	values []any
}

func (o *object) set(key string, v any) {
	o.keys = append(o.keys, key)
	o.values = append(o.values, v)
}

// MarshalJSON writes the keys in insertion order.
func (o *object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range o.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := marshalCompact(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := marshalCompact(o.values[i])
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (o *object) toMap() map[string]any {
	m := make(map[string]any, len(o.keys))
	for i, k := range o.keys {
		m[k] = plain(o.values[i])
	}
	return m
}

func plain(v any) any {
	if nested, ok := v.(*object); ok {
		return nested.toMap()
	}
	return v
}

func (r *Record) dump(p dumpParams) *object {
	out := &object{}
	for _, f := range r.typ.fields {
		if p.include != nil && !p.include[f.Name] {
			continue
		}
		if p.exclude[f.Name] {
			continue
		}
		v, set := r.values[f.Name]
		if !set {
			if p.excludeUnset {
				continue
			}
			v = f.Default
		}
		if p.excludeNone && v == nil {
			continue
		}
		if p.excludeDefaults && valuesEqual(v, f.Default) {
			continue
		}
		out.set(f.key(p.byAlias), viewValue(v, p))
	}
	return out
}

// viewValue converts a canonical value to its JSON-ready form. Nested
// records inherit the suppression flags but not the include/exclude sets.
func viewValue(v any, p dumpParams) any {
	switch cv := v.(type) {
	case *Record:
		nested := p
		nested.include = nil
		nested.exclude = nil
		return cv.dump(nested)
	case []any:
		out := make([]any, len(cv))
		for i, e := range cv {
			out[i] = viewValue(e, p)
		}
		return out
	case time.Time:
		return cv.Format(time.RFC3339Nano)
	}
	return v
}

// jsonValue renders a canonical value with the source view rules.
func jsonValue(v any) any {
	if rec, ok := v.(*Record); ok {
		return rec.dump(rec.typ.dumpParams(ViewSource, nil))
	}
	return viewValue(v, dumpParams{})
}

// Dump renders the record in the given view as a map keyed by the view's
// field names.
func (r *Record) Dump(view View, opts ...DumpOption) map[string]any {
	return r.dump(r.typ.dumpParams(view, opts)).toMap()
}

// DumpJSON renders the record in the given view as compact JSON with
// fields in declaration order.
func (r *Record) DumpJSON(view View, opts ...DumpOption) ([]byte, error) {
	data, err := r.dump(r.typ.dumpParams(view, opts)).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("%s %s view: %w", r.typ.name, view, err)
	}
	return data, nil
}

// MarshalJSON renders the source view.
func (r *Record) MarshalJSON() ([]byte, error) {
	return r.DumpJSON(ViewSource)
}

package record

import (
	"fmt"
	"time"
)

// Record is one value of a record type. A field is set when it was given a
// value explicitly (by Read, Set or SetUnchecked); unset fields report their
// default.
//
// A Record is not safe for concurrent mutation.
type Record struct {
	typ    *Type
	values map[string]any
}

// Type returns the record type.
func (r *Record) Type() *Type {
	return r.typ
}

// IsSet reports whether name was set explicitly.
func (r *Record) IsSet(name string) bool {
	_, ok := r.values[name]
	return ok
}

// FieldsSet returns the explicitly set field names in declaration order.
func (r *Record) FieldsSet() []string {
	out := make([]string, 0, len(r.values))
	for _, f := range r.typ.fields {
		if _, ok := r.values[f.Name]; ok {
			out = append(out, f.Name)
		}
	}
	return out
}

// Get returns the effective value of name: the set value, else the default.
// The second result is false when the type has no such field.
func (r *Record) Get(name string) (any, bool) {
	i, ok := r.typ.byName[name]
	if !ok {
		return nil, false
	}
	if v, ok := r.values[name]; ok {
		return v, true
	}
	return r.typ.fields[i].Default, true
}

// Value is Get without the presence flag.
func (r *Record) Value(name string) any {
	v, _ := r.Get(name)
	return v
}

// GetString returns the effective value of a string field, "" otherwise.
func (r *Record) GetString(name string) string {
	s, _ := r.Value(name).(string)
	return s
}

// GetInt returns the effective value of an int field, 0 otherwise.
func (r *Record) GetInt(name string) int64 {
	i, _ := r.Value(name).(int64)
	return i
}

// GetFloat returns the effective value of a float field, 0 otherwise.
func (r *Record) GetFloat(name string) float64 {
	f, _ := r.Value(name).(float64)
	return f
}

// GetBool returns the effective value of a bool field, false otherwise.
func (r *Record) GetBool(name string) bool {
	b, _ := r.Value(name).(bool)
	return b
}

// GetTime returns the effective value of a time field, zero otherwise.
func (r *Record) GetTime(name string) time.Time {
	t, _ := r.Value(name).(time.Time)
	return t
}

// GetRecord returns the effective value of a record field, nil otherwise.
func (r *Record) GetRecord(name string) *Record {
	n, _ := r.Value(name).(*Record)
	return n
}

// Set coerces v to the field kind and marks the field set.
func (r *Record) Set(name string, v any) error {
	i, ok := r.typ.byName[name]
	if !ok {
		return fmt.Errorf("%s.%s: %w", r.typ.name, name, ErrUnknownField)
	}
	f := r.typ.fields[i]
	if v == nil {
		if !f.Nullable {
			return fmt.Errorf("%s.%s: field is not nullable", r.typ.name, name)
		}
		r.values[name] = nil
		return nil
	}
	cv, err := coerce(f, v)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", r.typ.name, name, err)
	}
	r.values[name] = cv
	return nil
}

// SetUnchecked assigns v and marks the field set without coercion or
// nullability checks. v must already be a canonical value of the field
// kind, for example a value taken from another record of the same type.
// Unknown field names are ignored.
func (r *Record) SetUnchecked(name string, v any) {
	if _, ok := r.typ.byName[name]; !ok {
		return
	}
	r.values[name] = v
}

// Unset clears an explicit value so the field reports its default again.
func (r *Record) Unset(name string) {
	delete(r.values, name)
}

// Clone returns a deep copy. Nested records and lists are copied.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := &Record{typ: r.typ, values: make(map[string]any, len(r.values))}
	for k, v := range r.values {
		out.values[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch cv := v.(type) {
	case *Record:
		return cv.Clone()
	case []any:
		out := make([]any, len(cv))
		copy(out, cv)
		return out
	}
	return v
}

// Equal compares the effective value of every field. Set and unset fields
// holding the same value are equal.
func Equal(a, b *Record) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.typ != b.typ {
		return false
	}
	for _, f := range a.typ.fields {
		if !valuesEqual(a.Value(f.Name), b.Value(f.Name)) {
			return false
		}
	}
	return true
}

// coerce converts v to the canonical value of field f. v must not be nil.
func coerce(f Field, v any) (any, error) {
	switch f.Kind {
	case KindRecord:
		switch nv := v.(type) {
		case *Record:
			if nv.typ != f.Type {
				return nil, fmt.Errorf("%w: expected %s, got %s", ErrTypeMismatch, f.Type.name, nv.typ.name)
			}
			return nv.Clone(), nil
		case map[string]any:
			rec, err := f.Type.decode(f.Type.normalize(nv), "")
			if err != nil {
				return nil, err
			}
			return rec, nil
		}
		return nil, fmt.Errorf("expected object, got %s", describe(v))
	case KindList:
		list, ok := toList(v)
		if !ok {
			return nil, fmt.Errorf("expected array, got %s", describe(v))
		}
		out := make([]any, len(list))
		for i, e := range list {
			ce, err := coerceScalar(f.Elem, e)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = ce
		}
		return out, nil
	}
	return coerceScalar(f.Kind, v)
}

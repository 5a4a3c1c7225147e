package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// Validator checks a raw value against a record type before it is decoded.
// raw is keyed by field name (aliases already resolved, unknown keys
// dropped). Implementations report failures as *ValidationError.
type Validator interface {
	Validate(t *Type, raw map[string]any) error
}

// ValidatorFunc adapts a function to Validator.
type ValidatorFunc func(t *Type, raw map[string]any) error

// Validate calls f.
func (f ValidatorFunc) Validate(t *Type, raw map[string]any) error {
	return f(t, raw)
}

// Rejection is one input ReadMany or TransformMany could not turn into a
// record.
type Rejection struct {
	Index int
	Input any
	Err   error
}

// Batch is the outcome of reading many inputs. Records keeps input order;
// inputs that failed are only listed in Rejected.
type Batch struct {
	Records  []*Record
	Rejected []Rejection
}

// Read validates raw and decodes it into a record. raw may be a
// map[string]any, JSON text ([]byte, string, json.RawMessage), a *Record of
// this type (returned as a clone) or any value that marshals to a JSON
// object. Keys may be field names or aliases; unknown keys are ignored.
// Every failure is returned as *ReadError.
func (t *Type) Read(raw any) (*Record, error) {
	if rec, ok := raw.(*Record); ok {
		if rec.typ == t {
			return rec.Clone(), nil
		}
		return nil, NewReadError(t.name, "", fmt.Errorf("%w: got %s record, use a conversion", ErrTypeMismatch, rec.typ.name))
	}

	m, err := toMap(raw)
	if err != nil {
		return nil, NewReadError(t.name, "", err)
	}

	normalized := t.normalize(m)
	if t.validator != nil {
		if err := t.validator.Validate(t, normalized); err != nil {
			return nil, NewReadError(t.name, "", err)
		}
	}

	rec, err := t.decode(normalized, "")
	if err != nil {
		return nil, NewReadError(t.name, "", err)
	}
	return rec, nil
}

// ReadVia reads raw as a via record, then converts it with the conversion
// registered for via. A nil via is plain Read.
func (t *Type) ReadVia(via *Type, raw any) (*Record, error) {
	if via == nil || via == t {
		return t.Read(raw)
	}
	src, err := via.Read(raw)
	if err != nil {
		return nil, NewReadError(t.name, via.name, err)
	}
	return t.Transform(src)
}

// Transform converts src using the conversion registered under src's type
// name. A record of this type is returned as is.
func (t *Type) Transform(src *Record) (*Record, error) {
	if src == nil {
		return nil, NewReadError(t.name, "", errors.New("nil record"))
	}
	if src.typ == t {
		return src, nil
	}
	conv, ok := t.conversions[src.typ.name]
	if !ok {
		return nil, NewReadError(t.name, src.typ.name, ErrNoConversion)
	}
	out, err := conv(src)
	if err != nil {
		return nil, NewReadError(t.name, src.typ.name, err)
	}
	if out == nil {
		return nil, NewReadError(t.name, src.typ.name, errors.New("conversion produced no record"))
	}
	if out.typ != t {
		return nil, NewReadError(t.name, src.typ.name, fmt.Errorf("%w: conversion produced %s", ErrTypeMismatch, out.typ.name))
	}
	return out, nil
}

// ReadMany reads every input, optionally through via. Inputs that fail are
// dropped from Records and listed in Rejected.
func (t *Type) ReadMany(raws []any, via *Type) Batch {
	var b Batch
	for i, raw := range raws {
		rec, err := t.ReadVia(via, raw)
		if err != nil {
			logReject(t, i, err)
			b.Rejected = append(b.Rejected, Rejection{Index: i, Input: raw, Err: err})
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b
}

// TransformMany converts every record; failures are dropped from Records
// and listed in Rejected.
func (t *Type) TransformMany(srcs []*Record) Batch {
	var b Batch
	for i, src := range srcs {
		rec, err := t.Transform(src)
		if err != nil {
			logReject(t, i, err)
			b.Rejected = append(b.Rejected, Rejection{Index: i, Input: src, Err: err})
			continue
		}
		b.Records = append(b.Records, rec)
	}
	return b
}

func logReject(t *Type, index int, err error) {
	slog.Default().With("component", "record").Debug("input rejected",
		"type", t.name,
		"index", index,
		"error", err,
	)
}

// toMap turns the accepted raw shapes into a JSON object. Numbers decoded
// from JSON text are kept as json.Number.
func toMap(raw any) (map[string]any, error) {
	switch v := raw.(type) {
	case nil:
		return nil, errors.New("input is null")
	case map[string]any:
		return v, nil
	case []byte:
		return decodeObject(v)
	case json.RawMessage:
		return decodeObject(v)
	case string:
		return decodeObject([]byte(v))
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("input of type %T: %w", raw, err)
	}
	return decodeObject(data)
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	if dec.More() {
		return nil, errors.New("invalid JSON: trailing data after object")
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %s", describe(v))
	}
	return m, nil
}

// normalize maps aliases to field names and drops unknown keys. A field
// name wins over its alias when both are present.
func (t *Type) normalize(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if i, ok := t.byAlias[k]; ok {
			name := t.fields[i].Name
			if _, dup := m[name]; !dup {
				out[name] = v
			}
			continue
		}
		if _, ok := t.byName[k]; ok {
			out[k] = v
		}
	}
	return out
}

// decode builds a record from a normalized map, collecting every field
// error.
func (t *Type) decode(m map[string]any, prefix string) (*Record, error) {
	rec := t.New()
	var errs []FieldError

	for _, f := range t.fields {
		v, present := m[f.Name]
		path := prefix + f.Name
		if !present {
			if f.Required {
				errs = append(errs, FieldError{Path: path, Message: "field is required"})
			}
			continue
		}
		if v == nil {
			if !f.Nullable {
				errs = append(errs, FieldError{Path: path, Message: "field is not nullable"})
				continue
			}
			rec.values[f.Name] = nil
			continue
		}
		if f.Kind == KindRecord {
			if sub, ok := v.(map[string]any); ok {
				nested, err := f.Type.decode(f.Type.normalize(sub), path+".")
				if err != nil {
					var verr *ValidationError
					if errors.As(err, &verr) {
						errs = append(errs, verr.Errors...)
						continue
					}
					errs = append(errs, FieldError{Path: path, Message: err.Error()})
					continue
				}
				rec.values[f.Name] = nested
				continue
			}
		}
		cv, err := coerce(f, v)
		if err != nil {
			errs = append(errs, FieldError{Path: path, Message: err.Error()})
			continue
		}
		rec.values[f.Name] = cv
	}

	if len(errs) > 0 {
		return nil, NewValidationError(t.name, errs...)
	}
	return rec, nil
}

package collection

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"mercator-hq/exportable/pkg/record"
)

// DumpJSON renders the collection as one JSON object keyed by identity, each
// member in the given view. Members follow iteration order, one per line.
// An empty collection is "{}".
func (c *Collection) DumpJSON(view record.View, opts ...record.DumpOption) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range c.entriesInOrder() {
		data, err := e.rec.DumpJSON(view, opts...)
		if err != nil {
			return nil, err
		}
		if !json.Valid(data) {
			return nil, fmt.Errorf("%s %s: member rendered invalid JSON", c.typ.Name(), e.key)
		}
		key, err := json.Marshal(e.key.String())
		if err != nil {
			return nil, err
		}
		if i > 0 {
			buf.WriteString(",\n")
		}
		buf.Write(key)
		buf.WriteString(": ")
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Dump renders every member in the given view, keyed by identity.
func (c *Collection) Dump(view record.View, opts ...record.DumpOption) map[string]any {
	out := make(map[string]any, c.Len())
	for _, e := range c.entriesInOrder() {
		out[e.key.String()] = e.rec.Dump(view, opts...)
	}
	return out
}

// MarshalJSON renders the source view.
func (c *Collection) MarshalJSON() ([]byte, error) {
	return c.DumpJSON(record.ViewSource)
}

// FromJSON reads a collection written by DumpJSON in either view. Members
// are keyed by their own identity; the object keys are not trusted.
func FromJSON(typ *record.Type, data []byte, opts ...Option) (*Collection, error) {
	c, err := New(typ, opts...)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("%s collection: %w", typ.Name(), err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("%s collection: expected JSON object", typ.Name())
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("%s collection: %w", typ.Name(), err)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("%s collection: %w", typ.Name(), err)
		}
		rec, err := typ.Read(raw)
		if err != nil {
			return nil, err
		}
		if err := c.Add(rec); err != nil {
			return nil, err
		}
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("%s collection: %w", typ.Name(), err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s collection: trailing data after object", typ.Name())
	}
	return c, nil
}

// SaveJSON writes the source view to path with a ".json" extension and
// returns the number of bytes written.
func (c *Collection) SaveJSON(path string) (int, error) {
	data, err := c.DumpJSON(record.ViewSource)
	if err != nil {
		return 0, err
	}
	path = record.WithJSONSuffix(path)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("save %s: %w", path, err)
	}
	return len(data), nil
}

// OpenJSON reads a collection saved with SaveJSON.
func OpenJSON(typ *record.Type, path string, opts ...Option) (*Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return FromJSON(typ, data, opts...)
}

package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"mercator-hq/exportable/pkg/record"
)

// File is a YAML document of record type definitions.
type File struct {
	Types []TypeDef `yaml:"types"`
}

// TypeDef declares one record type.
type TypeDef struct {
	// Name is the type name, also the tag conversions are registered under.
	Name string `yaml:"name"`

	// Index lists the identity fields. Optional.
	Index []string `yaml:"index"`

	// Fields in declaration order.
	Fields []FieldDef `yaml:"fields"`

	// Columns lists the CSV columns. Default: every non-record field.
	Columns []string `yaml:"columns"`

	// Policy overrides the default view policy.
	Policy *PolicyDef `yaml:"policy"`

	// Text maps format hints to text/template row formats.
	Text map[string]string `yaml:"text"`

	// Conversions from other types into this one.
	Conversions []ConversionDef `yaml:"conversions"`
}

// FieldDef declares one field.
type FieldDef struct {
	Name     string `yaml:"name"`
	Alias    string `yaml:"alias"`
	Kind     string `yaml:"kind"`
	Elem     string `yaml:"elem"` // list element kind
	Type     string `yaml:"type"` // nested record type name
	Default  any    `yaml:"default"`
	Required bool   `yaml:"required"`
	Nullable bool   `yaml:"nullable"`
}

// PolicyDef mirrors record.Policy. Unset flags keep their default.
type PolicyDef struct {
	DBInclude       []string `yaml:"db_include"`
	DBExclude       []string `yaml:"db_exclude"`
	SourceInclude   []string `yaml:"source_include"`
	SourceExclude   []string `yaml:"source_exclude"`
	DBByAlias       *bool    `yaml:"db_by_alias"`
	ExcludeDefaults *bool    `yaml:"exclude_defaults"`
	ExcludeUnset    *bool    `yaml:"exclude_unset"`
	ExcludeNone     *bool    `yaml:"exclude_none"`
}

// ConversionDef maps fields of a source type onto this type. Fields maps
// target field names to source field names; with Copy, fields present under
// the same name in both types are carried over too.
type ConversionDef struct {
	From   string            `yaml:"from"`
	Fields map[string]string `yaml:"fields"`
	Copy   bool              `yaml:"copy"`
}

// Parse decodes a definitions document. Unknown keys are rejected.
func Parse(r io.Reader) (*File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &f, nil
		}
		return nil, fmt.Errorf("failed to parse type definitions: %w", err)
	}
	return &f, nil
}

// LoadFile parses the definitions in path and registers them with a new
// registry.
func LoadFile(path string, v record.Validator) (*Registry, error) {
	return LoadFiles([]string{path}, v)
}

// LoadFiles registers the definitions of every file in paths, in order,
// with a new registry. Types may use nested types of earlier files.
func LoadFiles(paths []string, v record.Validator) (*Registry, error) {
	reg := NewRegistry()
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read type definitions %q: %w", path, err)
		}
		f, err := Parse(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if err := reg.Define(f, v); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return reg, nil
}

// Define builds every type of f and registers it. Nested record types are
// built before the types that use them and may also come from types
// registered earlier. v is attached to every type; it may be nil.
func (r *Registry) Define(f *File, v record.Validator) error {
	defs := make(map[string]*TypeDef, len(f.Types))
	for i := range f.Types {
		def := &f.Types[i]
		if def.Name == "" {
			return NewDefinitionError(fmt.Sprintf("types[%d]", i), "name is required")
		}
		if _, dup := defs[def.Name]; dup {
			return NewDefinitionError(def.Name, "defined twice")
		}
		if _, exists := r.lookup(def.Name); exists {
			return NewDefinitionError(def.Name, "already registered")
		}
		defs[def.Name] = def
	}

	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int, len(defs))

	var build func(name, from string) error
	build = func(name, from string) error {
		if _, ok := r.lookup(name); ok && state[name] == 0 {
			return nil
		}
		def, ok := defs[name]
		if !ok {
			return NewDefinitionError(from, fmt.Sprintf("unknown nested type %q", name))
		}
		switch state[name] {
		case visiting:
			return NewDefinitionError(name, "nested type cycle")
		case done:
			return nil
		}
		state[name] = visiting
		for _, fd := range def.Fields {
			if fd.Type != "" {
				if err := build(fd.Type, name); err != nil {
					return err
				}
			}
		}
		t, err := r.buildType(def, v)
		if err != nil {
			return err
		}
		state[name] = done
		return r.Register(t)
	}

	for _, def := range f.Types {
		if err := build(def.Name, def.Name); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) buildType(def *TypeDef, v record.Validator) (*record.Type, error) {
	fields := make([]record.Field, 0, len(def.Fields))
	for _, fd := range def.Fields {
		f, err := r.buildField(def.Name, fd)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}

	var opts []record.TypeOption
	if len(def.Index) > 0 {
		opts = append(opts, record.WithIndex(def.Index...))
	}
	if len(def.Columns) > 0 {
		opts = append(opts, record.WithColumns(def.Columns...))
	}
	if def.Policy != nil {
		opts = append(opts, record.WithPolicy(def.Policy.policy()))
	}
	for hint, tmpl := range def.Text {
		opts = append(opts, record.WithTextFormat(hint, tmpl))
	}
	if v != nil {
		opts = append(opts, record.WithValidator(v))
	}

	// Conversions read into the type being built, which only exists once
	// NewType returns.
	var target *record.Type
	for _, cd := range def.Conversions {
		if cd.From == "" {
			return nil, NewDefinitionError(def.Name, "conversion without from")
		}
		opts = append(opts, record.WithConversion(cd.From, mappedConversion(&target, cd)))
	}

	t, err := record.NewType(def.Name, fields, opts...)
	if err != nil {
		return nil, NewDefinitionError(def.Name, err.Error())
	}
	target = t
	return t, nil
}

func (r *Registry) buildField(typeName string, fd FieldDef) (record.Field, error) {
	where := typeName + "." + fd.Name
	kind := record.KindString
	if fd.Kind != "" {
		k, err := record.ParseKind(fd.Kind)
		if err != nil {
			return record.Field{}, NewDefinitionError(where, err.Error())
		}
		kind = k
	}
	if fd.Type != "" && fd.Kind == "" {
		kind = record.KindRecord
	}

	f := record.Field{
		Name:     fd.Name,
		Alias:    fd.Alias,
		Kind:     kind,
		Default:  fd.Default,
		Required: fd.Required,
		Nullable: fd.Nullable,
	}
	switch kind {
	case record.KindList:
		elem := record.KindString
		if fd.Elem != "" {
			k, err := record.ParseKind(fd.Elem)
			if err != nil {
				return record.Field{}, NewDefinitionError(where, err.Error())
			}
			elem = k
		}
		f.Elem = elem
	case record.KindRecord:
		nested, ok := r.lookup(fd.Type)
		if !ok {
			return record.Field{}, NewDefinitionError(where, fmt.Sprintf("unknown nested type %q", fd.Type))
		}
		f.Type = nested
	}
	return f, nil
}

// mappedConversion reads the mapped source values into *target.
func mappedConversion(target **record.Type, cd ConversionDef) record.Conversion {
	return func(src *record.Record) (*record.Record, error) {
		t := *target
		raw := make(map[string]any)
		if cd.Copy {
			for _, f := range t.Fields() {
				if src.IsSet(f.Name) {
					raw[f.Name] = src.Value(f.Name)
				}
			}
		}
		for to, from := range cd.Fields {
			if _, ok := src.Type().Field(from); !ok {
				return nil, fmt.Errorf("conversion from %s: %w: %q", cd.From, record.ErrUnknownField, from)
			}
			if v := src.Value(from); v != nil || src.IsSet(from) {
				raw[to] = v
			}
		}
		return t.Read(raw)
	}
}

func (p *PolicyDef) policy() record.Policy {
	out := record.DefaultPolicy()
	out.DBInclude = p.DBInclude
	out.DBExclude = p.DBExclude
	out.SourceInclude = p.SourceInclude
	out.SourceExclude = p.SourceExclude
	if p.DBByAlias != nil {
		out.DBByAlias = *p.DBByAlias
	}
	if p.ExcludeDefaults != nil {
		out.ExcludeDefaults = *p.ExcludeDefaults
	}
	if p.ExcludeUnset != nil {
		out.ExcludeUnset = *p.ExcludeUnset
	}
	if p.ExcludeNone != nil {
		out.ExcludeNone = *p.ExcludeNone
	}
	return out
}

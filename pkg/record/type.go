package record

import (
	"fmt"
	"sort"
	"text/template"
)

// Field describes one attribute of a record type.
type Field struct {
	// Name is the field name used by the source view and by Get/Set.
	Name string

	// Alias is the field name used by the aliased view. Empty means Name.
	Alias string

	// Kind is the value kind.
	Kind Kind

	// Elem is the element kind of a KindList field. Must be scalar.
	Elem Kind

	// Type is the nested record type of a KindRecord field.
	Type *Type

	// Default is the value an unset field reports. Nil means null.
	Default any

	// Required fields must be present in raw input.
	Required bool

	// Nullable fields accept an explicit null.
	Nullable bool
}

// key returns the name used in a view.
func (f Field) key(byAlias bool) string {
	if byAlias && f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Policy controls which fields each view emits. A Policy is copied into its
// Type at construction and never changes afterwards.
type Policy struct {
	DBInclude     []string
	DBExclude     []string
	SourceInclude []string
	SourceExclude []string

	// DBByAlias selects aliased names for the DB view. The source view
	// uses the opposite setting.
	DBByAlias bool

	// ExcludeDefaults drops default-valued fields from the DB view.
	ExcludeDefaults bool

	// ExcludeUnset drops unset fields from the source view.
	ExcludeUnset bool

	// ExcludeNone drops null fields from the source view.
	ExcludeNone bool
}

// DefaultPolicy returns the policy record types start with.
func DefaultPolicy() Policy {
	return Policy{
		DBByAlias:       true,
		ExcludeDefaults: true,
		ExcludeUnset:    true,
		ExcludeNone:     true,
	}
}

func (p Policy) clone() Policy {
	p.DBInclude = append([]string(nil), p.DBInclude...)
	p.DBExclude = append([]string(nil), p.DBExclude...)
	p.SourceInclude = append([]string(nil), p.SourceInclude...)
	p.SourceExclude = append([]string(nil), p.SourceExclude...)
	return p
}

// Conversion turns a record of another type into a record of the target
// type. Returning a nil record rejects the input.
type Conversion func(src *Record) (*Record, error)

// Type is an immutable record type: fields, identity, view policy,
// conversions and renderer settings.
type Type struct {
	name        string
	fields      []Field
	byName      map[string]int
	byAlias     map[string]int
	index       []string
	policy      Policy
	validator   Validator
	conversions map[string]Conversion
	columns     []string
	text        map[string]*template.Template
}

// TypeOption configures a Type during NewType.
type TypeOption func(*Type) error

// WithIndex sets the identity fields.
func WithIndex(fields ...string) TypeOption {
	return func(t *Type) error {
		for _, f := range fields {
			fi, ok := t.byName[f]
			if !ok {
				return fmt.Errorf("index field %q: %w", f, ErrUnknownField)
			}
			if !t.fields[fi].Kind.Scalar() {
				return fmt.Errorf("index field %q must be scalar, is %s", f, t.fields[fi].Kind)
			}
		}
		t.index = append([]string(nil), fields...)
		return nil
	}
}

// WithPolicy sets the view policy.
func WithPolicy(p Policy) TypeOption {
	return func(t *Type) error {
		t.policy = p.clone()
		return nil
	}
}

// WithValidator sets the validation collaborator used by Read.
func WithValidator(v Validator) TypeOption {
	return func(t *Type) error {
		t.validator = v
		return nil
	}
}

// WithConversion registers the conversion applied to records whose type is
// named from.
func WithConversion(from string, fn Conversion) TypeOption {
	return func(t *Type) error {
		if fn == nil {
			return fmt.Errorf("conversion from %q is nil", from)
		}
		if _, dup := t.conversions[from]; dup {
			return fmt.Errorf("conversion from %q registered twice", from)
		}
		t.conversions[from] = fn
		return nil
	}
}

// WithColumns sets the CSV columns.
func WithColumns(columns ...string) TypeOption {
	return func(t *Type) error {
		for _, c := range columns {
			if _, ok := t.byName[c]; !ok {
				return fmt.Errorf("column %q: %w", c, ErrUnknownField)
			}
		}
		t.columns = append([]string(nil), columns...)
		return nil
	}
}

// WithTextFormat registers a text/template rendering for a format hint. The
// template receives the effective field values keyed by field name.
func WithTextFormat(hint, tmpl string) TypeOption {
	return func(t *Type) error {
		parsed, err := template.New(t.name + "/" + hint).Option("missingkey=zero").Parse(tmpl)
		if err != nil {
			return fmt.Errorf("text format %q: %w", hint, err)
		}
		t.text[hint] = parsed
		return nil
	}
}

// NewType creates a record type. Field defaults are coerced to the field
// kind here so that every default is a canonical value.
func NewType(name string, fields []Field, opts ...TypeOption) (*Type, error) {
	if name == "" {
		return nil, fmt.Errorf("record type name is required")
	}

	t := &Type{
		name:        name,
		fields:      make([]Field, len(fields)),
		byName:      make(map[string]int, len(fields)),
		byAlias:     make(map[string]int, len(fields)),
		policy:      DefaultPolicy(),
		conversions: make(map[string]Conversion),
		text:        make(map[string]*template.Template),
	}

	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: field %d has no name", name, i)
		}
		if _, dup := t.byName[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate field %q", name, f.Name)
		}
		switch f.Kind {
		case KindRecord:
			if f.Type == nil {
				return nil, fmt.Errorf("%s.%s: record field needs a nested type", name, f.Name)
			}
		case KindList:
			if !f.Elem.Scalar() {
				return nil, fmt.Errorf("%s.%s: list elements must be scalar", name, f.Name)
			}
		}
		if f.Default != nil {
			def, err := coerce(f, f.Default)
			if err != nil {
				return nil, fmt.Errorf("%s.%s: default: %w", name, f.Name, err)
			}
			f.Default = def
		}
		t.fields[i] = f
		t.byName[f.Name] = i
		if f.Alias != "" {
			if _, dup := t.byAlias[f.Alias]; dup {
				return nil, fmt.Errorf("%s: duplicate alias %q", name, f.Alias)
			}
			t.byAlias[f.Alias] = i
		}
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if t.columns == nil {
		for _, f := range t.fields {
			if f.Kind != KindRecord {
				t.columns = append(t.columns, f.Name)
			}
		}
	}

	return t, nil
}

// MustType is NewType that panics on error. Intended for package-level type
// declarations.
func MustType(name string, fields []Field, opts ...TypeOption) *Type {
	t, err := NewType(name, fields, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the type name. It doubles as the tag conversions are
// registered under.
func (t *Type) Name() string {
	return t.name
}

// Fields returns a copy of the field list.
func (t *Type) Fields() []Field {
	out := make([]Field, len(t.fields))
	copy(out, t.fields)
	return out
}

// Field looks up a field by name.
func (t *Type) Field(name string) (Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return Field{}, false
	}
	return t.fields[i], true
}

// Index returns the identity field names.
func (t *Type) Index() []string {
	return append([]string(nil), t.index...)
}

// HasIdentity reports whether the type defines an index.
func (t *Type) HasIdentity() bool {
	return len(t.index) > 0
}

// Policy returns a copy of the view policy.
func (t *Type) Policy() Policy {
	return t.policy.clone()
}

// Columns returns the CSV columns.
func (t *Type) Columns() []string {
	return append([]string(nil), t.columns...)
}

// Conversions returns the source type names with a registered conversion.
func (t *Type) Conversions() []string {
	out := make([]string, 0, len(t.conversions))
	for from := range t.conversions {
		out = append(out, from)
	}
	sort.Strings(out)
	return out
}

// New returns an empty record of the type with every field unset.
func (t *Type) New() *Record {
	return &Record{typ: t, values: make(map[string]any)}
}
